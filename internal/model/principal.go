package model

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated caller supplied by the auth layer.
type Principal struct {
	ID    string
	Role  Role
	Name  string
	Email string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) DisplayName() string {
	if p.Name == "" {
		return "A customer"
	}
	return p.Name
}
