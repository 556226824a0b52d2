package client

import "context"

type PaymentGateway interface {
	Name() string
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, req *VerifyRequest) (*Verification, error)
}

// NonceCharger is implemented by gateways whose checkout ends with a client-side
// payment nonce that the server must charge.
type NonceCharger interface {
	ChargeNonce(ctx context.Context, req *ChargeRequest) (string, error)
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyRequest struct {
	Reference     string
	TransactionID string
}

type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationFailed  VerificationStatus = "failed"
	// customer has not finished paying yet
	VerificationPending VerificationStatus = "pending"
)

type Verification struct {
	Status        VerificationStatus
	TransactionID string
	AmountMinor   int64
	Currency      string
	Raw           []byte
}

type ChargeRequest struct {
	Nonce       string
	AmountMinor int64
	Reference   string
}
