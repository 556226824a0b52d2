package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Claims is the bearer token payload issued by the identity provider.
type Claims struct {
	Role  model.Role `json:"role"`
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware requires an HS256 bearer token and stores the caller as a model.Principal.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenStr, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || tokenStr == "" {
				return apperr.Unauthorized("missing or invalid token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apperr.Unauthorized("token expired")
				}
				return apperr.Unauthorized("invalid token")
			}
			if claims.Subject == "" {
				return apperr.Unauthorized("invalid claims")
			}

			role := claims.Role
			if role == "" {
				role = model.RoleCustomer
			}
			c.Set(principalKey, model.Principal{
				ID:    claims.Subject,
				Role:  role,
				Name:  claims.Name,
				Email: claims.Email,
			})
			return next(c)
		}
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return apperr.Unauthorized("missing or invalid token")
			}
			if !slices.Contains(roles, p.Role) {
				return apperr.Forbidden("requires role %s", joinRoles(roles))
			}
			return next(c)
		}
	}
}

func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// IssueToken signs a token for p. Used by tests and local tooling.
func IssueToken(secret string, p model.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:  p.Role,
		Name:  p.Name,
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func joinRoles(roles []model.Role) string {
	s := make([]string, len(roles))
	for i, r := range roles {
		s[i] = string(r)
	}
	return strings.Join(s, " or ")
}
