// Package auth verifies operator tokens. Tokens are issued by the identity
// provider; this service only checks them.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/infrastructure/config"
)

// Roles carried by operator tokens
const (
	RoleOperator   = "operator"
	RoleSupervisor = "supervisor"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrMissingTenantID   = errors.New("missing tenant_id in claims")
	ErrMissingOperatorID = errors.New("missing operator_id in claims")
)

// Claims identifies the operator behind a request
type Claims struct {
	jwt.RegisteredClaims
	TenantID   string   `json:"tenant_id"`
	OperatorID string   `json:"operator_id"`
	Username   string   `json:"username,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// OperatorUUID parses the operator claim
func (c *Claims) OperatorUUID() (uuid.UUID, error) {
	return uuid.Parse(c.OperatorID)
}

// Verifier checks HMAC-signed operator tokens
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Verify parses a token and checks signature, time window, issuer and the
// tenant and operator claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, ErrMissingTenantID
	}
	if _, err := claims.OperatorUUID(); err != nil {
		return nil, ErrMissingOperatorID
	}
	return claims, nil
}

// Sign issues a token for the given operator. Used by tooling and tests.
func (v *Verifier) Sign(tenantID, operatorID uuid.UUID, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   operatorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID:   tenantID.String(),
		OperatorID: operatorID.String(),
		Roles:      roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
