package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/infrastructure/auth"
	"github.com/pharmawms/backend/internal/infrastructure/logger"
	"github.com/pharmawms/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTTenantIDKey   = "jwt_tenant_id"
	JWTOperatorIDKey = "jwt_operator_id"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// Operator is the authenticated caller of a request
type Operator struct {
	TenantID   uuid.UUID
	OperatorID uuid.UUID
	Roles      []string
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Verifier  *auth.Verifier
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig skips the health endpoints
func DefaultJWTConfig(verifier *auth.Verifier) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Verifier:  verifier,
		SkipPaths: []string{"/health", "/ready"},
		Logger:    zap.NewNop(),
	}
}

// JWTAuth verifies the bearer token and stores the operator in the context
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) || strings.TrimPrefix(header, BearerPrefix) == "" {
			abortUnauthorized(c, cfg, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.Verifier.Verify(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			abortUnauthorized(c, cfg, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Set(JWTOperatorIDKey, claims.OperatorID)

		ctx := logger.WithTenantID(c.Request.Context(), claims.TenantID)
		ctx = logger.WithOperatorID(ctx, claims.OperatorID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole rejects callers whose token lacks role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.ErrCodeForbidden, "role "+role+" required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	cfg.Logger.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	code := dto.ErrCodeUnauthorized
	if errors.Is(err, auth.ErrExpiredToken) {
		code = dto.ErrCodeTokenExpired
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, err.Error(), GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetOperator returns the authenticated operator. The claims were checked
// by JWTAuth, so parsing only fails when the middleware did not run.
func GetOperator(c *gin.Context) (Operator, bool) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return Operator{}, false
	}
	tenantID, err := claims.TenantUUID()
	if err != nil {
		return Operator{}, false
	}
	operatorID, err := claims.OperatorUUID()
	if err != nil {
		return Operator{}, false
	}
	return Operator{TenantID: tenantID, OperatorID: operatorID, Roles: claims.Roles}, true
}

// HasRole reports whether the operator token carries role
func (o Operator) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}
