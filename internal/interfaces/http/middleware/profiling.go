package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pharmawms/backend/internal/infrastructure/telemetry"
)

// ProfilingLabels tags CPU samples taken while serving a request with its
// route pattern, method and tenant. Unmatched routes are left unlabeled.
// It must run after JWTAuth to see the tenant.
func ProfilingLabels(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.LabelRoute:  route,
			telemetry.LabelMethod: c.Request.Method,
		}
		if tenant := c.GetString(JWTTenantIDKey); tenant != "" {
			labels[telemetry.LabelTenantID] = tenant
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
