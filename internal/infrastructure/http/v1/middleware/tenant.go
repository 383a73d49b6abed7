package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"brewops/internal/core/apperror"
	"brewops/internal/core/tenant"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant reads the tenant UUID from X-Tenant-ID and stores its canonical form in the request context.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)

		tenantID, err := tenant.ParseID(raw)
		if err != nil {
			appErr := apperror.NewValidation("invalid tenant id").
				WithDetail("header", TenantHeader).
				WithDetail("value", raw)
			if errors.Is(err, tenant.ErrTenantRequired) {
				appErr = apperror.NewValidation("tenant is required").WithDetail("header", TenantHeader)
			}
			_ = c.Error(appErr)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithID(c.Request.Context(), tenantID))
		c.Set("tenant_id", tenantID)

		c.Next()
	}
}
