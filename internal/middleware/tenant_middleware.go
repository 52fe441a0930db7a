package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/telemetry"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// TenantResolver maps a request host onto its school.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, host string) (*tenancy.Tenant, error)
}

// ResolveTenant binds the tenant addressed by the request host to the
// request context.
func ResolveTenant(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := resolver.ResolveTenant(c.Request.Context(), c.Request.Host)
		if err != nil {
			HandleAPIError(c, err)
			return
		}
		telemetry.AnnotateTenant(c.Request.Context(), t.SchemaName, t.SchoolID)
		c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), t))
		c.Set("schema", t.SchemaName)
		c.Next()
	}
}

// TenantOnly refuses the public host and schools that are not approved yet.
func TenantOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := tenancy.FromContext(c.Request.Context())
		switch {
		case !ok || t.IsPublic():
			HandleAPIError(c, apperrors.ErrTenantRequired)
			return
		case !t.IsApproved:
			HandleAPIError(c, apperrors.ErrSchoolNotApproved)
			return
		}
		c.Next()
	}
}

// PublicOnly limits platform routes to the public host.
func PublicOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := tenancy.FromContext(c.Request.Context())
		if ok && !t.IsPublic() {
			HandleAPIError(c, apperrors.NewResourceNotFoundError("this endpoint is only available on the platform domain"))
			return
		}
		c.Next()
	}
}
