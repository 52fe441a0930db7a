// Package tenancy carries the current school through a request and builds
// schema-qualified table names for it.
package tenancy

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolsphere/internal/app/models"
)

// Tenant is the school a request is bound to.
type Tenant struct {
	SchoolID   int64
	SchemaName string
	SchoolName string
	IsApproved bool
}

// Public is the shared tenant for platform-level requests.
func Public() *Tenant {
	return &Tenant{SchemaName: models.PublicSchema, IsApproved: true}
}

// IsPublic reports whether t addresses the shared schema.
func (t *Tenant) IsPublic() bool {
	return t == nil || t.SchemaName == models.PublicSchema
}

// FromSchool builds a tenant from its school record.
func FromSchool(s *models.School) *Tenant {
	return &Tenant{
		SchoolID:   s.ID,
		SchemaName: s.SchemaName,
		SchoolName: s.Name,
		IsApproved: s.IsApproved,
	}
}

type tenantKey struct{}

// WithTenant returns a copy of ctx bound to t.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext returns the tenant bound to ctx, if any.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	return t, ok && t != nil
}

// Schema returns the schema of the tenant in ctx, or public.
func Schema(ctx context.Context) string {
	if t, ok := FromContext(ctx); ok {
		return t.SchemaName
	}
	return models.PublicSchema
}

// Table returns the quoted, schema-qualified name of table for the tenant in ctx.
func Table(ctx context.Context, table string) string {
	return QualifiedTable(Schema(ctx), table)
}

// QualifiedTable quotes schema and table as "schema"."table".
func QualifiedTable(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// PublicTable is shorthand for tables that only live in the public schema.
func PublicTable(table string) string {
	return QualifiedTable(models.PublicSchema, table)
}
