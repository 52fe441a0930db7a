package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

var schoolColumns = []string{
	"id", "name", "schema_name", "address", "contact_email", "contact_phone", "board_affiliation",
	"student_strength", "staff_count", "principal_name", "principal_email", "principal_phone",
	"is_approved", "approval_date", "rejection_reason", "academic_year_start", "academic_year_end",
	"auto_create_schema", "admin_provisioned", "created_at", "updated_at",
}

var schoolConstraints = map[string]error{
	"schools_schema_name_key": apperrors.ErrSchemaExists,
	"domains_domain_key":      apperrors.ErrDomainExists,
}

// SchoolRepository stores schools and their domains in the public schema.
type SchoolRepository struct {
	baseRepository
}

func NewSchoolRepository(db *sql.DB) *SchoolRepository {
	return &SchoolRepository{baseRepository{db: db}}
}

func scanSchool(row rowScanner, s *models.School, extra ...any) error {
	return row.Scan(append(schoolScanTargets(s), extra...)...)
}

// Create inserts the school.
func (r *SchoolRepository) Create(ctx context.Context, s *models.School) error {
	query := psql.Insert(tenancy.PublicTable("schools")).
		Columns("name", "schema_name", "address", "contact_email", "contact_phone", "board_affiliation",
			"student_strength", "staff_count", "principal_name", "principal_email", "principal_phone",
			"is_approved", "approval_date", "academic_year_start", "academic_year_end", "auto_create_schema").
		Values(s.Name, s.SchemaName, s.Address, s.ContactEmail, s.ContactPhone, s.BoardAffiliation,
			s.StudentStrength, s.StaffCount, s.PrincipalName, s.PrincipalEmail, s.PrincipalPhone,
			s.IsApproved, s.ApprovalDate, s.AcademicYearStart, s.AcademicYearEnd, s.AutoCreateSchema).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &s.ID, &s.CreatedAt, &s.UpdatedAt)
	return logFailure(constraintError(err, schoolConstraints), "Failed to create school")
}

// GetByID returns the school with id.
func (r *SchoolRepository) GetByID(ctx context.Context, id int64) (*models.School, error) {
	query := psql.Select(schoolColumns...).From(tenancy.PublicTable("schools")).Where(squirrel.Eq{"id": id})

	var s models.School
	if err := r.getOne(ctx, query, apperrors.ErrSchoolNotFound, schoolScanTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get school")
	}
	return &s, nil
}

// GetBySchema returns the school owning schema.
func (r *SchoolRepository) GetBySchema(ctx context.Context, schema string) (*models.School, error) {
	query := psql.Select(schoolColumns...).From(tenancy.PublicTable("schools")).Where(squirrel.Eq{"schema_name": schema})

	var s models.School
	if err := r.getOne(ctx, query, apperrors.ErrSchoolNotFound, schoolScanTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get school by schema")
	}
	return &s, nil
}

// GetByDomain resolves a hostname to its school.
func (r *SchoolRepository) GetByDomain(ctx context.Context, domain string) (*models.School, error) {
	query := psql.Select(prefixed("s", schoolColumns)...).
		From(tenancy.PublicTable("schools") + " s").
		Join(tenancy.PublicTable("domains") + " d ON d.school_id = s.id").
		Where(squirrel.Eq{"d.domain": domain})

	var s models.School
	if err := r.getOne(ctx, query, apperrors.ErrTenantNotFound, schoolScanTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to resolve domain")
	}
	return &s, nil
}

// List returns a page of schools, newest first.
func (r *SchoolRepository) List(ctx context.Context, f models.SchoolFilter, p helpers.PageRequest) ([]*models.School, int64, error) {
	query := psql.Select(schoolColumns...).From(tenancy.PublicTable("schools")).OrderBy("created_at DESC", "id DESC")
	if f.Approved != nil {
		query = query.Where(squirrel.Eq{"is_approved": *f.Approved})
	}
	if f.Search != "" {
		like := helpers.LikePattern(f.Search)
		query = query.Where(squirrel.Or{
			squirrel.ILike{"name": like},
			squirrel.ILike{"schema_name": like},
			squirrel.ILike{"principal_name": like},
		})
	}

	schools := []*models.School{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.School
		if err := scanSchool(row, &s, total); err != nil {
			return err
		}
		schools = append(schools, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list schools")
	}
	return schools, total, nil
}

// ListSchemas returns every provisioned tenant schema.
func (r *SchoolRepository) ListSchemas(ctx context.Context) ([]string, error) {
	query := psql.Select("schema_name").From(tenancy.PublicTable("schools")).OrderBy("id")

	var schemas []string
	err := r.each(ctx, query, func(row rowScanner) error {
		var s string
		if err := row.Scan(&s); err != nil {
			return err
		}
		schemas = append(schemas, s)
		return nil
	})
	return schemas, logFailure(err, "Failed to list schemas")
}

// Update writes every mutable column of s.
func (r *SchoolRepository) Update(ctx context.Context, s *models.School) error {
	s.UpdatedAt = time.Now()
	query := psql.Update(tenancy.PublicTable("schools")).
		Set("name", s.Name).
		Set("address", s.Address).
		Set("contact_email", s.ContactEmail).
		Set("contact_phone", s.ContactPhone).
		Set("board_affiliation", s.BoardAffiliation).
		Set("student_strength", s.StudentStrength).
		Set("staff_count", s.StaffCount).
		Set("principal_name", s.PrincipalName).
		Set("principal_email", s.PrincipalEmail).
		Set("principal_phone", s.PrincipalPhone).
		Set("is_approved", s.IsApproved).
		Set("approval_date", s.ApprovalDate).
		Set("rejection_reason", s.RejectionReason).
		Set("academic_year_start", s.AcademicYearStart).
		Set("academic_year_end", s.AcademicYearEnd).
		Set("auto_create_schema", s.AutoCreateSchema).
		Set("admin_provisioned", s.AdminProvisioned).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	err := r.execOne(ctx, query, apperrors.ErrSchoolNotFound)
	return logFailure(constraintError(err, schoolConstraints), "Failed to update school")
}

// Delete removes the school; its domains go with it.
func (r *SchoolRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(tenancy.PublicTable("schools")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrSchoolNotFound), "Failed to delete school")
}

// AddDomain inserts d. A primary domain demotes the school's other domains.
func (r *SchoolRepository) AddDomain(ctx context.Context, d *models.Domain) error {
	if d.IsPrimary {
		demote := psql.Update(tenancy.PublicTable("domains")).
			Set("is_primary", false).
			Where(squirrel.Eq{"school_id": d.SchoolID, "is_primary": true})
		if _, err := r.exec(ctx, demote); err != nil {
			return logFailure(err, "Failed to demote primary domains")
		}
	}

	query := psql.Insert(tenancy.PublicTable("domains")).
		Columns("domain", "school_id", "is_primary").
		Values(d.Domain, d.SchoolID, d.IsPrimary).
		Suffix("RETURNING id, created_at")

	err := r.getOne(ctx, query, nil, &d.ID, &d.CreatedAt)
	return logFailure(constraintError(err, schoolConstraints), "Failed to add domain")
}

// ListDomains returns the domains of a school, primary first.
func (r *SchoolRepository) ListDomains(ctx context.Context, schoolID int64) ([]models.Domain, error) {
	query := psql.Select("id", "domain", "school_id", "is_primary", "created_at").
		From(tenancy.PublicTable("domains")).
		Where(squirrel.Eq{"school_id": schoolID}).
		OrderBy("is_primary DESC", "domain")

	domains := []models.Domain{}
	err := r.each(ctx, query, func(row rowScanner) error {
		var d models.Domain
		if err := row.Scan(&d.ID, &d.Domain, &d.SchoolID, &d.IsPrimary, &d.CreatedAt); err != nil {
			return err
		}
		domains = append(domains, d)
		return nil
	})
	if err != nil {
		return nil, logFailure(err, "Failed to list domains")
	}
	return domains, nil
}

// DeleteDomain removes one domain of a school.
func (r *SchoolRepository) DeleteDomain(ctx context.Context, schoolID, domainID int64) error {
	query := psql.Delete(tenancy.PublicTable("domains")).Where(squirrel.Eq{"id": domainID, "school_id": schoolID})
	return logFailure(r.execOne(ctx, query, apperrors.ErrDomainNotFound), "Failed to delete domain")
}

func schoolScanTargets(s *models.School) []any {
	return []any{
		&s.ID, &s.Name, &s.SchemaName, &s.Address, &s.ContactEmail, &s.ContactPhone, &s.BoardAffiliation,
		&s.StudentStrength, &s.StaffCount, &s.PrincipalName, &s.PrincipalEmail, &s.PrincipalPhone,
		&s.IsApproved, &s.ApprovalDate, &s.RejectionReason, &s.AcademicYearStart, &s.AcademicYearEnd,
		&s.AutoCreateSchema, &s.AdminProvisioned, &s.CreatedAt, &s.UpdatedAt,
	}
}
