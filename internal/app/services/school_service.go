package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/email"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// AdminPasswordLength is the length of generated school admin passwords.
const AdminPasswordLength = 12

// TenancyConfig carries the registration limits and domain settings.
type TenancyConfig struct {
	PublicDomains  []string
	BaseDomain     string
	SchemaPrefix   string
	AutoDropSchema bool
	MaxStudents    int
	MaxStaff       int
	LoginURL       string
}

// SchoolService handles tenant registration and the school lifecycle
type SchoolService struct {
	schools     SchoolStore
	users       UserStore
	provisioner SchemaProvisioner
	mailer      email.EmailService
	tx          Transactor
	config      TenancyConfig
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSchoolService creates a new SchoolService
func NewSchoolService(
	schools SchoolStore,
	users UserStore,
	provisioner SchemaProvisioner,
	mailer email.EmailService,
	tx Transactor,
	config TenancyConfig,
	logger zerolog.Logger,
) *SchoolService {
	return &SchoolService{
		schools:     schools,
		users:       users,
		provisioner: provisioner,
		mailer:      mailer,
		tx:          tx,
		config:      config,
		now:         time.Now,
		logger:      logger,
	}
}

// ValidateSchoolConfig checks the free tier limits and the academic year months.
func ValidateSchoolConfig(s *models.School, maxStudents, maxStaff int) error {
	if !s.BoardAffiliation.IsValid() {
		return apperrors.NewValidationError("boardAffiliation", fmt.Sprintf("unsupported board affiliation %q", s.BoardAffiliation))
	}
	if maxStudents > 0 && s.StudentStrength > maxStudents {
		return &apperrors.CustomError{
			Err:     apperrors.ErrFreeTierLimitExceeded,
			Message: fmt.Sprintf("free tier allows at most %d students", maxStudents),
			Details: map[string]interface{}{"field": "studentStrength", "limit": maxStudents},
		}
	}
	if maxStaff > 0 && s.StaffCount > maxStaff {
		return &apperrors.CustomError{
			Err:     apperrors.ErrFreeTierLimitExceeded,
			Message: fmt.Sprintf("free tier allows at most %d staff members", maxStaff),
			Details: map[string]interface{}{"field": "staffCount", "limit": maxStaff},
		}
	}
	if s.AcademicYearStart != 4 && s.AcademicYearStart != 6 {
		return &apperrors.CustomError{
			Err:     apperrors.ErrAcademicYearConfig,
			Message: "academic year must start in April (4) or June (6)",
			Details: map[string]interface{}{"field": "academicYearStart"},
		}
	}
	if s.AcademicYearEnd != 3 && s.AcademicYearEnd != 5 {
		return &apperrors.CustomError{
			Err:     apperrors.ErrAcademicYearConfig,
			Message: "academic year must end in March (3) or May (5)",
			Details: map[string]interface{}{"field": "academicYearEnd"},
		}
	}
	if s.AcademicYearStart == s.AcademicYearEnd {
		return &apperrors.CustomError{
			Err:     apperrors.ErrAcademicYearConfig,
			Message: "academic year start and end months must differ",
		}
	}
	return nil
}

// Register creates a pending school with its primary domain and, when asked,
// its schema.
func (s *SchoolService) Register(ctx context.Context, req *dto.RegisterSchoolRequest) (*models.School, error) {
	school := &models.School{
		Name:              strings.TrimSpace(req.Name),
		SchemaName:        strings.ToLower(strings.TrimSpace(req.SchemaName)),
		Address:           req.Address,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		BoardAffiliation:  req.BoardAffiliation,
		StudentStrength:   req.StudentStrength,
		StaffCount:        req.StaffCount,
		PrincipalName:     req.PrincipalName,
		PrincipalEmail:    req.PrincipalEmail,
		PrincipalPhone:    req.PrincipalPhone,
		AcademicYearStart: req.AcademicYearStart,
		AcademicYearEnd:   req.AcademicYearEnd,
		AutoCreateSchema:  true,
	}
	if req.AutoCreateSchema != nil {
		school.AutoCreateSchema = *req.AutoCreateSchema
	}

	if err := ValidateSchoolConfig(school, s.config.MaxStudents, s.config.MaxStaff); err != nil {
		return nil, err
	}

	if school.SchemaName == "" {
		school.SchemaName = helpers.SchemaNameFor(s.config.SchemaPrefix, school.Name)
	}
	if !validation.IsSchemaName(school.SchemaName) {
		return nil, &apperrors.CustomError{
			Err:     apperrors.ErrInvalidSchemaName,
			Message: fmt.Sprintf("schema name %q must match ^[a-z][a-z0-9_]{0,62}$ and not be reserved", school.SchemaName),
			Details: map[string]interface{}{"field": "schemaName"},
		}
	}

	host := strings.ToLower(strings.TrimSpace(req.Domain))
	if host == "" {
		host = school.SchemaName + "." + s.config.BaseDomain
	}
	if !validation.IsDomain(host) {
		return nil, apperrors.NewValidationError("domain", fmt.Sprintf("invalid domain %q", host))
	}

	// The schema is created outside the transaction, so a failed commit has
	// to take it back down.
	provisioned := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.schools.Create(ctx, school); err != nil {
			return err
		}
		primary := &models.Domain{Domain: host, SchoolID: school.ID, IsPrimary: true}
		if err := s.schools.AddDomain(ctx, primary); err != nil {
			return err
		}
		school.Domains = []models.Domain{*primary}

		if school.AutoCreateSchema {
			if err := s.provisioner.Provision(ctx, school.SchemaName); err != nil {
				return err
			}
			provisioned = true
		}
		return nil
	})
	if err != nil {
		if provisioned {
			if dropErr := s.provisioner.Drop(context.WithoutCancel(ctx), school.SchemaName); dropErr != nil {
				s.logger.Error().Err(dropErr).Str("schema", school.SchemaName).Msg("Failed to drop schema of unregistered school")
			}
		}
		return nil, fmt.Errorf("failed to register school: %w", err)
	}

	s.logger.Info().
		Int64("schoolId", school.ID).
		Str("schema", school.SchemaName).
		Str("domain", host).
		Msg("School registered")
	return school, nil
}

// Approve marks the school approved. The first approval provisions the school
// admin inside the tenant schema and mails the generated credentials.
func (s *SchoolService) Approve(ctx context.Context, id int64) (*dto.SchoolApprovalResponse, error) {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setApproved(school, true, s.now())

	var creds *dto.AdminCredentials
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if !school.AdminProvisioned {
			created, err := s.provisionAdmin(ctx, school)
			if err != nil {
				return err
			}
			creds = created
			school.AdminProvisioned = true
		}
		return s.schools.Update(ctx, school)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve school: %w", err)
	}

	if creds != nil {
		tenantCtx := tenancy.WithTenant(ctx, tenancy.FromSchool(school))
		to := email.Recipient{Name: school.PrincipalName, Email: school.PrincipalEmail}
		if err := s.mailer.SendSchoolAdminCredentials(tenantCtx, to, school.Name, creds.Username, creds.Password, s.loginURL(ctx, school)); err != nil {
			s.logger.Warn().Err(err).Int64("schoolId", school.ID).Msg("School approved but credentials email failed")
		}
	}

	s.logger.Info().Int64("schoolId", school.ID).Bool("adminCreated", creds != nil).Msg("School approved")
	return &dto.SchoolApprovalResponse{School: school, Admin: creds}, nil
}

func (s *SchoolService) provisionAdmin(ctx context.Context, school *models.School) (*dto.AdminCredentials, error) {
	if !school.AutoCreateSchema {
		if err := s.provisioner.Provision(ctx, school.SchemaName); err != nil {
			return nil, err
		}
	}

	password, err := auth.GeneratePassword(AdminPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	first, last := splitName(school.PrincipalName)
	admin := &models.User{
		Username:  helpers.AdminUsernameFor(school.Name),
		Email:     school.PrincipalEmail,
		Password:  hash,
		FirstName: first,
		LastName:  last,
		RoleType:  models.RoleSchoolAdmin,
		Phone:     school.PrincipalPhone,
		IsActive:  true,
	}

	tenantCtx := tenancy.WithTenant(ctx, tenancy.FromSchool(school))
	if err := s.users.Create(tenantCtx, admin); err != nil {
		return nil, fmt.Errorf("failed to create school admin: %w", err)
	}

	return &dto.AdminCredentials{Username: admin.Username, Email: admin.Email, Password: password}, nil
}

// Reject withdraws approval and records why.
func (s *SchoolService) Reject(ctx context.Context, id int64, reason string) (*models.School, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "a rejection reason is required")
	}

	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	setApproved(school, false, s.now())
	school.RejectionReason = &reason

	if err := s.schools.Update(ctx, school); err != nil {
		return nil, fmt.Errorf("failed to reject school: %w", err)
	}
	s.logger.Info().Int64("schoolId", school.ID).Msg("School rejected")
	return school, nil
}

// Update applies a partial edit. Flipping IsApproved follows the same
// approval date rules as Approve and Reject, without provisioning an admin.
func (s *SchoolService) Update(ctx context.Context, id int64, req *dto.UpdateSchoolRequest) (*models.School, error) {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		school.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		school.Address = *req.Address
	}
	if req.ContactEmail != nil {
		school.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		school.ContactPhone = *req.ContactPhone
	}
	if req.BoardAffiliation != nil {
		school.BoardAffiliation = *req.BoardAffiliation
	}
	if req.StudentStrength != nil {
		school.StudentStrength = *req.StudentStrength
	}
	if req.StaffCount != nil {
		school.StaffCount = *req.StaffCount
	}
	if req.PrincipalName != nil {
		school.PrincipalName = *req.PrincipalName
	}
	if req.PrincipalEmail != nil {
		school.PrincipalEmail = *req.PrincipalEmail
	}
	if req.PrincipalPhone != nil {
		school.PrincipalPhone = *req.PrincipalPhone
	}
	if req.AcademicYearStart != nil {
		school.AcademicYearStart = *req.AcademicYearStart
	}
	if req.AcademicYearEnd != nil {
		school.AcademicYearEnd = *req.AcademicYearEnd
	}
	if req.IsApproved != nil && *req.IsApproved != school.IsApproved {
		setApproved(school, *req.IsApproved, s.now())
	}

	if err := ValidateSchoolConfig(school, s.config.MaxStudents, s.config.MaxStaff); err != nil {
		return nil, err
	}

	if err := s.schools.Update(ctx, school); err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}
	return school, nil
}

// setApproved applies the approval date rules.
func setApproved(school *models.School, approved bool, now time.Time) {
	school.IsApproved = approved
	if approved {
		at := now.UTC()
		school.ApprovalDate = &at
		school.RejectionReason = nil
		return
	}
	school.ApprovalDate = nil
}

// List returns a page of schools.
func (s *SchoolService) List(ctx context.Context, filter models.SchoolFilter, page helpers.PageRequest) ([]*models.School, int64, error) {
	schools, total, err := s.schools.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, total, nil
}

// Get returns a school with its domains.
func (s *SchoolService) Get(ctx context.Context, id int64) (*models.School, error) {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	domains, err := s.schools.ListDomains(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load school domains: %w", err)
	}
	school.Domains = domains
	return school, nil
}

// Current returns the school bound to the request's tenant.
func (s *SchoolService) Current(ctx context.Context) (*models.School, error) {
	if err := requireTenant(ctx); err != nil {
		return nil, err
	}
	return s.schools.GetBySchema(ctx, tenancy.Schema(ctx))
}

// Delete removes the school and its domains. The schema is dropped only when
// the deployment opts in.
func (s *SchoolService) Delete(ctx context.Context, id int64) error {
	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.schools.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}

	if s.config.AutoDropSchema {
		if err := s.provisioner.Drop(ctx, school.SchemaName); err != nil {
			return fmt.Errorf("school deleted but schema drop failed: %w", err)
		}
	}
	s.logger.Warn().
		Int64("schoolId", id).
		Str("schema", school.SchemaName).
		Bool("schemaDropped", s.config.AutoDropSchema).
		Msg("School deleted")
	return nil
}

// AddDomain maps another hostname onto a school.
func (s *SchoolService) AddDomain(ctx context.Context, schoolID int64, req *dto.CreateDomainRequest) (*models.Domain, error) {
	if _, err := s.schools.GetByID(ctx, schoolID); err != nil {
		return nil, err
	}
	host := strings.ToLower(strings.TrimSpace(req.Domain))
	if !validation.IsDomain(host) {
		return nil, apperrors.NewValidationError("domain", fmt.Sprintf("invalid domain %q", host))
	}
	if s.isPublic(host) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("%s is reserved for the platform", host))
	}

	d := &models.Domain{Domain: host, SchoolID: schoolID, IsPrimary: req.IsPrimary}
	if err := s.schools.AddDomain(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to add domain: %w", err)
	}
	return d, nil
}

func (s *SchoolService) ListDomains(ctx context.Context, schoolID int64) ([]models.Domain, error) {
	if _, err := s.schools.GetByID(ctx, schoolID); err != nil {
		return nil, err
	}
	return s.schools.ListDomains(ctx, schoolID)
}

func (s *SchoolService) DeleteDomain(ctx context.Context, schoolID, domainID int64) error {
	return s.schools.DeleteDomain(ctx, schoolID, domainID)
}

// ResolveTenant maps a request host onto its tenant. Public hosts resolve to
// the shared schema; unknown hosts fail with ErrTenantNotFound.
func (s *SchoolService) ResolveTenant(ctx context.Context, host string) (*tenancy.Tenant, error) {
	host = NormalizeHost(host)
	if s.isPublic(host) {
		return tenancy.Public(), nil
	}

	school, err := s.schools.GetByDomain(ctx, host)
	if err != nil {
		if errors.Is(err, apperrors.ErrSchoolNotFound) || errors.Is(err, apperrors.ErrDomainNotFound) || errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, err
	}
	return tenancy.FromSchool(school), nil
}

func (s *SchoolService) isPublic(host string) bool {
	for _, d := range s.config.PublicDomains {
		if strings.EqualFold(d, host) {
			return true
		}
	}
	return false
}

func (s *SchoolService) loginURL(ctx context.Context, school *models.School) string {
	if s.config.LoginURL != "" {
		return s.config.LoginURL
	}
	domains, err := s.schools.ListDomains(ctx, school.ID)
	if err != nil || len(domains) == 0 {
		return ""
	}
	return "https://" + domains[0].Domain + "/login"
}

// NormalizeHost lowercases host and strips any port.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end > 0 {
			return host[1:end]
		}
	}
	if i := strings.LastIndex(host, ":"); i >= 0 && strings.Count(host, ":") == 1 {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "School", "Admin"
	case 1:
		return parts[0], "Admin"
	}
	return parts[0], strings.Join(parts[1:], " ")
}
