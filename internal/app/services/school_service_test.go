package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	emailmocks "github.com/yigit/schoolsphere/internal/pkg/email/mocks"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

type schoolFixture struct {
	schools     *mocks.MockSchoolStore
	users       *mocks.MockUserStore
	provisioner *mocks.MockSchemaProvisioner
	mailer      *emailmocks.MockEmailService
	tx          *mocks.InlineTransactor
	svc         *SchoolService
}

func newSchoolFixture(cfg TenancyConfig) *schoolFixture {
	f := &schoolFixture{
		schools:     new(mocks.MockSchoolStore),
		users:       new(mocks.MockUserStore),
		provisioner: new(mocks.MockSchemaProvisioner),
		mailer:      new(emailmocks.MockEmailService),
		tx:          &mocks.InlineTransactor{},
	}
	f.svc = NewSchoolService(f.schools, f.users, f.provisioner, f.mailer, f.tx, cfg, nop)
	f.svc.now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func defaultTenancy() TenancyConfig {
	return TenancyConfig{
		PublicDomains: []string{"localhost", "schoolsphere.test"},
		BaseDomain:    "schoolsphere.test",
		SchemaPrefix:  "school_",
		MaxStudents:   500,
		MaxStaff:      50,
	}
}

func validRegistration() *dto.RegisterSchoolRequest {
	return &dto.RegisterSchoolRequest{
		Name:              "Green Valley",
		Address:           "1 Main St",
		ContactEmail:      "office@green.test",
		ContactPhone:      "555",
		BoardAffiliation:  models.BoardCBSE,
		StudentStrength:   300,
		StaffCount:        20,
		PrincipalName:     "Ada Lovelace",
		PrincipalEmail:    "ada@green.test",
		PrincipalPhone:    "556",
		AcademicYearStart: 4,
		AcademicYearEnd:   3,
	}
}

func TestRegisterSchoolDerivesSchemaAndProvisions(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())

	f.schools.On("Create", mock.Anything, mock.AnythingOfType("*models.School")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.School).ID = 7
	}).Return(nil)
	f.schools.On("AddDomain", mock.Anything, mock.MatchedBy(func(d *models.Domain) bool {
		return d.Domain == "school_green_valley.schoolsphere.test" && d.SchoolID == 7 && d.IsPrimary
	})).Return(nil)
	f.provisioner.On("Provision", mock.Anything, "school_green_valley").Return(nil)

	school, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "school_green_valley", school.SchemaName)
	assert.False(t, school.IsApproved)
	assert.Len(t, school.Domains, 1)
	assert.Equal(t, 1, f.tx.Calls)
	f.schools.AssertExpectations(t)
	f.provisioner.AssertExpectations(t)
}

func TestRegisterSchoolDropsSchemaWhenCommitFails(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	f.tx.CommitErr = errors.New("commit failed")

	f.schools.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.schools.On("AddDomain", mock.Anything, mock.Anything).Return(nil)
	f.provisioner.On("Provision", mock.Anything, "school_green_valley").Return(nil)
	f.provisioner.On("Drop", mock.Anything, "school_green_valley").Return(nil)

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	f.provisioner.AssertCalled(t, "Drop", mock.Anything, "school_green_valley")
}

func TestRegisterSchoolKeepsSchemaWhenProvisionFails(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())

	f.schools.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.schools.On("AddDomain", mock.Anything, mock.Anything).Return(nil)
	f.provisioner.On("Provision", mock.Anything, "school_green_valley").Return(errors.New("migrate failed"))

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	f.provisioner.AssertNotCalled(t, "Drop", mock.Anything, mock.Anything)
}

func TestRegisterSchoolWithoutAutoCreate(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	req := validRegistration()
	off := false
	req.AutoCreateSchema = &off
	req.Domain = "Green.Example.ORG"

	f.schools.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.schools.On("AddDomain", mock.Anything, mock.MatchedBy(func(d *models.Domain) bool {
		return d.Domain == "green.example.org"
	})).Return(nil)

	_, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	f.provisioner.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)
}

func TestRegisterSchoolValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.RegisterSchoolRequest)
		want   error
	}{
		{"too many students", func(r *dto.RegisterSchoolRequest) { r.StudentStrength = 501 }, apperrors.ErrFreeTierLimitExceeded},
		{"too many staff", func(r *dto.RegisterSchoolRequest) { r.StaffCount = 51 }, apperrors.ErrFreeTierLimitExceeded},
		{"bad start month", func(r *dto.RegisterSchoolRequest) { r.AcademicYearStart = 5 }, apperrors.ErrAcademicYearConfig},
		{"bad end month", func(r *dto.RegisterSchoolRequest) { r.AcademicYearEnd = 4 }, apperrors.ErrAcademicYearConfig},
		{"unknown board", func(r *dto.RegisterSchoolRequest) { r.BoardAffiliation = "IB" }, apperrors.ErrValidationFailed},
		{"reserved schema", func(r *dto.RegisterSchoolRequest) { r.SchemaName = "pg_catalog" }, apperrors.ErrInvalidSchemaName},
		{"public schema", func(r *dto.RegisterSchoolRequest) { r.SchemaName = "public" }, apperrors.ErrInvalidSchemaName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSchoolFixture(defaultTenancy())
			req := validRegistration()
			tt.mutate(req)

			_, err := f.svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
			f.schools.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestApproveSchoolProvisionsAdminOnce(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	school := &models.School{
		ID: 7, Name: "Green Valley", SchemaName: "school_green_valley",
		PrincipalName: "Ada Lovelace", PrincipalEmail: "ada@green.test",
		AutoCreateSchema: true, RejectionReason: strPtr("incomplete"),
	}

	f.schools.On("GetByID", mock.Anything, int64(7)).Return(school, nil)
	f.users.On("Create", mock.MatchedBy(func(ctx context.Context) bool {
		return tenancy.Schema(ctx) == "school_green_valley"
	}), mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "admin_green_valley" && u.RoleType == models.RoleSchoolAdmin &&
			u.Email == "ada@green.test" && u.FirstName == "Ada" && u.LastName == "Lovelace"
	})).Return(nil)
	f.schools.On("Update", mock.Anything, school).Return(nil)
	f.schools.On("ListDomains", mock.Anything, int64(7)).Return([]models.Domain{{Domain: "school_green_valley.schoolsphere.test"}}, nil)
	f.mailer.On("SendSchoolAdminCredentials", mock.Anything, mock.Anything, "Green Valley", "admin_green_valley",
		mock.AnythingOfType("string"), "https://school_green_valley.schoolsphere.test/login").Return(nil)

	res, err := f.svc.Approve(context.Background(), 7)
	require.NoError(t, err)

	require.NotNil(t, res.Admin)
	assert.Len(t, res.Admin.Password, AdminPasswordLength)
	assert.True(t, school.IsApproved)
	assert.True(t, school.AdminProvisioned)
	assert.Nil(t, school.RejectionReason)
	require.NotNil(t, school.ApprovalDate)
	assert.Equal(t, 2025, school.ApprovalDate.Year())
	f.provisioner.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything)

	_, err = f.svc.Approve(context.Background(), 7)
	require.NoError(t, err)
	f.users.AssertNumberOfCalls(t, "Create", 1)
	f.mailer.AssertNumberOfCalls(t, "SendSchoolAdminCredentials", 1)
}

func TestApproveSchoolProvisionsDeferredSchema(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	f.svc.config.LoginURL = "https://app.test/login"
	school := &models.School{ID: 8, Name: "Hill", SchemaName: "school_hill", PrincipalEmail: "p@hill.test"}

	f.schools.On("GetByID", mock.Anything, int64(8)).Return(school, nil)
	f.provisioner.On("Provision", mock.Anything, "school_hill").Return(nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.schools.On("Update", mock.Anything, school).Return(nil)
	f.mailer.On("SendSchoolAdminCredentials", mock.Anything, mock.Anything, "Hill", "admin_hill", mock.Anything, "https://app.test/login").
		Return(apperrors.ErrEmailDelivery)

	res, err := f.svc.Approve(context.Background(), 8)
	require.NoError(t, err, "a failed email does not undo the approval")
	assert.NotNil(t, res.Admin)
	f.provisioner.AssertExpectations(t)
}

func TestApprovedAdminPasswordVerifies(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	f.svc.config.LoginURL = "x"
	school := &models.School{ID: 9, Name: "Oak", SchemaName: "school_oak", AutoCreateSchema: true}

	var hash string
	f.schools.On("GetByID", mock.Anything, int64(9)).Return(school, nil)
	f.users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		hash = args.Get(1).(*models.User).Password
	}).Return(nil)
	f.schools.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("SendSchoolAdminCredentials", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.Approve(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, res.Admin.Password))
}

func TestRejectSchool(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	approvedAt := time.Now()
	school := &models.School{ID: 7, IsApproved: true, ApprovalDate: &approvedAt}
	f.schools.On("GetByID", mock.Anything, int64(7)).Return(school, nil)
	f.schools.On("Update", mock.Anything, school).Return(nil)

	_, err := f.svc.Reject(context.Background(), 7, "  ")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	got, err := f.svc.Reject(context.Background(), 7, "missing documents")
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.Nil(t, got.ApprovalDate)
	assert.Equal(t, "missing documents", *got.RejectionReason)
}

func TestUpdateSchoolTogglesApprovalDate(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	school := &models.School{ID: 7, BoardAffiliation: models.BoardICSE, AcademicYearStart: 6, AcademicYearEnd: 5}
	f.schools.On("GetByID", mock.Anything, int64(7)).Return(school, nil)
	f.schools.On("Update", mock.Anything, school).Return(nil)

	yes := true
	got, err := f.svc.Update(context.Background(), 7, &dto.UpdateSchoolRequest{IsApproved: &yes})
	require.NoError(t, err)
	require.NotNil(t, got.ApprovalDate)

	no := false
	got, err = f.svc.Update(context.Background(), 7, &dto.UpdateSchoolRequest{IsApproved: &no})
	require.NoError(t, err)
	assert.Nil(t, got.ApprovalDate)

	over := 900
	_, err = f.svc.Update(context.Background(), 7, &dto.UpdateSchoolRequest{StudentStrength: &over})
	assert.ErrorIs(t, err, apperrors.ErrFreeTierLimitExceeded)
}

func TestDeleteSchoolDropsSchemaOnlyWhenEnabled(t *testing.T) {
	for _, drop := range []bool{false, true} {
		cfg := defaultTenancy()
		cfg.AutoDropSchema = drop
		f := newSchoolFixture(cfg)
		f.schools.On("GetByID", mock.Anything, int64(7)).Return(&models.School{ID: 7, SchemaName: "school_x"}, nil)
		f.schools.On("Delete", mock.Anything, int64(7)).Return(nil)
		f.provisioner.On("Drop", mock.Anything, "school_x").Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), 7))
		if drop {
			f.provisioner.AssertCalled(t, "Drop", mock.Anything, "school_x")
		} else {
			f.provisioner.AssertNotCalled(t, "Drop", mock.Anything, mock.Anything)
		}
	}
}

func TestAddDomainRejectsPlatformHosts(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	f.schools.On("GetByID", mock.Anything, int64(7)).Return(&models.School{ID: 7}, nil)

	_, err := f.svc.AddDomain(context.Background(), 7, &dto.CreateDomainRequest{Domain: "LOCALHOST"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	f.schools.On("AddDomain", mock.Anything, mock.MatchedBy(func(d *models.Domain) bool {
		return d.Domain == "green.school.org" && d.IsPrimary
	})).Return(nil)
	d, err := f.svc.AddDomain(context.Background(), 7, &dto.CreateDomainRequest{Domain: "green.school.org", IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.SchoolID)
}

func TestResolveTenant(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	f.schools.On("GetByDomain", mock.Anything, "green.schoolsphere.test").
		Return(&models.School{ID: 7, SchemaName: "school_green", Name: "Green", IsApproved: true}, nil)
	f.schools.On("GetByDomain", mock.Anything, "nowhere.test").Return(nil, apperrors.ErrTenantNotFound)

	public, err := f.svc.ResolveTenant(context.Background(), "LocalHost:8080")
	require.NoError(t, err)
	assert.True(t, public.IsPublic())

	tenant, err := f.svc.ResolveTenant(context.Background(), "Green.SchoolSphere.test:443")
	require.NoError(t, err)
	assert.Equal(t, "school_green", tenant.SchemaName)
	assert.True(t, tenant.IsApproved)

	_, err = f.svc.ResolveTenant(context.Background(), "nowhere.test")
	assert.ErrorIs(t, err, apperrors.ErrTenantNotFound)
}

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"Example.COM":      "example.com",
		"example.com:8080": "example.com",
		"example.com.":     "example.com",
		"[::1]:8080":       "::1",
		" a.b ":            "a.b",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHost(in), in)
	}
}

func TestCurrentSchoolNeedsTenant(t *testing.T) {
	f := newSchoolFixture(defaultTenancy())
	_, err := f.svc.Current(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTenantRequired)

	f.schools.On("GetBySchema", mock.Anything, testSchema).Return(&models.School{ID: 1, SchemaName: testSchema}, nil)
	s, err := f.svc.Current(asUser(models.RoleStudent, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
}

func strPtr(s string) *string { return &s }
