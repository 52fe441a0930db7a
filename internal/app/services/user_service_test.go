package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolsphere/internal/pkg/auth"
	emailmocks "github.com/yigit/schoolsphere/internal/pkg/email/mocks"
	storagemocks "github.com/yigit/schoolsphere/internal/pkg/filestorage/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

type userFixture struct {
	users  *mocks.MockUserStore
	files  *storagemocks.MockFileStorage
	mailer *emailmocks.MockEmailService
	tx     *mocks.InlineTransactor
	svc    *UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:  new(mocks.MockUserStore),
		files:  new(storagemocks.MockFileStorage),
		mailer: new(emailmocks.MockEmailService),
		tx:     &mocks.InlineTransactor{},
	}
	f.svc = NewUserService(f.users, f.files, f.mailer, f.tx, nop)
	return f
}

func newUserRequest(role models.RoleType) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		Username:  "mary",
		Email:     " Mary@Green.test ",
		Password:  "Secret123",
		FirstName: "Mary",
		LastName:  "Major",
		Role:      role,
	}
}

var firstPage = helpers.PageRequest{Page: 1, Size: 10}

func TestRegisterAllowsSelfServiceRoles(t *testing.T) {
	f := newUserFixture()
	req := newUserRequest(models.RoleParent)

	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "mary@green.test" && u.IsActive && pkgauth.CheckPassword(u.Password, "Secret123")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 9
	}).Return(nil)
	f.mailer.On("SendWelcomeEmail", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	ctx := tenancy.WithTenant(context.Background(), &tenancy.Tenant{SchemaName: testSchema, IsApproved: true})
	res, err := f.svc.Register(ctx, &req)

	require.NoError(t, err)
	assert.Equal(t, int64(9), res.ID)
	f.users.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestRegisterRejections(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		role models.RoleType
		want error
	}{
		{"public schema", tenancy.WithTenant(context.Background(), tenancy.Public()), models.RoleStudent, apperrors.ErrTenantRequired},
		{"staff role", asUser(models.RoleStudent, 1), models.RoleTeacher, apperrors.ErrRoleNotAllowed},
		{"admin role", asUser(models.RoleStudent, 1), models.RoleSchoolAdmin, apperrors.ErrRoleNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			req := newUserRequest(tt.role)
			_, err := f.svc.Register(tt.ctx, &req)
			assert.ErrorIs(t, err, tt.want)
			f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUserRequiresAdminAndSchoolRole(t *testing.T) {
	f := newUserFixture()
	req := newUserRequest(models.RoleLibrarian)

	_, err := f.svc.Create(asUser(models.RoleTeacher, 2), &req)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	super := newUserRequest(models.RoleSuperAdmin)
	_, err = f.svc.Create(asUser(models.RoleSchoolAdmin, 1), &super)
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAllowed)

	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	res, err := f.svc.Create(asUser(models.RoleSchoolAdmin, 1), &req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, res.Role)
}

func TestListUsersLimitsNonAdminsToSelf(t *testing.T) {
	f := newUserFixture()
	f.users.On("List", mock.Anything, models.UserFilter{OnlyID: 7}, firstPage).
		Return([]*models.User{{ID: 7, Username: "kid"}}, int64(1), nil)
	f.users.On("List", mock.Anything, models.UserFilter{Role: models.RoleTeacher}, firstPage).
		Return([]*models.User{{ID: 2}, {ID: 3}}, int64(2), nil)

	items, total, err := f.svc.List(asUser(models.RoleStudent, 7), models.UserFilter{}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	items, total, err = f.svc.List(asUser(models.RoleSchoolAdmin, 1), models.UserFilter{Role: models.RoleTeacher}, firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestGetUserAdminOrSelf(t *testing.T) {
	f := newUserFixture()
	f.users.On("GetByID", mock.Anything, int64(7)).
		Return(&models.User{ID: 7, ProfilePicture: "school_green/profile-pictures/a.png"}, nil)
	f.files.On("URL", mock.Anything, "school_green/profile-pictures/a.png").Return("https://cdn/a.png", nil)

	res, err := f.svc.Get(asUser(models.RoleStudent, 7), 7)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", res.ProfilePictureURL)

	_, err = f.svc.Get(asUser(models.RoleStudent, 8), 7)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdateUserRestrictsPrivilegedFields(t *testing.T) {
	f := newUserFixture()
	active := false
	_, err := f.svc.Update(asUser(models.RoleTeacher, 2), 2, &dto.UpdateUserRequest{IsActive: &active})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	phone := "555-0101"
	f.users.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2, RoleType: models.RoleTeacher, IsActive: true}, nil)
	f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Phone == phone && u.IsActive
	})).Return(nil)

	res, err := f.svc.Update(asUser(models.RoleTeacher, 2), 2, &dto.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, res.Phone)
	f.users.AssertExpectations(t)
}

func TestDeleteUser(t *testing.T) {
	f := newUserFixture()
	admin := asUser(models.RoleSchoolAdmin, 1)

	err := f.svc.Delete(admin, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	f.users.On("GetByID", mock.Anything, int64(4)).Return(&models.User{ID: 4, ProfilePicture: "k"}, nil)
	f.users.On("Delete", mock.Anything, int64(4)).Return(nil)
	f.files.On("DeleteFile", mock.Anything, "k").Return(errors.New("gone"))

	require.NoError(t, f.svc.Delete(admin, 4))
	f.files.AssertExpectations(t)
}

func TestListStudentsScopes(t *testing.T) {
	tests := []struct {
		name  string
		role  models.RoleType
		scope models.Scope
	}{
		{"admin sees all", models.RoleSchoolAdmin, models.Scope{All: true}},
		{"librarian sees all", models.RoleLibrarian, models.Scope{All: true}},
		{"accountant sees all", models.RoleAccountant, models.Scope{All: true}},
		{"teacher sees own sections", models.RoleTeacher, models.Scope{TeacherID: 5}},
		{"parent sees children", models.RoleParent, models.Scope{ParentID: 5}},
		{"student sees self", models.RoleStudent, models.Scope{StudentID: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			f.users.On("ListStudents", mock.Anything, tt.scope, models.UserFilter{}, firstPage).
				Return([]*models.Student{{User: models.User{ID: 11}}}, int64(1), nil)

			items, _, err := f.svc.ListStudents(asUser(tt.role, 5), models.UserFilter{}, firstPage)
			require.NoError(t, err)
			assert.Len(t, items, 1)
			f.users.AssertExpectations(t)
		})
	}
}

func TestCreateStudentValidatesParent(t *testing.T) {
	f := newUserFixture()
	admin := asUser(models.RoleSchoolAdmin, 1)
	parentID := int64(30)
	req := &dto.CreateStudentRequest{
		CreateUserRequest: newUserRequest(""),
		AdmissionNumber:   " ADM-1 ",
		ParentID:          &parentID,
	}

	f.users.On("GetByID", mock.Anything, parentID).Return(&models.User{ID: parentID, RoleType: models.RoleTeacher}, nil).Once()
	_, err := f.svc.CreateStudent(admin, req)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	f.users.On("GetByID", mock.Anything, parentID).Return(&models.User{ID: parentID, RoleType: models.RoleParent}, nil).Once()
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.RoleType == models.RoleStudent
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 12
	}).Return(nil)
	f.users.On("CreateStudentProfile", mock.Anything, mock.MatchedBy(func(p *models.StudentProfile) bool {
		return p.UserID == 12 && p.AdmissionNumber == "ADM-1" && *p.ParentID == parentID
	})).Return(nil)

	res, err := f.svc.CreateStudent(admin, req)
	require.NoError(t, err)
	assert.Equal(t, "ADM-1", res.AdmissionNumber)
	assert.Equal(t, 2, f.tx.Calls)
}

func TestUpdateStudentKeepsRole(t *testing.T) {
	f := newUserFixture()
	teacher := models.RoleTeacher
	_, err := f.svc.UpdateStudent(asUser(models.RoleSchoolAdmin, 1), 12, &dto.UpdateStudentRequest{
		UpdateUserRequest: dto.UpdateUserRequest{Role: &teacher},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	group := "O+"
	f.users.On("GetStudent", mock.Anything, int64(12), models.Scope{All: true}).
		Return(&models.Student{User: models.User{ID: 12, RoleType: models.RoleStudent}, Profile: models.StudentProfile{UserID: 12}}, nil)
	f.users.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.users.On("UpdateStudentProfile", mock.Anything, mock.MatchedBy(func(p *models.StudentProfile) bool {
		return p.BloodGroup == "O+"
	})).Return(nil)

	res, err := f.svc.UpdateStudent(asUser(models.RoleSchoolAdmin, 1), 12, &dto.UpdateStudentRequest{BloodGroup: &group})
	require.NoError(t, err)
	assert.Equal(t, "O+", res.BloodGroup)
}

func TestTeacherVisibility(t *testing.T) {
	f := newUserFixture()
	f.users.On("GetTeacher", mock.Anything, int64(5)).
		Return(&models.Teacher{User: models.User{ID: 5}, Profile: models.TeacherProfile{UserID: 5, EmployeeID: "T-5"}}, nil)

	res, err := f.svc.GetTeacher(asUser(models.RoleTeacher, 5), 5)
	require.NoError(t, err)
	assert.Equal(t, "T-5", res.EmployeeID)
	assert.Equal(t, []string{}, res.Subjects)

	_, err = f.svc.GetTeacher(asUser(models.RoleTeacher, 6), 5)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, _, err = f.svc.ListTeachers(asUser(models.RoleParent, 9), models.UserFilter{}, firstPage)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	f.users.On("ListTeachers", mock.Anything, models.UserFilter{OnlyID: 5}, firstPage).
		Return([]*models.Teacher{{User: models.User{ID: 5}}}, int64(1), nil)
	items, _, err := f.svc.ListTeachers(asUser(models.RoleTeacher, 5), models.UserFilter{}, firstPage)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreateTeacher(t *testing.T) {
	f := newUserFixture()
	req := &dto.CreateTeacherRequest{
		CreateUserRequest: newUserRequest(""),
		EmployeeID:        "T-1",
		Subjects:          []string{"Math", "Physics"},
	}
	f.users.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 21
	}).Return(nil)
	f.users.On("CreateTeacherProfile", mock.Anything, mock.MatchedBy(func(p *models.TeacherProfile) bool {
		return p.UserID == 21 && len(p.Subjects) == 2
	})).Return(nil)

	res, err := f.svc.CreateTeacher(asUser(models.RoleSchoolAdmin, 1), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, res.Role)
	assert.Equal(t, []string{"Math", "Physics"}, res.Subjects)
}
