package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.User, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.User
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.User)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserStore) Update(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserStore) UpdateProfilePicture(ctx context.Context, id int64, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) CountByRole(ctx context.Context, roles ...models.RoleType) (int64, error) {
	args := m.Called(ctx, roles)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockUserStore) UpdateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockUserStore) GetStudent(ctx context.Context, id int64, scope models.Scope) (*models.Student, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockUserStore) ListStudents(ctx context.Context, scope models.Scope, f models.UserFilter, p helpers.PageRequest) ([]*models.Student, int64, error) {
	args := m.Called(ctx, scope, f, p)
	var r0 []*models.Student
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Student)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserStore) CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockUserStore) UpdateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockUserStore) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Teacher), args.Error(1)
}

func (m *MockUserStore) ListTeachers(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.Teacher, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Teacher
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Teacher)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserStore) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockUserStore) AudienceIDs(ctx context.Context, roles []models.RoleType, classIDs []int64, sectionIDs []int64) ([]int64, error) {
	args := m.Called(ctx, roles, classIDs, sectionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}
