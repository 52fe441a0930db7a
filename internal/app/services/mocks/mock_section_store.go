package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockSectionStore struct {
	mock.Mock
}

func (m *MockSectionStore) Create(ctx context.Context, s *models.Section) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSectionStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Section, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Section), args.Error(1)
}

func (m *MockSectionStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Section, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Section
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Section)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockSectionStore) Update(ctx context.Context, s *models.Section) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSectionStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSectionStore) AddStudents(ctx context.Context, sectionID int64, studentIDs []int64) error {
	args := m.Called(ctx, sectionID, studentIDs)
	return args.Error(0)
}

func (m *MockSectionStore) RemoveStudents(ctx context.Context, sectionID int64, studentIDs []int64) error {
	args := m.Called(ctx, sectionID, studentIDs)
	return args.Error(0)
}

func (m *MockSectionStore) StudentIDs(ctx context.Context, sectionID int64) ([]int64, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSectionStore) IsEnrolled(ctx context.Context, sectionID int64, studentID int64) (bool, error) {
	args := m.Called(ctx, sectionID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSectionStore) IsTeacherOf(ctx context.Context, teacherID int64, sectionID int64) (bool, error) {
	args := m.Called(ctx, teacherID, sectionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSectionStore) Affiliation(ctx context.Context, userID int64, role models.RoleType) ([]int64, []int64, error) {
	args := m.Called(ctx, userID, role)
	var r0 []int64
	if v := args.Get(0); v != nil {
		r0 = v.([]int64)
	}
	var r1 []int64
	if v := args.Get(1); v != nil {
		r1 = v.([]int64)
	}
	return r0, r1, args.Error(2)
}
