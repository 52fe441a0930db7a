package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockAssignmentStore struct {
	mock.Mock
}

func (m *MockAssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assignment, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assignment, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Assignment
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Assignment)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAssignmentStore) Update(ctx context.Context, a *models.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssignmentStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssignmentStore) CreateSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockAssignmentStore) GetSubmission(ctx context.Context, id int64, scope models.Scope) (*models.AssignmentSubmission, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssignmentSubmission), args.Error(1)
}

func (m *MockAssignmentStore) ListSubmissions(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssignmentSubmission, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.AssignmentSubmission
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.AssignmentSubmission)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAssignmentStore) GradeSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockAssignmentStore) DeleteSubmission(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
