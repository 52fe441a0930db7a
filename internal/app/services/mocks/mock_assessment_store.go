package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockAssessmentStore struct {
	mock.Mock
}

func (m *MockAssessmentStore) Create(ctx context.Context, a *models.Assessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssessmentStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Assessment, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAssessmentStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Assessment, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Assessment
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Assessment)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAssessmentStore) Update(ctx context.Context, a *models.Assessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssessmentStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssessmentStore) HighestResult(ctx context.Context, assessmentID int64) (*models.AssessmentResult, error) {
	args := m.Called(ctx, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentStore) CreateResult(ctx context.Context, res *models.AssessmentResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockAssessmentStore) GetResult(ctx context.Context, id int64, scope models.Scope) (*models.AssessmentResult, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentStore) ListResults(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AssessmentResult, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.AssessmentResult
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.AssessmentResult)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAssessmentStore) UpdateResult(ctx context.Context, res *models.AssessmentResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockAssessmentStore) DeleteResult(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
