package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockSubjectStore struct {
	mock.Mock
}

func (m *MockSubjectStore) Create(ctx context.Context, s *models.Subject) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubjectStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Subject, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subject), args.Error(1)
}

func (m *MockSubjectStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Subject, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Subject
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Subject)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockSubjectStore) Update(ctx context.Context, s *models.Subject) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSubjectStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
