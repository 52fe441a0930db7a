package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockAcademicYearStore struct {
	mock.Mock
}

func (m *MockAcademicYearStore) Create(ctx context.Context, y *models.AcademicYear) error {
	args := m.Called(ctx, y)
	return args.Error(0)
}

func (m *MockAcademicYearStore) GetByID(ctx context.Context, id int64) (*models.AcademicYear, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AcademicYear), args.Error(1)
}

func (m *MockAcademicYearStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.AcademicYear, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.AcademicYear
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.AcademicYear)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAcademicYearStore) Update(ctx context.Context, y *models.AcademicYear) error {
	args := m.Called(ctx, y)
	return args.Error(0)
}

func (m *MockAcademicYearStore) DeactivateOthers(ctx context.Context, keepID int64) error {
	args := m.Called(ctx, keepID)
	return args.Error(0)
}

func (m *MockAcademicYearStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
