package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockAttendanceStore struct {
	mock.Mock
}

func (m *MockAttendanceStore) Create(ctx context.Context, a *models.Attendance) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttendanceStore) CreateBulk(ctx context.Context, records []*models.Attendance) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockAttendanceStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.Attendance, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attendance), args.Error(1)
}

func (m *MockAttendanceStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Attendance, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Attendance
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Attendance)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockAttendanceStore) Update(ctx context.Context, a *models.Attendance) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttendanceStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
