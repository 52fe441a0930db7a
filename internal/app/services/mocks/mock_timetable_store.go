package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockTimetableStore struct {
	mock.Mock
}

func (m *MockTimetableStore) Create(ctx context.Context, e *models.TimetableEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockTimetableStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.TimetableEntry, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimetableEntry), args.Error(1)
}

func (m *MockTimetableStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.TimetableEntry, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.TimetableEntry
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.TimetableEntry)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockTimetableStore) Overlaps(ctx context.Context, e *models.TimetableEntry) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockTimetableStore) Update(ctx context.Context, e *models.TimetableEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockTimetableStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
