package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockClassStore struct {
	mock.Mock
}

func (m *MockClassStore) Create(ctx context.Context, c *models.Class) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClassStore) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Class), args.Error(1)
}

func (m *MockClassStore) List(ctx context.Context, f models.AcademicFilter, p helpers.PageRequest) ([]*models.Class, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Class
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Class)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockClassStore) Update(ctx context.Context, c *models.Class) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClassStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
