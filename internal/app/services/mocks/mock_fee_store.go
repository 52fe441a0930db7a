package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockFeeStore struct {
	mock.Mock
}

func (m *MockFeeStore) CreateCategory(ctx context.Context, c *models.FeeCategory) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockFeeStore) GetCategory(ctx context.Context, id int64) (*models.FeeCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeCategory), args.Error(1)
}

func (m *MockFeeStore) ListCategories(ctx context.Context, p helpers.PageRequest) ([]*models.FeeCategory, int64, error) {
	args := m.Called(ctx, p)
	var r0 []*models.FeeCategory
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.FeeCategory)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockFeeStore) UpdateCategory(ctx context.Context, c *models.FeeCategory) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockFeeStore) DeleteCategory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeStore) CreateStructure(ctx context.Context, s *models.FeeStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockFeeStore) GetStructure(ctx context.Context, id int64) (*models.FeeStructure, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeStructure), args.Error(1)
}

func (m *MockFeeStore) ListStructures(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.FeeStructure, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.FeeStructure
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.FeeStructure)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockFeeStore) UpdateStructure(ctx context.Context, s *models.FeeStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockFeeStore) DeleteStructure(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFeeStore) CreateDiscount(ctx context.Context, d *models.Discount) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockFeeStore) GetDiscount(ctx context.Context, id int64) (*models.Discount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Discount), args.Error(1)
}

func (m *MockFeeStore) ListDiscounts(ctx context.Context, p helpers.PageRequest) ([]*models.Discount, int64, error) {
	args := m.Called(ctx, p)
	var r0 []*models.Discount
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Discount)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockFeeStore) UpdateDiscount(ctx context.Context, d *models.Discount) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockFeeStore) DeleteDiscount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
