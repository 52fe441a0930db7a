package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

type MockStudentFeeStore struct {
	mock.Mock
}

func (m *MockStudentFeeStore) Create(ctx context.Context, f *models.StudentFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStudentFeeStore) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.StudentFee, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentFee), args.Error(1)
}

func (m *MockStudentFeeStore) List(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.StudentFee, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.StudentFee
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.StudentFee)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockStudentFeeStore) Update(ctx context.Context, f *models.StudentFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockStudentFeeStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStudentFeeStore) MarkOverdue(ctx context.Context, today models.Date) (int64, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStudentFeeStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStudentFeeStore) GetPayment(ctx context.Context, id int64, scope models.Scope) (*models.Payment, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockStudentFeeStore) ListPayments(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.Payment, int64, error) {
	args := m.Called(ctx, f, p)
	var r0 []*models.Payment
	if v := args.Get(0); v != nil {
		r0 = v.([]*models.Payment)
	}
	return r0, args.Get(1).(int64), args.Error(2)
}

func (m *MockStudentFeeStore) Summary(ctx context.Context, f models.FinanceFilter) (*models.PaymentSummary, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSummary), args.Error(1)
}

func (m *MockStudentFeeStore) PaidTotal(ctx context.Context, studentFeeID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, studentFeeID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStudentFeeStore) DeletePayment(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
