package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

type financeFixture struct {
	fees          *mocks.MockFeeStore
	studentFees   *mocks.MockStudentFeeStore
	users         *mocks.MockUserStore
	notifications *mocks.MockNotificationStore
	tx            *mocks.InlineTransactor
	svc           *FinanceService
}

func newFinanceFixture() *financeFixture {
	f := &financeFixture{
		fees:          new(mocks.MockFeeStore),
		studentFees:   new(mocks.MockStudentFeeStore),
		users:         new(mocks.MockUserStore),
		notifications: new(mocks.MockNotificationStore),
		tx:            &mocks.InlineTransactor{},
	}
	f.svc = NewFinanceService(f.fees, f.studentFees, f.users, NewNotifier(f.notifications, nil, nop), f.tx, nop)
	f.svc.now = func() time.Time { return time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC) }
	return f
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDiscountValidation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.DiscountRequest
		want error
	}{
		{"percentage over 100", dto.DiscountRequest{Name: "x", DiscountType: models.DiscountPercentage, Value: money("120")}, apperrors.ErrFeeModule},
		{"negative fixed", dto.DiscountRequest{Name: "x", DiscountType: models.DiscountFixed, Value: money("-1")}, apperrors.ErrFeeModule},
		{"unknown type", dto.DiscountRequest{Name: "x", DiscountType: "bogus", Value: money("1")}, apperrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFinanceFixture()
			_, err := f.svc.CreateDiscount(asUser(models.RoleSchoolAdmin, 1), &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateStructureChecksAcademicYear(t *testing.T) {
	f := newFinanceFixture()
	_, err := f.svc.CreateStructure(asUser(models.RoleSchoolAdmin, 1), &dto.FeeStructureRequest{
		CategoryID: 1, ClassID: 2, Amount: money("100"), Frequency: models.FrequencyAnnual, AcademicYear: "2024/25",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.CreateStructure(asUser(models.RoleAccountant, 4), &dto.FeeStructureRequest{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateStudentFeeAppliesDiscount(t *testing.T) {
	f := newFinanceFixture()
	discountID := int64(3)
	f.users.On("GetStudent", mock.Anything, int64(8), allScope).Return(&models.Student{}, nil)
	f.fees.On("GetStructure", mock.Anything, int64(2)).Return(&models.FeeStructure{ID: 2, Amount: money("1000")}, nil)
	f.fees.On("GetDiscount", mock.Anything, discountID).Return(&models.Discount{DiscountType: models.DiscountPercentage, Value: money("15")}, nil)
	f.studentFees.On("Create", mock.Anything, mock.MatchedBy(func(fee *models.StudentFee) bool {
		return fee.Amount.Equal(money("850")) && fee.Status == models.FeePending && fee.PaidAmount.IsZero()
	})).Return(nil)
	f.notifications.On("CreateMany", mock.Anything, notifiedOnce(8, models.NotifyFee)).Return(nil)

	fee, err := f.svc.CreateStudentFee(asUser(models.RoleAccountant, 4), &dto.StudentFeeRequest{
		StudentID: 8, FeeStructureID: 2, DiscountID: &discountID, DueDate: models.NewDate(2025, time.June, 1),
	})
	require.NoError(t, err)
	assert.True(t, fee.Balance.Equal(money("850")))
	f.studentFees.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
}

func TestRecordPayment(t *testing.T) {
	fee := func() *models.StudentFee {
		return &models.StudentFee{
			ID: 5, StudentID: 8, Amount: money("500"), PaidAmount: money("200"),
			Status: models.FeePartial, DueDate: models.NewDate(2025, time.June, 1),
		}
	}

	t.Run("exceeding balance", func(t *testing.T) {
		f := newFinanceFixture()
		f.studentFees.On("GetByID", mock.Anything, int64(5), allScope).Return(fee(), nil)

		_, _, err := f.svc.RecordPayment(asUser(models.RoleAccountant, 4), &dto.PaymentRequest{
			StudentFeeID: 5, Amount: money("300.01"), PaymentMethod: models.PaymentCash,
		})
		assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsBalance)
		f.studentFees.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	})

	t.Run("settles the fee", func(t *testing.T) {
		f := newFinanceFixture()
		f.studentFees.On("GetByID", mock.Anything, int64(5), allScope).Return(fee(), nil)
		f.studentFees.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return *p.ReceivedBy == 4 && p.PaymentMethod == models.PaymentUPI
		})).Return(nil)
		f.studentFees.On("PaidTotal", mock.Anything, int64(5)).Return(money("500"), nil)
		f.studentFees.On("Update", mock.Anything, mock.MatchedBy(func(fee *models.StudentFee) bool {
			return fee.Status == models.FeePaid && fee.Balance.IsZero()
		})).Return(nil)

		_, settled, err := f.svc.RecordPayment(asUser(models.RoleAccountant, 4), &dto.PaymentRequest{
			StudentFeeID: 5, Amount: money("300"), PaymentMethod: models.PaymentUPI,
		})
		require.NoError(t, err)
		assert.Equal(t, models.FeePaid, settled.Status)
		f.studentFees.AssertExpectations(t)
	})

	t.Run("non positive", func(t *testing.T) {
		f := newFinanceFixture()
		_, _, err := f.svc.RecordPayment(asUser(models.RoleAccountant, 4), &dto.PaymentRequest{
			StudentFeeID: 5, Amount: decimal.Zero, PaymentMethod: models.PaymentCash,
		})
		assert.ErrorIs(t, err, apperrors.ErrFeeModule)
	})

	t.Run("librarian cannot record", func(t *testing.T) {
		f := newFinanceFixture()
		_, _, err := f.svc.RecordPayment(asUser(models.RoleLibrarian, 3), &dto.PaymentRequest{})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestDeletePaymentReopensOverdueFee(t *testing.T) {
	f := newFinanceFixture()
	f.studentFees.On("GetPayment", mock.Anything, int64(11), allScope).Return(&models.Payment{ID: 11, StudentFeeID: 5}, nil)
	f.studentFees.On("GetByID", mock.Anything, int64(5), allScope).Return(&models.StudentFee{
		ID: 5, Amount: money("500"), PaidAmount: money("500"), Status: models.FeePaid, DueDate: models.NewDate(2025, time.May, 1),
	}, nil)
	f.studentFees.On("DeletePayment", mock.Anything, int64(11)).Return(nil)
	f.studentFees.On("PaidTotal", mock.Anything, int64(5)).Return(decimal.Zero, nil)
	f.studentFees.On("Update", mock.Anything, mock.Anything).Return(nil)

	fee, err := f.svc.DeletePayment(asUser(models.RoleSchoolAdmin, 1), 11)
	require.NoError(t, err)
	assert.Equal(t, models.FeeOverdue, fee.Status)
	assert.True(t, fee.Balance.Equal(money("500")))
}

func TestFeeReadScopes(t *testing.T) {
	tests := []struct {
		role  models.RoleType
		scope models.Scope
	}{
		{models.RoleAccountant, models.Scope{All: true}},
		{models.RoleStudent, models.Scope{StudentID: 5}},
		{models.RoleParent, models.Scope{ParentID: 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := newFinanceFixture()
			f.studentFees.On("Summary", mock.Anything, models.FinanceFilter{Scope: tt.scope}).
				Return(&models.PaymentSummary{TotalAmount: money("10"), Count: 1}, nil)
			sum, err := f.svc.PaymentSummary(asUser(tt.role, 5), models.FinanceFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), sum.Count)
		})
	}

	f := newFinanceFixture()
	_, _, err := f.svc.ListStudentFees(asUser(models.RoleTeacher, 2), models.FinanceFilter{}, firstPage)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkFeesOverdue(t *testing.T) {
	f := newFinanceFixture()
	f.studentFees.On("MarkOverdue", mock.Anything, models.NewDate(2025, time.May, 20)).Return(int64(2), nil)
	n, err := f.svc.MarkOverdue(asUser(models.RoleSchoolAdmin, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
