package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
)

var hundred = decimal.NewFromInt(100)

// FinanceService bills students and records what they pay
type FinanceService struct {
	fees        FeeStore
	studentFees StudentFeeStore
	users       UserStore
	notifier    *Notifier
	tx          Transactor
	now         func() time.Time
	logger      zerolog.Logger
}

func NewFinanceService(fees FeeStore, studentFees StudentFeeStore, users UserStore, notifier *Notifier, tx Transactor, logger zerolog.Logger) *FinanceService {
	return &FinanceService{
		fees:        fees,
		studentFees: studentFees,
		users:       users,
		notifier:    notifier,
		tx:          tx,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *FinanceService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

// accountant allows admins and accountants.
func accountant(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || actor.Is(models.RoleAccountant) {
		return actor, nil
	}
	return nil, apperrors.NewForbiddenError("only accountants and administrators can manage fees")
}

// feeScope lets finance staff see everything and families only their own.
func feeScope(a *auth.Actor) (models.Scope, error) {
	scope := auth.ModuleScope(a, models.RoleAccountant)
	if scope.All || scope.StudentID != 0 || scope.ParentID != 0 {
		return scope, nil
	}
	return models.Scope{}, apperrors.NewForbiddenError("you cannot view fees")
}

func feeError(field, msg string) error {
	return &apperrors.CustomError{
		Err:     apperrors.ErrFeeModule,
		Message: msg,
		Details: map[string]interface{}{"field": field},
	}
}

// ---- categories ----

func (s *FinanceService) CreateCategory(ctx context.Context, req *dto.FeeCategoryRequest) (*models.FeeCategory, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	c := &models.FeeCategory{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.fees.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("error creating fee category: %w", err)
	}
	return c, nil
}

func (s *FinanceService) UpdateCategory(ctx context.Context, id int64, req *dto.FeeCategoryRequest) (*models.FeeCategory, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	c, err := s.fees.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	if err := s.fees.UpdateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("error updating fee category: %w", err)
	}
	return c, nil
}

func (s *FinanceService) GetCategory(ctx context.Context, id int64) (*models.FeeCategory, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, err
	}
	return s.fees.GetCategory(ctx, id)
}

func (s *FinanceService) ListCategories(ctx context.Context, p helpers.PageRequest) ([]*models.FeeCategory, int64, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, 0, err
	}
	return s.fees.ListCategories(ctx, p)
}

func (s *FinanceService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.adminOnly(ctx); err != nil {
		return err
	}
	return s.fees.DeleteCategory(ctx, id)
}

func (s *FinanceService) adminOnly(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return actor, auth.RequireAdmin(actor)
}

// ---- structures ----

func (s *FinanceService) fillStructure(ctx context.Context, st *models.FeeStructure, req *dto.FeeStructureRequest) error {
	if req.Amount.IsNegative() {
		return feeError("amount", "amount cannot be negative")
	}
	if !req.Frequency.IsValid() {
		return apperrors.NewValidationError("frequency", "unknown fee frequency")
	}
	year := strings.TrimSpace(req.AcademicYear)
	if !validation.IsAcademicYear(year) {
		return apperrors.NewValidationError("academicYear", "academic year must look like 2024-2025")
	}
	if _, err := s.fees.GetCategory(ctx, req.CategoryID); err != nil {
		return refError(err, "categoryId", "fee category")
	}
	st.CategoryID = req.CategoryID
	st.ClassID = req.ClassID
	st.Amount = req.Amount
	st.Frequency = req.Frequency
	st.AcademicYear = year
	return nil
}

func (s *FinanceService) CreateStructure(ctx context.Context, req *dto.FeeStructureRequest) (*models.FeeStructure, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	st := &models.FeeStructure{}
	if err := s.fillStructure(ctx, st, req); err != nil {
		return nil, err
	}
	if err := s.fees.CreateStructure(ctx, st); err != nil {
		return nil, fmt.Errorf("error creating fee structure: %w", err)
	}
	return st, nil
}

func (s *FinanceService) UpdateStructure(ctx context.Context, id int64, req *dto.FeeStructureRequest) (*models.FeeStructure, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	st, err := s.fees.GetStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillStructure(ctx, st, req); err != nil {
		return nil, err
	}
	if err := s.fees.UpdateStructure(ctx, st); err != nil {
		return nil, fmt.Errorf("error updating fee structure: %w", err)
	}
	return st, nil
}

func (s *FinanceService) GetStructure(ctx context.Context, id int64) (*models.FeeStructure, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, err
	}
	return s.fees.GetStructure(ctx, id)
}

func (s *FinanceService) ListStructures(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.FeeStructure, int64, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, 0, err
	}
	return s.fees.ListStructures(ctx, f, p)
}

func (s *FinanceService) DeleteStructure(ctx context.Context, id int64) error {
	if _, err := s.adminOnly(ctx); err != nil {
		return err
	}
	return s.fees.DeleteStructure(ctx, id)
}

// ---- discounts ----

func fillDiscount(d *models.Discount, req *dto.DiscountRequest) error {
	switch req.DiscountType {
	case models.DiscountPercentage:
		if req.Value.GreaterThan(hundred) {
			return feeError("value", "a percentage discount cannot exceed 100")
		}
	case models.DiscountFixed:
	default:
		return apperrors.NewValidationError("discountType", "discount type must be percentage or fixed")
	}
	if req.Value.IsNegative() {
		return feeError("value", "discount value cannot be negative")
	}
	d.Name = strings.TrimSpace(req.Name)
	d.Description = req.Description
	d.DiscountType = req.DiscountType
	d.Value = req.Value
	return nil
}

func (s *FinanceService) CreateDiscount(ctx context.Context, req *dto.DiscountRequest) (*models.Discount, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	d := &models.Discount{}
	if err := fillDiscount(d, req); err != nil {
		return nil, err
	}
	if err := s.fees.CreateDiscount(ctx, d); err != nil {
		return nil, fmt.Errorf("error creating discount: %w", err)
	}
	return d, nil
}

func (s *FinanceService) UpdateDiscount(ctx context.Context, id int64, req *dto.DiscountRequest) (*models.Discount, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}
	d, err := s.fees.GetDiscount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fillDiscount(d, req); err != nil {
		return nil, err
	}
	if err := s.fees.UpdateDiscount(ctx, d); err != nil {
		return nil, fmt.Errorf("error updating discount: %w", err)
	}
	return d, nil
}

func (s *FinanceService) GetDiscount(ctx context.Context, id int64) (*models.Discount, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, err
	}
	return s.fees.GetDiscount(ctx, id)
}

func (s *FinanceService) ListDiscounts(ctx context.Context, p helpers.PageRequest) ([]*models.Discount, int64, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, 0, err
	}
	return s.fees.ListDiscounts(ctx, p)
}

func (s *FinanceService) DeleteDiscount(ctx context.Context, id int64) error {
	if _, err := s.adminOnly(ctx); err != nil {
		return err
	}
	return s.fees.DeleteDiscount(ctx, id)
}

// ---- student fees ----

// chargeFor derives a fee amount from its structure and optional discount.
func (s *FinanceService) chargeFor(ctx context.Context, structureID int64, discountID *int64) (decimal.Decimal, error) {
	st, err := s.fees.GetStructure(ctx, structureID)
	if err != nil {
		return decimal.Zero, refError(err, "feeStructureId", "fee structure")
	}
	amount := st.Amount
	if discountID != nil {
		d, err := s.fees.GetDiscount(ctx, *discountID)
		if err != nil {
			return decimal.Zero, refError(err, "discountId", "discount")
		}
		amount = d.Apply(amount)
	}
	return amount, nil
}

// settle recomputes the paid total and status of f from its payments.
func (s *FinanceService) settle(ctx context.Context, f *models.StudentFee) error {
	paid, err := s.studentFees.PaidTotal(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Settle(paid)
	if f.Status == models.FeePending && f.DueDate.Before(s.today().Time) {
		f.Status = models.FeeOverdue
	}
	return nil
}

// CreateStudentFee bills a student, deriving the amount when none is given.
func (s *FinanceService) CreateStudentFee(ctx context.Context, req *dto.StudentFeeRequest) (*models.StudentFee, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, err
	}
	if _, err := s.users.GetStudent(ctx, req.StudentID, models.Scope{All: true}); err != nil {
		return nil, refError(err, "studentId", "student")
	}

	amount, err := s.chargeFor(ctx, req.FeeStructureID, req.DiscountID)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.IsNegative() {
		return nil, feeError("amount", "amount cannot be negative")
	}

	f := &models.StudentFee{
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		DiscountID:     req.DiscountID,
		DueDate:        req.DueDate,
		Amount:         amount,
		PaidAmount:     decimal.Zero,
		Status:         models.FeePending,
	}
	f.Settle(decimal.Zero)
	if err := s.studentFees.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("error creating student fee: %w", err)
	}

	s.notifier.Notify(ctx, []int64{f.StudentID}, Notice{
		Type:       models.NotifyFee,
		Title:      "New fee",
		Message:    fmt.Sprintf("A fee of %s is due on %s.", f.Amount.StringFixed(2), f.DueDate),
		ObjectType: "student_fee",
		ObjectID:   f.ID,
	})
	return f, nil
}

func (s *FinanceService) UpdateStudentFee(ctx context.Context, id int64, req *dto.UpdateStudentFeeRequest) (*models.StudentFee, error) {
	if _, err := accountant(ctx); err != nil {
		return nil, err
	}

	var f *models.StudentFee
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if f, err = s.studentFees.GetByID(ctx, id, models.Scope{All: true}); err != nil {
			return err
		}
		if req.DueDate != nil {
			f.DueDate = *req.DueDate
			if f.Status == models.FeeOverdue {
				f.Status = models.FeePending
			}
		}
		if req.DiscountID != nil {
			f.DiscountID = req.DiscountID
			if req.Amount == nil {
				if f.Amount, err = s.chargeFor(ctx, f.FeeStructureID, f.DiscountID); err != nil {
					return err
				}
			}
		}
		if req.Amount != nil {
			f.Amount = *req.Amount
		}
		if f.Amount.IsNegative() {
			return feeError("amount", "amount cannot be negative")
		}
		if f.Amount.LessThan(f.PaidAmount) {
			return feeError("amount", fmt.Sprintf("%s has already been paid", f.PaidAmount.StringFixed(2)))
		}
		if err := s.settle(ctx, f); err != nil {
			return err
		}
		return s.studentFees.Update(ctx, f)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating student fee: %w", err)
	}
	return f, nil
}

func (s *FinanceService) GetStudentFee(ctx context.Context, id int64) (*models.StudentFee, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := feeScope(actor)
	if err != nil {
		return nil, err
	}
	return s.studentFees.GetByID(ctx, id, scope)
}

func (s *FinanceService) ListStudentFees(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.StudentFee, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = feeScope(actor); err != nil {
		return nil, 0, err
	}
	return s.studentFees.List(ctx, f, p)
}

func (s *FinanceService) DeleteStudentFee(ctx context.Context, id int64) error {
	if _, err := s.adminOnly(ctx); err != nil {
		return err
	}
	return s.studentFees.Delete(ctx, id)
}

// MarkOverdue flags unpaid fees past their due date.
func (s *FinanceService) MarkOverdue(ctx context.Context) (int64, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return 0, err
	}
	n, err := s.studentFees.MarkOverdue(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("error marking overdue fees: %w", err)
	}
	s.logger.Info().Int64("updated", n).Msg("Overdue fees marked")
	return n, nil
}

// ---- payments ----

// RecordPayment locks the fee, stores the payment and settles the fee from
// the sum of its payments. Overpayment is rejected.
func (s *FinanceService) RecordPayment(ctx context.Context, req *dto.PaymentRequest) (*models.Payment, *models.StudentFee, error) {
	actor, err := accountant(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, nil, feeError("amount", "payment amount must be greater than zero")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, nil, apperrors.NewValidationError("paymentMethod", "unknown payment method")
	}

	paidAt := s.now().UTC()
	if req.PaymentDate != nil {
		paidAt = *req.PaymentDate
	}
	receivedBy := actor.UserID
	p := &models.Payment{
		StudentFeeID:  req.StudentFeeID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: strings.TrimSpace(req.TransactionID),
		PaymentDate:   paidAt,
		Remarks:       req.Remarks,
		ReceivedBy:    &receivedBy,
	}

	var fee *models.StudentFee
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if fee, err = s.studentFees.GetByID(ctx, req.StudentFeeID, models.Scope{All: true}); err != nil {
			return err
		}
		balance := fee.Amount.Sub(fee.PaidAmount)
		if req.Amount.GreaterThan(balance) {
			return &apperrors.CustomError{
				Err:     apperrors.ErrPaymentExceedsBalance,
				Message: fmt.Sprintf("outstanding balance is %s", balance.StringFixed(2)),
				Details: map[string]interface{}{"field": "amount"},
			}
		}
		if err := s.studentFees.CreatePayment(ctx, p); err != nil {
			return err
		}
		if err := s.settle(ctx, fee); err != nil {
			return err
		}
		return s.studentFees.Update(ctx, fee)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error recording payment: %w", err)
	}

	s.logger.Info().Int64("studentFeeId", fee.ID).Str("amount", p.Amount.String()).Str("status", string(fee.Status)).Msg("Payment recorded")
	return p, fee, nil
}

func (s *FinanceService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope, err := feeScope(actor)
	if err != nil {
		return nil, err
	}
	return s.studentFees.GetPayment(ctx, id, scope)
}

func (s *FinanceService) ListPayments(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.Payment, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if f.Scope, err = feeScope(actor); err != nil {
		return nil, 0, err
	}
	return s.studentFees.ListPayments(ctx, f, p)
}

// PaymentSummary totals payments over the caller's scope and optional dates.
func (s *FinanceService) PaymentSummary(ctx context.Context, f models.FinanceFilter) (*models.PaymentSummary, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if f.From != nil && f.To != nil && f.To.Before(f.From.Time) {
		return nil, apperrors.NewValidationError("to", "end date cannot be before start date")
	}
	if f.Scope, err = feeScope(actor); err != nil {
		return nil, err
	}
	return s.studentFees.Summary(ctx, f)
}

// DeletePayment removes a payment and settles its fee again.
func (s *FinanceService) DeletePayment(ctx context.Context, id int64) (*models.StudentFee, error) {
	if _, err := s.adminOnly(ctx); err != nil {
		return nil, err
	}

	var fee *models.StudentFee
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.studentFees.GetPayment(ctx, id, models.Scope{All: true})
		if err != nil {
			return err
		}
		if fee, err = s.studentFees.GetByID(ctx, p.StudentFeeID, models.Scope{All: true}); err != nil {
			return err
		}
		if err := s.studentFees.DeletePayment(ctx, id); err != nil {
			return err
		}
		if err := s.settle(ctx, fee); err != nil {
			return err
		}
		return s.studentFees.Update(ctx, fee)
	})
	if err != nil {
		return nil, fmt.Errorf("error deleting payment: %w", err)
	}
	return fee, nil
}
