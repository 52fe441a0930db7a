package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var studentFeeColumns = []string{
	"id", "student_id", "fee_structure_id", "discount_id", "due_date",
	"amount", "paid_amount", "status", "created_at", "updated_at",
}

var paymentColumns = prefixed("p", []string{
	"id", "student_fee_id", "amount", "payment_method", "transaction_id",
	"payment_date", "remarks", "received_by", "created_at",
})

var studentFeeConstraints = map[string]error{
	"student_fees_paid_amount_check": apperrors.ErrPaymentExceedsBalance,
}

// StudentFeeRepository handles fees charged to students and the payments against them
type StudentFeeRepository struct {
	baseRepository
}

func NewStudentFeeRepository(db *sql.DB) *StudentFeeRepository {
	return &StudentFeeRepository{baseRepository{db: db}}
}

func studentFeeTargets(f *models.StudentFee) []any {
	return []any{
		&f.ID, &f.StudentID, &f.FeeStructureID, &f.DiscountID, &f.DueDate,
		&f.Amount, &f.PaidAmount, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	}
}

func paymentTargets(p *models.Payment) []any {
	return []any{
		&p.ID, &p.StudentFeeID, &p.Amount, &p.PaymentMethod, &p.TransactionID,
		&p.PaymentDate, &p.Remarks, &p.ReceivedBy, &p.CreatedAt,
	}
}

func (r *StudentFeeRepository) Create(ctx context.Context, f *models.StudentFee) error {
	query := psql.Insert(r.t(ctx, "student_fees")).
		Columns("student_id", "fee_structure_id", "discount_id", "due_date", "amount", "paid_amount", "status").
		Values(f.StudentID, f.FeeStructureID, f.DiscountID, f.DueDate, f.Amount, f.PaidAmount, f.Status).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &f.ID, &f.CreatedAt, &f.UpdatedAt)
	return logFailure(constraintError(err, studentFeeConstraints), "Failed to create student fee")
}

// GetByID returns the fee if scope may see it. Inside a transaction the row
// is locked.
func (r *StudentFeeRepository) GetByID(ctx context.Context, id int64, scope models.Scope) (*models.StudentFee, error) {
	query := psql.Select(studentFeeColumns...).From(r.t(ctx, "student_fees")).Where(squirrel.Eq{"id": id})
	query = where(query, r.studentScope(ctx, scope, "student_id"))
	if inTx(ctx) {
		query = query.Suffix("FOR UPDATE")
	}

	var f models.StudentFee
	if err := r.getOne(ctx, query, apperrors.ErrStudentFeeNotFound, studentFeeTargets(&f)...); err != nil {
		return nil, logFailure(err, "Failed to get student fee")
	}
	f.Balance = f.Amount.Sub(f.PaidAmount)
	return &f, nil
}

func (r *StudentFeeRepository) List(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.StudentFee, int64, error) {
	query := psql.Select(studentFeeColumns...).From(r.t(ctx, "student_fees")).OrderBy("due_date", "id")
	query = where(query, r.studentScope(ctx, f.Scope, "student_id"))
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"student_id": f.StudentID})
	}
	if f.Status != "" {
		query = query.Where(squirrel.Eq{"status": f.Status})
	}
	if f.From != nil {
		query = query.Where(squirrel.GtOrEq{"due_date": *f.From})
	}
	if f.To != nil {
		query = query.Where(squirrel.LtOrEq{"due_date": *f.To})
	}

	fees := []*models.StudentFee{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var fee models.StudentFee
		if err := row.Scan(append(studentFeeTargets(&fee), total)...); err != nil {
			return err
		}
		fee.Balance = fee.Amount.Sub(fee.PaidAmount)
		fees = append(fees, &fee)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list student fees")
	}
	return fees, total, nil
}

func (r *StudentFeeRepository) Update(ctx context.Context, f *models.StudentFee) error {
	f.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "student_fees")).
		Set("discount_id", f.DiscountID).
		Set("due_date", f.DueDate).
		Set("amount", f.Amount).
		Set("paid_amount", f.PaidAmount).
		Set("status", f.Status).
		Set("updated_at", f.UpdatedAt).
		Where(squirrel.Eq{"id": f.ID})

	err := r.execOne(ctx, query, apperrors.ErrStudentFeeNotFound)
	return logFailure(constraintError(err, studentFeeConstraints), "Failed to update student fee")
}

func (r *StudentFeeRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "student_fees")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrStudentFeeNotFound), "Failed to delete student fee")
}

// MarkOverdue flags unpaid fees due before today and returns how many changed.
func (r *StudentFeeRepository) MarkOverdue(ctx context.Context, today models.Date) (int64, error) {
	query := psql.Update(r.t(ctx, "student_fees")).
		Set("status", models.FeeOverdue).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"status": []string{string(models.FeePending), string(models.FeePartial)}}).
		Where(squirrel.Lt{"due_date": today})

	n, err := r.exec(ctx, query)
	return n, logFailure(err, "Failed to mark overdue fees")
}

func (r *StudentFeeRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := psql.Insert(r.t(ctx, "payments")).
		Columns("student_fee_id", "amount", "payment_method", "transaction_id", "payment_date", "remarks", "received_by").
		Values(p.StudentFeeID, p.Amount, p.PaymentMethod, p.TransactionID, p.PaymentDate, p.Remarks, p.ReceivedBy).
		Suffix("RETURNING id, created_at")

	err := r.getOne(ctx, query, nil, &p.ID, &p.CreatedAt)
	return logFailure(constraintError(err, nil), "Failed to create payment")
}

func (r *StudentFeeRepository) selectPayments(ctx context.Context, scope models.Scope) squirrel.SelectBuilder {
	query := psql.Select(paymentColumns...).
		From(r.t(ctx, "payments") + " p").
		Join(r.t(ctx, "student_fees") + " sf ON sf.id = p.student_fee_id")
	return where(query, r.studentScope(ctx, scope, "sf.student_id"))
}

func paymentFilter(query squirrel.SelectBuilder, f models.FinanceFilter) squirrel.SelectBuilder {
	if f.StudentFeeID != 0 {
		query = query.Where(squirrel.Eq{"p.student_fee_id": f.StudentFeeID})
	}
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"sf.student_id": f.StudentID})
	}
	if f.From != nil {
		query = query.Where(squirrel.GtOrEq{"p.payment_date": f.From.Time})
	}
	if f.To != nil {
		query = query.Where(squirrel.Lt{"p.payment_date": f.To.AddDays(1).Time})
	}
	return query
}

func (r *StudentFeeRepository) GetPayment(ctx context.Context, id int64, scope models.Scope) (*models.Payment, error) {
	query := r.selectPayments(ctx, scope).Where(squirrel.Eq{"p.id": id})

	var p models.Payment
	if err := r.getOne(ctx, query, apperrors.ErrPaymentNotFound, paymentTargets(&p)...); err != nil {
		return nil, logFailure(err, "Failed to get payment")
	}
	return &p, nil
}

func (r *StudentFeeRepository) ListPayments(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.Payment, int64, error) {
	query := paymentFilter(r.selectPayments(ctx, f.Scope), f).OrderBy("p.payment_date DESC", "p.id DESC")

	payments := []*models.Payment{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var payment models.Payment
		if err := row.Scan(append(paymentTargets(&payment), total)...); err != nil {
			return err
		}
		payments = append(payments, &payment)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list payments")
	}
	return payments, total, nil
}

// Summary totals payments visible to the filter's scope.
func (r *StudentFeeRepository) Summary(ctx context.Context, f models.FinanceFilter) (*models.PaymentSummary, error) {
	query := psql.Select("COALESCE(SUM(p.amount), 0)", "COUNT(p.id)").
		From(r.t(ctx, "payments") + " p").
		Join(r.t(ctx, "student_fees") + " sf ON sf.id = p.student_fee_id")
	query = paymentFilter(where(query, r.studentScope(ctx, f.Scope, "sf.student_id")), f)

	var s models.PaymentSummary
	if err := r.getOne(ctx, query, nil, &s.TotalAmount, &s.Count); err != nil {
		return nil, logFailure(err, "Failed to summarize payments")
	}
	return &s, nil
}

// PaidTotal sums the payments recorded against a fee.
func (r *StudentFeeRepository) PaidTotal(ctx context.Context, studentFeeID int64) (decimal.Decimal, error) {
	query := psql.Select("COALESCE(SUM(amount), 0)").From(r.t(ctx, "payments")).
		Where(squirrel.Eq{"student_fee_id": studentFeeID})

	var total decimal.Decimal
	if err := r.getOne(ctx, query, nil, &total); err != nil {
		return decimal.Zero, logFailure(err, "Failed to sum payments")
	}
	return total, nil
}

func (r *StudentFeeRepository) DeletePayment(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "payments")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrPaymentNotFound), "Failed to delete payment")
}
