package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeFrequency is how often a fee structure is charged.
type FeeFrequency string

const (
	FrequencyMonthly    FeeFrequency = "monthly"
	FrequencyQuarterly  FeeFrequency = "quarterly"
	FrequencySemiAnnual FeeFrequency = "semi_annual"
	FrequencyAnnual     FeeFrequency = "annual"
	FrequencyOneTime    FeeFrequency = "one_time"
)

func (f FeeFrequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual, FrequencyOneTime:
		return true
	}
	return false
}

// DiscountType selects how a discount value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// FeeStatus is derived from paid amount versus amount.
type FeeStatus string

const (
	FeePending FeeStatus = "pending"
	FeePartial FeeStatus = "partial"
	FeePaid    FeeStatus = "paid"
	FeeOverdue FeeStatus = "overdue"
)

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentCheque       PaymentMethod = "cheque"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentCard, PaymentUPI, PaymentCheque:
		return true
	}
	return false
}

type FeeCategory struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// FeeStructure is unique per category, class and academic year ("2024-2025").
type FeeStructure struct {
	ID           int64           `json:"id" db:"id"`
	CategoryID   int64           `json:"categoryId" db:"category_id"`
	ClassID      int64           `json:"classId" db:"class_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Frequency    FeeFrequency    `json:"frequency" db:"frequency"`
	AcademicYear string          `json:"academicYear" db:"academic_year"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

type Discount struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	DiscountType DiscountType    `json:"discountType" db:"discount_type"`
	Value        decimal.Decimal `json:"value" db:"value"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// Apply returns amount reduced by the discount, floored at zero.
func (d *Discount) Apply(amount decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch d.DiscountType {
	case DiscountPercentage:
		out = amount.Sub(amount.Mul(d.Value).Div(decimal.NewFromInt(100)))
	default:
		out = amount.Sub(d.Value)
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

// StudentFee keeps PaidAmount <= Amount.
type StudentFee struct {
	ID             int64           `json:"id" db:"id"`
	StudentID      int64           `json:"studentId" db:"student_id"`
	FeeStructureID int64           `json:"feeStructureId" db:"fee_structure_id"`
	DiscountID     *int64          `json:"discountId,omitempty" db:"discount_id"`
	DueDate        Date            `json:"dueDate" db:"due_date"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	PaidAmount     decimal.Decimal `json:"paidAmount" db:"paid_amount"`
	Status         FeeStatus       `json:"status" db:"status"`
	Balance        decimal.Decimal `json:"balance" db:"-"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// Settle recomputes status and balance from a new paid total.
func (f *StudentFee) Settle(paid decimal.Decimal) {
	f.PaidAmount = paid
	switch {
	case paid.GreaterThanOrEqual(f.Amount):
		f.Status = FeePaid
	case paid.IsPositive():
		f.Status = FeePartial
	case f.Status != FeeOverdue:
		f.Status = FeePending
	}
	f.Balance = f.Amount.Sub(f.PaidAmount)
}

type Payment struct {
	ID            int64           `json:"id" db:"id"`
	StudentFeeID  int64           `json:"studentFeeId" db:"student_fee_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	PaymentDate   time.Time       `json:"paymentDate" db:"payment_date"`
	Remarks       string          `json:"remarks" db:"remarks"`
	ReceivedBy    *int64          `json:"receivedBy,omitempty" db:"received_by"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// PaymentSummary aggregates payments over a scope.
type PaymentSummary struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Count       int64           `json:"count"`
}

// FinanceFilter carries optional list filters for fees and payments.
type FinanceFilter struct {
	StudentID    int64
	StudentFeeID int64
	ClassID      int64
	Status       string
	AcademicYear string
	From         *Date
	To           *Date
	Scope        Scope
}
