package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/schoolsphere/internal/app/models"
)

type FeeCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

type FeeStructureRequest struct {
	CategoryID   int64               `json:"categoryId" binding:"required,gt=0"`
	ClassID      int64               `json:"classId" binding:"required,gt=0"`
	Amount       decimal.Decimal     `json:"amount"`
	Frequency    models.FeeFrequency `json:"frequency" binding:"required,oneof=monthly quarterly semi_annual annual one_time"`
	AcademicYear string              `json:"academicYear" binding:"required,academicyear" example:"2024-2025"`
}

type DiscountRequest struct {
	Name         string              `json:"name" binding:"required,max=100"`
	Description  string              `json:"description" binding:"omitempty,max=1000"`
	DiscountType models.DiscountType `json:"discountType" binding:"required,oneof=percentage fixed"`
	Value        decimal.Decimal     `json:"value"`
}

// StudentFeeRequest leaves Amount empty to derive it from the structure and discount
type StudentFeeRequest struct {
	StudentID      int64            `json:"studentId" binding:"required,gt=0"`
	FeeStructureID int64            `json:"feeStructureId" binding:"required,gt=0"`
	DiscountID     *int64           `json:"discountId" binding:"omitempty,gt=0"`
	DueDate        models.Date      `json:"dueDate" binding:"required"`
	Amount         *decimal.Decimal `json:"amount"`
}

type UpdateStudentFeeRequest struct {
	DiscountID *int64           `json:"discountId" binding:"omitempty,gt=0"`
	DueDate    *models.Date     `json:"dueDate"`
	Amount     *decimal.Decimal `json:"amount"`
}

type PaymentRequest struct {
	StudentFeeID  int64                `json:"studentFeeId" binding:"required,gt=0"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required,oneof=cash bank_transfer card upi cheque"`
	TransactionID string               `json:"transactionId" binding:"omitempty,max=100"`
	PaymentDate   *time.Time           `json:"paymentDate"`
	Remarks       string               `json:"remarks" binding:"omitempty,max=500"`
}

// PaymentReceipt pairs a recorded payment with the fee it settled
type PaymentReceipt struct {
	Payment    *models.Payment    `json:"payment"`
	StudentFee *models.StudentFee `json:"studentFee"`
}
