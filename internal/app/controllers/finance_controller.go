package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// FinanceController handles the fee catalogue, student fees and payments
type FinanceController struct {
	financeService *services.FinanceService
	logger         zerolog.Logger
}

func NewFinanceController(financeService *services.FinanceService, logger zerolog.Logger) *FinanceController {
	return &FinanceController{financeService: financeService, logger: logger}
}

func financeFilter(ctx *gin.Context) (models.FinanceFilter, error) {
	f := models.FinanceFilter{
		StudentID:    queryID(ctx, "studentId"),
		StudentFeeID: queryID(ctx, "studentFeeId"),
		ClassID:      queryID(ctx, "classId"),
		Status:       ctx.Query("status"),
		AcademicYear: ctx.Query("academicYear"),
	}
	var err error
	if f.From, err = queryDate(ctx, "from"); err != nil {
		return f, err
	}
	f.To, err = queryDate(ctx, "to")
	return f, err
}

func listFinance[T any](ctx *gin.Context, fetch func(models.FinanceFilter, helpers.PageRequest) ([]T, int64, error)) {
	f, err := financeFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	p := helpers.ParsePaginationParams(ctx)
	items, total, err := fetch(f, p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, items, total, p)
}

// CreateCategory godoc
// @Summary Create fee category
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.FeeCategoryRequest true "Category"
// @Success 201 {object} dto.APIResponse{data=models.FeeCategory}
// @Router /finance/categories [post]
func (c *FinanceController) CreateCategory(ctx *gin.Context) {
	var req dto.FeeCategoryRequest
	if !bindJSON(ctx, &req) {
		return
	}
	category, err := c.financeService.CreateCategory(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, category, err)
}

// @Summary Update fee category
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body dto.FeeCategoryRequest true "Category"
// @Success 200 {object} dto.APIResponse{data=models.FeeCategory}
// @Router /finance/categories/{id} [put]
func (c *FinanceController) UpdateCategory(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.FeeCategoryRequest
	if !bindJSON(ctx, &req) {
		return
	}
	category, err := c.financeService.UpdateCategory(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, category, err)
}

// @Summary Get fee category
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} dto.APIResponse{data=models.FeeCategory}
// @Router /finance/categories/{id} [get]
func (c *FinanceController) GetCategory(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	category, err := c.financeService.GetCategory(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, category, err)
}

// @Summary List fee categories
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.FeeCategory}}
// @Router /finance/categories [get]
func (c *FinanceController) ListCategories(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	categories, total, err := c.financeService.ListCategories(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, categories, total, p)
}

// @Summary Delete fee category
// @Tags finance
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} dto.APIResponse
// @Router /finance/categories/{id} [delete]
func (c *FinanceController) DeleteCategory(ctx *gin.Context) {
	remove(ctx, "Fee category", c.financeService.DeleteCategory)
}

// CreateStructure godoc
// @Summary Create fee structure
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.FeeStructureRequest true "Structure"
// @Success 201 {object} dto.APIResponse{data=models.FeeStructure}
// @Failure 409 {object} dto.ErrorResponse "Category, class and year already priced"
// @Router /finance/structures [post]
func (c *FinanceController) CreateStructure(ctx *gin.Context) {
	var req dto.FeeStructureRequest
	if !bindJSON(ctx, &req) {
		return
	}
	structure, err := c.financeService.CreateStructure(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, structure, err)
}

// @Summary Update fee structure
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Structure ID"
// @Param request body dto.FeeStructureRequest true "Structure"
// @Success 200 {object} dto.APIResponse{data=models.FeeStructure}
// @Router /finance/structures/{id} [put]
func (c *FinanceController) UpdateStructure(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.FeeStructureRequest
	if !bindJSON(ctx, &req) {
		return
	}
	structure, err := c.financeService.UpdateStructure(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, structure, err)
}

// @Summary Get fee structure
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Structure ID"
// @Success 200 {object} dto.APIResponse{data=models.FeeStructure}
// @Router /finance/structures/{id} [get]
func (c *FinanceController) GetStructure(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	structure, err := c.financeService.GetStructure(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, structure, err)
}

// @Summary List fee structures
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param classId query int false "Class filter"
// @Param academicYear query string false "Academic year, e.g. 2024-2025"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.FeeStructure}}
// @Router /finance/structures [get]
func (c *FinanceController) ListStructures(ctx *gin.Context) {
	listFinance(ctx, func(f models.FinanceFilter, p helpers.PageRequest) ([]*models.FeeStructure, int64, error) {
		return c.financeService.ListStructures(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete fee structure
// @Tags finance
// @Security BearerAuth
// @Param id path int true "Structure ID"
// @Success 200 {object} dto.APIResponse
// @Router /finance/structures/{id} [delete]
func (c *FinanceController) DeleteStructure(ctx *gin.Context) {
	remove(ctx, "Fee structure", c.financeService.DeleteStructure)
}

// CreateDiscount godoc
// @Summary Create discount
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DiscountRequest true "Discount"
// @Success 201 {object} dto.APIResponse{data=models.Discount}
// @Failure 400 {object} dto.ErrorResponse "Percentage above 100 or negative value"
// @Router /finance/discounts [post]
func (c *FinanceController) CreateDiscount(ctx *gin.Context) {
	var req dto.DiscountRequest
	if !bindJSON(ctx, &req) {
		return
	}
	discount, err := c.financeService.CreateDiscount(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, discount, err)
}

// @Summary Update discount
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount ID"
// @Param request body dto.DiscountRequest true "Discount"
// @Success 200 {object} dto.APIResponse{data=models.Discount}
// @Router /finance/discounts/{id} [put]
func (c *FinanceController) UpdateDiscount(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.DiscountRequest
	if !bindJSON(ctx, &req) {
		return
	}
	discount, err := c.financeService.UpdateDiscount(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, discount, err)
}

// @Summary Get discount
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount ID"
// @Success 200 {object} dto.APIResponse{data=models.Discount}
// @Router /finance/discounts/{id} [get]
func (c *FinanceController) GetDiscount(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	discount, err := c.financeService.GetDiscount(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, discount, err)
}

// @Summary List discounts
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Discount}}
// @Router /finance/discounts [get]
func (c *FinanceController) ListDiscounts(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	discounts, total, err := c.financeService.ListDiscounts(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, discounts, total, p)
}

// @Summary Delete discount
// @Tags finance
// @Security BearerAuth
// @Param id path int true "Discount ID"
// @Success 200 {object} dto.APIResponse
// @Router /finance/discounts/{id} [delete]
func (c *FinanceController) DeleteDiscount(ctx *gin.Context) {
	remove(ctx, "Discount", c.financeService.DeleteDiscount)
}

// CreateStudentFee godoc
// @Summary Charge a student
// @Description Without an amount the fee is priced from its structure with the discount applied. The student is notified.
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StudentFeeRequest true "Student fee"
// @Success 201 {object} dto.APIResponse{data=models.StudentFee}
// @Router /finance/student-fees [post]
func (c *FinanceController) CreateStudentFee(ctx *gin.Context) {
	var req dto.StudentFeeRequest
	if !bindJSON(ctx, &req) {
		return
	}
	fee, err := c.financeService.CreateStudentFee(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, fee, err)
}

// @Summary Update a student fee
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student fee ID"
// @Param request body dto.UpdateStudentFeeRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.StudentFee}
// @Router /finance/student-fees/{id} [patch]
func (c *FinanceController) UpdateStudentFee(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateStudentFeeRequest
	if !bindJSON(ctx, &req) {
		return
	}
	fee, err := c.financeService.UpdateStudentFee(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, fee, err)
}

// @Summary Get a student fee
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student fee ID"
// @Success 200 {object} dto.APIResponse{data=models.StudentFee}
// @Router /finance/student-fees/{id} [get]
func (c *FinanceController) GetStudentFee(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	fee, err := c.financeService.GetStudentFee(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, fee, err)
}

// @Summary List student fees
// @Description Admins and accountants see all, students their own, parents their children's
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param studentId query int false "Student filter"
// @Param status query string false "pending, partial, paid or overdue"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.StudentFee}}
// @Router /finance/student-fees [get]
func (c *FinanceController) ListStudentFees(ctx *gin.Context) {
	listFinance(ctx, func(f models.FinanceFilter, p helpers.PageRequest) ([]*models.StudentFee, int64, error) {
		return c.financeService.ListStudentFees(ctx.Request.Context(), f, p)
	})
}

// @Summary Delete a student fee
// @Tags finance
// @Security BearerAuth
// @Param id path int true "Student fee ID"
// @Success 200 {object} dto.APIResponse
// @Router /finance/student-fees/{id} [delete]
func (c *FinanceController) DeleteStudentFee(ctx *gin.Context) {
	remove(ctx, "Student fee", c.financeService.DeleteStudentFee)
}

// MarkOverdue godoc
// @Summary Flag overdue fees
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Router /finance/student-fees/mark-overdue [post]
func (c *FinanceController) MarkOverdue(ctx *gin.Context) {
	n, err := c.financeService.MarkOverdue(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, gin.H{"updated": n})
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Settles the fee from the sum of its payments; paying more than the balance is rejected
// @Tags finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PaymentRequest true "Payment"
// @Success 201 {object} dto.APIResponse{data=dto.PaymentReceipt}
// @Failure 400 {object} dto.ErrorResponse "Amount not positive or above the balance"
// @Router /finance/payments [post]
func (c *FinanceController) RecordPayment(ctx *gin.Context) {
	var req dto.PaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	payment, fee, err := c.financeService.RecordPayment(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().
		Int64("paymentId", payment.ID).
		Int64("studentFeeId", fee.ID).
		Str("status", string(fee.Status)).
		Msg("Payment recorded")
	created(ctx, dto.PaymentReceipt{Payment: payment, StudentFee: fee})
}

// @Summary Get a payment
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=models.Payment}
// @Router /finance/payments/{id} [get]
func (c *FinanceController) GetPayment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	payment, err := c.financeService.GetPayment(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, payment, err)
}

// @Summary List payments
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param studentFeeId query int false "Student fee filter"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Payment}}
// @Router /finance/payments [get]
func (c *FinanceController) ListPayments(ctx *gin.Context) {
	listFinance(ctx, func(f models.FinanceFilter, p helpers.PageRequest) ([]*models.Payment, int64, error) {
		return c.financeService.ListPayments(ctx.Request.Context(), f, p)
	})
}

// PaymentSummary godoc
// @Summary Payment totals
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=models.PaymentSummary}
// @Router /finance/payments/summary [get]
func (c *FinanceController) PaymentSummary(ctx *gin.Context) {
	f, err := financeFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	summary, err := c.financeService.PaymentSummary(ctx.Request.Context(), f)
	respond(ctx, http.StatusOK, summary, err)
}

// DeletePayment godoc
// @Summary Delete a payment
// @Description Returns the fee recomputed without the payment
// @Tags finance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=models.StudentFee}
// @Router /finance/payments/{id} [delete]
func (c *FinanceController) DeletePayment(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	fee, err := c.financeService.DeletePayment(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, fee, err)
}

