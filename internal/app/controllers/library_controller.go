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

// LibraryController serves the book catalogue and circulation desk
type LibraryController struct {
	libraryService *services.LibraryService
	logger         zerolog.Logger
}

func NewLibraryController(libraryService *services.LibraryService, logger zerolog.Logger) *LibraryController {
	return &LibraryController{libraryService: libraryService, logger: logger}
}

func bookFilter(ctx *gin.Context) models.BookFilter {
	return models.BookFilter{
		Search:    ctx.Query("q"),
		Status:    ctx.Query("status"),
		BookID:    queryID(ctx, "bookId"),
		StudentID: queryID(ctx, "studentId"),
	}
}

// CreateBook godoc
// @Summary Add a book
// @Description Available copies start equal to copies
// @Tags library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BookRequest true "Book"
// @Success 201 {object} dto.APIResponse{data=models.Book}
// @Failure 409 {object} dto.ErrorResponse "ISBN already catalogued"
// @Router /library/books [post]
func (c *LibraryController) CreateBook(ctx *gin.Context) {
	var req dto.BookRequest
	if !bindJSON(ctx, &req) {
		return
	}
	book, err := c.libraryService.CreateBook(ctx.Request.Context(), &req)
	respond(ctx, http.StatusCreated, book, err)
}

// UpdateBook godoc
// @Summary Update a book
// @Description Copies cannot drop below the number currently issued
// @Tags library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body dto.UpdateBookRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Book}
// @Router /library/books/{id} [patch]
func (c *LibraryController) UpdateBook(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateBookRequest
	if !bindJSON(ctx, &req) {
		return
	}
	book, err := c.libraryService.UpdateBook(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, book, err)
}

// GetBook godoc
// @Summary Get a book
// @Tags library
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} dto.APIResponse{data=models.Book}
// @Router /library/books/{id} [get]
func (c *LibraryController) GetBook(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	book, err := c.libraryService.GetBook(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, book, err)
}

// ListBooks godoc
// @Summary List books
// @Tags library
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search on title, author and isbn"
// @Param status query string false "available, issued, lost or damaged"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Book}}
// @Router /library/books [get]
func (c *LibraryController) ListBooks(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	books, total, err := c.libraryService.ListBooks(ctx.Request.Context(), bookFilter(ctx), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, books, total, p)
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags library
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} dto.APIResponse
// @Router /library/books/{id} [delete]
func (c *LibraryController) DeleteBook(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.libraryService.DeleteBook(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Book deleted")
}

// IssueBook godoc
// @Summary Issue a book
// @Description Due date defaults to the configured loan period
// @Tags library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.IssueBookRequest true "Issue"
// @Success 201 {object} dto.APIResponse{data=models.BookIssue}
// @Failure 400 {object} dto.ErrorResponse "No copies available, or the book is lost or damaged"
// @Router /library/issues [post]
func (c *LibraryController) IssueBook(ctx *gin.Context) {
	var req dto.IssueBookRequest
	if !bindJSON(ctx, &req) {
		return
	}
	issue, err := c.libraryService.IssueBook(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("issueId", issue.ID).Int64("bookId", issue.BookID).Msg("Book issued")
	created(ctx, issue)
}

// ReturnBook godoc
// @Summary Return a book
// @Description Computes the overdue fine and restores the copy. The body is optional.
// @Tags library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Issue ID"
// @Param request body dto.ReturnBookRequest false "Return date and remarks"
// @Success 200 {object} dto.APIResponse{data=models.BookIssue}
// @Failure 409 {object} dto.ErrorResponse "Already returned"
// @Router /library/issues/{id}/return [post]
func (c *LibraryController) ReturnBook(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.ReturnBookRequest
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return
	}
	issue, err := c.libraryService.ReturnBook(ctx.Request.Context(), id, &req)
	respond(ctx, http.StatusOK, issue, err)
}

// MarkLost godoc
// @Summary Mark an issue lost
// @Tags library
// @Produce json
// @Security BearerAuth
// @Param id path int true "Issue ID"
// @Success 200 {object} dto.APIResponse{data=models.BookIssue}
// @Router /library/issues/{id}/lost [post]
func (c *LibraryController) MarkLost(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	issue, err := c.libraryService.MarkLost(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, issue, err)
}

// GetIssue godoc
// @Summary Get an issue
// @Tags library
// @Produce json
// @Security BearerAuth
// @Param id path int true "Issue ID"
// @Success 200 {object} dto.APIResponse{data=models.BookIssue}
// @Router /library/issues/{id} [get]
func (c *LibraryController) GetIssue(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	issue, err := c.libraryService.GetIssue(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, issue, err)
}

// ListIssues godoc
// @Summary List issues
// @Description Students see their own issues, parents their children's
// @Tags library
// @Produce json
// @Security BearerAuth
// @Param status query string false "issued, returned, overdue or lost"
// @Param studentId query int false "Student filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.BookIssue}}
// @Router /library/issues [get]
func (c *LibraryController) ListIssues(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	issues, total, err := c.libraryService.ListIssues(ctx.Request.Context(), bookFilter(ctx), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, issues, total, p)
}

// ListOverdue godoc
// @Summary List overdue issues
// @Tags library
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.BookIssue}}
// @Router /library/issues/overdue [get]
func (c *LibraryController) ListOverdue(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	issues, total, err := c.libraryService.ListOverdue(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, issues, total, p)
}

// SweepOverdue godoc
// @Summary Flag overdue issues
// @Tags library
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Router /library/issues/sweep-overdue [post]
func (c *LibraryController) SweepOverdue(ctx *gin.Context) {
	n, err := c.libraryService.SweepOverdue(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, gin.H{"updated": n})
}
