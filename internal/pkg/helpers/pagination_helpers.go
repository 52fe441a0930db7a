package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
)

const DefaultPage = 1

var (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SetPageLimits overrides the page size defaults from configuration.
// Non-positive values leave the current setting untouched.
func SetPageLimits(defaultSize, maxSize int) {
	if maxSize > 0 {
		MaxPageSize = maxSize
	}
	if defaultSize > 0 && defaultSize <= MaxPageSize {
		DefaultPageSize = defaultSize
	}
}

// PageRequest is a normalized 1-based page request.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the SQL offset for the page.
func (p PageRequest) Offset() uint64 {
	offset, _ := CalculateOffsetLimit(p.Page, p.Size)
	return offset
}

// Limit returns the SQL limit for the page.
func (p PageRequest) Limit() uint64 {
	_, limit := CalculateOffsetLimit(p.Page, p.Size)
	return uint64(limit)
}

// CalculateOffsetLimit converts a 1-based page into an SQL offset and limit.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 || size > MaxPageSize {
		limit = DefaultPageSize
	} else {
		limit = size
	}
	if page < 1 {
		page = DefaultPage
	}
	offset = uint64((page - 1) * limit)
	return offset, limit
}

// NewPaginationInfo builds the pagination block of a list response.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(size)))
	} else if page == 1 {
		totalPages = 1
	}

	currentPage := page
	if totalPages > 0 && currentPage > totalPages {
		currentPage = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// NewPaginatedResponse pairs items with their pagination block.
func NewPaginatedResponse(items interface{}, totalItems int64, p PageRequest) dto.PaginatedResponse {
	return dto.PaginatedResponse{
		Items:      items,
		Pagination: NewPaginationInfo(totalItems, p.Page, p.Size),
	}
}

// ParsePaginationParams reads page and size from the query string.
func ParsePaginationParams(c *gin.Context) PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return PageRequest{Page: page, Size: size}
}
