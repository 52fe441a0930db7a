package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		offset     uint64
		limit      int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 20, 40, 20},
		{"zero page", 0, 10, 0, 10},
		{"oversized", 2, 1000, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := CalculateOffsetLimit(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(42, 2, 10)
	assert.Equal(t, 5, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=3&size=500", nil)

	p := ParsePaginationParams(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Equal(t, uint64(20), p.Offset())
}

func TestSlugHelpers(t *testing.T) {
	assert.Equal(t, "st_mary_s_high", Slugify("St. Mary's  High", "_"))
	assert.Equal(t, "school_green_valley", SchemaNameFor("school_", "Green Valley"))
	assert.Equal(t, "admin_green_valley", AdminUsernameFor(" Green Valley "))
	assert.LessOrEqual(t, len(SchemaNameFor("school_", "a very long school name that keeps going and going past the limit")), 63)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\% off%`, LikePattern(" 50% off "))
}
