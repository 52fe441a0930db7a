// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// pathID parses a positive integer path parameter. It answers 400 and
// returns false when the parameter is malformed.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(name, "invalid "+name))
		return 0, false
	}
	return id, true
}

// queryID reads an optional positive id filter; malformed values count as absent.
func queryID(ctx *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(ctx.Query(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func queryBool(ctx *gin.Context, name string) *bool {
	raw, ok := ctx.GetQuery(name)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// queryDate parses an optional YYYY-MM-DD filter.
func queryDate(ctx *gin.Context, name string) (*models.Date, error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(name, name+" must be a date like 2025-01-31")
	}
	return &d, nil
}

// bind decodes a JSON or multipart body into req; multipart requests carry
// their optional attachment in the "file" field.
func bind(ctx *gin.Context, req interface{}) (*multipart.FileHeader, bool) {
	if err := ctx.ShouldBind(req); err != nil {
		middleware.HandleBindError(ctx, err)
		return nil, false
	}
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return nil, true
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		middleware.HandleBindError(ctx, err)
		return nil, false
	}
	return fh, true
}

func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		middleware.HandleBindError(ctx, err)
		return false
	}
	return true
}

func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data))
}

func created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(data))
}

func page[T any](ctx *gin.Context, items []T, total int64, p helpers.PageRequest) {
	if items == nil {
		items = []T{}
	}
	ok(ctx, helpers.NewPaginatedResponse(items, total, p))
}

func message(ctx *gin.Context, msg string) {
	res := dto.NewAPIResponse(nil)
	res.Message = msg
	ctx.JSON(http.StatusOK, res)
}

// remove deletes the resource named by the id path parameter.
func remove(ctx *gin.Context, what string, del func(context.Context, int64) error) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := del(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, what+" deleted")
}
