// Package seed fills a freshly provisioned school with default records.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

// ClassCreator is the class side of the academic store.
type ClassCreator interface {
	Create(ctx context.Context, c *models.Class) error
}

// CategoryCreator is the fee category side of the finance store.
type CategoryCreator interface {
	CreateCategory(ctx context.Context, c *models.FeeCategory) error
}

// DefaultFeeCategories are created for every seeded school.
var DefaultFeeCategories = []models.FeeCategory{
	{Name: "Tuition", Description: "Term tuition fee"},
	{Name: "Examination", Description: "Board and internal examination fee"},
	{Name: "Library", Description: "Library membership and fines"},
	{Name: "Transport", Description: "School bus service"},
}

// Grades is the number of classes seeded, named "Class 1" to "Class N".
const Grades = 12

// SchoolDefaults creates the standard classes and fee categories in the
// schema bound to ctx. Records that already exist are skipped, so it can run
// more than once.
func SchoolDefaults(ctx context.Context, classes ClassCreator, fees CategoryCreator, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Checking/Creating default school data (Classes/Fee categories)...")
	var finalErr error
	created := 0

	for grade := 1; grade <= Grades; grade++ {
		class := &models.Class{Name: fmt.Sprintf("Class %d", grade), Description: fmt.Sprintf("Grade %d", grade)}
		switch err := classes.Create(ctx, class); {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrConflict):
		default:
			lgr.Error().Err(err).Str("class", class.Name).Msg("Error creating default class")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, c := range DefaultFeeCategories {
		category := c
		switch err := fees.CreateCategory(ctx, &category); {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrConflict):
		default:
			lgr.Error().Err(err).Str("category", category.Name).Msg("Error creating default fee category")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("created", created).Msg("Default school data check complete.")
	return created, finalErr
}
