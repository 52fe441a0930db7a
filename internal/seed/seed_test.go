package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

type recorder struct {
	classes    []string
	categories []string
	existing   map[string]bool
	broken     string
}

func (r *recorder) outcome(name string) error {
	switch {
	case r.existing[name]:
		return apperrors.NewConflictError(name + " exists")
	case name == r.broken:
		return errors.New("disk full")
	}
	return nil
}

func (r *recorder) Create(_ context.Context, c *models.Class) error {
	r.classes = append(r.classes, c.Name)
	return r.outcome(c.Name)
}

func (r *recorder) CreateCategory(_ context.Context, c *models.FeeCategory) error {
	r.categories = append(r.categories, c.Name)
	return r.outcome(c.Name)
}

func TestSchoolDefaults(t *testing.T) {
	r := &recorder{existing: map[string]bool{"Class 1": true, "Tuition": true}}

	created, err := SchoolDefaults(context.Background(), r, r, zerolog.Nop())
	assert.NoError(t, err)
	assert.Len(t, r.classes, Grades)
	assert.Equal(t, "Class 12", r.classes[Grades-1])
	assert.Len(t, r.categories, len(DefaultFeeCategories))
	assert.Equal(t, Grades+len(DefaultFeeCategories)-2, created)
}

func TestSchoolDefaultsCollectsFailures(t *testing.T) {
	r := &recorder{broken: "Library"}

	created, err := SchoolDefaults(context.Background(), r, r, zerolog.Nop())
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "disk full"))
	assert.Equal(t, Grades+len(DefaultFeeCategories)-1, created)
}
