package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var (
	feeCategoryColumns  = []string{"id", "name", "description", "created_at", "updated_at"}
	feeStructureColumns = []string{"id", "category_id", "class_id", "amount", "frequency", "academic_year", "created_at", "updated_at"}
	discountColumns     = []string{"id", "name", "description", "discount_type", "value", "created_at", "updated_at"}
)

var feeConstraints = map[string]error{
	"fee_categories_name_key":                apperrors.NewConflictError("a fee category with this name already exists"),
	"fee_structures_category_class_year_key": apperrors.ErrFeeStructureExists,
	"discounts_percentage_check":             apperrors.NewValidationError("value", "percentage discount cannot exceed 100"),
}

// FeeRepository handles fee categories, structures and discounts
type FeeRepository struct {
	baseRepository
}

func NewFeeRepository(db *sql.DB) *FeeRepository {
	return &FeeRepository{baseRepository{db: db}}
}

func feeCategoryTargets(c *models.FeeCategory) []any {
	return []any{&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt}
}

func feeStructureTargets(s *models.FeeStructure) []any {
	return []any{&s.ID, &s.CategoryID, &s.ClassID, &s.Amount, &s.Frequency, &s.AcademicYear, &s.CreatedAt, &s.UpdatedAt}
}

func discountTargets(d *models.Discount) []any {
	return []any{&d.ID, &d.Name, &d.Description, &d.DiscountType, &d.Value, &d.CreatedAt, &d.UpdatedAt}
}

// Categories

func (r *FeeRepository) CreateCategory(ctx context.Context, c *models.FeeCategory) error {
	query := psql.Insert(r.t(ctx, "fee_categories")).
		Columns("name", "description").
		Values(c.Name, c.Description).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &c.ID, &c.CreatedAt, &c.UpdatedAt)
	return logFailure(constraintError(err, feeConstraints), "Failed to create fee category")
}

func (r *FeeRepository) GetCategory(ctx context.Context, id int64) (*models.FeeCategory, error) {
	query := psql.Select(feeCategoryColumns...).From(r.t(ctx, "fee_categories")).Where(squirrel.Eq{"id": id})

	var c models.FeeCategory
	if err := r.getOne(ctx, query, apperrors.ErrFeeCategoryNotFound, feeCategoryTargets(&c)...); err != nil {
		return nil, logFailure(err, "Failed to get fee category")
	}
	return &c, nil
}

func (r *FeeRepository) ListCategories(ctx context.Context, p helpers.PageRequest) ([]*models.FeeCategory, int64, error) {
	query := psql.Select(feeCategoryColumns...).From(r.t(ctx, "fee_categories")).OrderBy("name")

	categories := []*models.FeeCategory{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var c models.FeeCategory
		if err := row.Scan(append(feeCategoryTargets(&c), total)...); err != nil {
			return err
		}
		categories = append(categories, &c)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list fee categories")
	}
	return categories, total, nil
}

func (r *FeeRepository) UpdateCategory(ctx context.Context, c *models.FeeCategory) error {
	c.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "fee_categories")).
		Set("name", c.Name).
		Set("description", c.Description).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID})

	err := r.execOne(ctx, query, apperrors.ErrFeeCategoryNotFound)
	return logFailure(constraintError(err, feeConstraints), "Failed to update fee category")
}

func (r *FeeRepository) DeleteCategory(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "fee_categories")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrFeeCategoryNotFound), "Failed to delete fee category")
}

// Structures

func (r *FeeRepository) CreateStructure(ctx context.Context, s *models.FeeStructure) error {
	query := psql.Insert(r.t(ctx, "fee_structures")).
		Columns("category_id", "class_id", "amount", "frequency", "academic_year").
		Values(s.CategoryID, s.ClassID, s.Amount, s.Frequency, s.AcademicYear).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &s.ID, &s.CreatedAt, &s.UpdatedAt)
	return logFailure(constraintError(err, feeConstraints), "Failed to create fee structure")
}

func (r *FeeRepository) GetStructure(ctx context.Context, id int64) (*models.FeeStructure, error) {
	query := psql.Select(feeStructureColumns...).From(r.t(ctx, "fee_structures")).Where(squirrel.Eq{"id": id})

	var s models.FeeStructure
	if err := r.getOne(ctx, query, apperrors.ErrFeeStructureNotFound, feeStructureTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get fee structure")
	}
	return &s, nil
}

func (r *FeeRepository) ListStructures(ctx context.Context, f models.FinanceFilter, p helpers.PageRequest) ([]*models.FeeStructure, int64, error) {
	query := psql.Select(feeStructureColumns...).From(r.t(ctx, "fee_structures")).OrderBy("academic_year DESC", "class_id", "category_id")
	if f.ClassID != 0 {
		query = query.Where(squirrel.Eq{"class_id": f.ClassID})
	}
	if f.AcademicYear != "" {
		query = query.Where(squirrel.Eq{"academic_year": f.AcademicYear})
	}

	structures := []*models.FeeStructure{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.FeeStructure
		if err := row.Scan(append(feeStructureTargets(&s), total)...); err != nil {
			return err
		}
		structures = append(structures, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list fee structures")
	}
	return structures, total, nil
}

func (r *FeeRepository) UpdateStructure(ctx context.Context, s *models.FeeStructure) error {
	s.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "fee_structures")).
		Set("category_id", s.CategoryID).
		Set("class_id", s.ClassID).
		Set("amount", s.Amount).
		Set("frequency", s.Frequency).
		Set("academic_year", s.AcademicYear).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	err := r.execOne(ctx, query, apperrors.ErrFeeStructureNotFound)
	return logFailure(constraintError(err, feeConstraints), "Failed to update fee structure")
}

func (r *FeeRepository) DeleteStructure(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "fee_structures")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrFeeStructureNotFound), "Failed to delete fee structure")
}

// Discounts

func (r *FeeRepository) CreateDiscount(ctx context.Context, d *models.Discount) error {
	query := psql.Insert(r.t(ctx, "discounts")).
		Columns("name", "description", "discount_type", "value").
		Values(d.Name, d.Description, d.DiscountType, d.Value).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &d.ID, &d.CreatedAt, &d.UpdatedAt)
	return logFailure(constraintError(err, feeConstraints), "Failed to create discount")
}

func (r *FeeRepository) GetDiscount(ctx context.Context, id int64) (*models.Discount, error) {
	query := psql.Select(discountColumns...).From(r.t(ctx, "discounts")).Where(squirrel.Eq{"id": id})

	var d models.Discount
	if err := r.getOne(ctx, query, apperrors.ErrDiscountNotFound, discountTargets(&d)...); err != nil {
		return nil, logFailure(err, "Failed to get discount")
	}
	return &d, nil
}

func (r *FeeRepository) ListDiscounts(ctx context.Context, p helpers.PageRequest) ([]*models.Discount, int64, error) {
	query := psql.Select(discountColumns...).From(r.t(ctx, "discounts")).OrderBy("name")

	discounts := []*models.Discount{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var d models.Discount
		if err := row.Scan(append(discountTargets(&d), total)...); err != nil {
			return err
		}
		discounts = append(discounts, &d)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list discounts")
	}
	return discounts, total, nil
}

func (r *FeeRepository) UpdateDiscount(ctx context.Context, d *models.Discount) error {
	d.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "discounts")).
		Set("name", d.Name).
		Set("description", d.Description).
		Set("discount_type", d.DiscountType).
		Set("value", d.Value).
		Set("updated_at", d.UpdatedAt).
		Where(squirrel.Eq{"id": d.ID})

	err := r.execOne(ctx, query, apperrors.ErrDiscountNotFound)
	return logFailure(constraintError(err, feeConstraints), "Failed to update discount")
}

func (r *FeeRepository) DeleteDiscount(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "discounts")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrDiscountNotFound), "Failed to delete discount")
}
