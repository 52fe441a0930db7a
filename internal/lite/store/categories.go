package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, description, parent_id, created_at, updated_at`

type CategoryRepository struct {
	db *sqlx.DB
}

func (r *CategoryRepository) List(ctx context.Context, p Page) ([]Category, error) {
	skip, limit := window(p)
	categories := []Category{}
	err := r.db.SelectContext(ctx, &categories,
		`SELECT `+categoryColumns+` FROM book_categories ORDER BY name LIMIT $1 OFFSET $2`, limit, skip)
	return categories, translate(err, "listing categories")
}

// Roots lists categories without a parent.
func (r *CategoryRepository) Roots(ctx context.Context, p Page) ([]Category, error) {
	skip, limit := window(p)
	categories := []Category{}
	err := r.db.SelectContext(ctx, &categories,
		`SELECT `+categoryColumns+` FROM book_categories WHERE parent_id IS NULL ORDER BY name LIMIT $1 OFFSET $2`, limit, skip)
	return categories, translate(err, "listing root categories")
}

func (r *CategoryRepository) Children(ctx context.Context, parentID int64) ([]Category, error) {
	categories := []Category{}
	err := r.db.SelectContext(ctx, &categories,
		`SELECT `+categoryColumns+` FROM book_categories WHERE parent_id = $1 ORDER BY name`, parentID)
	return categories, translate(err, "listing subcategories")
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM book_categories WHERE id = $1`, id); err != nil {
		return nil, translate(err, "category by id")
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO book_categories (name, description, parent_id) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.ParentID,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "creating category")
}

func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE book_categories SET name = $2, description = $3, parent_id = $4, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		c.ID, c.Name, c.Description, c.ParentID,
	).Scan(&c.UpdatedAt)
	return translate(err, "updating category")
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM book_categories WHERE id = $1`, id)
	return affected(res, err, "deleting category")
}
