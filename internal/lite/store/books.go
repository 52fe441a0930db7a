package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const bookColumns = `id, title, isbn, author, publisher, category, edition, publication_year, copies, available_copies,
	price, location, description, cover_image, status, created_at, updated_at`

type BookRepository struct {
	db *sqlx.DB
}

// BookFilter narrows List. Search is a case-insensitive substring of title,
// author or isbn.
type BookFilter struct {
	Category string
	Search   string
}

func (r *BookRepository) List(ctx context.Context, f BookFilter, p Page) ([]Book, error) {
	skip, limit := window(p)
	q := psql.Select(bookColumns).From("books").OrderBy("title", "id").
		Limit(uint64(limit)).Offset(uint64(skip))
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"author": pattern},
			sq.ILike{"isbn": pattern},
		})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building book query")
	}
	books := []Book{}
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, translate(err, "listing books")
	}
	return books, nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*Book, error) {
	var b Book
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id); err != nil {
		return nil, translate(err, "book by id")
	}
	return &b, nil
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	var b Book
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE isbn = $1`, isbn); err != nil {
		return nil, translate(err, "book by isbn")
	}
	return &b, nil
}

func (r *BookRepository) Create(ctx context.Context, b *Book) error {
	if b.Status == "" {
		b.Status = BookAvailable
	}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO books (title, isbn, author, publisher, category, edition, publication_year, copies, available_copies,
			price, location, description, cover_image, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		b.Title, b.ISBN, b.Author, b.Publisher, b.Category, b.Edition, b.PublicationYear, b.Copies, b.AvailableCopies,
		b.Price, b.Location, b.Description, b.CoverImage, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return translate(err, "creating book")
}

func (r *BookRepository) Update(ctx context.Context, b *Book) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE books SET title = $2, isbn = $3, author = $4, publisher = $5, category = $6, edition = $7,
			publication_year = $8, copies = $9, available_copies = $10, price = $11, location = $12,
			description = $13, cover_image = $14, status = $15, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		b.ID, b.Title, b.ISBN, b.Author, b.Publisher, b.Category, b.Edition, b.PublicationYear, b.Copies,
		b.AvailableCopies, b.Price, b.Location, b.Description, b.CoverImage, b.Status,
	).Scan(&b.UpdatedAt)
	return translate(err, "updating book")
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	return affected(res, err, "deleting book")
}
