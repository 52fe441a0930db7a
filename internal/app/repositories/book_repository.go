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

var bookColumns = []string{
	"id", "title", "author", "isbn", "publisher", "publication_year",
	"copies", "available_copies", "status", "created_at", "updated_at",
}

var issueColumns = []string{
	"id", "book_id", "student_id", "issue_date", "due_date", "return_date",
	"status", "fine_amount", "remarks", "created_at", "updated_at",
}

var bookConstraints = map[string]error{
	"books_isbn_key":               apperrors.ErrISBNExists,
	"books_available_copies_check": apperrors.ErrCopiesBelowIssued,
}

// BookRepository handles the catalogue and its circulation records
type BookRepository struct {
	baseRepository
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{baseRepository{db: db}}
}

func bookTargets(b *models.Book) []any {
	return []any{
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Publisher, &b.PublicationYear,
		&b.Copies, &b.AvailableCopies, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	}
}

func issueTargets(i *models.BookIssue) []any {
	return []any{
		&i.ID, &i.BookID, &i.StudentID, &i.IssueDate, &i.DueDate, &i.ReturnDate,
		&i.Status, &i.FineAmount, &i.Remarks, &i.CreatedAt, &i.UpdatedAt,
	}
}

func (r *BookRepository) Create(ctx context.Context, b *models.Book) error {
	query := psql.Insert(r.t(ctx, "books")).
		Columns("title", "author", "isbn", "publisher", "publication_year", "copies", "available_copies", "status").
		Values(b.Title, b.Author, b.ISBN, b.Publisher, b.PublicationYear, b.Copies, b.AvailableCopies, b.Status).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &b.ID, &b.CreatedAt, &b.UpdatedAt)
	return logFailure(constraintError(err, bookConstraints), "Failed to create book")
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	return r.get(ctx, psql.Select(bookColumns...).From(r.t(ctx, "books")).Where(squirrel.Eq{"id": id}))
}

// GetForUpdate locks the book row for the rest of the transaction.
func (r *BookRepository) GetForUpdate(ctx context.Context, id int64) (*models.Book, error) {
	query := psql.Select(bookColumns...).From(r.t(ctx, "books")).Where(squirrel.Eq{"id": id})
	if inTx(ctx) {
		query = query.Suffix("FOR UPDATE")
	}
	return r.get(ctx, query)
}

func (r *BookRepository) get(ctx context.Context, query squirrel.SelectBuilder) (*models.Book, error) {
	var b models.Book
	if err := r.getOne(ctx, query, apperrors.ErrBookNotFound, bookTargets(&b)...); err != nil {
		return nil, logFailure(err, "Failed to get book")
	}
	return &b, nil
}

func (r *BookRepository) List(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.Book, int64, error) {
	query := psql.Select(bookColumns...).From(r.t(ctx, "books")).OrderBy("title", "id")
	if f.Search != "" {
		pattern := helpers.LikePattern(f.Search)
		query = query.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"author": pattern},
			squirrel.ILike{"isbn": pattern},
		})
	}
	if f.Status != "" {
		query = query.Where(squirrel.Eq{"status": f.Status})
	}

	books := []*models.Book{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var b models.Book
		if err := row.Scan(append(bookTargets(&b), total)...); err != nil {
			return err
		}
		books = append(books, &b)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list books")
	}
	return books, total, nil
}

func (r *BookRepository) Update(ctx context.Context, b *models.Book) error {
	b.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "books")).
		Set("title", b.Title).
		Set("author", b.Author).
		Set("isbn", b.ISBN).
		Set("publisher", b.Publisher).
		Set("publication_year", b.PublicationYear).
		Set("copies", b.Copies).
		Set("available_copies", b.AvailableCopies).
		Set("status", b.Status).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID})

	err := r.execOne(ctx, query, apperrors.ErrBookNotFound)
	return logFailure(constraintError(err, bookConstraints), "Failed to update book")
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "books")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrBookNotFound), "Failed to delete book")
}

// OutstandingCount counts copies of a book that are issued or overdue.
func (r *BookRepository) OutstandingCount(ctx context.Context, bookID int64) (int, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "book_issues")).
		Where(squirrel.Eq{"book_id": bookID, "status": []string{string(models.IssueIssued), string(models.IssueOverdue)}})
	n, err := r.count(ctx, query)
	return int(n), logFailure(err, "Failed to count issued copies")
}

func (r *BookRepository) CreateIssue(ctx context.Context, i *models.BookIssue) error {
	query := psql.Insert(r.t(ctx, "book_issues")).
		Columns("book_id", "student_id", "issue_date", "due_date", "status", "fine_amount", "remarks").
		Values(i.BookID, i.StudentID, i.IssueDate, i.DueDate, i.Status, i.FineAmount, i.Remarks).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &i.ID, &i.CreatedAt, &i.UpdatedAt)
	return logFailure(constraintError(err, nil), "Failed to create book issue")
}

func (r *BookRepository) GetIssue(ctx context.Context, id int64, scope models.Scope) (*models.BookIssue, error) {
	query := psql.Select(issueColumns...).From(r.t(ctx, "book_issues")).Where(squirrel.Eq{"id": id})
	query = where(query, r.studentScope(ctx, scope, "student_id"))
	if inTx(ctx) {
		query = query.Suffix("FOR UPDATE")
	}

	var i models.BookIssue
	if err := r.getOne(ctx, query, apperrors.ErrIssueNotFound, issueTargets(&i)...); err != nil {
		return nil, logFailure(err, "Failed to get book issue")
	}
	return &i, nil
}

// ListIssues lists circulation records. With Overdue set only unreturned
// issues past their due date are included.
func (r *BookRepository) ListIssues(ctx context.Context, f models.BookFilter, p helpers.PageRequest) ([]*models.BookIssue, int64, error) {
	query := psql.Select(issueColumns...).From(r.t(ctx, "book_issues")).OrderBy("issue_date DESC", "id DESC")
	query = where(query, r.studentScope(ctx, f.Scope, "student_id"))
	if f.Status != "" {
		query = query.Where(squirrel.Eq{"status": f.Status})
	}
	if f.BookID != 0 {
		query = query.Where(squirrel.Eq{"book_id": f.BookID})
	}
	if f.StudentID != 0 {
		query = query.Where(squirrel.Eq{"student_id": f.StudentID})
	}
	if f.Overdue {
		query = query.Where(squirrel.Lt{"due_date": models.Today()}).
			Where(squirrel.Eq{"status": []string{string(models.IssueIssued), string(models.IssueOverdue)}})
	}

	issues := []*models.BookIssue{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var i models.BookIssue
		if err := row.Scan(append(issueTargets(&i), total)...); err != nil {
			return err
		}
		issues = append(issues, &i)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list book issues")
	}
	return issues, total, nil
}

func (r *BookRepository) UpdateIssue(ctx context.Context, i *models.BookIssue) error {
	i.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "book_issues")).
		Set("due_date", i.DueDate).
		Set("return_date", i.ReturnDate).
		Set("status", i.Status).
		Set("fine_amount", i.FineAmount).
		Set("remarks", i.Remarks).
		Set("updated_at", i.UpdatedAt).
		Where(squirrel.Eq{"id": i.ID})

	err := r.execOne(ctx, query, apperrors.ErrIssueNotFound)
	return logFailure(constraintError(err, nil), "Failed to update book issue")
}

// MarkOverdue flags every issued record due before today and returns how
// many changed.
func (r *BookRepository) MarkOverdue(ctx context.Context, today models.Date) (int64, error) {
	query := psql.Update(r.t(ctx, "book_issues")).
		Set("status", models.IssueOverdue).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"status": models.IssueIssued}).
		Where(squirrel.Lt{"due_date": today})

	n, err := r.exec(ctx, query)
	return n, logFailure(err, "Failed to mark overdue issues")
}
