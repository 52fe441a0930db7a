// Package store is the single-school persistence layer: sqlx over lib/pq
// with goose migrations embedded in the binary.
package store

import (
	"context"
	"database/sql"
	"embed"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("record already exists")
	ErrUnavailable = errors.New("no copies available")
	ErrReturned    = errors.New("book already returned")
	ErrLoanLimit   = errors.New("member has reached the loan limit")
	ErrInactive    = errors.New("membership is not active")
	ErrInUse       = errors.New("record is still referenced")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// psql builds $n-placeholder queries for lib/pq.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store groups the lite repositories over one connection pool.
type Store struct {
	db *sqlx.DB

	Users        *UserRepository
	Students     *StudentRepository
	Books        *BookRepository
	Categories   *CategoryRepository
	Members      *MemberRepository
	Circulations *CirculationRepository
}

// New wraps an open handle.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:           db,
		Users:        &UserRepository{db: db},
		Students:     &StudentRepository{db: db},
		Books:        &BookRepository{db: db},
		Categories:   &CategoryRepository{db: db},
		Members:      &MemberRepository{db: db},
		Circulations: &CirculationRepository{db: db},
	}
}

// Open connects with lib/pq and waits for the server to answer.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= 10; attempt++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	db.Close()
	return nil, errors.Wrap(pingErr, "database ping timeout")
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	return errors.Wrap(goose.UpContext(ctx, db, "migrations"), "running migrations")
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// translate maps driver errors onto the store sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrNotFound, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return errors.Wrapf(ErrDuplicate, "%s: %s", what, pqErr.Constraint)
		case foreignKeyViolation:
			return errors.Wrapf(ErrInUse, "%s: %s", what, pqErr.Constraint)
		}
	}
	return errors.Wrap(err, what)
}

// affected turns a zero-row update or delete into ErrNotFound.
func affected(res sql.Result, err error, what string) error {
	if err != nil {
		return translate(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, what)
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, what)
	}
	return nil
}

func window(p Page) (int, int) {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	return skip, limit
}

// inTx runs fn in a transaction, rolling back on error.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}
