package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeDuplicateSchema     = "42P06"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports a unique violation on any constraint.
func IsUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports a reference to a missing parent row.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeForeignKeyViolation
}

// IsCheckViolation reports a failed CHECK constraint.
func IsCheckViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeCheckViolation
}

// IsDuplicateSchema reports CREATE SCHEMA on an existing name.
func IsDuplicateSchema(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeDuplicateSchema
}

// ConstraintName returns the violated constraint, or "".
func ConstraintName(err error) string {
	if pgErr, ok := pgError(err); ok {
		return pgErr.ConstraintName
	}
	return ""
}
