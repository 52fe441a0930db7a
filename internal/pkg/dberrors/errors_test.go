package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"})
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "sections_class_id_fkey"}
	check := &pgconn.PgError{Code: "23514", ConstraintName: "books_available_copies_check"}
	plain := errors.New("boom")

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsDuplicateConstraintError(unique, "books_isbn_key"))
	assert.False(t, IsDuplicateConstraintError(unique, "other"))
	assert.Equal(t, "books_isbn_key", ConstraintName(unique))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fk))

	assert.True(t, IsCheckViolation(check))
	assert.True(t, IsDuplicateSchema(&pgconn.PgError{Code: "42P06"}))

	assert.False(t, IsUniqueViolation(plain))
	assert.Empty(t, ConstraintName(plain))
}
