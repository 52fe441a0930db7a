package helpers

import (
	"database/sql"
	"strings"
)

// GetNullString converts a string pointer to sql.NullString.
func GetNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// GetContentNullString treats the empty string as NULL.
func GetContentNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// GetNullInt64 converts an optional id to sql.NullInt64. Nil and zero map to NULL.
func GetNullInt64(i *int64) sql.NullInt64 {
	if i == nil || *i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// Int64Ptr turns a scanned sql.NullInt64 back into an optional id.
func Int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps a search term for ILIKE, escaping wildcards typed by the user.
func LikePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
}
