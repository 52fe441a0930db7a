package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	EmailPattern        = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`
	ISBNPattern         = `^\d{13}$`
	SchemaNamePattern   = `^[a-z][a-z0-9_]{0,62}$`
	AcademicYearPattern = `^(\d{4})-(\d{4})$`
	ClockPattern        = `^([01]\d|2[0-3]):[0-5]\d$`
	DomainPattern       = `^[a-z0-9_]([a-z0-9_\-]{0,61}[a-z0-9_])?(\.[a-z0-9_]([a-z0-9_\-]{0,61}[a-z0-9_])?)*$`

	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email        *regexp.Regexp
	ISBN         *regexp.Regexp
	SchemaName   *regexp.Regexp
	AcademicYear *regexp.Regexp
	Clock        *regexp.Regexp
	Domain       *regexp.Regexp
}{
	Email:        regexp.MustCompile(EmailPattern),
	ISBN:         regexp.MustCompile(ISBNPattern),
	SchemaName:   regexp.MustCompile(SchemaNamePattern),
	AcademicYear: regexp.MustCompile(AcademicYearPattern),
	Clock:        regexp.MustCompile(ClockPattern),
	Domain:       regexp.MustCompile(DomainPattern),
}

// IsEmail reports a plausible email address.
func IsEmail(s string) bool {
	return CompiledPatterns.Email.MatchString(s)
}

// IsStrongPassword requires the minimum length, one letter and one digit.
func IsStrongPassword(s string) bool {
	if len(s) < PasswordMinLength {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// IsISBN13 accepts exactly thirteen digits.
func IsISBN13(s string) bool {
	return CompiledPatterns.ISBN.MatchString(s)
}

// IsSchemaName accepts a tenant schema identifier. Reserved names are refused.
func IsSchemaName(s string) bool {
	if !CompiledPatterns.SchemaName.MatchString(s) {
		return false
	}
	return s != "public" && !strings.HasPrefix(s, "pg_") && s != "information_schema"
}

// IsAcademicYear accepts "2024-2025" where the second year follows the first.
func IsAcademicYear(s string) bool {
	m := CompiledPatterns.AcademicYear.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// IsClock accepts "HH:MM" in 24h.
func IsClock(s string) bool {
	return CompiledPatterns.Clock.MatchString(s)
}

// IsDomain accepts a lowercase hostname without port. Underscores are allowed
// so derived tenant hosts can reuse the schema name as their label.
func IsDomain(s string) bool {
	return len(s) <= 253 && CompiledPatterns.Domain.MatchString(s)
}

// Register adds the custom tags used by request DTOs to v.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		"isbn13":       IsISBN13,
		"schemaname":   IsSchemaName,
		"academicyear": IsAcademicYear,
		"clock":        IsClock,
		"hostname_rfc": IsDomain,
		"strongpass":   IsStrongPassword,
	}
	for tag, fn := range rules {
		fn := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}
