package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	assert.True(t, IsStrongPassword("abcdefg1"))
	assert.False(t, IsStrongPassword("abcdefgh"))
	assert.False(t, IsStrongPassword("1234567"))

	assert.True(t, IsISBN13("9780306406157"))
	assert.False(t, IsISBN13("978030640615X"))

	assert.True(t, IsSchemaName("school_green_valley"))
	assert.False(t, IsSchemaName("public"))
	assert.False(t, IsSchemaName("pg_catalog"))
	assert.False(t, IsSchemaName("Green"))

	assert.True(t, IsAcademicYear("2024-2025"))
	assert.False(t, IsAcademicYear("2024-2026"))
	assert.False(t, IsAcademicYear("24-25"))

	assert.True(t, IsClock("08:30"))
	assert.False(t, IsClock("24:00"))

	assert.True(t, IsDomain("green.schools.test"))
	assert.False(t, IsDomain("green.schools.test:8080"))
	assert.True(t, IsDomain("school_green.localhost"))

	assert.True(t, IsEmail("head@green.test"))
	assert.False(t, IsEmail("head@green"))
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	type req struct {
		ISBN string `validate:"isbn13"`
		Year string `validate:"academicyear"`
	}
	assert.NoError(t, v.Struct(req{ISBN: "9780306406157", Year: "2023-2024"}))
	assert.Error(t, v.Struct(req{ISBN: "123", Year: "2023-2024"}))
}
