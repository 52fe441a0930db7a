package tenancy

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

type fakeMigrator struct {
	schemas []string
	err     error
}

func (f *fakeMigrator) MigrateTenant(_ context.Context, schema string) error {
	f.schemas = append(f.schemas, schema)
	return f.err
}

func TestTable(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, `"public"."users"`, Table(ctx, "users"))

	ctx = WithTenant(ctx, FromSchool(&models.School{ID: 7, SchemaName: "school_green", Name: "Green"}))
	assert.Equal(t, `"school_green"."books"`, Table(ctx, "books"))

	tenant, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), tenant.SchoolID)
	assert.False(t, tenant.IsPublic())
	assert.True(t, Public().IsPublic())
}

func TestQualifiedTable_QuotesHostileNames(t *testing.T) {
	assert.Equal(t, `"a""b"."c"`, QualifiedTable(`a"b`, "c"))
}

func TestProvision(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "school_green"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	migrator := &fakeMigrator{}
	p := NewProvisioner(sqlDB, migrator)

	require.NoError(t, p.Provision(context.Background(), "school_green"))
	assert.Equal(t, []string{"school_green"}, migrator.schemas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_RejectsReservedNames(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	p := NewProvisioner(sqlDB, &fakeMigrator{})
	for _, name := range []string{"public", "pg_catalog", "Bad-Name", ""} {
		err := p.Provision(context.Background(), name)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_MigrationFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "school_x"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	boom := errors.New("boom")
	err = NewProvisioner(sqlDB, &fakeMigrator{err: boom}).Provision(context.Background(), "school_x")
	assert.ErrorIs(t, err, boom)
}

func TestDropAndExists(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DROP SCHEMA IF EXISTS "school_x" CASCADE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`information_schema.schemata`)).
		WithArgs("school_x").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	p := NewProvisioner(sqlDB, &fakeMigrator{})
	require.NoError(t, p.Drop(context.Background(), "school_x"))

	exists, err := p.Exists(context.Background(), "school_x")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
