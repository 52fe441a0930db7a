package migrations

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"sql/tenant/001_first.sql":  {Data: []byte("CREATE TABLE books (id BIGSERIAL PRIMARY KEY);")},
		"sql/tenant/002_second.sql": {Data: []byte("CREATE TABLE book_issues (id BIGSERIAL PRIMARY KEY);")},
		"sql/tenant/README.md":      {Data: []byte("ignored")},
		"sql/public/001_init.sql":   {Data: []byte("CREATE TABLE schools (id BIGSERIAL PRIMARY KEY);")},
	}
}

func TestMigrateTenant_AppliesPendingFilesInSchema(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	m := newMigratorFS(sqlDB, testFS())

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "school_a"."schema_migrations"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM "school_a"."schema_migrations" WHERE version = $1)`)).
		WithArgs("001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM "school_a"."schema_migrations" WHERE version = $1)`)).
		WithArgs("002").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "school_a"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE book_issues`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "school_a"."schema_migrations"`)).
		WithArgs("002", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, m.MigrateTenant(context.Background(), "school_a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigratePublic_RollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	m := newMigratorFS(sqlDB, testFS())

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "public"."schema_migrations"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL search_path TO "public"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE schools`)).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = m.MigratePublic(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	m := NewMigrator(nil)

	tenant, err := m.listFiles(tenantDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_accounts.sql",
		"002_academic.sql",
		"003_library.sql",
		"004_finance.sql",
		"005_communication.sql",
	}, tenant)

	public, err := m.listFiles(publicDir)
	require.NoError(t, err)
	assert.Len(t, public, 2)
}
