package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction_Commit(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewTransactor(sqlDB).WithTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		_, err := Conn(ctx, sqlDB).ExecContext(ctx, "UPDATE books SET copies = 1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTransactor(sqlDB).WithTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tr := NewTransactor(sqlDB)
	err = tr.WithTransaction(context.Background(), func(ctx context.Context) error {
		return tr.WithTransaction(ctx, func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_FallsBackToDB(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.False(t, InTransaction(context.Background()))
	assert.Equal(t, Querier(sqlDB), Conn(context.Background(), sqlDB))
}
