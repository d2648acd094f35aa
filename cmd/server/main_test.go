package main

import (
	"context"
	"errors"
	"testing"

	"cities-server/internal/shared/config"
	"cities-server/internal/shared/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsConnectError(t *testing.T) {
	boom := errors.New("connection refused")

	err := run(context.Background(), &config.Config{}, func() (*database.DB, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestRunClosesDatabaseWhenMigrationsFail(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	// the migration driver's first query is not expected, so migrations fail
	mock.ExpectClose()

	err = run(context.Background(), &config.Config{}, func() (*database.DB, error) {
		return database.NewDB(sqlx.NewDb(sqlDB, "postgres"), false), nil
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
