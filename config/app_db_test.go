package config

import (
	"testing"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabaseEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"APP_DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER",
		"POSTGRES_PASSWORD", "POSTGRES_DB_NAME", "POSTGRES_SSLMODE",
	} {
		t.Setenv(key, "")
	}
}

func TestDatabaseDSN_PrefersURL(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_URL", `"postgres://u:p@db:5432/receipts"`)
	t.Setenv("POSTGRES_HOST", "ignored")

	dsn, err := databaseDSN(DefaultDBConfig(), log.NewLoggerWithJSONOutput())

	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/receipts", dsn)
}

func TestDatabaseDSN_FromParts(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_USER", "waitlist")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB_NAME", "receipts")

	dsn, err := databaseDSN(DefaultDBConfig(), log.NewLoggerWithJSONOutput())

	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=waitlist password=secret dbname=receipts sslmode=require", dsn)

	t.Setenv("POSTGRES_SSLMODE", "disable")
	dsn, err = databaseDSN(DefaultDBConfig(), log.NewLoggerWithJSONOutput())
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestDatabaseDSN_ReportsEveryMissingVariable(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("POSTGRES_HOST", "db")

	_, err := databaseDSN(DefaultDBConfig(), log.NewLoggerWithJSONOutput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PORT, POSTGRES_USER, POSTGRES_DB_NAME")
}

func TestDatabaseDSN_InvalidPort(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "fivefourthreetwo")
	t.Setenv("POSTGRES_USER", "waitlist")
	t.Setenv("POSTGRES_DB_NAME", "receipts")

	_, err := databaseDSN(DefaultDBConfig(), log.NewLoggerWithJSONOutput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid POSTGRES_PORT")
}

func TestNewDatabaseOrNil_SkipsWhenUnconfigured(t *testing.T) {
	clearDatabaseEnv(t)

	db, err := NewDatabaseOrNil(log.NewLoggerWithJSONOutput(), nil)

	assert.NoError(t, err)
	assert.Nil(t, db)
}
