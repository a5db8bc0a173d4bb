package test

import (
	"os"
	"testing"
)

// PostgresEnv names the environment variable holding the connection string of
// a database tests may create tables in.
const PostgresEnv = "POSTGRES_CONNECTION_STRING"

// PostgresDSN returns the connection string from [PostgresEnv], skipping the
// test if it is unset or if -short was passed.
func PostgresDSN(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test: -short")
	}
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skipf("skipping database test: %s not set", PostgresEnv)
	}
	return dsn
}
