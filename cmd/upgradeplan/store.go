package main

import (
	"context"
	"strings"

	"github.com/quay/upgradeplan/datastore"
	"github.com/quay/upgradeplan/datastore/postgres"
	"github.com/quay/upgradeplan/datastore/sqlite"
)

// IsPostgres reports whether a datastore string is a postgres connection
// string rather than an SQLite file name.
func isPostgres(dsn string) bool {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="),
		strings.Contains(dsn, "dbname="):
		return true
	}
	return false
}

func openStore(ctx context.Context, dsn string) (datastore.Store, error) {
	if isPostgres(dsn) {
		return postgres.Connect(ctx, dsn)
	}
	return sqlite.Open(ctx, strings.TrimPrefix(dsn, "sqlite:"))
}
