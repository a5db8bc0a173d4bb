package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/remind101/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationTable records which migrations have been applied.
const migrationTable = `upgradeplan_migrations`

func runFile(n string) func(*sql.Tx) error {
	b, err := migrationFS.ReadFile(n)
	return func(tx *sql.Tx) error {
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(b)); err != nil {
			return err
		}
		return nil
	}
}

// Migrations are the schema changes for the report store, in order.
var migrations = []migrate.Migration{
	{
		ID: 1,
		Up: runFile("migrations/01-init.sql"),
	},
}

// RunMigrations brings the schema up to date. The postgres migrator holds an
// advisory lock, so concurrent planners sharing a database apply each
// migration once.
func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	m := migrate.NewPostgresMigrator(db)
	m.Table = migrationTable
	if err := m.Exec(migrate.Up, migrations...); err != nil {
		return fmt.Errorf("postgres: migrations: %w", err)
	}
	return nil
}
