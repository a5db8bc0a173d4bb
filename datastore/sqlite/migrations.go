package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/remind101/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

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

var migrations = []migrate.Migration{
	{
		ID: 1,
		Up: runFile("migrations/01-init.sql"),
	},
}

func runMigrations(db *sql.DB) error {
	m := migrate.NewMigrator(db)
	m.Table = migrationTable
	if err := m.Exec(migrate.Up, migrations...); err != nil {
		return fmt.Errorf("sqlite: migrations: %w", err)
	}
	return nil
}
