package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/quay/upgradeplan/datastore"
	"github.com/quay/upgradeplan/datastore/storetest"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	storetest.Run(ctx, t, func(t *testing.T) datastore.Store {
		s, err := Open(ctx, filepath.Join(t.TempDir(), "reports.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() {
			if err := s.Close(ctx); err != nil {
				t.Error(err)
			}
		})
		return s
	})
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	f := filepath.Join(t.TempDir(), "reports.db")
	s, err := Open(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	r := storetest.Report(uuid.New(), "/", time.Now())
	if err := s.PutReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	// Migrations must not be re-applied to an existing database.
	s, err = Open(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	got, err := s.ReportsByRun(ctx, r.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != r.ID {
		t.Errorf("got %d reports, want the one stored before reopening", len(got))
	}
}

func TestMigrationVersions(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	// Running the migrator again over a current schema is a no-op.
	if err := runMigrations(s.db); err != nil {
		t.Fatal(err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT version FROM `+migrationTable+` ORDER BY version;`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var got []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	var want []int
	for _, m := range migrations {
		want = append(want, m.ID)
	}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}
