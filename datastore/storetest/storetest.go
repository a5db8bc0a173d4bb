// Package storetest holds tests every [datastore.Store] implementation must
// pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/datastore"
)

// Report returns a populated report for the run.
func Report(run uuid.UUID, env string, created time.Time) *upgradeplan.PlanReport {
	return &upgradeplan.PlanReport{
		ID:          uuid.New(),
		RunID:       run,
		Created:     created.UTC().Truncate(time.Millisecond),
		Environment: env,
		Product:     "Solaris_10",
		From:        "Solaris_9",
		ArticleID:   "123456789",
		Kind:        upgradeplan.Installed,
		Installed: []upgradeplan.PlannedPackage{
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.9.0,REV=2002.04.06.15.27", Action: upgradeplan.ToBeReplaced, Status: upgradeplan.Selected},
			{PkgID: "SUNWman", Arch: "sparc", Version: "43.0,REV=65.0", Action: upgradeplan.ToBeRemoved, Status: upgradeplan.Selected},
		},
		New: []upgradeplan.PlannedPackage{
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.10.0,REV=2005.01.21.15.53", InstDir: "/", Action: upgradeplan.ToBeReplaced, Status: upgradeplan.Required},
		},
		Patches:  []upgradeplan.PlannedPatch{{ID: "112874-02", Removed: true}},
		Clusters: []upgradeplan.PlannedCluster{{ID: "SUNWCuser", Status: upgradeplan.Selected, Meta: true}},
		Success:  true,
	}
}

// Run runs the conformance tests against the Store returned by "mk". Each
// subtest gets a fresh Store.
func Run(ctx context.Context, t *testing.T, mk func(t *testing.T) datastore.Store) {
	t.Run("RoundTrip", func(t *testing.T) {
		s := mk(t)
		want := Report(uuid.New(), "/", time.Now())
		if err := s.PutReport(ctx, want); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetReport(ctx, want.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(got, want) {
			t.Error(cmp.Diff(got, want))
		}
	})
	t.Run("Replace", func(t *testing.T) {
		s := mk(t)
		want := Report(uuid.New(), "/", time.Now())
		if err := s.PutReport(ctx, want); err != nil {
			t.Fatal(err)
		}
		want.Success = false
		want.Err = "planner.ProcessPackage: invalid: unknown action"
		if err := s.PutReport(ctx, want); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetReport(ctx, want.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(got, want) {
			t.Error(cmp.Diff(got, want))
		}
	})
	t.Run("NotFound", func(t *testing.T) {
		s := mk(t)
		_, err := s.GetReport(ctx, uuid.New())
		if !errors.Is(err, datastore.ErrNotFound) {
			t.Errorf("got: %v, want: %v", err, datastore.ErrNotFound)
		}
	})
	t.Run("NoID", func(t *testing.T) {
		s := mk(t)
		r := Report(uuid.New(), "/", time.Now())
		r.ID = uuid.Nil
		err := s.PutReport(ctx, r)
		if !errors.Is(err, upgradeplan.ErrInvalid) {
			t.Errorf("got: %v, want: %v", err, upgradeplan.ErrInvalid)
		}
	})
	t.Run("ByRun", func(t *testing.T) {
		s := mk(t)
		run, other := uuid.New(), uuid.New()
		now := time.Now()
		want := []*upgradeplan.PlanReport{
			Report(run, "/", now),
			Report(run, "/export/root/client1", now.Add(time.Second)),
			Report(run, "/zones/web/root", now.Add(2*time.Second)),
		}
		// Insert out of order, with a report from another run mixed in.
		for _, r := range []*upgradeplan.PlanReport{want[2], Report(other, "/", now), want[0], want[1]} {
			if err := s.PutReport(ctx, r); err != nil {
				t.Fatal(err)
			}
		}
		got, err := s.ReportsByRun(ctx, run)
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(got, want) {
			t.Error(cmp.Diff(got, want))
		}

		got, err = s.ReportsByRun(ctx, uuid.New())
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %d reports for an unknown run", len(got))
		}
	})
}
