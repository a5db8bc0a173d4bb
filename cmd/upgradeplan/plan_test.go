package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/datastore/sqlite"
	"github.com/quay/upgradeplan/internal/wire"
	"github.com/quay/upgradeplan/inventory"
	"github.com/quay/upgradeplan/test"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("..", "..", "inventory", "testdata", name+".txtar"))
	if err != nil {
		t.Fatal(err)
	}
	return test.Extract(t, ar)
}

func TestPlan(t *testing.T) {
	ctx := test.Logging(t)
	media := fixture(t, "media")
	root := fixture(t, "installed")

	// Plan the root from a snapshot, to cover the path used off-host.
	snap := filepath.Join(t.TempDir(), "root.upgp")
	p, err := loadRoot(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(snap)
	if err != nil {
		t.Fatal(err)
	}
	if err := wire.Encode(f, p, wire.Gzip); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	db := filepath.Join(t.TempDir(), "reports.db")
	rf := &RunFile{
		Product: Source{Dir: media},
		Environments: []Environment{
			{Source: Source{Dir: root}, Flags: []string{"basis"}},
			{Source: Source{Snapshot: snap}},
			{Source: Source{Dir: t.TempDir()}},
		},
		LocalArch: "sparc.sun4u",
		Datastore: db,
		ArticleID: "123456789",
	}
	if err := rf.validate(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := runPlan(ctx, rf, &out); err != nil {
		t.Fatal(err)
	}

	var reports []*upgradeplan.PlanReport
	if err := json.Unmarshal(out.Bytes(), &reports); err != nil {
		t.Fatal(err)
	}
	// The empty directory is not an installed root and is skipped.
	if got, want := len(reports), 2; got != want {
		t.Fatalf("got %d reports, want %d", got, want)
	}
	for _, r := range reports {
		if !r.Success {
			t.Errorf("%s: not planned: %s", r.Environment, r.Err)
		}
		if got, want := r.ArticleID, rf.ArticleID; got != want {
			t.Errorf("%s: article ID: got: %q, want: %q", r.Environment, got, want)
		}
		if got, want := r.From, "Solaris_9"; got != want {
			t.Errorf("%s: from: got: %q, want: %q", r.Environment, got, want)
		}
		for _, q := range r.New {
			if q.PURL == "" {
				t.Errorf("%s: %s: no purl", r.Environment, q.Key())
			}
		}
	}
	if reports[0].RunID != reports[1].RunID {
		t.Error("reports of one run have different run IDs")
	}

	s, err := sqlite.Open(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	stored, err := s.ReportsByRun(ctx, reports[0].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(stored), len(reports); got != want {
		t.Errorf("stored %d reports, want %d", got, want)
	}
}

type mediaSourceTestcase struct {
	Name   string
	Source func(t *testing.T, media string) Source
}

func (tc mediaSourceTestcase) Run(t *testing.T) {
	ctx := test.Logging(t)
	rf := &RunFile{
		Product: tc.Source(t, fixture(t, "media")),
		Environments: []Environment{
			{Source: Source{Dir: fixture(t, "installed")}, Flags: []string{"basis"}},
		},
		LocalArch: "sparc.sun4u",
		ArticleID: "123456789",
	}
	if err := rf.validate(); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := runPlan(ctx, rf, &out); err != nil {
		t.Fatal(err)
	}
	var reports []*upgradeplan.PlanReport
	if err := json.Unmarshal(out.Bytes(), &reports); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || !reports[0].Success {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	var man *upgradeplan.PlannedPackage
	for i := range reports[0].Installed {
		if q := &reports[0].Installed[i]; q.PkgID == "SUNWman" {
			man = q
		}
	}
	if man == nil {
		t.Fatal("SUNWman missing from the installed side")
	}
	// The media history marks SUNWman as needing a pkgrm.
	if got, want := man.Action, upgradeplan.ToBeReplaced; got != want {
		t.Errorf("SUNWman action: got: %v, want: %v", got, want)
	}
	if man.Flags&upgradeplan.DoPkgrm == 0 {
		t.Errorf("SUNWman flags: got: %v, want %v set", man.Flags, upgradeplan.DoPkgrm)
	}
}

func TestPlanMediaSource(t *testing.T) {
	tt := []mediaSourceTestcase{
		{
			Name: "Directory",
			Source: func(_ *testing.T, media string) Source {
				return Source{Dir: media}
			},
		},
		{
			Name: "Snapshot",
			Source: func(t *testing.T, media string) Source {
				ctx := test.Logging(t)
				p, hist, err := inventory.LoadMedia(ctx, os.DirFS(media))
				if err != nil {
					t.Fatal(err)
				}
				if len(hist) == 0 {
					t.Fatal("media fixture has no history")
				}
				snap := filepath.Join(t.TempDir(), "media.upgp")
				f, err := os.Create(snap)
				if err != nil {
					t.Fatal(err)
				}
				if err := wire.Encode(f, p, wire.Zstd); err != nil {
					t.Fatal(err)
				}
				if err := f.Close(); err != nil {
					t.Fatal(err)
				}
				return Source{Snapshot: snap}
			},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, tc.Run)
	}
}

func TestReportFromFile(t *testing.T) {
	rs := []*upgradeplan.PlanReport{
		{Environment: "/", Product: "Solaris_10"},
		{Environment: "/export/root/client1", Product: "Solaris_10"},
	}
	b, err := json.Marshal(rs)
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(t.TempDir(), "reports.json")
	if err := os.WriteFile(name, b, 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := reportFromFile(name, "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Environment != "/" {
		t.Errorf("got %q, want the first report", r.Environment)
	}
	r, err = reportFromFile(name, "/export/root/client1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Environment != "/export/root/client1" {
		t.Errorf("got %q", r.Environment)
	}
	if _, err := reportFromFile(name, "/nowhere"); err == nil {
		t.Error("expected an error for a missing environment")
	}
}
