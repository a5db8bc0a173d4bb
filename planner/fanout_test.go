package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/test"
)

var reportCmp = cmp.Options{
	cmpopts.IgnoreFields(upgradeplan.PlanReport{}, "ID", "Created"),
	cmpopts.EquateEmpty(),
}

func twoPackages(version string) []*pkg {
	return []*pkg{
		{ID: "SUNWfoo", Version: version, Arch: "sparc", Basedir: "/"},
		{ID: "SUNWbar", Version: version, Arch: "sparc", Basedir: "/opt"},
	}
}

// ViewOf loads the view of "m" and returns the status of "c" in it.
func viewOf(ctx context.Context, t *testing.T, p *Planner, m *media, c *cluster) clusterSel {
	t.Helper()
	if err := p.LoadView(ctx, m); err != nil {
		t.Fatal(err)
	}
	return selOf(c)
}

func TestPlanAllOrder(t *testing.T) {
	ctx := test.Logging(t)
	events := make(chan Event, 64)
	np := newProduct("10", twoPackages("2.0")...)
	zone := &media{Kind: upgradeplan.Installed, Dir: "/zones/web/root", Zone: "web", Product: newProduct("9", twoPackages("1.0")...)}
	svc := &media{Kind: upgradeplan.InstalledSvc, Dir: "/export/exec/Solaris_9", Product: newProduct("9", twoPackages("1.0")...)}
	global := &media{Kind: upgradeplan.Installed, Dir: "/a", Flags: upgradeplan.BasisOfUpgrade, Product: newProduct("9", twoPackages("1.0")...)}
	client := &media{Kind: upgradeplan.Installed, Dir: "/export/root/client1", Product: newProduct("9", twoPackages("1.0")...)}
	empty := &media{Kind: upgradeplan.Installed, Dir: "/export/root/client2"}
	list := []*media{zone, svc, {Kind: upgradeplan.MediaImage, Dir: "/cdrom/s0", Product: np}, global, empty, client}
	p := mustPlanner(ctx, t, &Options{Progress: events}, list)

	rs, err := p.PlanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range rs {
		if !r.Success {
			t.Errorf("%s: not successful: %s", r.Environment, r.Err)
		}
		if r.RunID != p.RunID() {
			t.Errorf("%s: wrong run ID", r.Environment)
		}
		got = append(got, r.Environment)
	}
	want := []string{"/a", "/export/root/client1", "/export/exec/Solaris_9", "/zones/web/root"}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
	if got, want := p.Current(), global; got != want {
		t.Errorf("loaded view: got: %v, want: %v", got, want)
	}

	var kinds []EventKind
	for {
		var ev Event
		select {
		case ev = <-events:
		default:
		}
		if ev == (Event{}) {
			break
		}
		if ev.Kind != EventPackages {
			kinds = append(kinds, ev.Kind)
		}
	}
	wantKinds := []EventKind{
		EventEnvStart, EventEnvDone,
		EventEnvSkipped,
		EventEnvStart, EventEnvDone,
		EventEnvStart, EventEnvDone,
		EventEnvStart, EventEnvDone,
		EventPlanDone,
	}
	if !cmp.Equal(kinds, wantKinds) {
		t.Error(cmp.Diff(kinds, wantKinds))
	}
}

func TestZoneIdentical(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10", &pkg{ID: "SUNWcsu", Version: csuVersion, Arch: "sparc", Basedir: "/"})
	global := &media{Kind: upgradeplan.Installed, Dir: "/a", Product: newProduct("9",
		&pkg{ID: "SUNWcsu", Version: "11.9", Arch: "sparc", Basedir: "/"})}
	zone := &media{Kind: upgradeplan.Installed, Dir: "/zones/web/root", Zone: "web", Product: newProduct("10",
		&pkg{ID: "SUNWcsu", Version: csuVersion, Arch: "sparc", Basedir: "/"})}
	p := mustPlanner(ctx, t, nil, []*media{{Kind: upgradeplan.MediaImage, Product: np}, global, zone})
	rs, err := p.PlanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 {
		t.Fatalf("got %d reports", len(rs))
	}
	want := []upgradeplan.PlannedPackage{
		{PkgID: "SUNWcsu", Arch: "sparc", Version: csuVersion, Action: upgradeplan.ToBePreserved},
		{PkgID: "SUNWcsu", Arch: "sparc", Version: csuVersion, InstDir: "/", Action: upgradeplan.ExistingNoAction, Status: upgradeplan.Selected},
	}
	got := append(rs[1].Installed, rs[1].New...)
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
	if got, want := rs[0].Planned(upgradeplan.ToBeReplaced), 1; len(got) != want {
		t.Errorf("global zone: got: %v, want %d replaced", got, want)
	}
}

func TestAddService(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10", &pkg{ID: "SUNWkvm", Version: "11.10", Arch: "sparc.sun4u"})
	global := &media{Kind: upgradeplan.Installed, Dir: "/a", Product: newProduct("10")}
	svc := &media{
		Kind:    upgradeplan.InstalledSvc,
		Dir:     "/export/exec/Solaris_10",
		Env:     upgradeplan.AddSvcToEnv,
		Product: newProduct("9", &pkg{ID: "SUNWkvm", Version: "11.9", Arch: "sparc"}),
	}
	p := mustPlanner(ctx, t, nil, []*media{{Kind: upgradeplan.MediaImage, Product: np}, global, svc})
	if err := p.LoadView(ctx, svc); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateModuleActions(ctx); err != nil {
		t.Fatal(err)
	}

	err := p.Err()
	if !errors.Is(err, upgradeplan.ErrDiffRev) {
		t.Errorf("got: %v, want: %v", err, upgradeplan.ErrDiffRev)
	}
	want := []upgradeplan.DiffRev{{PkgID: "SUNWkvm", Arch: "sparc", OldVersion: "11.9", NewVersion: "11.10"}}
	if got := p.Report().DiffRevs; !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
	if got, want := svc.Product.Package("SUNWkvm").Action, upgradeplan.ToBePreserved; got != want {
		t.Errorf("got: %v, want: %v", got, want)
	}

	// Other views keep their own records.
	if err := p.LoadView(ctx, global); err != nil {
		t.Fatal(err)
	}
	if err := p.Err(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRemoveService(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10", twoPackages("2.0")...)
	svc := &media{
		Kind:    upgradeplan.InstalledSvc,
		Dir:     "/export/exec/Solaris_9",
		Flags:   upgradeplan.SvcToBeRemoved,
		Product: newProduct("9", twoPackages("1.0")...),
	}
	p := mustPlanner(ctx, t, nil, []*media{
		{Kind: upgradeplan.MediaImage, Product: np},
		{Kind: upgradeplan.Installed, Dir: "/a", Product: newProduct("9")},
		svc,
	})
	if err := p.LoadView(ctx, svc); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateModuleActions(ctx); err != nil {
		t.Fatal(err)
	}
	r := p.Report()
	if got, want := len(r.Planned(upgradeplan.ToBeRemoved)), 2; got != want {
		t.Errorf("removed: got: %d, want: %d", got, want)
	}
	if got, want := len(r.Planned(upgradeplan.CannotBeAddedToEnv)), 2; got != want {
		t.Errorf("not added: got: %d, want: %d", got, want)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10", twoPackages("2.0")...)
	global := &media{Kind: upgradeplan.Installed, Dir: "/a", Product: newProduct("9", twoPackages("1.0")...)}
	client := &media{Kind: upgradeplan.Installed, Dir: "/export/root/client1", Product: newProduct("9", twoPackages("1.0")...)}
	p := mustPlanner(ctx, t, nil, []*media{{Kind: upgradeplan.MediaImage, Product: np}, global, client})
	before, err := p.PlanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	foo := np.Package("SUNWfoo")
	if err := p.Toggle(ctx, foo); err != nil {
		t.Fatal(err)
	}
	toggled, err := p.PlanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range toggled {
		var got []upgradeplan.PlannedPackage
		for _, q := range append(r.Installed, r.New...) {
			if q.PkgID == "SUNWfoo" {
				got = append(got, q)
			}
		}
		want := []upgradeplan.PlannedPackage{
			{PkgID: "SUNWfoo", Arch: "sparc", Version: "1.0", Action: upgradeplan.ToBeRemoved, Flags: upgradeplan.DoPkgrm | upgradeplan.ContentsGoingAway},
			{PkgID: "SUNWfoo", Arch: "sparc", Version: "2.0", Action: upgradeplan.ToBePreserved},
		}
		if !cmp.Equal(got, want) {
			t.Errorf("%s: %s", r.Environment, cmp.Diff(got, want))
		}
	}

	if err := p.Toggle(ctx, foo); err != nil {
		t.Fatal(err)
	}
	after, err := p.PlanAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(before, after, reportCmp) {
		t.Error(cmp.Diff(before, after, reportCmp))
	}
}

func TestToggleInvalid(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10", twoPackages("2.0")...)
	p := mustPlanner(ctx, t, nil, newMediaList(np, newProduct("9", twoPackages("1.0")...)))
	err := p.Toggle(ctx, p.Main())
	if !errors.Is(err, upgradeplan.ErrInvalidType) {
		t.Errorf("got: %v, want: %v", err, upgradeplan.ErrInvalidType)
	}
}

func TestClusterCrossView(t *testing.T) {
	ctx := test.Logging(t)
	a := &pkg{ID: "SUNWa", Version: "2", Arch: "sparc"}
	b := &pkg{ID: "SUNWb", Version: "2", Arch: "sparc"}
	user := &cluster{ID: "SUNWCuser", Meta: true, Members: []upgradeplan.Module{a, b}}
	np := newProduct("10", a, b)
	np.Clusters = []*cluster{user}

	installed := func(bShared upgradeplan.Shared) *product {
		inst := newProduct("9",
			&pkg{ID: "SUNWa", Version: "1", Arch: "sparc"},
			&pkg{ID: "SUNWb", Version: "1", Arch: "sparc", Shared: bShared},
		)
		inst.Metacluster = "SUNWCuser"
		inst.Clusters = []*cluster{{ID: "SUNWCuser", Meta: true, Members: []upgradeplan.Module{inst.Packages[0], inst.Packages[1]}}}
		return inst
	}
	global := &media{Kind: upgradeplan.Installed, Dir: "/a", Product: installed(upgradeplan.NotDuplicate)}
	alt := &media{Kind: upgradeplan.Installed, Dir: "/export/root/client1", Product: installed(upgradeplan.NullPkg)}
	p := mustPlanner(ctx, t, nil, []*media{{Kind: upgradeplan.MediaImage, Product: np}, global, alt})
	if _, err := p.PlanAll(ctx); err != nil {
		t.Fatal(err)
	}

	if got, want := viewOf(ctx, t, p, global, user).status, upgradeplan.Selected; got != want {
		t.Errorf("main: got: %v, want: %v", got, want)
	}
	want := clusterSel{status: upgradeplan.PartiallySelected, partial: upgradeplan.Selected}
	if got := viewOf(ctx, t, p, alt, user); got != want {
		t.Errorf("alt: got: %+v, want: %+v", got, want)
	}

	if err := p.Toggle(ctx, user); err != nil {
		t.Fatal(err)
	}
	if got, want := user.Status, upgradeplan.Unselected; got != want {
		t.Errorf("main after toggle: got: %v, want: %v", got, want)
	}
	if got, want := viewOf(ctx, t, p, alt, user).status, upgradeplan.Unselected; got != want {
		t.Errorf("alt after toggle: got: %v, want: %v", got, want)
	}
}
