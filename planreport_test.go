package upgradeplan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAfterUpgrade(t *testing.T) {
	r := PlanReport{
		Installed: []PlannedPackage{
			{PkgID: "SUNWzsh", Arch: "sparc", Version: "4.0", Action: ToBePreserved},
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.9", Action: ToBeReplaced},
			{PkgID: "SUNWman", Arch: "all", Version: "43.0", Action: ToBeRemoved},
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.9", PatchID: "112874-02", Action: ToBeReplaced},
		},
		New: []PlannedPackage{
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.10", Action: ToBePkgadded},
			{PkgID: "SUNWzsh", Arch: "sparc", Version: "4.0", Action: ExistingNoAction},
			{PkgID: "SUNWkvm", Arch: "sparc.sun4u", Version: "11.10", Action: ToBeSpooled},
			{PkgID: "SUNWsshu", Arch: "sparc", Version: "11.10", Action: AddedBySharedEnv},
			{PkgID: "SUNWgone", Arch: "sparc", Version: "1.0", Action: CannotBeAddedToEnv},
		},
	}
	got := r.AfterUpgrade()
	want := []PlannedPackage{
		{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.10", Action: ToBePkgadded},
		{PkgID: "SUNWkvm", Arch: "sparc.sun4u", Version: "11.10", Action: ToBeSpooled},
		{PkgID: "SUNWsshu", Arch: "sparc", Version: "11.10", Action: AddedBySharedEnv},
		{PkgID: "SUNWzsh", Arch: "sparc", Version: "4.0", Action: ToBePreserved},
	}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}

	removed := r.Planned(ToBeRemoved)
	if len(removed) != 1 || removed[0].PkgID != "SUNWman" {
		t.Errorf("Planned(ToBeRemoved) = %v", removed)
	}
}

func TestPlannedPackageKey(t *testing.T) {
	p := PlannedPackage{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.9", PatchID: "112874-02"}
	if got, want := p.Key(), "SUNWcsu|sparc|11.9|112874-02"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}
