package planner

import (
	"testing"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/test"
)

type instDirTestcase struct {
	Name       string
	NewVersion string
	LocalArch  string
	Target     *media
	IP, RP     *pkg
	Action     upgradeplan.Action
	Want       string
}

func (tc instDirTestcase) Run(t *testing.T) {
	ctx := test.Logging(t)
	v := tc.NewVersion
	if v == "" {
		v = "10"
	}
	np := newProduct(v)
	p := mustPlanner(ctx, t, &Options{LocalArch: tc.LocalArch}, newMediaList(np, newProduct("9")))
	if got, want := p.instDir(tc.Target, tc.IP, tc.RP, tc.Action), tc.Want; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestInstDir(t *testing.T) {
	global := &media{Kind: upgradeplan.Installed, Dir: "/a"}
	svc := &media{Kind: upgradeplan.InstalledSvc, Dir: "/export/exec/Solaris_9"}
	split := &media{Kind: upgradeplan.InstalledSvc, Dir: "/export/exec/Solaris_9", Flags: upgradeplan.SplitFromServer}
	tt := []instDirTestcase{
		{
			Name:   "Spooled",
			Target: svc,
			RP:     &pkg{ID: "SUNWcsr", Version: "11.10.0", Arch: "sparc"},
			Action: upgradeplan.ToBeSpooled,
			Want:   "/export/root/templates/Solaris_10/SUNWcsr_11.10.0_sparc.all",
		},
		{
			Name:   "SpooledRefined",
			Target: global,
			RP:     &pkg{ID: "SUNWkvm", Version: "11.10.0", Arch: "sparc.sun4u"},
			Action: upgradeplan.ToBeSpooled,
			Want:   "/export/root/templates/Solaris_10/SUNWkvm_11.10.0_sparc.sun4u",
		},
		{
			Name:   "InstalledBasedir",
			Target: global,
			IP:     &pkg{ID: "SUNWfoo", Basedir: "/opt"},
			RP:     &pkg{ID: "SUNWfoo", Basedir: "/usr"},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/opt",
		},
		{
			Name:   "BasedirChange",
			Target: global,
			IP:     &pkg{ID: "SUNWfoo", Basedir: "/opt", History: &upgradeplan.History{BasedirChange: true}},
			RP:     &pkg{ID: "SUNWfoo", Basedir: "/usr"},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/usr",
		},
		{
			Name:   "NewOnly",
			Target: global,
			RP:     &pkg{ID: "SUNWbar"},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/",
		},
		{
			Name:   "Removed",
			Target: global,
			RP:     &pkg{ID: "SUNWbar", Basedir: "/opt"},
			Action: upgradeplan.ToBeRemoved,
			Want:   "",
		},
		{
			Name:   "ServiceUsr",
			Target: svc,
			RP:     &pkg{ID: "SUNWcsu", Arch: "sparc", Basedir: "/", Type: upgradeplan.PTypeUsr},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/usr_sparc.all",
		},
		{
			Name:   "ServiceOpenWindows",
			Target: svc,
			RP:     &pkg{ID: "SUNWolrte", Arch: "sparc", Basedir: "/usr/openwin", Type: upgradeplan.PTypeOW},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/usr_sparc.all/usr/openwin",
		},
		{
			Name:   "ServiceKVM",
			Target: svc,
			RP:     &pkg{ID: "SUNWkvm", Arch: "sparc.sun4u", Basedir: "/", Type: upgradeplan.PTypeKVM},
			Action: upgradeplan.ToBePkgadded,
			Want:   "/usr_sparc.all",
		},
		{
			Name:       "ServiceKVMPreKBI",
			NewVersion: "2.4",
			Target:     svc,
			RP:         &pkg{ID: "SUNWkvm", Arch: "sparc.sun4m", Basedir: "/", Type: upgradeplan.PTypeKVM},
			Action:     upgradeplan.ToBePkgadded,
			Want:       "/usr.kvm_sparc.sun4m",
		},
		{
			Name:   "ServiceRoot",
			Target: svc,
			RP:     &pkg{ID: "SUNWcsr", Arch: "sparc", Basedir: "/", Type: upgradeplan.PTypeRoot},
			Action: upgradeplan.AddedBySharedEnv,
			Want:   "/export/Solaris_10",
		},
		{
			Name:      "SplitLocal",
			LocalArch: "sparc.sun4u",
			Target:    split,
			RP:        &pkg{ID: "SUNWcsu", Arch: "sparc", Basedir: "/usr", Type: upgradeplan.PTypeUsr},
			Action:    upgradeplan.ToBePkgadded,
			Want:      "/usr",
		},
		{
			Name:      "SplitForeign",
			LocalArch: "i386.i86pc",
			Target:    split,
			RP:        &pkg{ID: "SUNWcsu", Arch: "sparc", Basedir: "/", Type: upgradeplan.PTypeUsr},
			Action:    upgradeplan.ToBePkgadded,
			Want:      "/export/exec/Solaris_10_sparc.all",
		},
		{
			Name:       "SplitForeignKVMPreKBI",
			NewVersion: "2.4",
			LocalArch:  "i386.i86pc",
			Target:     split,
			RP:         &pkg{ID: "SUNWkvm", Arch: "sparc.sun4m", Basedir: "/", Type: upgradeplan.PTypeKVM},
			Action:     upgradeplan.ToBePkgadded,
			Want:       "/export/exec/kvm/Solaris_2.4_sparc.sun4m",
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, tc.Run)
	}
}
