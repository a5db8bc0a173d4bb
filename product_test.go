package upgradeplan

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testProduct() *Product {
	p := &Product{
		Name:    "Solaris",
		Version: "10",
		Arches: []*Arch{
			{Name: "sparc.sun4u"},
			{Name: "sparc.sun4v"},
		},
	}
	for _, pkg := range []*Package{
		{ID: "SUNWcsu", Version: "11.10.0", Arch: "sparc"},
		{ID: "SUNWkvm", Version: "11.10.0", Arch: "sparc.sun4u"},
		{ID: "SUNWkvm", Version: "11.10.0", Arch: "sparc.sun4v"},
		{ID: "SUNWcar", Version: "11.10.0", Arch: "sparc.sun4u.us3"},
		{ID: "SUNWcar", Version: "11.10.0", Arch: "sparc"},
	} {
		p.AddPackage(pkg)
	}
	return p
}

type findTestcase struct {
	Name   string
	ID     string
	Arch   string
	Want   FindResult
	WantAt string
}

func (tc findTestcase) Run(t *testing.T) {
	p := testProduct()
	pkg, res := p.Find(tc.ID, tc.Arch)
	if got, want := res, tc.Want; got != want {
		t.Errorf("result: got: %v, want: %v", got, want)
	}
	switch {
	case res.Found() && pkg == nil:
		t.Error("found result with nil package")
	case !res.Found() && pkg != nil:
		t.Errorf("unexpected package: %v", pkg)
	case pkg != nil && pkg.Arch != tc.WantAt:
		t.Errorf("arch: got: %q, want: %q", pkg.Arch, tc.WantAt)
	}
}

func TestFind(t *testing.T) {
	tt := []findTestcase{
		{Name: "Exact", ID: "SUNWcsu", Arch: "sparc", Want: FoundMatch, WantAt: "sparc"},
		{Name: "ExactInstance", ID: "SUNWkvm", Arch: "sparc.sun4v", Want: FoundMatch, WantAt: "sparc.sun4v"},
		{Name: "MatchBeatsMore", ID: "SUNWcar", Arch: "sparc", Want: FoundMatch, WantAt: "sparc"},
		{Name: "MoreSpecific", ID: "SUNWkvm", Arch: "sparc", Want: FoundMoreSpecific, WantAt: "sparc.sun4u"},
		{Name: "LessSpecific", ID: "SUNWcsu", Arch: "sparc.sun4u", Want: FoundLessSpecific, WantAt: "sparc"},
		{Name: "NoArchMatch", ID: "SUNWkvm", Arch: "sparc.sun4m", Want: NoArchMatch},
		{Name: "NotSupported", ID: "SUNWcsu", Arch: "i386", Want: ArchNotSupported},
		{Name: "NotFound", ID: "SUNWnope", Arch: "sparc", Want: NotFound},
		{Name: "TrailingDot", ID: "SUNWcsu", Arch: "sparc.", Want: NoArchMatch},
	}
	for _, tc := range tt {
		t.Run(tc.Name, tc.Run)
	}
}

func TestAddPackage(t *testing.T) {
	p := testProduct()
	if got, want := len(p.Packages), 3; got != want {
		t.Errorf("primaries: got: %d, want: %d", got, want)
	}
	var keys []string
	for pkg := range p.AllPackages() {
		keys = append(keys, pkg.Key())
	}
	want := []string{
		"SUNWcsu|sparc|11.10.0",
		"SUNWkvm|sparc.sun4u|11.10.0",
		"SUNWkvm|sparc.sun4v|11.10.0",
		"SUNWcar|sparc.sun4u.us3|11.10.0",
		"SUNWcar|sparc|11.10.0",
	}
	if !cmp.Equal(keys, want) {
		t.Error(cmp.Diff(keys, want))
	}
}

func TestValidate(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		if err := testProduct().Validate(); err != nil {
			t.Error(err)
		}
	})
	t.Run("PrimaryIsInstance", func(t *testing.T) {
		p := testProduct()
		p.Packages[0].Instances = append(p.Packages[0].Instances, p.Packages[1])
		err := p.Validate()
		if !errors.Is(err, ErrInternal) {
			t.Errorf("got: %v, want: %v", err, ErrInternal)
		}
	})
	t.Run("DuplicateKey", func(t *testing.T) {
		p := testProduct()
		p.AddPackage(&Package{ID: "SUNWcsu", Version: "11.10.0", Arch: "sparc"})
		err := p.Validate()
		if !errors.Is(err, ErrInternal) {
			t.Errorf("got: %v, want: %v", err, ErrInternal)
		}
	})
	t.Run("TwoMetaclusters", func(t *testing.T) {
		p := testProduct()
		csu := p.Package("SUNWcsu")
		p.Clusters = []*Cluster{
			{ID: "SUNWCreq", Meta: true, Members: []Module{csu}},
			{ID: "SUNWCuser", Meta: true, Members: []Module{csu}},
		}
		err := p.Validate()
		if !errors.Is(err, ErrInternal) {
			t.Errorf("got: %v, want: %v", err, ErrInternal)
		}
	})
}

func TestClusterPackages(t *testing.T) {
	p := testProduct()
	csu, kvm, car := p.Package("SUNWcsu"), p.Package("SUNWkvm"), p.Package("SUNWcar")
	core := &Cluster{ID: "SUNWCcs", Members: []Module{csu, kvm}}
	meta := &Cluster{ID: "SUNWCreq", Meta: true, Members: []Module{core, car, csu}}

	got := slices.Collect(meta.Packages())
	want := []*Package{csu, kvm, car}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
	if !meta.Contains(kvm) {
		t.Error("metacluster should contain SUNWkvm through SUNWCcs")
	}
	if core.Contains(car) {
		t.Error("SUNWCcs should not contain SUNWcar")
	}
	if got, want := meta.ModuleType(), MetaclusterModule; got != want {
		t.Errorf("got: %v, want: %v", got, want)
	}
}

func TestHistoryDropsFrom(t *testing.T) {
	h := &History{ClusterRmList: []string{"SUNWCuser"}}
	if !h.DropsFrom("SUNWCuser") || h.DropsFrom("SUNWCall") {
		t.Error("literal match failed")
	}
	all := &History{ClusterRmList: []string{"ALL"}}
	if !all.DropsFrom("SUNWCXall") {
		t.Error("wildcard match failed")
	}
	var nilHist *History
	if nilHist.DropsFrom("SUNWCuser") {
		t.Error("nil history matched")
	}
}
