package zone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/internal/wire"
	"github.com/quay/upgradeplan/test"
)

// ChildEnv switches the test binary into acting as an inventory child.
const childEnv = "UPGRADEPLAN_ZONE_TEST_CHILD"

func TestMain(m *testing.M) {
	if mode := os.Getenv(childEnv); mode != "" {
		os.Exit(child(mode))
	}
	os.Exit(m.Run())
}

func child(mode string) int {
	if mode == "fail" {
		fmt.Fprintln(os.Stderr, "zone is on fire")
		return 3
	}
	i := slices.Index(os.Args, "--root")
	if i == -1 || i+1 >= len(os.Args) {
		fmt.Fprintln(os.Stderr, "missing --root")
		return 2
	}
	err := Serve(context.Background(), os.Stdout, &ChildOptions{
		Root:        os.Args[i+1],
		Load:        loadFixture,
		Compression: wire.Zstd,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// LoadFixture returns a small product that records the root it was asked
// for in its Rev.
func loadFixture(_ context.Context, root string) (*upgradeplan.Product, error) {
	p := &upgradeplan.Product{Name: "Solaris", Version: "10", Rev: root}
	p.AddPackage(&upgradeplan.Package{ID: "SUNWcsr", Version: "11.10", Arch: "sparc", Basedir: "/"})
	p.AddPackage(&upgradeplan.Package{ID: "SUNWzoner", Version: "11.10", Arch: "sparc", Basedir: "/"})
	return p, nil
}

type listTestcase struct {
	Name  string
	In    string
	Want  []Zone
	Error bool
}

func (tc listTestcase) Run(t *testing.T) {
	got, err := parseList(strings.NewReader(tc.In))
	if (err != nil) != tc.Error {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Equal(got, tc.Want) {
		t.Error(cmp.Diff(got, tc.Want))
	}
}

func TestParseList(t *testing.T) {
	tt := []listTestcase{
		{
			Name: "Mixed",
			In: `0:global:running:/::native:shared
1:web:running:/zones/web:6b4f8c2e-0d4a-4c9e-a8c1-2f7b6d1e9a30:native:shared
-:build:installed:/zones/build:1d3c0f7a-5e2b-4a8d-9c6f-7b0e4d2a1c58:native:shared
-:new:configured:/zones/new::native:shared
-:broken:incomplete:/zones/broken::native:shared
`,
			Want: []Zone{
				{Name: "web", State: "running", Path: "/zones/web", Brand: "native"},
				{Name: "build", State: "installed", Path: "/zones/build", Brand: "native"},
			},
		},
		{
			Name: "Old",
			In:   "-:legacy:ready:/export/legacy\n",
			Want: []Zone{
				{Name: "legacy", State: "ready", Path: "/export/legacy"},
			},
		},
		{
			Name:  "Malformed",
			In:    "1:web\n",
			Error: true,
		},
		{
			Name: "Empty",
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, tc.Run)
	}
}

func TestParseInherited(t *testing.T) {
	const in = `inherit-pkg-dir:
	dir: /lib
inherit-pkg-dir:
	dir: /platform
inherit-pkg-dir:
	dir: /sbin
inherit-pkg-dir:
	dir: /usr
`
	got, err := parseInherited(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/lib", "/platform", "/sbin", "/usr"}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestZoneRoot(t *testing.T) {
	z := Zone{Name: "web", Path: "/zones/web"}
	if got, want := z.Root(), "/zones/web/root"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
}

func TestServe(t *testing.T) {
	ctx := test.Logging(t)
	var buf bytes.Buffer
	err := Serve(ctx, &buf, &ChildOptions{
		Root:        "/zones/web/root",
		Load:        loadFixture,
		Compression: wire.Gzip,
	})
	if err != nil {
		t.Fatal(err)
	}
	p, err := wire.ReadProduct(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Rev, "/zones/web/root"; got != want {
		t.Errorf("root: got: %q, want: %q", got, want)
	}
	if got, want := len(p.Packages), 2; got != want {
		t.Errorf("packages: got: %d, want: %d", got, want)
	}
}

func TestServeLoadError(t *testing.T) {
	ctx := test.Logging(t)
	boom := errors.New("boom")
	var buf bytes.Buffer
	err := Serve(ctx, &buf, &ChildOptions{
		Root: "/zones/web/root",
		Load: func(context.Context, string) (*upgradeplan.Product, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Errorf("got: %v, want: %v", err, boom)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on failure", buf.Len())
	}
}

func execSource(t *testing.T) *ExecSource {
	self, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	return &ExecSource{Self: self}
}

func TestExecLoad(t *testing.T) {
	ctx := test.Logging(t)
	t.Setenv(childEnv, "ok")
	z := Zone{Name: "web", State: "running", Path: "/zones/web"}
	p, err := execSource(t).Load(ctx, z)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Rev, z.Root(); got != want {
		t.Errorf("child root: got: %q, want: %q", got, want)
	}
	if p.Package("SUNWzoner") == nil {
		t.Error("SUNWzoner missing")
	}
}

func TestExecLoadFailure(t *testing.T) {
	ctx := test.Logging(t)
	t.Setenv(childEnv, "fail")
	_, err := execSource(t).Load(ctx, Zone{Name: "web", Path: "/zones/web"})
	t.Log(err)
	if !errors.Is(err, upgradeplan.ErrPrecondition) {
		t.Errorf("got: %v, want: %v", err, upgradeplan.ErrPrecondition)
	}
	if err != nil && !strings.Contains(err.Error(), "zone is on fire") {
		t.Errorf("error %q does not carry the child's stderr", err)
	}
}
