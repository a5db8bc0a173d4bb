package spdx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/quay/upgradeplan"
)

func report() *upgradeplan.PlanReport {
	return &upgradeplan.PlanReport{
		ID:          uuid.MustParse("5d4e3b46-0c53-4c1b-9f0e-3b1e5e1a2f11"),
		Created:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Environment: "/",
		Product:     "Solaris_10",
		From:        "Solaris_9",
		ArticleID:   "123456789",
		Installed: []upgradeplan.PlannedPackage{
			{PkgID: "SUNWzsh", Arch: "sparc", Version: "4.0", Action: upgradeplan.ToBePreserved},
			{PkgID: "SUNWman", Arch: "all", Version: "43.0", Action: upgradeplan.ToBeRemoved},
		},
		New: []upgradeplan.PlannedPackage{
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.10", InstDir: "/", Action: upgradeplan.ToBePkgadded},
			{PkgID: "SUNWcsu", Arch: "sparc", Version: "11.10", PatchID: "118833-36", InstDir: "/", Action: upgradeplan.ToBePkgadded},
		},
		Success: true,
	}
}

func TestEncoder(t *testing.T) {
	ctx := context.Background()
	e := NewDefaultEncoder(WithComment("test"), WithCreator("Organization", "Example"))
	var buf bytes.Buffer
	if err := e.Encode(ctx, &buf, report()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Name      string `json:"name"`
		Namespace string `json:"documentNamespace"`
		Packages  []struct {
			ID      string `json:"SPDXID"`
			Name    string `json:"name"`
			Version string `json:"versionInfo"`
			Refs    []struct {
				Type    string `json:"referenceType"`
				Locator string `json:"referenceLocator"`
			} `json:"externalRefs"`
		} `json:"packages"`
		Relationships []struct {
			A    string `json:"spdxElementId"`
			B    string `json:"relatedSpdxElement"`
			Type string `json:"relationshipType"`
		} `json:"relationships"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Name, "/"; got != want {
		t.Errorf("name: got: %q, want: %q", got, want)
	}
	if got, want := doc.Namespace, "urn:uuid:5d4e3b46-0c53-4c1b-9f0e-3b1e5e1a2f11"; got != want {
		t.Errorf("namespace: got: %q, want: %q", got, want)
	}

	type entry struct{ ID, Name, Version, PURL string }
	var got []entry
	for _, p := range doc.Packages {
		e := entry{ID: p.ID, Name: p.Name, Version: p.Version}
		for _, r := range p.Refs {
			if r.Type == "purl" {
				e.PURL = r.Locator
			}
		}
		got = append(got, e)
	}
	want := []entry{
		{ID: "SPDXRef-OperatingSystem", Name: "Solaris_10"},
		{ID: "SPDXRef-Package-1", Name: "SUNWcsu", Version: "11.10", PURL: "pkg:generic/solaris/SUNWcsu@11.10?arch=sparc&distro=Solaris_10"},
		{ID: "SPDXRef-Package-2", Name: "SUNWcsu", Version: "11.10", PURL: "pkg:generic/solaris/SUNWcsu@11.10?arch=sparc&distro=Solaris_10&patch=118833-36"},
		{ID: "SPDXRef-Package-3", Name: "SUNWzsh", Version: "4.0", PURL: "pkg:generic/solaris/SUNWzsh@4.0?arch=sparc&distro=Solaris_9"},
	}
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}

	var patchFor bool
	for _, r := range doc.Relationships {
		if r.Type == "PATCH_FOR" {
			patchFor = r.A == "SPDXRef-Package-2" && r.B == "SPDXRef-Package-1"
		}
	}
	if !patchFor {
		t.Errorf("missing PATCH_FOR relationship: %+v", doc.Relationships)
	}
}

func TestEncoderFailedReport(t *testing.T) {
	r := report()
	r.Success = false
	r.Err = "no installed product"
	var buf bytes.Buffer
	if err := NewDefaultEncoder().Encode(context.Background(), &buf, r); err == nil {
		t.Error("expected an error encoding a failed report")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := report()
	var buf bytes.Buffer
	if err := NewDefaultEncoder().Encode(ctx, &buf, in); err != nil {
		t.Fatal(err)
	}
	got, err := NewDecoder().Decode(ctx, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Product != in.Product || got.ArticleID != in.ArticleID || got.Environment != in.Environment {
		t.Errorf("got: %q %q %q", got.Product, got.ArticleID, got.Environment)
	}
	var gotKeys, wantKeys []string
	for _, p := range got.New {
		gotKeys = append(gotKeys, p.Key())
	}
	for _, p := range in.AfterUpgrade() {
		wantKeys = append(wantKeys, p.Key())
	}
	if !cmp.Equal(gotKeys, wantKeys) {
		t.Error(cmp.Diff(gotKeys, wantKeys))
	}
}
