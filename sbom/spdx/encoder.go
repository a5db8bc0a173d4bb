package spdx

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"

	spdxjson "github.com/spdx/tools-golang/json"
	v2common "github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/purl"
	"github.com/quay/upgradeplan/sbom"
)

var _ sbom.Encoder = (*Encoder)(nil)

// Encoder writes a plan report's post-upgrade package set as an SPDX
// document.
type Encoder struct {
	Version Version
	Format  Format
	// Creators are written to the document's creation info. Each is a
	// "Tool", "Person", or "Organization" entry.
	Creators []v2common.Creator
	// Name is the document name. The report's environment is used if empty.
	Name string
	// Namespace is the document namespace. A URN made from the report ID is
	// used if empty.
	Namespace string
	Comment   string
}

// Option configures an [Encoder].
type Option func(*Encoder)

// NewDefaultEncoder returns a JSON SPDX 2.3 Encoder that names this module as
// its creating tool, then applies the options.
func NewDefaultEncoder(options ...Option) *Encoder {
	e := &Encoder{
		Version:  V2_3,
		Format:   FormatJSON,
		Creators: []v2common.Creator{{CreatorType: "Tool", Creator: "upgradeplan-" + getVersion()}},
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// WithCreator adds a creator entry.
func WithCreator(kind, name string) Option {
	return func(e *Encoder) {
		e.Creators = append(e.Creators, v2common.Creator{CreatorType: kind, Creator: name})
	}
}

// WithNamespace sets the document namespace.
func WithNamespace(ns string) Option {
	return func(e *Encoder) { e.Namespace = ns }
}

// WithName sets the document name.
func WithName(name string) Option {
	return func(e *Encoder) { e.Name = name }
}

// WithComment sets the document comment.
func WithComment(c string) Option {
	return func(e *Encoder) { e.Comment = c }
}

// Encode writes the packages present on the report's environment after the
// upgrade to w. A report that failed to plan has no such set and is an error.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, r *upgradeplan.PlanReport) error {
	if !r.Success {
		return fmt.Errorf("spdx: environment %q was not planned: %s", r.Environment, r.Err)
	}
	if e.Version != V2_3 {
		return fmt.Errorf("spdx: unsupported version %q", e.Version)
	}
	if e.Format != FormatJSON {
		return fmt.Errorf("spdx: unsupported format %q", e.Format)
	}
	doc, err := e.document(ctx, r)
	if err != nil {
		return err
	}
	return spdxjson.Write(doc, w)
}

// OSSummary marks the operating system entry of a document.
const osSummary = "operating system"

func (e *Encoder) document(ctx context.Context, r *upgradeplan.PlanReport) (*v2_3.Document, error) {
	name := e.Name
	if name == "" {
		name = r.Environment
	}
	ns := e.Namespace
	if ns == "" {
		ns = "urn:uuid:" + r.ID.String()
	}

	out := &v2_3.Document{
		SPDXVersion:       v2_3.Version,
		DataLicense:       v2_3.DataLicense,
		SPDXIdentifier:    "DOCUMENT",
		DocumentName:      name,
		DocumentNamespace: ns,
		CreationInfo: &v2_3.CreationInfo{
			Creators: slices.Clone(e.Creators),
			Created:  r.Created.UTC().Format("2006-01-02T15:04:05Z"),
		},
		DocumentComment: e.Comment,
	}

	osPkg := &v2_3.Package{
		PackageName:             r.Product,
		PackageSPDXIdentifier:   "OperatingSystem",
		PackageDownloadLocation: "NOASSERTION",
		FilesAnalyzed:           true,
		PackageSummary:          osSummary,
		PrimaryPackagePurpose:   "OPERATING-SYSTEM",
	}
	if r.ArticleID != "" {
		osPkg.PackageExternalReferences = append(osPkg.PackageExternalReferences, &v2_3.PackageExternalReference{
			Category: "OTHER",
			RefType:  "article_id",
			Locator:  r.ArticleID,
		})
	}
	out.Packages = append(out.Packages, osPkg)
	out.Relationships = append(out.Relationships, &v2_3.Relationship{
		RefA:         v2common.MakeDocElementID("", "DOCUMENT"),
		RefB:         v2common.MakeDocElementID("", string(osPkg.PackageSPDXIdentifier)),
		Relationship: "DESCRIBES",
	})

	// AfterUpgrade is sorted, so identifiers are stable for a given report.
	set := r.AfterUpgrade()
	ids := make(map[string]v2common.ElementID, len(set))
	for i := range set {
		p := &set[i]
		ids[p.Key()] = v2common.ElementID("Package-" + strconv.Itoa(i+1))
	}
	for i := range set {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p := &set[i]
		rel := r.Product
		if p.Action == upgradeplan.ToBePreserved {
			rel = r.From
		}
		pkg := newSpdxPackage(p, ids[p.Key()], rel)
		out.Packages = append(out.Packages, pkg)

		rels := []*v2_3.Relationship{{
			RefA:         v2common.MakeDocElementID("", string(pkg.PackageSPDXIdentifier)),
			RefB:         v2common.MakeDocElementID("", string(osPkg.PackageSPDXIdentifier)),
			Relationship: "CONTAINED_BY",
		}}
		if p.PatchID != "" {
			base := upgradeplan.PlannedPackage{PkgID: p.PkgID, Arch: p.Arch, Version: p.Version}
			if id, ok := ids[base.Key()]; ok {
				rels = append(rels, &v2_3.Relationship{
					RefA:         v2common.MakeDocElementID("", string(pkg.PackageSPDXIdentifier)),
					RefB:         v2common.MakeDocElementID("", string(id)),
					Relationship: "PATCH_FOR",
				})
			}
		}
		slices.SortFunc(rels, cmpRelationship)
		out.Relationships = append(out.Relationships, rels...)
	}
	return out, nil
}

func newSpdxPackage(p *upgradeplan.PlannedPackage, id v2common.ElementID, release string) *v2_3.Package {
	pkg := &v2_3.Package{
		PackageName:             p.PkgID,
		PackageSPDXIdentifier:   id,
		PackageVersion:          p.Version,
		PackageDownloadLocation: "NOASSERTION",
		FilesAnalyzed:           true,
		PrimaryPackagePurpose:   "APPLICATION",
		PackageExternalReferences: []*v2_3.PackageExternalReference{{
			Category: "PACKAGE-MANAGER",
			RefType:  "purl",
			Locator:  purl.String(p, release),
		}},
	}
	if p.InstDir != "" {
		pkg.PackageFileName = p.InstDir
	}
	if p.PatchID != "" {
		pkg.PackageSummary = "patch " + p.PatchID
	}
	return pkg
}

// CmpRelationship orders relationships by target, then by type.
func cmpRelationship(a, b *v2_3.Relationship) int {
	return cmp.Or(
		strings.Compare(string(a.RefB.ElementRefID), string(b.RefB.ElementRefID)),
		strings.Compare(a.Relationship, b.Relationship),
	)
}

// GetVersion reads the module version out of the binary's build info.
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}
