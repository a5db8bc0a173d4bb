package spdx

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/package-url/packageurl-go"
	spdxjson "github.com/spdx/tools-golang/json"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/purl"
	"github.com/quay/upgradeplan/sbom"
)

// Decoder reads JSON documents written by an [Encoder].
type Decoder struct{}

var _ sbom.Decoder = (*Decoder)(nil)

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode reads an SPDX document from r.
//
// The returned report carries the document's package set as its new-side
// packages, with no actions assigned. Only packages with a purl external
// reference are read.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) (*upgradeplan.PlanReport, error) {
	doc, err := spdxjson.Read(r)
	if err != nil {
		return nil, fmt.Errorf("spdx: reading document: %w", err)
	}
	return d.report(ctx, doc)
}

func (d *Decoder) report(ctx context.Context, doc *v2_3.Document) (*upgradeplan.PlanReport, error) {
	out := &upgradeplan.PlanReport{
		Environment: doc.DocumentName,
		Success:     true,
	}
	for _, pkg := range doc.Packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pkg.PrimaryPackagePurpose == "OPERATING-SYSTEM" {
			out.Product = pkg.PackageName
			for _, ref := range pkg.PackageExternalReferences {
				if ref.RefType == "article_id" {
					out.ArticleID = ref.Locator
				}
			}
			continue
		}
		for _, ref := range pkg.PackageExternalReferences {
			if ref.RefType != "purl" {
				continue
			}
			u, err := packageurl.FromString(ref.Locator)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed purl", "purl", ref.Locator, "reason", err)
				continue
			}
			p, _, err := purl.Parse(u)
			if err != nil {
				slog.DebugContext(ctx, "skipping foreign purl", "purl", ref.Locator, "reason", err)
				continue
			}
			p.InstDir = pkg.PackageFileName
			p.PURL = ref.Locator
			out.New = append(out.New, *p)
		}
	}
	return out, nil
}
