// Package sbom defines interfaces for rendering the package set a plan leaves
// on an environment as a software bill of materials.
package sbom

import (
	"context"
	"io"

	"github.com/quay/upgradeplan"
)

// Encoder writes the post-upgrade package set of a report.
type Encoder interface {
	Encode(ctx context.Context, w io.Writer, r *upgradeplan.PlanReport) error
}

// Decoder reads back the package set written by an Encoder.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*upgradeplan.PlanReport, error)
}
