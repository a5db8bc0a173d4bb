package upgradeplan

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlannedPackage is one package's outcome in a PlanReport.
type PlannedPackage struct {
	PkgID   string `json:"pkgid"`
	Arch    string `json:"arch"`
	Version string `json:"version"`
	// PatchID is set on the entries for patched copies of a package.
	PatchID string `json:"patch_id,omitempty"`
	InstDir string `json:"instdir,omitempty"`
	// PURL is the package URL of the package, filled when a report is
	// rendered for consumers outside the planner.
	PURL   string `json:"purl,omitempty"`
	Action Action `json:"action"`
	Flags  Flag   `json:"flags,omitempty"`
	Status Status `json:"status"`
}

// PlannedPatch is one patch's outcome in a PlanReport.
type PlannedPatch struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// PlannedCluster is one cluster's outcome in a PlanReport.
type PlannedCluster struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Action Action `json:"action"`
	Meta   bool   `json:"meta,omitempty"`
}

// PlanReport is the action plan for one environment: what happens to every
// installed package, and how every package on the new media gets there.
//
// A PlanReport is a snapshot taken while the environment's view was loaded;
// it stays valid after the planner moves on to another view.
type PlanReport struct {
	Created time.Time `json:"created"`
	// Environment is the mount directory of the environment's media.
	Environment string `json:"environment"`
	Zone        string `json:"zone,omitempty"`
	// Product is the release token of the new product.
	Product string `json:"product"`
	// From is the release token of the installed product.
	From string `json:"from,omitempty"`
	// Err is the error that stopped planning this environment, if any.
	Err       string           `json:"err,omitempty"`
	Installed []PlannedPackage `json:"installed"`
	New       []PlannedPackage `json:"new"`
	Patches   []PlannedPatch   `json:"patches,omitempty"`
	Clusters  []PlannedCluster `json:"clusters,omitempty"`
	DiffRevs  []DiffRev        `json:"diffrevs,omitempty"`
	// ID identifies the report. A run that plans several environments shares
	// a RunID across their reports.
	ID    uuid.UUID `json:"id"`
	RunID uuid.UUID `json:"run_id"`
	// ArticleID is the product registry ID assigned to the plan.
	ArticleID string    `json:"article_id,omitempty"`
	Kind      MediaKind `json:"kind"`
	// Success is true when the environment was planned to completion.
	Success bool `json:"success"`
}

// Planned returns the packages with the given action, installed side first.
func (r *PlanReport) Planned(a Action) []PlannedPackage {
	var out []PlannedPackage
	for _, p := range r.Installed {
		if p.Action == a {
			out = append(out, p)
		}
	}
	for _, p := range r.New {
		if p.Action == a {
			out = append(out, p)
		}
	}
	return out
}

// NewPlannedPackage captures the current planning state of a package node.
func NewPlannedPackage(p *Package) PlannedPackage {
	return PlannedPackage{
		PkgID:   p.ID,
		Arch:    p.Arch,
		Version: p.Version,
		PatchID: p.PatchID,
		InstDir: p.InstDir,
		Action:  p.Action,
		Flags:   p.Flags,
		Status:  p.Status,
	}
}

// Key identifies the package instance a PlannedPackage describes.
func (p *PlannedPackage) Key() string {
	k := p.PkgID + "|" + p.Arch + "|" + p.Version
	if p.PatchID != "" {
		k += "|" + p.PatchID
	}
	return k
}

// AfterUpgrade returns the packages present on the environment once the plan
// is carried out: installed packages that are preserved, and new packages
// that get installed, spooled, or provided by a shared environment. The
// result is sorted by key and holds each package once.
func (r *PlanReport) AfterUpgrade() []PlannedPackage {
	seen := make(map[string]bool)
	var out []PlannedPackage
	add := func(p PlannedPackage) {
		if k := p.Key(); !seen[k] {
			seen[k] = true
			out = append(out, p)
		}
	}
	for _, p := range r.Installed {
		if p.Action == ToBePreserved {
			add(p)
		}
	}
	for _, p := range r.New {
		switch p.Action {
		case ToBePkgadded, ToBeSpooled, AddedBySharedEnv:
			add(p)
		}
	}
	slices.SortFunc(out, func(a, b PlannedPackage) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}
