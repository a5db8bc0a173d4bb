package planner

import (
	"context"
	"log/slog"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
)

// MarkArch selects exactly the arches of the new product used by a selected
// package in the loaded view. A package uses an arch when its own arch is the
// same as or refines the arch; packages for every arch use none.
func (p *Planner) MarkArch(ctx context.Context) {
	np := p.NewProduct()
	for _, a := range np.Arches {
		a.Selected = false
	}
	for q := range np.AllPackages() {
		if !q.Selected() || arch.ISA(q.Arch) == arch.All {
			continue
		}
		markUsed(np, q.Arch)
	}
	slog.DebugContext(ctx, "arches marked", "selected", np.SelectedArches())
}

func markUsed(np *product, tag string) {
	for _, a := range np.Arches {
		switch arch.Compare(a.Name, tag) {
		case arch.Match, arch.MoreSpecific:
			a.Selected = true
		}
	}
}

// SetPrimaryArch selects exactly the arches of the new product a diskless
// client runs on.
func (p *Planner) SetPrimaryArch(ctx context.Context) {
	np, inst := p.NewProduct(), p.installed()
	for _, a := range np.Arches {
		a.Selected = false
	}
	tag := primaryArch(inst)
	if tag == "" {
		return
	}
	markUsed(np, tag)
	slog.DebugContext(ctx, "client arch", "arch", tag, "selected", np.SelectedArches())
}

// PrimaryArch is the most specific arch of an installed product: its first
// declared arch, or else the most refined arch among its packages.
func primaryArch(inst *product) string {
	if inst == nil {
		return ""
	}
	if len(inst.Arches) != 0 {
		return inst.Arches[0].Name
	}
	var best string
	var depth int
	for q := range inst.AllPackages() {
		if d := len(arch.Segments(q.Arch)); d > depth {
			best, depth = q.Arch, d
		}
	}
	return best
}

// UnreqNonroot demotes REQUIRED packages that are not ROOT packages to
// SELECTED. On a diskless client only the root packages are truly required;
// the rest come from the server and depend on the client's arch.
func (p *Planner) UnreqNonroot(ctx context.Context) {
	n := 0
	for q := range p.NewProduct().AllPackages() {
		if q.Status == upgradeplan.Required && q.Type != upgradeplan.PTypeRoot {
			q.Status = upgradeplan.Selected
			n++
		}
	}
	slog.DebugContext(ctx, "unrequired non-root packages", "count", n)
}
