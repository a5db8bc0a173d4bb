package planner

import (
	"context"
	"log/slog"

	"github.com/quay/upgradeplan"
)

// SetPatchAction copies each package's action onto its patch chain, in both
// the installed product of the view and the new product. Patches on a
// package being replaced are removed individually first.
func (p *Planner) SetPatchAction(ctx context.Context) {
	n := setPatchAction(p.NewProduct())
	if inst := p.installed(); inst != nil {
		n += setPatchAction(inst)
	}
	slog.DebugContext(ctx, "patch actions set", "count", n)
}

func setPatchAction(prod *product) int {
	n := 0
	for q := range prod.AllPackages() {
		a, f := q.Action, q.Flags&(upgradeplan.DoPkgrm|upgradeplan.ContentsGoingAway)
		if a == upgradeplan.ToBeReplaced {
			a, f = upgradeplan.ToBeRemoved, f|upgradeplan.DoPkgrm
		}
		for _, pt := range q.Patches {
			pt.Action = a
			pt.Flags = pt.Flags&^upgradeplan.PlanFlags | f
			n++
		}
	}
	return n
}

// UpdatePatchStatus derives the removed flag of every patch: a patch is
// removed when none of its target packages is being preserved.
func (p *Planner) UpdatePatchStatus(ctx context.Context) {
	n := updatePatchStatus(p.NewProduct())
	if inst := p.installed(); inst != nil {
		n += updatePatchStatus(inst)
	}
	slog.DebugContext(ctx, "patch status updated", "removed", n)
}

func updatePatchStatus(prod *product) int {
	n := 0
	for _, pt := range prod.Patches {
		pt.Removed = true
		for _, t := range pt.Targets {
			if tp := patchTarget(prod, &t); tp != nil && tp.Action == upgradeplan.ToBePreserved {
				pt.Removed = false
				break
			}
		}
		if pt.Removed {
			n++
		}
	}
	return n
}

// PatchTarget resolves a patch target that was not linked at load time. A
// target naming a version only resolves to the instance of that version.
func patchTarget(prod *product, t *upgradeplan.PatchTarget) *pkg {
	if t.Package != nil {
		return t.Package
	}
	prim := prod.Package(t.PkgID)
	if prim == nil || t.Version == "" {
		return prim
	}
	for q := range prim.Chain() {
		if q.Version == t.Version {
			return q
		}
	}
	return nil
}
