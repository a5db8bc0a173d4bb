package planner

import (
	"context"
	"log/slog"
	"runtime/trace"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
)

// ReprocessModuleTree re-derives the plan of the loaded view from the current
// selection state, after a toggle or a locale change.
//
// Matched pairs of a NOTDUPLICATE installed package and its exact-arch
// replacement are re-decided: an unselected replacement removes the installed
// package, a selected one replaces (or, for identical versions, preserves)
// it. Packages only on the new media are pkgadded when selected. Cluster
// status and patch state are then recomputed.
func (p *Planner) ReprocessModuleTree(ctx context.Context) error {
	const op = "Planner.ReprocessModuleTree"
	if err := p.mustView(op); err != nil {
		return err
	}
	defer trace.StartRegion(ctx, "Planner.ReprocessModuleTree").End()
	m := p.cur

	if p.isClient(m) {
		p.UnreqNonroot(ctx)
		p.SetPrimaryArch(ctx)
	} else {
		p.MarkArch(ctx)
	}
	p.SyncL10N(ctx)
	p.reprocessMatched(ctx)
	p.reprocessDecided()
	p.assignNew(ctx)
	p.SetClusterStatus(ctx)
	p.SetPatchAction(ctx)
	p.UpdatePatchStatus(ctx)
	return nil
}

func (p *Planner) reprocessMatched(ctx context.Context) {
	inst := p.installed()
	if inst == nil {
		return
	}
	v := p.view()
	for ip := range inst.AllPackages() {
		rp, ok := v.matched[ip]
		if !ok {
			continue
		}
		if ip.Shared != upgradeplan.NotDuplicate || (ip.History != nil && ip.History.ToBeRemoved) {
			continue
		}
		if rp.Status == upgradeplan.Unselected {
			setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm|upgradeplan.ContentsGoingAway)
			rp.Action = upgradeplan.ToBePreserved
			rp.Flags &^= upgradeplan.PlanFlags
			rp.InstDir = ""
			slog.DebugContext(ctx, "replacement unselected", "pkg", ip.String(), "action", ip.Action)
			continue
		}
		if p.identical(p.cur, ip, rp) {
			setAction(ip, upgradeplan.ToBePreserved, 0)
			p.existing(ip, rp)
			continue
		}
		rp.Action = upgradeplan.ToBePkgadded
		rp.Flags &^= upgradeplan.PlanFlags
		if ip.History != nil && ip.History.NeedsPkgrm {
			setAction(ip, upgradeplan.ToBeReplaced, upgradeplan.DoPkgrm)
		} else {
			setAction(ip, upgradeplan.ToBeReplaced, 0)
			rp.Flags |= upgradeplan.InstanceAlreadyPresent
		}
		rp.InstDir = p.instDir(p.cur, ip, rp, rp.Action)
	}
}

// ReprocessDecided re-applies ProcessPackage's decisions for new packages
// outside matched pairs, honoring later deselection. A package that is also
// the replacement of a matched pair keeps what reprocessMatched gave it.
func (p *Planner) reprocessDecided() {
	v := p.view()
	claimed := v.claimed()
	for rp, d := range v.decided {
		if _, ok := claimed[rp]; ok {
			continue
		}
		if rp.Status == upgradeplan.Unselected {
			rp.Action = upgradeplan.ToBePreserved
			rp.Flags &^= upgradeplan.PlanFlags
			rp.InstDir = ""
			continue
		}
		rp.Action, rp.Flags, rp.InstDir = d.action, d.flags, d.instdir
	}
}

// AssignNew decides the packages only present on the new media.
func (p *Planner) assignNew(ctx context.Context) {
	v := p.view()
	claimed := v.claimed()
	isSvc := p.cur.Kind == upgradeplan.InstalledSvc
	n := 0
	for rp := range p.NewProduct().AllPackages() {
		if _, ok := claimed[rp]; ok {
			continue
		}
		if _, ok := v.decided[rp]; ok {
			continue
		}
		rp.Flags &^= upgradeplan.PlanFlags
		rp.InstDir = ""
		switch {
		case !rp.Selected():
			rp.Action = upgradeplan.ToBePreserved
		case !p.archOK(rp):
			rp.Action = upgradeplan.CannotBeAddedToEnv
		case isSvc && rp.Type == upgradeplan.PTypeRoot:
			rp.Action = upgradeplan.ToBeSpooled
			rp.InstDir = p.instDir(p.cur, nil, rp, rp.Action)
		default:
			rp.Action = upgradeplan.ToBePkgadded
			rp.InstDir = p.instDir(p.cur, nil, rp, rp.Action)
			n++
		}
	}
	p.progress(ctx, Event{Kind: EventPackages, Done: n})
}

// ArchOK reports whether a new package fits the selected arches of the view.
// With no arch selected every package fits.
func (p *Planner) archOK(rp *pkg) bool {
	if arch.ISA(rp.Arch) == arch.All {
		return true
	}
	sel := p.NewProduct().SelectedArches()
	if len(sel) == 0 {
		return true
	}
	for _, a := range sel {
		if arch.Compatible(rp.Arch, a) {
			return true
		}
	}
	return false
}
