package planner

import (
	"context"
	"log/slog"
	"runtime/trace"

	"github.com/quay/claircore/toolkit/log"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
	"github.com/quay/upgradeplan/pkg/release"
)

// UpdateModuleActions runs a full planning pass over the loaded view.
//
// Every installed package gets an action from [Planner.ProcessPackage], then
// the propagators run: architecture selection, localization sync, reprocessing
// of matched pairs, new-only packages, cluster status, and patch state.
//
// Running it again on the same view yields the same plan. On a view that has
// been planned before, the selection state saved with the view wins over the
// selections ProcessPackage would make, so toggles survive view switches.
func (p *Planner) UpdateModuleActions(ctx context.Context) error {
	const op = "Planner.UpdateModuleActions"
	if err := p.mustView(op); err != nil {
		return err
	}
	defer trace.StartRegion(ctx, "Planner.UpdateModuleActions").End()
	m, v := p.cur, p.view()
	ctx = log.With(ctx, "view", m.String())
	slog.DebugContext(ctx, "start")
	defer slog.DebugContext(ctx, "done")

	if m.Flags&upgradeplan.SvcToBeRemoved != 0 {
		p.removeEnvironment(ctx)
		v.planned = true
		return nil
	}

	var saved *state
	if v.planned {
		saved = capture(p.NewProduct())
	}
	inst := p.installed()
	if inst != nil && !inst.Null {
		if !v.planned && m.Env == upgradeplan.EnvToBeUpgraded {
			p.MarkClusterTree(ctx)
		}
		for ip := range inst.AllPackages() {
			if err := p.ProcessPackage(ctx, m, ip, upgradeplan.ToBeReplaced, m.Env); err != nil {
				return err
			}
		}
	}
	if saved != nil {
		saved.apply(p.NewProduct())
	}
	v.planned = true
	return p.ReprocessModuleTree(ctx)
}

// RemoveEnvironment plans a service that is going away: everything installed
// is removed and nothing is added.
func (p *Planner) removeEnvironment(ctx context.Context) {
	if inst := p.installed(); inst != nil {
		for ip := range inst.AllPackages() {
			setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
		}
	}
	for np := range p.NewProduct().AllPackages() {
		np.Action = upgradeplan.CannotBeAddedToEnv
	}
	p.SetPatchAction(ctx)
	p.UpdatePatchStatus(ctx)
	slog.InfoContext(ctx, "service marked for removal")
}

// ProcessPackage decides the action for one installed package of the
// environment "target" and, where the package has a counterpart on the new
// media, the counterpart's status, action, and install directory.
//
// "def" is the caller's preferred action for a package being replaced,
// normally TO_BE_REPLACED. A package that already has an action is left
// alone.
func (p *Planner) ProcessPackage(ctx context.Context, target *media, ip *pkg, def upgradeplan.Action, env upgradeplan.EnvAction) error {
	const op = "Planner.ProcessPackage"
	np := p.NewProduct()
	if np == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no new product bound",
		}
	}
	if ip.Action != upgradeplan.NoActionDefined {
		return nil
	}
	inst := target.Product
	hist := ip.History
	upgrading := env == upgradeplan.EnvToBeUpgraded
	log := slog.With("pkg", ip.String())

	// Dropped from the installed metacluster.
	if upgrading && hist.DropsFrom(inst.Metacluster) {
		a := upgradeplan.ToBeRemoved
		if def == upgradeplan.ToBePreserved {
			a = upgradeplan.ToBePreserved
		}
		setAction(ip, a, upgradeplan.DoPkgrm|upgradeplan.ContentsGoingAway)
		removeInstances(ip)
		log.DebugContext(ctx, "dropped from metacluster", "metacluster", inst.Metacluster, "action", ip.Action)
		return nil
	}

	// KVM packages do not survive the KBI change on a service.
	if target.Kind == upgradeplan.InstalledSvc && ip.Type == upgradeplan.PTypeKVM &&
		!release.PostKBI(inst.Release()) && release.PostKBI(np.Release()) {
		setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
		removeInstances(ip)
		log.DebugContext(ctx, "pre-KBI kvm package removed")
		return nil
	}

	// Renamed or retired by the package history.
	if upgrading && hist != nil && (len(hist.ReplacedBy) != 0 || hist.ToBeRemoved) {
		for _, r := range hist.ReplacedBy {
			rp, res := np.Find(r.PkgID, ip.Arch)
			if !res.Found() {
				log.DebugContext(ctx, "replacement not on media", "replacement", r.String(), "result", res)
				continue
			}
			if ip.Shared == upgradeplan.NullPkg {
				rp.SetStatus(upgradeplan.Unselected)
				continue
			}
			rp.SetStatus(upgradeplan.Selected)
			var a upgradeplan.Action
			switch {
			case ip.Shared.Spooled():
				a = upgradeplan.ToBeSpooled
			case ip.Shared == upgradeplan.NotDuplicate:
				a = upgradeplan.ToBePkgadded
			default:
				a = upgradeplan.AddedBySharedEnv
			}
			p.decide(target, ip, rp, a, 0)
			log.DebugContext(ctx, "replaced by", "replacement", rp.String(), "action", a)
		}
		if hist.ToBeRemoved {
			if def == upgradeplan.ToBePreserved {
				setAction(ip, upgradeplan.ToBePreserved, 0)
			} else {
				setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
			}
			return nil
		}
	}

	rp, res := np.Find(ip.ID, ip.Arch)
	switch res {
	case upgradeplan.NotFound, upgradeplan.ArchNotSupported:
		var f upgradeplan.Flag
		if hist == nil {
			f = upgradeplan.IsUnbundledPkg
		}
		setAction(ip, upgradeplan.ToBePreserved, f)
		log.DebugContext(ctx, "not on media", "result", res)
		return nil

	case upgradeplan.NoArchMatch:
		switch {
		case env == upgradeplan.AddSvcToEnv:
			setAction(ip, upgradeplan.ToBePreserved, 0)
		case ip.Shared.Spooled():
			setAction(ip, upgradeplan.ToBeRemoved, 0)
			p.spoolSelectedArches(target, ip)
		default:
			setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
		}
		log.DebugContext(ctx, "no arch match", "action", ip.Action)
		return nil

	case upgradeplan.FoundMoreSpecific, upgradeplan.FoundLessSpecific:
		if env == upgradeplan.AddSvcToEnv {
			v := p.view()
			v.diffrevs = append(v.diffrevs, upgradeplan.DiffRev{
				PkgID:      ip.ID,
				Arch:       ip.Arch,
				OldVersion: ip.Version,
				NewVersion: rp.Version,
			})
			setAction(ip, upgradeplan.ToBePreserved, 0)
			log.WarnContext(ctx, "architecture changed while adding service", "new_arch", rp.Arch)
			return nil
		}
		rp.SetStatus(upgradeplan.Selected)
		if ip.Shared.Spooled() {
			setAction(ip, upgradeplan.ToBeRemoved, 0)
			p.decide(target, ip, rp, upgradeplan.ToBeSpooled, 0)
		} else {
			setAction(ip, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
			p.decide(target, ip, rp, upgradeplan.ToBePkgadded, 0)
		}
		log.DebugContext(ctx, "arch refined", "new_arch", rp.Arch, "result", res)
		return nil
	}

	// Exact arch match.
	if ip.Shared == upgradeplan.NullPkg {
		setAction(ip, upgradeplan.ToBePreserved, 0)
		rp.SetStatus(upgradeplan.Unselected)
		return nil
	}
	rp.SetStatus(upgradeplan.Selected)
	if ip.Shared == upgradeplan.NotDuplicate {
		p.view().matched[ip] = rp
	}
	if p.identical(target, ip, rp) {
		setAction(ip, upgradeplan.ToBePreserved, 0)
		p.existing(ip, rp)
		if ip.Shared != upgradeplan.NotDuplicate {
			p.view().decided[rp] = decision{action: rp.Action, flags: rp.Flags, instdir: rp.InstDir}
		}
		log.DebugContext(ctx, "identical", "action", ip.Action)
		return nil
	}
	var f upgradeplan.Flag
	if hist != nil && hist.NeedsPkgrm {
		f = upgradeplan.DoPkgrm
	}
	setAction(ip, def, f)
	var a upgradeplan.Action
	switch ip.Shared {
	case upgradeplan.NotDuplicate:
		a = upgradeplan.ToBePkgadded
		removeDuplicates(inst, ip, rp)
	case upgradeplan.SpooledDup, upgradeplan.SpooledNotDup:
		a = upgradeplan.ToBeSpooled
	default:
		a = upgradeplan.AddedBySharedEnv
		if rp.Type == upgradeplan.PTypeRoot {
			a = upgradeplan.ToBeSpooled
		}
	}
	var nf upgradeplan.Flag
	if hist == nil || !hist.NeedsPkgrm {
		nf = upgradeplan.InstanceAlreadyPresent
	}
	if ip.Shared == upgradeplan.NotDuplicate {
		rp.Action, rp.Flags = a, rp.Flags|nf
		rp.InstDir = p.instDir(target, ip, rp, a)
	} else {
		p.decide(target, ip, rp, a, nf)
	}
	log.DebugContext(ctx, "replaced", "action", ip.Action, "new_action", a)
	return nil
}

// Identical reports whether the installed package can stay in place because
// the new media carries the very same version.
func (p *Planner) identical(target *media, ip, rp *pkg) bool {
	if p.opts.Mode != PreserveIdentical {
		return false
	}
	if ip.History != nil && ip.History.NeedsPkgrm {
		return false
	}
	if !p.opts.Diskless && !target.IsZone() && ip.Flags&upgradeplan.ZoneSpooled == 0 {
		return false
	}
	return release.Compare(ip.Version, rp.Version) == release.EqualTo
}

// Existing records that the new package is already present as "ip".
func (p *Planner) existing(ip, rp *pkg) {
	rp.Action = upgradeplan.ExistingNoAction
	rp.Flags &^= upgradeplan.PlanFlags
	rp.InstDir = ip.InstDir
	if rp.InstDir == "" {
		rp.InstDir = ip.Basedir
	}
}

// Decide assigns an action to a new package and remembers it for
// reprocessing.
func (p *Planner) decide(target *media, ip, rp *pkg, a upgradeplan.Action, f upgradeplan.Flag) {
	rp.Action = a
	rp.Flags |= f
	rp.InstDir = p.instDir(target, ip, rp, a)
	p.view().decided[rp] = decision{action: a, flags: rp.Flags, instdir: rp.InstDir}
}

// SpoolSelectedArches spools every instance of the package on the new media
// whose arch is currently selected.
func (p *Planner) spoolSelectedArches(target *media, ip *pkg) {
	np := p.NewProduct()
	prim := np.Package(ip.ID)
	if prim == nil {
		return
	}
	sel := np.SelectedArches()
	for rp := range prim.Chain() {
		ok := false
		for _, a := range sel {
			if arch.Compatible(rp.Arch, a) {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		rp.SetStatus(upgradeplan.Selected)
		p.decide(target, ip, rp, upgradeplan.ToBeSpooled, 0)
	}
}

// SetAction sets the action and flags of a package, refusing to remove a
// REQUIRED package that its history does not retire.
func setAction(p *pkg, a upgradeplan.Action, f upgradeplan.Flag) {
	if a == upgradeplan.ToBeRemoved && p.Status == upgradeplan.Required &&
		(p.History == nil || !p.History.ToBeRemoved) {
		a, f = upgradeplan.ToBePreserved, 0
	}
	p.Action = a
	p.Flags = p.Flags&^upgradeplan.PlanFlags | f
}

func removeInstances(ip *pkg) {
	for _, i := range ip.Instances {
		setAction(i, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
	}
}

// RemoveDuplicates removes the other installed instances of the pkgid that
// sit on the same arch as the package about to be added.
func removeDuplicates(inst *product, ip, rp *pkg) {
	prim := inst.Package(ip.ID)
	if prim == nil {
		return
	}
	for o := range prim.Chain() {
		if o == ip || o.Action != upgradeplan.NoActionDefined {
			continue
		}
		if arch.Compare(o.Arch, rp.Arch) == arch.Match {
			setAction(o, upgradeplan.ToBeRemoved, upgradeplan.DoPkgrm)
		}
	}
}
