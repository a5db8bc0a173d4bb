package planner

import (
	"context"
	"log/slog"
	"maps"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
)

// State is the selection state of the new product that is private to a view.
type state struct {
	pkgs     map[*pkg]upgradeplan.Status
	clusters map[*cluster][2]upgradeplan.Status
	locales  map[*upgradeplan.Locale]bool
	geos     map[*upgradeplan.Geo]bool
	arches   map[*upgradeplan.Arch]bool
	subset   map[string]bool
}

func capture(np *product) *state {
	s := &state{
		pkgs:     make(map[*pkg]upgradeplan.Status),
		clusters: make(map[*cluster][2]upgradeplan.Status, len(np.Clusters)),
		locales:  make(map[*upgradeplan.Locale]bool, len(np.Locales)),
		geos:     make(map[*upgradeplan.Geo]bool, len(np.Geos)),
		arches:   make(map[*upgradeplan.Arch]bool, len(np.Arches)),
		subset:   maps.Clone(np.SubsetLocales),
	}
	for p := range np.AllPackages() {
		s.pkgs[p] = p.Status
	}
	for _, c := range np.Clusters {
		s.clusters[c] = [2]upgradeplan.Status{c.Status, c.PartialStatus}
	}
	for _, l := range np.Locales {
		s.locales[l] = l.Selected
	}
	for _, g := range np.Geos {
		s.geos[g] = g.Selected
	}
	for _, a := range np.Arches {
		s.arches[a] = a.Selected
	}
	return s
}

func (s *state) apply(np *product) {
	for p := range np.AllPackages() {
		if st, ok := s.pkgs[p]; ok {
			p.Status = st
		}
	}
	for _, c := range np.Clusters {
		if st, ok := s.clusters[c]; ok {
			c.Status, c.PartialStatus = st[0], st[1]
		}
	}
	for _, l := range np.Locales {
		if sel, ok := s.locales[l]; ok {
			l.Selected = sel
		}
	}
	for _, g := range np.Geos {
		if sel, ok := s.geos[g]; ok {
			g.Selected = sel
		}
	}
	for _, a := range np.Arches {
		if sel, ok := s.arches[a]; ok {
			a.Selected = sel
		}
	}
	np.SubsetLocales = maps.Clone(s.subset)
}

// LoadView binds the new product to the environment named by "target", which
// must be a [*upgradeplan.Media] or the [*upgradeplan.Product] of one.
//
// On return every action, install directory, and planner-owned flag of the
// new product and of the target's installed product is reset, the required
// metacluster is REQUIRED, and the selection state of the new product is the
// one last saved for the target (or the initial state, for a target seen for
// the first time). The previously loaded view's selection state is saved.
func (p *Planner) LoadView(ctx context.Context, target upgradeplan.Module) error {
	const op = "Planner.LoadView"
	np := p.NewProduct()
	if np == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no new product bound",
		}
	}
	var m *media
	switch t := target.(type) {
	case *media:
		m = t
	case *product:
		for _, x := range p.media {
			if x.Product == t {
				m = x
				break
			}
		}
		if m == nil {
			return &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: "product does not belong to any media",
			}
		}
	default:
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalidType,
			Message: "view target is a " + target.ModuleType().String(),
		}
	}
	if !m.IsInstalled() {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalidType,
			Message: "view target is not an installed environment",
		}
	}

	if p.cur != nil {
		p.views[p.cur].saved = capture(np)
	}
	p.cur = m
	v, ok := p.views[m]
	if !ok {
		v = new(view)
		p.views[m] = v
	}
	v.matched = make(map[*pkg]*pkg)
	v.decided = make(map[*pkg]decision)
	v.diffrevs = nil

	resetActions(np)
	if m.Product != nil {
		resetActions(m.Product)
	}
	if v.saved != nil {
		v.saved.apply(np)
	} else {
		p.baseline.apply(np)
		p.initSelection(m)
	}
	p.markRequired()
	slog.DebugContext(ctx, "view loaded", "view", m.String(), "seen", v.saved != nil)
	return nil
}

func resetActions(prod *product) {
	for p := range prod.AllPackages() {
		resetPkg(p)
		for _, pt := range p.Patches {
			resetPkg(pt)
		}
	}
	for _, c := range prod.Clusters {
		c.Action = upgradeplan.NoActionDefined
	}
}

func resetPkg(p *pkg) {
	p.Action = upgradeplan.NoActionDefined
	p.InstDir = ""
	p.Flags &^= upgradeplan.PlanFlags
}

// MarkRequired makes every required metacluster, and everything in it that
// fits the view's arches, REQUIRED.
func (p *Planner) markRequired() {
	np := p.NewProduct()
	for mc := range np.Metaclusters() {
		if !mc.Required {
			continue
		}
		mc.Status = upgradeplan.Required
		for _, m := range mc.Members {
			if c, ok := m.(*cluster); ok {
				c.Status = upgradeplan.Required
			}
		}
		for prim := range mc.Packages() {
			for q := range prim.Chain() {
				if p.archOK(q) {
					q.Status = upgradeplan.Required
				}
			}
		}
	}
}

// InitSelection seeds the locale and arch selection of a first-time view from
// the environment's installed product.
func (p *Planner) initSelection(m *media) {
	np, inst := p.NewProduct(), m.Product
	if inst == nil || inst.Null {
		return
	}
	if len(inst.Locales) != 0 {
		for _, l := range np.Locales {
			il := inst.Locale(l.Tag)
			l.Selected = il != nil && il.Selected
		}
	}
	machines := inst.ArchNames()
	if len(machines) == 0 && m == p.main && p.opts.LocalArch != "" {
		machines = []string{p.opts.LocalArch}
	}
	if len(machines) == 0 {
		return
	}
	for _, a := range np.Arches {
		a.Selected = false
		for _, x := range machines {
			if arch.Compare(a.Name, x) != arch.None {
				a.Selected = true
				break
			}
		}
	}
}
