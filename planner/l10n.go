package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
)

// SyncL10N makes the selection of localization packages follow the selection
// of their locales.
//
// A package whose locales are all unselected is unselected, unless this is an
// upgrade and the installed version of the package was not a localization
// package. A package with a selected locale is selected when its arch fits
// the view and, if it localizes other packages, at least one of those is
// selected.
func (p *Planner) SyncL10N(ctx context.Context) {
	np := p.NewProduct()
	seen := make(map[*pkg]struct{})
	n := 0
	for _, l := range np.Locales {
		for _, prim := range l.Packages {
			for q := range prim.Chain() {
				if _, ok := seen[q]; ok {
					continue
				}
				seen[q] = struct{}{}
				if p.syncPackage(q) {
					n++
				}
			}
		}
	}
	slog.DebugContext(ctx, "localization synced", "packages", len(seen), "selected", n)
}

func (p *Planner) syncPackage(q *pkg) bool {
	if q.Status == upgradeplan.Required {
		return true
	}
	np := p.NewProduct()
	on := false
	for _, tag := range q.Locales {
		if l := np.Locale(tag); l != nil && l.Selected {
			on = true
			break
		}
	}
	if !on {
		if p.keepNonL10N(q) {
			return q.Selected()
		}
		q.Status = upgradeplan.Unselected
		return false
	}
	sel := p.archOK(q) && p.splitOK(q)
	if sel && len(q.Localizes) != 0 {
		sel = false
		for _, x := range q.Localizes {
			if x.Selected() {
				sel = true
				break
			}
		}
	}
	if sel {
		q.Status = upgradeplan.Selected
	} else {
		q.Status = upgradeplan.Unselected
	}
	return sel
}

// KeepNonL10N reports whether an upgrade should leave the package's selection
// alone because the installed version of it was not a localization package.
func (p *Planner) keepNonL10N(q *pkg) bool {
	if p.cur.Env != upgradeplan.EnvToBeUpgraded {
		return false
	}
	inst := p.installed()
	if inst == nil || inst.Null {
		return false
	}
	ip, res := inst.Find(q.ID, q.Arch)
	return res.Found() && !ip.IsL10N()
}

// SplitOK reports whether a package fits a service split from its server: it
// must also run on the local machine.
func (p *Planner) splitOK(q *pkg) bool {
	if p.cur.Flags&upgradeplan.SplitFromServer == 0 || p.opts.LocalArch == "" {
		return true
	}
	return arch.ISA(q.Arch) == arch.All || arch.Compatible(q.Arch, p.opts.LocalArch)
}

// SelectLocale selects or deselects a locale of the new product in the loaded
// view and re-derives the plan.
func (p *Planner) SelectLocale(ctx context.Context, tag string, on bool) error {
	const op = "Planner.SelectLocale"
	if err := p.mustView(op); err != nil {
		return err
	}
	l := p.NewProduct().Locale(tag)
	if l == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrBadLocale,
			Message: tag,
		}
	}
	l.Selected = on
	if !on {
		delete(p.NewProduct().SubsetLocales, tag)
	}
	return p.ReprocessModuleTree(ctx)
}

// AddLocale adds a locale to the new product, selected, and re-derives the
// plan. A locale already present is selected.
func (p *Planner) AddLocale(ctx context.Context, tag string) error {
	const op = "Planner.AddLocale"
	if err := p.mustView(op); err != nil {
		return err
	}
	if err := ValidLocale(tag); err != nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "malformed locale",
			Inner:   err,
		}
	}
	np := p.NewProduct()
	l := np.Locale(tag)
	if l == nil {
		l = &upgradeplan.Locale{Tag: tag}
		np.Locales = append(np.Locales, l)
	}
	l.Selected = true
	return p.ReprocessModuleTree(ctx)
}

// SelectGeo selects or deselects a geographic region. Selecting it selects
// each of its locales that is not already selected, remembering them as a
// subset of the geo; deselecting it deselects only those.
func (p *Planner) SelectGeo(ctx context.Context, name string, on bool) error {
	const op = "Planner.SelectGeo"
	if err := p.mustView(op); err != nil {
		return err
	}
	np := p.NewProduct()
	var g *upgradeplan.Geo
	for _, x := range np.Geos {
		if x.Name == name {
			g = x
			break
		}
	}
	if g == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrBadLocale,
			Message: "unknown geo " + name,
		}
	}
	g.Selected = on
	if np.SubsetLocales == nil {
		np.SubsetLocales = make(map[string]bool)
	}
	for _, tag := range g.Locales {
		l := np.Locale(tag)
		if l == nil {
			continue
		}
		switch {
		case on && !l.Selected:
			l.Selected = true
			np.SubsetLocales[tag] = true
		case !on && np.SubsetLocales[tag]:
			l.Selected = false
			delete(np.SubsetLocales, tag)
		}
	}
	return p.ReprocessModuleTree(ctx)
}

// ValidLocale checks a POSIX locale name such as "ja", "de_DE.ISO8859-1", or
// "sr_RS@latin".
func ValidLocale(tag string) error {
	switch tag {
	case "C", "POSIX":
		return nil
	case "":
		return fmt.Errorf("empty locale")
	}
	base, _, _ := strings.Cut(tag, "@")
	base, cs, hasCS := strings.Cut(base, ".")
	if hasCS && cs == "" {
		return fmt.Errorf("locale %q: empty codeset", tag)
	}
	if _, err := language.Parse(strings.ReplaceAll(base, "_", "-")); err != nil {
		return fmt.Errorf("locale %q: %w", tag, err)
	}
	return nil
}
