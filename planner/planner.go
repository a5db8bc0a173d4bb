// Package planner computes upgrade action plans.
//
// A [Planner] holds the new product (the software on the upgrade media) and
// every installed environment: the local global zone, non-global zones,
// diskless client roots, and services. It binds the new product to one
// environment at a time (a "view"), decides what happens to every installed
// package, and how every package on the new media gets installed.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/quay/upgradeplan"
)

// Aliases for readability.
type (
	pkg     = upgradeplan.Package
	cluster = upgradeplan.Cluster
	media   = upgradeplan.Media
	product = upgradeplan.Product
)

// Planner is the upgrade planner.
//
// A Planner is not safe for concurrent use: exactly one view is loaded at a
// time, and the action fields of the new product belong to that view.
type Planner struct {
	opts Options

	media    []*media
	newMedia *media
	main     *media
	cur      *media

	// Baseline is the state of the new product as loaded from the media.
	baseline *state
	views    map[*media]*view
	runID    uuid.UUID
}

// View is the per-environment state of the new product.
type view struct {
	saved *state
	// Matched maps installed packages to the new package replacing them
	// with an exact arch match.
	matched map[*pkg]*pkg
	// Decided holds the outcome ProcessPackage assigned to new packages that
	// are not part of a matched pair.
	decided  map[*pkg]decision
	diffrevs []upgradeplan.DiffRev
	planned  bool
}

type decision struct {
	instdir string
	action  upgradeplan.Action
	flags   upgradeplan.Flag
}

// Claimed returns the new packages that replace a matched installed package.
func (v *view) claimed() map[*pkg]struct{} {
	c := make(map[*pkg]struct{}, len(v.matched))
	for _, rp := range v.matched {
		c[rp] = struct{}{}
	}
	return c
}

// New creates a Planner over the media list.
//
// The list must contain exactly one MEDIA_IMAGE entry (the new product) and at
// most one installed entry marked BASIS_OF_UPGRADE. If no entry is marked, the
// first INSTALLED media that is not a zone becomes the basis.
func New(ctx context.Context, opts *Options, list []*media) (*Planner, error) {
	const op = "planner.New"
	if opts == nil {
		opts = new(Options)
	}
	if err := opts.Parse(); err != nil {
		return nil, err
	}
	p := &Planner{
		opts:  *opts,
		media: list,
		views: make(map[*media]*view),
		runID: uuid.New(),
	}
	for _, m := range list {
		switch {
		case m.Kind == upgradeplan.MediaImage:
			if p.newMedia != nil {
				return nil, &upgradeplan.Error{
					Op:      op,
					Kind:    upgradeplan.ErrInvalid,
					Message: fmt.Sprintf("more than one new product: %v, %v", p.newMedia, m),
				}
			}
			p.newMedia = m
		case m.Flags&upgradeplan.BasisOfUpgrade != 0:
			if p.main != nil {
				return nil, &upgradeplan.Error{
					Op:      op,
					Kind:    upgradeplan.ErrInvalid,
					Message: fmt.Sprintf("more than one basis of upgrade: %v, %v", p.main, m),
				}
			}
			p.main = m
		}
	}
	if p.main == nil {
		i := slices.IndexFunc(list, func(m *media) bool {
			return m.Kind == upgradeplan.Installed && !m.IsZone()
		})
		if i != -1 {
			p.main = list[i]
			p.main.Flags |= upgradeplan.BasisOfUpgrade
		}
	}
	np := p.NewProduct()
	if np == nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no new product in media list",
		}
	}
	if err := np.Validate(); err != nil {
		return nil, err
	}
	for _, m := range list {
		if m == p.newMedia || m.Product == nil {
			continue
		}
		if err := m.Product.Validate(); err != nil {
			return nil, fmt.Errorf("planner: %v: %w", m, err)
		}
	}
	p.baseline = capture(np)
	slog.DebugContext(ctx, "planner created",
		"run", p.runID,
		"product", np.Release(),
		"media", len(list))
	return p, nil
}

// NewProduct returns the new product, or nil if there is none.
func (p *Planner) NewProduct() *product {
	if p.newMedia == nil {
		return nil
	}
	return p.newMedia.Product
}

// Main returns the media that is the basis of the upgrade.
func (p *Planner) Main() *media { return p.main }

// Current returns the media whose view is loaded, or nil.
func (p *Planner) Current() *media { return p.cur }

// Media returns the media list.
func (p *Planner) Media() []*media { return p.media }

// RunID identifies this planner's run in reports.
func (p *Planner) RunID() uuid.UUID { return p.runID }

// DiffRevs returns the architecture-mismatched upgrades recorded for the
// current view.
func (p *Planner) DiffRevs() []upgradeplan.DiffRev {
	if p.cur == nil {
		return nil
	}
	return slices.Clone(p.views[p.cur].diffrevs)
}

// Err returns the recorded DiffRevs of the current view joined into one error,
// or nil.
func (p *Planner) Err() error {
	drs := p.DiffRevs()
	errs := make([]error, len(drs))
	for i := range drs {
		errs[i] = &drs[i]
	}
	return errors.Join(errs...)
}

func (p *Planner) view() *view {
	return p.views[p.cur]
}

// Installed returns the installed product of the current view.
func (p *Planner) installed() *product {
	if p.cur == nil || p.cur.Product == nil {
		return nil
	}
	return p.cur.Product
}

// IsClient reports whether the media is a diskless client root: an
// installed, non-zone environment that is not the basis of the upgrade.
func (p *Planner) isClient(m *media) bool {
	return m.Kind == upgradeplan.Installed && !m.IsZone() && m != p.main
}

func (p *Planner) mustView(op string) error {
	if p.NewProduct() == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no new product bound",
		}
	}
	if p.cur == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no view loaded",
		}
	}
	return nil
}
