package planner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/quay/claircore/toolkit/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quay/upgradeplan"
)

// Toggle flips the selection of a package, cluster, or locale of the new
// product in the main view and carries the change to every other planned
// environment. See [Planner.UpdateAction].
func (p *Planner) Toggle(ctx context.Context, node upgradeplan.Module) error {
	const op = "Planner.Toggle"
	if p.main == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no installed environment to plan",
		}
	}
	if p.cur != p.main {
		if err := p.LoadView(ctx, p.main); err != nil {
			return err
		}
		if err := p.UpdateModuleActions(ctx); err != nil {
			return err
		}
	}
	switch n := node.(type) {
	case *pkg:
		s := upgradeplan.Selected
		switch n.Status {
		case upgradeplan.Required:
			return nil
		case upgradeplan.Selected, upgradeplan.PartiallySelected:
			s = upgradeplan.Unselected
		}
		p.markPackage(n, s)
	case *cluster:
		p.toggleCluster(n)
	case *upgradeplan.Locale:
		n.Selected = !n.Selected
		if !n.Selected {
			delete(p.NewProduct().SubsetLocales, n.Tag)
		}
	default:
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalidType,
			Message: "cannot toggle a " + node.ModuleType().String(),
		}
	}
	return p.UpdateAction(ctx, node)
}

// UpdateAction re-plans every environment after "node" changed in the main
// view.
//
// The main view is planned first. Then each other installed environment that
// has been planned gets the same change: a package copies its status from the
// main view, a locale its selection, and a cluster is toggled as many times as
// needed to line up with the main view's cluster. The main view is loaded on
// return.
func (p *Planner) UpdateAction(ctx context.Context, node upgradeplan.Module) error {
	const op = "Planner.UpdateAction"
	if p.main == nil {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrNoProduct,
			Message: "no installed environment to plan",
		}
	}
	if p.cur != p.main {
		if err := p.LoadView(ctx, p.main); err != nil {
			return err
		}
	}
	if err := p.UpdateModuleActions(ctx); err != nil {
		return err
	}

	var (
		pkgStatus upgradeplan.Status
		mainSel   clusterSel
		locOn     bool
	)
	switch n := node.(type) {
	case *pkg:
		pkgStatus = n.Status
	case *cluster:
		mainSel = selOf(n)
	case *upgradeplan.Locale:
		locOn = n.Selected
	default:
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalidType,
			Message: "cannot propagate a " + node.ModuleType().String(),
		}
	}

	for _, m := range p.media {
		if m == p.main || !m.IsInstalled() {
			continue
		}
		if v, ok := p.views[m]; !ok || !v.planned {
			continue
		}
		if err := p.LoadView(ctx, m); err != nil {
			return err
		}
		switch n := node.(type) {
		case *pkg:
			if n.Status != pkgStatus {
				p.markPackage(n, pkgStatus)
			}
		case *cluster:
			switch altClusterToggles(mainSel, selOf(n)) {
			case 1:
				p.toggleCluster(n)
			case -1:
				p.toggleCluster(n)
				if n.Status == upgradeplan.PartiallySelected {
					p.toggleCluster(n)
				}
			}
		case *upgradeplan.Locale:
			n.Selected = locOn
			if !locOn {
				delete(p.NewProduct().SubsetLocales, n.Tag)
			}
		}
		if err := p.UpdateModuleActions(ctx); err != nil {
			return err
		}
		slog.DebugContext(ctx, "change propagated", "view", m.String(), "node", fmt.Sprint(node))
	}

	if p.cur != p.main {
		if err := p.LoadView(ctx, p.main); err != nil {
			return err
		}
		return p.UpdateModuleActions(ctx)
	}
	return nil
}

// PlanOrder returns the installed media in planning order: the basis of the
// upgrade, other installed roots, services, then non-global zones.
func (p *Planner) planOrder() []*media {
	rank := func(m *media) int {
		switch {
		case m == p.main:
			return 0
		case m.Kind == upgradeplan.InstalledSvc:
			return 2
		case m.IsZone():
			return 3
		default:
			return 1
		}
	}
	var out []*media
	for _, m := range p.media {
		if m.IsInstalled() {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b *media) int {
		return cmp.Compare(rank(a), rank(b))
	})
	return out
}

// PlanAll plans every installed environment and returns one report per
// environment, in planning order.
//
// An environment that fails to plan gets a report carrying the error and
// planning moves on; only errors of kind [upgradeplan.ErrInternal] stop the
// run. Environments without an installed product are skipped. The main view
// is loaded on return.
func (p *Planner) PlanAll(ctx context.Context) ([]*upgradeplan.PlanReport, error) {
	ctx, span := tracer.Start(ctx, "PlanAll")
	defer span.End()
	if err := metricInit(); err != nil {
		slog.WarnContext(ctx, "unable to initialize metrics", "reason", err)
	}

	order := p.planOrder()
	out := make([]*upgradeplan.PlanReport, 0, len(order))
	for i, m := range order {
		r, err := p.planOne(ctx, m, i, len(order))
		switch {
		case errors.Is(err, upgradeplan.ErrInternal):
			span.RecordError(err)
			span.SetStatus(codes.Error, "internal error")
			return nil, err
		case r == nil:
			continue
		}
		out = append(out, r)
	}

	if p.main != nil && p.main.Product != nil {
		if err := p.LoadView(ctx, p.main); err != nil {
			return nil, err
		}
		if err := p.UpdateModuleActions(ctx); err != nil {
			return nil, err
		}
	}
	p.progress(ctx, Event{Kind: EventPlanDone, Done: len(out), Total: len(order)})
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (p *Planner) planOne(ctx context.Context, m *media, i, total int) (*upgradeplan.PlanReport, error) {
	ctx, span := tracer.Start(ctx, "planEnvironment", trace.WithAttributes(
		attribute.String("environment", m.String()),
		kindAttrKey.String(m.Kind.String()),
	))
	defer span.End()
	ctx = log.With(ctx, "environment", m.String())

	if m.Product == nil {
		err := &upgradeplan.Error{
			Op:      "Planner.PlanAll",
			Kind:    upgradeplan.ErrPrecondition,
			Message: "no installed product",
		}
		slog.WarnContext(ctx, "skipping environment", "reason", err)
		p.progress(ctx, Event{Kind: EventEnvSkipped, Env: m.String(), Err: err, Done: i, Total: total})
		span.SetStatus(codes.Error, "skipped")
		return nil, nil
	}

	p.progress(ctx, Event{Kind: EventEnvStart, Env: m.String(), Done: i, Total: total})
	slog.InfoContext(ctx, "planning environment")
	err := p.LoadView(ctx, m)
	if err == nil {
		err = p.UpdateModuleActions(ctx)
	}
	if errors.Is(err, upgradeplan.ErrInternal) {
		slog.ErrorContext(ctx, "planning failed", "reason", err)
		return nil, err
	}

	var r *upgradeplan.PlanReport
	if err != nil {
		slog.WarnContext(ctx, "environment not planned", "reason", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "not planned")
		r = &upgradeplan.PlanReport{
			ID:          uuid.New(),
			RunID:       p.runID,
			Created:     time.Now(),
			Environment: m.Dir,
			Zone:        m.Zone,
			Kind:        m.Kind,
			Err:         err.Error(),
		}
		if np := p.NewProduct(); np != nil {
			r.Product = np.Release()
		}
	} else {
		r = p.Report()
		p.countActions(ctx, r)
		span.SetStatus(codes.Ok, "")
	}
	if envCount != nil {
		envCount.Add(ctx, 1, metric.WithAttributes(
			kindAttrKey.String(m.Kind.String()),
			successAttrKey.Bool(r.Success),
		))
	}
	p.progress(ctx, Event{Kind: EventEnvDone, Env: m.String(), Done: i + 1, Total: total})
	return r, nil
}

func (p *Planner) countActions(ctx context.Context, r *upgradeplan.PlanReport) {
	if actionCount == nil {
		return
	}
	ct := make(map[upgradeplan.Action]int64)
	for _, q := range r.Installed {
		ct[q.Action]++
	}
	for _, q := range r.New {
		ct[q.Action]++
	}
	for a, n := range ct {
		actionCount.Add(ctx, n, metric.WithAttributes(actionAttrKey.String(a.String())))
	}
}
