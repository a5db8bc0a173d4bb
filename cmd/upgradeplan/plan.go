package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/quay/claircore/toolkit/log"
	"github.com/spf13/cobra"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/internal/wire"
	"github.com/quay/upgradeplan/inventory"
	"github.com/quay/upgradeplan/planner"
	"github.com/quay/upgradeplan/purl"
	"github.com/quay/upgradeplan/zone"
)

type planFlags struct {
	RunFile   string
	Datastore string
	Output    string
	Mode      string
	LocalArch string
	Zones     bool
}

func newPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan every environment named in a run file",
		Long: `Plan loads the new product and every installed environment named in the
run file, decides what happens to each package, and writes one report per
environment as JSON. Reports are also stored if a datastore is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rf, err := loadRunFile(f.RunFile)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("datastore") {
				rf.Datastore = f.Datastore
			}
			if fs.Changed("mode") {
				rf.Mode = f.Mode
			}
			if fs.Changed("local-arch") {
				rf.LocalArch = f.LocalArch
			}
			if fs.Changed("zones") {
				rf.Zones = f.Zones
			}
			if err := rf.validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.Output != "" && f.Output != "-" {
				fp, err := os.Create(f.Output)
				if err != nil {
					return err
				}
				defer fp.Close()
				out = fp
			}
			return runPlan(cmd.Context(), rf, out)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.RunFile, "run", "f", "", "run file to read (required)")
	fs.StringVar(&f.Datastore, "datastore", "", "store reports in this database, overriding the run file")
	fs.StringVarP(&f.Output, "output", "o", "-", "write reports here")
	fs.StringVar(&f.Mode, "mode", "", `identical-package mode: "preserve" or "replace"`)
	fs.StringVar(&f.LocalArch, "local-arch", "", "architecture of this machine")
	fs.BoolVar(&f.Zones, "zones", false, "also plan the local non-global zones")
	cmd.MarkFlagRequired("run")
	return cmd
}

func runPlan(ctx context.Context, rf *RunFile, out io.Writer) error {
	if rf.LocalArch == "" {
		rf.LocalArch = localArch(machine())
	}
	np, hist, err := loadNewProduct(ctx, &rf.Product)
	if err != nil {
		return fail(ctx, "unable to load new product", err)
	}
	newMedia := &upgradeplan.Media{
		Kind:    upgradeplan.MediaImage,
		Dir:     rf.Product.Dir,
		Product: np,
	}
	if newMedia.Dir == "" {
		newMedia.Dir = rf.Product.Snapshot
	}
	list := []*upgradeplan.Media{newMedia}

	for i := range rf.Environments {
		e := &rf.Environments[i]
		m, err := e.Media()
		if err != nil {
			return err
		}
		ctx := log.With(ctx, "environment", m.String())
		p, err := loadInstalled(ctx, &e.Source)
		switch {
		case errors.Is(err, nil):
			inventory.ApplyHistory(ctx, p, hist)
			m.Product = p
		case errors.Is(err, upgradeplan.ErrPrecondition):
			// The planner reports the environment as skipped.
			slog.WarnContext(ctx, "environment cannot be upgraded", "reason", err)
		default:
			return fail(ctx, "unable to load environment", err)
		}
		list = append(list, m)
	}

	if rf.Zones {
		src, err := zone.NewExecSource()
		if err != nil {
			return err
		}
		w := zone.Walker{Source: src}
		zs, err := w.Walk(ctx)
		if err != nil {
			return fail(ctx, "unable to list zones", err)
		}
		for _, m := range zs {
			if m.Product != nil {
				inventory.ApplyHistory(ctx, m.Product, hist)
			}
			list = append(list, m)
		}
	}

	events := make(chan planner.Event, 16)
	var wg sync.WaitGroup
	wg.Go(func() { logProgress(ctx, events) })
	opts := rf.Options()
	opts.Progress = events
	reports, err := plan(ctx, opts, rf, list)
	close(events)
	wg.Wait()
	if err != nil {
		return fail(ctx, "planning failed", err)
	}

	article := rf.ArticleID
	if article == "" {
		article = inventory.NewRegistryID()
	}
	for _, r := range reports {
		r.ArticleID = article
		purl.Fill(r)
	}

	if rf.Datastore != "" {
		s, err := openStore(ctx, rf.Datastore)
		if err != nil {
			return fail(ctx, "unable to open datastore", err)
		}
		defer s.Close(ctx)
		for _, r := range reports {
			if err := s.PutReport(ctx, r); err != nil {
				return fail(ctx, "unable to store report", err)
			}
		}
		slog.InfoContext(ctx, "stored reports", "count", len(reports))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func plan(ctx context.Context, opts *planner.Options, rf *RunFile, list []*upgradeplan.Media) ([]*upgradeplan.PlanReport, error) {
	p, err := planner.New(ctx, opts, list)
	if err != nil {
		return nil, err
	}
	if len(rf.Locales) != 0 || len(rf.Geos) != 0 {
		for _, m := range p.Media() {
			if !m.IsInstalled() || m.Product == nil {
				continue
			}
			if err := selectLocales(ctx, p, m, rf); err != nil {
				return nil, err
			}
		}
	}
	reports, err := p.PlanAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		slog.WarnContext(ctx, "packages changed architecture while adding services", "reason", err)
	}
	slog.InfoContext(ctx, "planned environments", "run", p.RunID(), "reports", len(reports))
	return reports, nil
}

func selectLocales(ctx context.Context, p *planner.Planner, m *upgradeplan.Media, rf *RunFile) error {
	if err := p.LoadView(ctx, m); err != nil {
		return err
	}
	for _, tag := range rf.Locales {
		if err := p.AddLocale(ctx, tag); err != nil {
			return err
		}
	}
	for _, g := range rf.Geos {
		if err := p.SelectGeo(ctx, g, true); err != nil {
			return err
		}
	}
	return nil
}

func logProgress(ctx context.Context, events <-chan planner.Event) {
	for ev := range events {
		switch ev.Kind {
		case planner.EventPackages:
			slog.DebugContext(ctx, "progress", "environment", ev.Env, "done", ev.Done, "total", ev.Total)
		case planner.EventEnvSkipped:
			slog.InfoContext(ctx, "environment skipped", "environment", ev.Env, "reason", ev.Err)
		default:
			slog.InfoContext(ctx, ev.Kind.String(), "environment", ev.Env, "done", ev.Done, "total", ev.Total)
		}
	}
}

func loadNewProduct(ctx context.Context, s *Source) (*upgradeplan.Product, []inventory.HistoryEntry, error) {
	if s.Snapshot != "" {
		p, err := readSnapshot(s.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		slog.DebugContext(ctx, "read media snapshot", "release", p.Release(), "history", len(p.History))
		return p, p.History, nil
	}
	return inventory.LoadMedia(ctx, os.DirFS(s.Dir))
}

func loadInstalled(ctx context.Context, s *Source) (*upgradeplan.Product, error) {
	if s.Snapshot != "" {
		return readSnapshot(s.Snapshot)
	}
	return loadRoot(ctx, s.Dir)
}

// LoadRoot is the [zone.LoadFunc] for installed roots on the local
// filesystem.
func loadRoot(ctx context.Context, root string) (*upgradeplan.Product, error) {
	return inventory.LoadInstalled(ctx, os.DirFS(root))
}

func readSnapshot(name string) (*upgradeplan.Product, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      "readSnapshot",
			Kind:    upgradeplan.ErrPrecondition,
			Message: name,
			Inner:   err,
		}
	}
	defer f.Close()
	p, err := wire.ReadProduct(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return p, nil
}
