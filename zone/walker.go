package zone

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/quay/claircore/toolkit/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quay/upgradeplan"
)

var (
	meter  = otel.Meter("github.com/quay/upgradeplan/zone")
	tracer = otel.Tracer("github.com/quay/upgradeplan/zone")

	loadCount metric.Int64Counter
)

var metricInit = sync.OnceValue(func() (err error) {
	loadCount, err = meter.Int64Counter("zone.load.count",
		metric.WithUnit("{zone}"),
		metric.WithDescription("Zone inventories loaded, by outcome."),
	)
	return err
})

var successAttrKey = attribute.Key("success")

// Walker loads the installed product of every upgradeable non-global zone.
type Walker struct {
	Source Source
	// Limit bounds the number of inventories loaded at once. If zero, zones
	// are loaded one at a time in list order, each load finishing before the
	// next starts. A negative Limit uses GOMAXPROCS.
	Limit int
}

// Walk returns one [upgradeplan.Installed] media per zone, in the order the
// zones were listed.
//
// A zone whose inventory could not be loaded is returned with a nil Product;
// the failure is logged and does not affect the other zones. Only a failure
// to list the zones is returned as an error.
func (w *Walker) Walk(ctx context.Context) ([]*upgradeplan.Media, error) {
	ctx, span := tracer.Start(ctx, "Walk")
	defer span.End()
	if err := metricInit(); err != nil {
		return nil, err
	}
	zs, err := w.Source.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	slog.DebugContext(ctx, "found zones", "count", len(zs))

	out := make([]*upgradeplan.Media, len(zs))
	lim := w.Limit
	switch {
	case lim == 0:
		lim = 1
	case lim < 0:
		lim = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(lim)
	for i, z := range zs {
		m := &upgradeplan.Media{
			Kind: upgradeplan.Installed,
			Dir:  z.Root(),
			Zone: z.Name,
			Env:  upgradeplan.EnvToBeUpgraded,
		}
		out[i] = m
		eg.Go(func() error {
			m.Product = w.load(ctx, z)
			return nil
		})
	}
	eg.Wait()
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (w *Walker) load(ctx context.Context, z Zone) *upgradeplan.Product {
	ctx, span := tracer.Start(ctx, "load", trace.WithAttributes(
		attribute.String("zone", z.Name),
	))
	defer span.End()
	ctx = log.With(ctx, "zone", z.Name)
	p, err := w.Source.Load(ctx, z)
	loadCount.Add(ctx, 1, metric.WithAttributes(successAttrKey.Bool(err == nil)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		slog.WarnContext(ctx, "unable to load zone inventory", "reason", err)
		return nil
	}
	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "loaded zone inventory", "packages", len(p.Packages))
	return p
}
