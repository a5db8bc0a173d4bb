package planner

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter  = otel.Meter("github.com/quay/upgradeplan/planner")
	tracer = otel.Tracer("github.com/quay/upgradeplan/planner")

	actionCount metric.Int64Counter
	envCount    metric.Int64Counter
)

var metricInit = sync.OnceValue(func() (err error) {
	actionCount, err = meter.Int64Counter("planner.action.count",
		metric.WithUnit("{package}"),
		metric.WithDescription("Package actions assigned, by action."),
	)
	if err != nil {
		return err
	}
	envCount, err = meter.Int64Counter("planner.environment.count",
		metric.WithUnit("{environment}"),
		metric.WithDescription("Environments planned, by kind and outcome."),
	)
	if err != nil {
		return err
	}
	return nil
})

var (
	actionAttrKey  = attribute.Key("action")
	kindAttrKey    = attribute.Key("kind")
	successAttrKey = attribute.Key("success")
)
