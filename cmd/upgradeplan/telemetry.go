package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Standard OTLP exporter environment variables.
const (
	envEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envProtocol = "OTEL_EXPORTER_OTLP_PROTOCOL"
)

// Telemetry holds the OpenTelemetry providers installed for a run.
type telemetry struct {
	shutdown []func(context.Context) error
	// Handler forwards log records to the log exporter.
	handler slog.Handler
}

// SetupTelemetry installs OTLP exporters for traces, metrics, and logs when
// an OTLP endpoint is configured in the environment. With no endpoint it
// returns a telemetry that does nothing.
//
// The exporters read the rest of their configuration from the standard
// OTEL_EXPORTER_OTLP_* variables.
func setupTelemetry(ctx context.Context, version string) (*telemetry, error) {
	t := new(telemetry)
	if os.Getenv(envEndpoint) == "" {
		return t, nil
	}
	grpc := true
	switch p := strings.ToLower(os.Getenv(envProtocol)); p {
	case "", "grpc":
	case "http/protobuf", "http/json", "http":
		grpc = false
	default:
		return nil, fmt.Errorf("unknown OTLP protocol %q", p)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", "upgradeplan"),
		attribute.String("service.version", version),
	)

	var texp *otlptrace.Exporter
	var err error
	if grpc {
		texp, err = otlptracegrpc.New(ctx)
	} else {
		texp, err = otlptracehttp.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(texp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	t.shutdown = append(t.shutdown, tp.Shutdown)

	var mexp sdkmetric.Exporter
	if grpc {
		mexp, err = otlpmetricgrpc.New(ctx)
	} else {
		mexp, err = otlpmetrichttp.New(ctx)
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("metric exporter: %w", err), t.Shutdown(ctx))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	t.shutdown = append(t.shutdown, mp.Shutdown)

	var lexp sdklog.Exporter
	if grpc {
		lexp, err = otlploggrpc.New(ctx)
	} else {
		lexp, err = otlploghttp.New(ctx)
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("log exporter: %w", err), t.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(lexp)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)
	t.shutdown = append(t.shutdown, lp.Shutdown)
	t.handler = otelslog.NewHandler("github.com/quay/upgradeplan", otelslog.WithLoggerProvider(lp))
	return t, nil
}

// Shutdown flushes and stops every installed provider.
func (t *telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, t.shutdown[i](ctx))
	}
	t.shutdown = nil
	return errors.Join(errs...)
}

// TeeHandler sends every record to all of its handlers.
type teeHandler []slog.Handler

var _ slog.Handler = teeHandler(nil)

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(as []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(as)
	}
	return out
}

func (t teeHandler) WithGroup(n string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(n)
	}
	return out
}
