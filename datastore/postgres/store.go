// Package postgres implements [datastore.Store] on PostgreSQL.
//
// This is the store used when many hosts plan against a shared database, so
// their reports can be collected in one place.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres" // register the goqu dialect
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/datastore"
)

var (
	queryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upgradeplan",
			Subsystem: "postgres",
			Name:      "queries_total",
			Help:      "Total number of database queries issued, by method.",
		},
		[]string{"query"},
	)
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "upgradeplan",
			Subsystem: "postgres",
			Name:      "query_duration_seconds",
			Help:      "The duration of database queries, by method.",
		},
		[]string{"query"},
	)
)

var dialect = goqu.Dialect("postgres")

const table = "plan_report"

// DefaultApplicationName is reported to the server unless the connection
// string sets one.
const DefaultApplicationName = "upgradeplan"

var _ datastore.Store = (*Store)(nil)

// Store is a [datastore.Store] backed by PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	collector prometheus.Collector
}

// Connect creates a connection pool from the connection string and brings the
// schema up to date.
func Connect(ctx context.Context, connString string) (*Store, error) {
	const op = `datastore/postgres/Connect`
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "failed to parse connection string",
			Inner: &upgradeplan.Error{
				// Permanent because the same connection string should always
				// yield an error.
				Kind:  upgradeplan.ErrPermanent,
				Inner: err,
			},
		}
	}
	const appnameKey = `application_name`
	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params[appnameKey]; !ok {
		params[appnameKey] = DefaultApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: "failed to create connection pool",
			Inner:   err,
		}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrTransient,
			Message: "unable to reach database",
			Inner:   err,
		}
	}
	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInternal,
			Message: "failed to apply migrations",
			Inner:   err,
		}
	}
	s := &Store{pool: pool}
	c := newPoolCollector(func() stat { return pool.Stat() }, params[appnameKey])
	switch err := prometheus.Register(c); {
	case errors.Is(err, nil):
		s.collector = c
	default:
		slog.InfoContext(ctx, "pool metrics already registered", "reason", err)
	}
	slog.DebugContext(ctx, "connected report store", "application", params[appnameKey])
	return s, nil
}

// Close implements [datastore.Store].
func (s *Store) Close(_ context.Context) error {
	if s.collector != nil {
		prometheus.Unregister(s.collector)
	}
	s.pool.Close()
	return nil
}

// PutReport implements [datastore.Store].
func (s *Store) PutReport(ctx context.Context, r *upgradeplan.PlanReport) error {
	const op = `datastore/postgres/Store.PutReport`
	if err := datastore.CheckReport(op, r); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode report: %w", err)
	}
	row := goqu.Record{
		"id":          r.ID.String(),
		"run_id":      r.RunID.String(),
		"created":     r.Created,
		"environment": r.Environment,
		"zone":        r.Zone,
		"product":     r.Product,
		"article_id":  r.ArticleID,
		"success":     r.Success,
		"report":      string(b),
	}
	q, args, err := dialect.Insert(table).
		Prepared(true).
		Rows(row).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"created":     goqu.I("excluded.created"),
			"environment": goqu.I("excluded.environment"),
			"zone":        goqu.I("excluded.zone"),
			"product":     goqu.I("excluded.product"),
			"article_id":  goqu.I("excluded.article_id"),
			"success":     goqu.I("excluded.success"),
			"report":      goqu.I("excluded.report"),
		})).
		ToSQL()
	if err != nil {
		return err
	}

	ctx, done := context.WithTimeout(ctx, 30*time.Second)
	defer done()
	start := time.Now()
	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("postgres: failed to upsert report: %w", err)
	}
	queryCounter.WithLabelValues("PutReport").Add(1)
	queryDuration.WithLabelValues("PutReport").Observe(time.Since(start).Seconds())
	return nil
}

// GetReport implements [datastore.Store].
func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*upgradeplan.PlanReport, error) {
	q, args, err := dialect.From(table).
		Prepared(true).
		Select("report").
		Where(goqu.Ex{"id": id.String()}).
		ToSQL()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var b []byte
	err = s.pool.QueryRow(ctx, q, args...).Scan(&b)
	queryCounter.WithLabelValues("GetReport").Add(1)
	queryDuration.WithLabelValues("GetReport").Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, nil):
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", datastore.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("postgres: failed to query report: %w", err)
	}
	var r upgradeplan.PlanReport
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("postgres: failed to decode report %v: %w", id, err)
	}
	return &r, nil
}

// ReportsByRun implements [datastore.Store].
func (s *Store) ReportsByRun(ctx context.Context, run uuid.UUID) ([]*upgradeplan.PlanReport, error) {
	q, args, err := dialect.From(table).
		Prepared(true).
		Select("report").
		Where(goqu.Ex{"run_id": run.String()}).
		Order(goqu.C("created").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query run %v: %w", run, err)
	}
	out := []*upgradeplan.PlanReport{}
	var b []byte
	_, err = pgx.ForEachRow(rows, []any{&b}, func() error {
		var r upgradeplan.PlanReport
		if err := json.Unmarshal(b, &r); err != nil {
			return fmt.Errorf("failed to decode report: %w", err)
		}
		out = append(out, &r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	queryCounter.WithLabelValues("ReportsByRun").Add(1)
	queryDuration.WithLabelValues("ReportsByRun").Observe(time.Since(start).Seconds())
	return out, nil
}
