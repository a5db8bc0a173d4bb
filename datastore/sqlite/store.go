// Package sqlite implements [datastore.Store] on an SQLite database file.
//
// This is the store used when planning runs on the machine being upgraded,
// where no database server is available.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/sqlite3" // register the goqu dialect
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/datastore"
)

var (
	queryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upgradeplan",
			Subsystem: "sqlite",
			Name:      "queries_total",
			Help:      "Total number of database queries issued, by method.",
		},
		[]string{"query"},
	)
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "upgradeplan",
			Subsystem: "sqlite",
			Name:      "query_duration_seconds",
			Help:      "The duration of database queries, by method.",
		},
		[]string{"query"},
	)
)

var dialect = goqu.Dialect("sqlite3")

const table = "plan_report"

var _ datastore.Store = (*Store)(nil)

// Store is a [datastore.Store] backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at the named file and brings
// its schema up to date.
//
// Must be a file on-disk.
func Open(ctx context.Context, f string) (*Store, error) {
	const op = `datastore/sqlite/Open`
	u := url.URL{
		Scheme: `file`,
		Opaque: f,
		RawQuery: url.Values{
			"_pragma": {
				"foreign_keys(1)",
				"journal_mode(WAL)",
				"busy_timeout(5000)",
			},
		}.Encode(),
	}
	db, err := sql.Open(`sqlite`, u.String())
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "failed to open database",
			Inner:   err,
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: "unable to use database " + f,
			Inner:   err,
		}
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInternal,
			Message: "failed to apply migrations",
			Inner:   err,
		}
	}
	slog.DebugContext(ctx, "opened report store", "file", f)
	return &Store{db: db}, nil
}

// Close implements [datastore.Store].
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// PutReport implements [datastore.Store].
func (s *Store) PutReport(ctx context.Context, r *upgradeplan.PlanReport) error {
	const op = `datastore/sqlite/Store.PutReport`
	if err := datastore.CheckReport(op, r); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode report: %w", err)
	}
	del, delArgs, err := dialect.Delete(table).
		Prepared(true).
		Where(goqu.Ex{"id": r.ID.String()}).
		ToSQL()
	if err != nil {
		return err
	}
	ins, insArgs, err := dialect.Insert(table).
		Prepared(true).
		Rows(goqu.Record{
			"id":          r.ID.String(),
			"run_id":      r.RunID.String(),
			"created":     r.Created.UnixNano(),
			"environment": r.Environment,
			"zone":        r.Zone,
			"product":     r.Product,
			"article_id":  r.ArticleID,
			"success":     r.Success,
			"report":      string(b),
		}).
		ToSQL()
	if err != nil {
		return err
	}

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("sqlite: failed to delete old report: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ins, insArgs...); err != nil {
		return fmt.Errorf("sqlite: failed to insert report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit report: %w", err)
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
	var b string
	err = s.db.QueryRowContext(ctx, q, args...).Scan(&b)
	queryCounter.WithLabelValues("GetReport").Add(1)
	queryDuration.WithLabelValues("GetReport").Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, nil):
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %v", datastore.ErrNotFound, id)
	default:
		return nil, fmt.Errorf("sqlite: failed to query report: %w", err)
	}
	var r upgradeplan.PlanReport
	if err := json.Unmarshal([]byte(b), &r); err != nil {
		return nil, fmt.Errorf("sqlite: failed to decode report %v: %w", id, err)
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
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query run %v: %w", run, err)
	}
	defer rows.Close()
	out := []*upgradeplan.PlanReport{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("sqlite: scan error: %w", err)
		}
		var r upgradeplan.PlanReport
		if err := json.Unmarshal([]byte(b), &r); err != nil {
			return nil, fmt.Errorf("sqlite: failed to decode report: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: sql error: %w", err)
	}
	queryCounter.WithLabelValues("ReportsByRun").Add(1)
	queryDuration.WithLabelValues("ReportsByRun").Observe(time.Since(start).Seconds())
	return out, nil
}
