// Package datastore defines the persistence interface for plan reports.
//
// Reports are written once per planned environment and read back by the
// tooling that turns a plan into upgrade scripts. Implementations live in the
// subpackages.
package datastore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/quay/upgradeplan"
)

// ErrNotFound is returned by [Store.GetReport] when no report has the
// requested ID.
var ErrNotFound = errors.New("datastore: report not found")

// Store persists [upgradeplan.PlanReport]s.
type Store interface {
	// PutReport stores the report, replacing any report with the same ID.
	//
	// A report with a zero ID is rejected.
	PutReport(context.Context, *upgradeplan.PlanReport) error
	// GetReport returns the report with the given ID, or an error wrapping
	// ErrNotFound.
	GetReport(context.Context, uuid.UUID) (*upgradeplan.PlanReport, error)
	// ReportsByRun returns every report of a planning run, ordered by
	// creation time. A run with no reports returns an empty slice and no
	// error.
	ReportsByRun(context.Context, uuid.UUID) ([]*upgradeplan.PlanReport, error)
	// Close frees any resources associated with the Store.
	Close(context.Context) error
}

// CheckReport reports whether a report can be stored.
func CheckReport(op string, r *upgradeplan.PlanReport) error {
	switch {
	case r == nil:
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "nil report",
		}
	case r.ID == uuid.Nil:
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "report has no ID",
		}
	}
	return nil
}
