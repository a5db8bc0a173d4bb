package planner

import (
	"context"
)

// EventKind says what a progress [Event] reports.
type EventKind int

//go:generate stringer -type=EventKind -trimprefix=Event

// Progress event kinds.
const (
	EventEnvStart EventKind = iota
	EventEnvDone
	EventEnvSkipped
	EventPackages
	EventPlanDone
)

// Event is a progress event.
type Event struct {
	// Err is set on EventEnvSkipped.
	Err error
	// Env is the environment the event is about, if any.
	Env string
	// Kind is the event kind.
	Kind EventKind
	// Done and Total count environments for the Env events and PlanDone,
	// and packages for Packages events.
	Done, Total int
}

// Progress delivers an event without blocking. Per-package events are
// rate-limited.
func (p *Planner) progress(ctx context.Context, ev Event) {
	ch := p.opts.Progress
	if ch == nil {
		return
	}
	if ev.Kind == EventPackages && !p.opts.limiter.Allow() {
		return
	}
	if ev.Env == "" && p.cur != nil {
		ev.Env = p.cur.String()
	}
	select {
	case ch <- ev:
	case <-ctx.Done():
	default:
	}
}
