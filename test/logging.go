// Package test holds helpers shared by the module's tests.
package test

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quay/claircore/toolkit/log"
)

var (
	// Install puts the dispatching handler in place exactly once.
	install = sync.OnceFunc(func() {
		slog.SetDefault(slog.New(dispatch{}))
	})

	// Modprefix is the main module path plus a slash, trimmed from source
	// function names.
	modprefix = sync.OnceValue(func() string {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
			return info.Main.Path + "/"
		}
		return ""
	})
)

type handlerKey struct{}

// Dispatch is the default [slog.Handler] while tests run. It sends every
// record to the handler stored in the record's Context by [Logging], replaying
// any WithAttrs and WithGroup calls made on the way there.
//
// Records logged with a Context that did not come from Logging are dropped.
type dispatch struct {
	ops []func(slog.Handler) slog.Handler
}

func (d dispatch) target(ctx context.Context) slog.Handler {
	h, _ := ctx.Value(handlerKey{}).(slog.Handler)
	return h
}

// Enabled implements [slog.Handler].
func (d dispatch) Enabled(ctx context.Context, l slog.Level) bool {
	h := d.target(ctx)
	return h != nil && h.Enabled(ctx, l)
}

// Handle implements [slog.Handler].
func (d dispatch) Handle(ctx context.Context, r slog.Record) error {
	h := d.target(ctx)
	if h == nil {
		return nil
	}
	for _, op := range d.ops {
		h = op(h)
	}
	if v, ok := ctx.Value(log.AttrsKey).(slog.Value); ok {
		r.AddAttrs(v.Group()...)
	}
	return h.Handle(ctx, r)
}

// WithAttrs implements [slog.Handler].
func (d dispatch) WithAttrs(attrs []slog.Attr) slog.Handler {
	return d.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup implements [slog.Handler].
func (d dispatch) WithGroup(name string) slog.Handler {
	return d.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (d dispatch) with(op func(slog.Handler) slog.Handler) dispatch {
	ops := make([]func(slog.Handler) slog.Handler, len(d.ops), len(d.ops)+1)
	copy(ops, d.ops)
	return dispatch{ops: append(ops, op)}
}

// Logging returns a [context.Context] that makes the default [slog.Logger]
// write to the test's output at debug level.
//
// The returned Context is derived from "parent" if provided, and from
// [context.Background] otherwise; the test's own Context is not used unless
// passed in.
func Logging(t testing.TB, parent ...context.Context) context.Context {
	install()
	ctx := context.Background()
	if len(parent) > 0 {
		ctx = parent[0]
	}
	start := time.Now()
	h := slog.NewTextHandler(t.Output(), &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) != 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(slog.TimeKey, "+"+time.Since(start).String())
			case slog.SourceKey:
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				if src.Function != "" {
					return slog.String(slog.SourceKey, strings.TrimPrefix(src.Function, modprefix()))
				}
				return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return a
		},
	})
	return context.WithValue(ctx, handlerKey{}, slog.Handler(h))
}
