// Upgradeplan computes upgrade action plans for a machine's installed
// environments against new install media.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/quay/claircore/toolkit/log"
	"github.com/spf13/cobra"

	"github.com/quay/upgradeplan"
)

// Exit codes.
const (
	exitFailure      = 1
	exitPrecondition = 2
	exitInterrupted  = 130
)

type globalFlags struct {
	Verbose bool
	Text    bool
}

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "upgradeplan:", err)
	}
	switch {
	case errors.Is(err, nil):
	case ctx.Err() != nil:
		exit = exitInterrupted
	case errors.Is(err, upgradeplan.ErrPrecondition):
		exit = exitPrecondition
	default:
		exit = exitFailure
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	var tel *telemetry
	root := &cobra.Command{
		Use:           "upgradeplan",
		Short:         "Plan the upgrade of installed environments to a new product",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			tel, err = setupTelemetry(cmd.Context(), version())
			if err != nil {
				return err
			}
			setupLogging(&g, tel)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if tel == nil {
				return nil
			}
			ctx, done := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
			defer done()
			return tel.Shutdown(ctx)
		},
	}
	root.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&g.Text, "log-text", false, "log as text instead of JSON")

	root.AddCommand(
		newPlanCmd(),
		newSnapshotCmd(),
		newZoneInventoryCmd(),
		newSBOMCmd(),
	)
	return root
}

// SetupLogging installs the default slog handler. Records always go to
// stderr; stdout is reserved for command output.
func setupLogging(g *globalFlags, tel *telemetry) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if g.Verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	if g.Text {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	if tel != nil && tel.handler != nil {
		h = teeHandler{h, tel.handler}
	}
	slog.SetDefault(slog.New(log.WrapHandler(h)))
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Fail logs an error the way every command reports a fatal one.
func fail(ctx context.Context, msg string, err error) error {
	slog.ErrorContext(ctx, msg, "reason", err)
	return fmt.Errorf("%s: %w", msg, err)
}
