package zone

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/internal/wire"
)

// Default tool locations.
const (
	DefaultZoneadm = "/usr/sbin/zoneadm"
	DefaultZonecfg = "/usr/sbin/zonecfg"
)

// ExecSource is a [Source] backed by the zone administration tools. Each
// inventory is loaded by re-executing a binary that serves the
// "zone-inventory" command.
type ExecSource struct {
	// Zoneadm is used to list zones.
	Zoneadm string
	// Zonecfg, if set, is used to find each zone's inherited directories.
	Zonecfg string
	// Self is the binary to run as the child. It is passed Args followed by
	// "--root" and the zone's root.
	Self string
	Args []string
}

var _ Source = (*ExecSource)(nil)

// NewExecSource returns an ExecSource using the default tools and the running
// executable as the child.
func NewExecSource() (*ExecSource, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("zone: unable to find own executable: %w", err)
	}
	return &ExecSource{
		Zoneadm: DefaultZoneadm,
		Zonecfg: DefaultZonecfg,
		Self:    self,
		Args:    []string{"zone-inventory"},
	}, nil
}

// List implements [Source].
func (s *ExecSource) List(ctx context.Context) ([]Zone, error) {
	const op = "zone.List"
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Zoneadm, "list", "-pi")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: strings.TrimSpace(stderr.String()),
			Inner:   err,
		}
	}
	return parseList(bytes.NewReader(out))
}

// Load implements [Source].
func (s *ExecSource) Load(ctx context.Context, z Zone) (*upgradeplan.Product, error) {
	const op = "zone.Load"
	args := append(slices.Clone(s.Args), "--root", z.Root())
	cmd := exec.CommandContext(ctx, s.Self, args...)
	// The child gets its own process group so a signal meant for the planner
	// is not delivered into the zone.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("zone: %s: %w", z.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: "zone " + z.Name,
			Inner:   err,
		}
	}
	slog.DebugContext(ctx, "started inventory child", "zone", z.Name, "pid", cmd.Process.Pid)

	prod, rerr := wire.ReadProduct(out)
	if rerr != nil {
		// Drain so the child is not stuck writing into a full pipe.
		io.Copy(io.Discard, out)
	}
	werr := cmd.Wait()
	switch {
	case werr != nil:
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: fmt.Sprintf("zone %s: child failed: %s", z.Name, strings.TrimSpace(stderr.String())),
			Inner:   werr,
		}
	case rerr != nil:
		return nil, fmt.Errorf("zone: %s: %w", z.Name, rerr)
	}

	if s.Zonecfg != "" {
		dirs, err := s.inherited(ctx, z.Name)
		if err != nil {
			return nil, err
		}
		prod.InheritedDirs = dirs
	}
	return prod, nil
}

func (s *ExecSource) inherited(ctx context.Context, name string) ([]string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Zonecfg, "-z", name, "info", "inherit-pkg-dir")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      "zone.inherited",
			Kind:    upgradeplan.ErrPrecondition,
			Message: fmt.Sprintf("zone %s: %s", name, strings.TrimSpace(stderr.String())),
			Inner:   err,
		}
	}
	return parseInherited(bytes.NewReader(out))
}
