package planner

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/quay/upgradeplan/pkg/arch"
)

// Mode says what to do with packages whose installed version is identical to
// the version on the new media.
type Mode int

//go:generate stringer -type=Mode -linecomment

// Identical-package modes.
const (
	PreserveIdentical Mode = iota // PRESERVE_IDENTICAL_PACKAGES
	ReplaceIdentical              // REPLACE_IDENTICAL_PACKAGES
)

// ParseMode parses the configuration spelling of a Mode: "preserve" or
// "replace".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "preserve":
		return PreserveIdentical, nil
	case "replace":
		return ReplaceIdentical, nil
	}
	return 0, fmt.Errorf("planner: unknown identical-package mode %q", s)
}

const (
	DefaultTemplateRoot = "/export/root/templates"
	DefaultProgressRate = 10 * time.Millisecond
)

// Options are dependencies and options for constructing a Planner.
type Options struct {
	// Progress, if not nil, receives progress events. Events are dropped
	// rather than blocking the planner.
	Progress chan<- Event
	// TemplateRoot is where spooled packages are staged.
	TemplateRoot string
	// LocalArch is the architecture of the machine doing the upgrade. It
	// decides whether a split service can share the server's copy of a
	// package.
	LocalArch string
	// ProgressRate is the minimum interval between per-package progress
	// events.
	ProgressRate time.Duration
	// Mode is the identical-package mode.
	Mode Mode
	// Diskless is set when the upgrade is run on behalf of a diskless client.
	Diskless bool

	limiter *rate.Limiter
}

// Parse validates the Options and fills in defaults.
func (o *Options) Parse() error {
	// optional
	if o.TemplateRoot == "" {
		o.TemplateRoot = DefaultTemplateRoot
	}
	if o.LocalArch != "" && !arch.Valid(o.LocalArch) {
		return fmt.Errorf("planner: invalid local arch %q", o.LocalArch)
	}
	if o.ProgressRate <= 0 {
		o.ProgressRate = DefaultProgressRate
	}
	switch o.Mode {
	case PreserveIdentical, ReplaceIdentical:
	default:
		return fmt.Errorf("planner: unknown identical-package mode %v", o.Mode)
	}
	o.limiter = rate.NewLimiter(rate.Every(o.ProgressRate), 1)
	return nil
}
