package zone

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/internal/wire"
)

// ChildOptions configures [Serve].
type ChildOptions struct {
	// Load reads the installed product. It is passed "/" when Chroot is set
	// and Root otherwise.
	Load LoadFunc
	// Root is the zone's root directory as seen from the global zone.
	Root string
	// Chroot confines the process to Root before loading.
	Chroot bool
	// Compression is applied to the stream written to the parent.
	Compression wire.Compression
}

// Serve is the child side of [ExecSource.Load]: it loads the inventory under
// the zone's root and writes it to "w".
//
// With Chroot set, Serve does not return the process to its original root;
// the child is expected to exit after serving.
func Serve(ctx context.Context, w io.Writer, opts *ChildOptions) error {
	const op = "zone.Serve"
	root := opts.Root
	if opts.Chroot {
		if err := unix.Chroot(opts.Root); err != nil {
			return &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrPrecondition,
				Message: "entering " + opts.Root,
				Inner:   err,
			}
		}
		if err := unix.Chdir("/"); err != nil {
			return fmt.Errorf("zone: %w", err)
		}
		root = "/"
	}
	slog.DebugContext(ctx, "loading zone inventory", "root", opts.Root, "chroot", opts.Chroot)
	p, err := opts.Load(ctx, root)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return wire.Encode(w, p, opts.Compression)
}
