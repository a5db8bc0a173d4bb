package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/internal/wire"
	"github.com/quay/upgradeplan/inventory"
	"github.com/quay/upgradeplan/zone"
)

func newSnapshotCmd() *cobra.Command {
	var root, media, output, compression string
	cmd := &cobra.Command{
		Use:   "snapshot (--root DIR | --media DIR)",
		Short: "Write the inventory of an installed root or media image to a file",
		Long: `Snapshot reads the inventory of an installed root or of an install media
image and writes it as a record stream, so it can be planned elsewhere. Name
the file in the "snapshot" field of a run file to use it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := wire.ParseCompression(compression)
			if err != nil {
				return err
			}
			var p *upgradeplan.Product
			switch {
			case root != "":
				p, err = loadRoot(ctx, root)
			case media != "":
				// The package history is kept on p.History and written
				// with the rest of the product.
				p, _, err = inventory.LoadMedia(ctx, os.DirFS(media))
			default:
				return errors.New("one of --root or --media is required")
			}
			if err != nil {
				return fail(ctx, "unable to load inventory", err)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := wire.Encode(out, p, c); err != nil {
				return fail(ctx, "unable to write snapshot", err)
			}
			slog.InfoContext(ctx, "wrote snapshot",
				"release", p.Release(),
				"output", output,
				"compression", c.String())
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&root, "root", "", "installed root to read")
	fs.StringVar(&media, "media", "", "media image to read")
	fs.StringVarP(&output, "output", "o", "-", "write the snapshot here")
	fs.StringVar(&compression, "compression", wire.Zstd.String(), `one of "zstd", "gzip", "xz", or "none"`)
	cmd.MarkFlagsMutuallyExclusive("root", "media")
	return cmd
}

func newZoneInventoryCmd() *cobra.Command {
	opts := &zone.ChildOptions{Load: loadRoot}
	var compression string
	cmd := &cobra.Command{
		Use:    "zone-inventory --root DIR",
		Short:  "Serve a zone's inventory to the planning process",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := wire.ParseCompression(compression)
			if err != nil {
				return err
			}
			opts.Compression = c
			// Logs go to stderr, which the parent attaches to its error.
			return zone.Serve(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Root, "root", "", "zone root, as seen from the global zone")
	fs.BoolVar(&opts.Chroot, "chroot", true, "confine the process to the zone root first")
	fs.StringVar(&compression, "compression", wire.Zstd.String(), "compression of the stream")
	cmd.MarkFlagRequired("root")
	return cmd
}
