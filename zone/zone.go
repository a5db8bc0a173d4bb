// Package zone finds the non-global zones of a system and loads the installed
// inventory of each one.
//
// Inventories are loaded by a child process confined to the zone's root. The
// child writes the inventory to its standard output as a [wire] record stream
// and the parent resolves it into a [upgradeplan.Product]. A zone whose child
// fails is reported without a product; it never stops the walk.
package zone

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/quay/upgradeplan"
)

// Zone is a configured non-global zone.
type Zone struct {
	Name  string
	State string
	// Path is the zonepath; the zone's root file system is below it.
	Path  string
	Brand string
}

// Root returns the zone's root directory as seen from the global zone.
func (z Zone) Root() string {
	return path.Join(z.Path, "root")
}

// Source lists zones and loads their installed products.
type Source interface {
	List(context.Context) ([]Zone, error)
	Load(context.Context, Zone) (*upgradeplan.Product, error)
}

// LoadFunc loads the installed product rooted at a directory.
type LoadFunc func(ctx context.Context, root string) (*upgradeplan.Product, error)

// Upgradeable zone states. Configured and incomplete zones have nothing
// installed to plan for.
var upgradeable = map[string]bool{
	"installed": true,
	"ready":     true,
	"running":   true,
}

// ParseList parses the output of "zoneadm list -pi": one zone per line as
// colon-separated zoneid, name, state, zonepath, uuid, brand, and ip-type.
// The global zone and zones in states that cannot be upgraded are left out.
func parseList(r io.Reader) ([]Zone, error) {
	var out []Zone
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		fs := strings.Split(line, ":")
		if len(fs) < 4 {
			return nil, fmt.Errorf("zone: list line %d: malformed entry %q", n, line)
		}
		z := Zone{Name: fs[1], State: fs[2], Path: fs[3]}
		if len(fs) > 5 {
			z.Brand = fs[5]
		}
		if z.Name == "global" || !upgradeable[z.State] {
			continue
		}
		out = append(out, z)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("zone: reading list: %w", err)
	}
	return out, nil
}

// ParseInherited parses the output of "zonecfg -z <zone> info inherit-pkg-dir".
func parseInherited(r io.Reader) ([]string, error) {
	var out []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(s.Text()), ":")
		if !ok || k != "dir" {
			continue
		}
		out = append(out, strings.TrimSpace(v))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("zone: reading inherited dirs: %w", err)
	}
	return out, nil
}
