package inventory

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
)

// HistoryEntry is one record of a media .pkghistory file.
type HistoryEntry = upgradeplan.HistoryEntry

// ReadPkgHistory reads a .pkghistory. Package entries start with "PKG=" and
// cluster entries with "CLUSTER="; both end with "END". VERSION and
// REPLACED_BY are whitespace-separated, since versions may contain commas.
func ReadPkgHistory(r io.Reader) ([]HistoryEntry, error) {
	ss, err := readStanzas(r, "PKG", "CLUSTER")
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(ss))
	for _, s := range ss {
		e := HistoryEntry{
			Arch:     s.get("ARCH"),
			Versions: words(s.get("VERSION")),
			History: upgradeplan.History{
				ClusterRmList: list(s.get("REMOVE_FROM_CLUSTER")),
				ToBeRemoved:   flag(s.get("TO_BE_REMOVED")),
				NeedsPkgrm:    flag(s.get("PKGRM")),
				BasedirChange: flag(s.get("BASEDIR_CHANGE")),
			},
		}
		if id := s.get("CLUSTER"); id != "" {
			e.ID, e.Cluster = id, true
		} else {
			e.ID = s.get("PKG")
		}
		for _, v := range words(s.get("REPLACED_BY")) {
			e.History.ReplacedBy = append(e.History.ReplacedBy, upgradeplan.ParseReplacement(v))
		}
		out = append(out, e)
	}
	return out, nil
}

// Applies reports whether a package entry matches the package.
func applies(e *HistoryEntry, p *upgradeplan.Package) bool {
	switch {
	case p.ID != e.ID:
		return false
	case e.Arch != "" && arch.Compare(p.Arch, e.Arch) == arch.None:
		return false
	case len(e.Versions) != 0 && !slices.Contains(e.Versions, p.Version):
		return false
	}
	return true
}

// ApplyHistory attaches the media's history entries to the matching packages
// and clusters of an installed product and reports how many nodes it touched.
// A node matched by more than one entry keeps the first.
func ApplyHistory(ctx context.Context, p *upgradeplan.Product, hist []HistoryEntry) int {
	n := 0
	for q := range p.AllPackages() {
		for i := range hist {
			e := &hist[i]
			if e.Cluster || !applies(e, q) {
				continue
			}
			h := e.History
			q.History = &h
			n++
			break
		}
	}
	for _, c := range p.Clusters {
		for i := range hist {
			e := &hist[i]
			if !e.Cluster || e.ID != c.ID {
				continue
			}
			h := e.History
			c.History = &h
			n++
			break
		}
	}
	slog.DebugContext(ctx, "applied package history", "entries", len(hist), "nodes", n)
	return n
}
