package upgradeplan

import (
	"slices"
	"strings"
)

// History is a package or cluster history entry from the new media. It says
// what an older installed package turns into.
type History struct {
	// ReplacedBy lists the packages or clusters that take over from this one.
	ReplacedBy []Replacement `json:"replaced_by,omitempty"`
	// ClusterRmList names the metaclusters the package must be dropped from.
	// The entry "ALL" matches any metacluster.
	ClusterRmList []string `json:"cluster_rm_list,omitempty"`
	ToBeRemoved   bool     `json:"to_be_removed,omitempty"`
	NeedsPkgrm    bool     `json:"needs_pkgrm,omitempty"`
	BasedirChange bool     `json:"basedir_change,omitempty"`
}

// HistoryEntry is one record of a media's package history: what an older
// package or cluster with the given ID turns into on the new media.
type HistoryEntry struct {
	ID string `json:"id"`
	// Arch, if set, limits the entry to packages of a compatible
	// architecture.
	Arch string `json:"arch,omitempty"`
	// Versions, if set, limits the entry to packages at one of the versions.
	Versions []string `json:"versions,omitempty"`
	History  History  `json:"history"`
	// Cluster marks an entry about a cluster rather than a package.
	Cluster bool `json:"cluster,omitempty"`
}

// Replacement names a successor package, optionally at a version.
type Replacement struct {
	PkgID   string `json:"pkgid"`
	Version string `json:"version,omitempty"`
}

// ParseReplacement parses an "id[:version]" entry.
func ParseReplacement(s string) Replacement {
	id, ver, _ := strings.Cut(strings.TrimSpace(s), ":")
	return Replacement{PkgID: id, Version: ver}
}

// String implements [fmt.Stringer].
func (r Replacement) String() string {
	if r.Version == "" {
		return r.PkgID
	}
	return r.PkgID + ":" + r.Version
}

// DropsFrom reports whether the history removes the package from the named
// metacluster.
func (h *History) DropsFrom(metacluster string) bool {
	if h == nil || metacluster == "" {
		return false
	}
	return slices.ContainsFunc(h.ClusterRmList, func(s string) bool {
		return s == "ALL" || s == metacluster
	})
}
