package upgradeplan

import "iter"

// Cluster is a named group of packages and other clusters. A metacluster
// (Meta set) is a top-level grouping such as "SUNWCuser".
type Cluster struct {
	History *History `json:"history,omitempty"`
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	// Members are *Package and *Cluster nodes.
	Members []Module `json:"-"`
	// PartialStatus records which way the cluster leaned when it last
	// became PARTIALLY_SELECTED: SELECTED if it was selected before, otherwise
	// UNSELECTED.
	PartialStatus Status `json:"partial_status,omitempty"`
	Status        Status `json:"status"`
	Action        Action `json:"action"`
	Meta          bool   `json:"meta,omitempty"`
	// Required marks the metacluster that must always be installed.
	Required bool `json:"required,omitempty"`
	// Default marks the metacluster selected by default.
	Default bool `json:"default,omitempty"`
}

var _ Module = (*Cluster)(nil)

func (*Cluster) module() {}

// ModuleType implements [Module].
func (c *Cluster) ModuleType() ModuleType {
	if c.Meta {
		return MetaclusterModule
	}
	return ClusterModule
}

// Packages yields every package reachable from the cluster, descending into
// member clusters. A package reachable by more than one path is yielded once.
func (c *Cluster) Packages() iter.Seq[*Package] {
	return func(yield func(*Package) bool) {
		seen := make(map[Module]struct{})
		var walk func(*Cluster) bool
		walk = func(c *Cluster) bool {
			for _, m := range c.Members {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				switch m := m.(type) {
				case *Package:
					if !yield(m) {
						return false
					}
				case *Cluster:
					if !walk(m) {
						return false
					}
				}
			}
			return true
		}
		walk(c)
	}
}

// Contains reports whether the module is reachable from the cluster.
func (c *Cluster) Contains(m Module) bool {
	seen := make(map[*Cluster]struct{})
	var walk func(*Cluster) bool
	walk = func(c *Cluster) bool {
		if _, ok := seen[c]; ok {
			return false
		}
		seen[c] = struct{}{}
		for _, x := range c.Members {
			if x == m {
				return true
			}
			if sub, ok := x.(*Cluster); ok && walk(sub) {
				return true
			}
		}
		return false
	}
	return walk(c)
}

// String implements [fmt.Stringer].
func (c *Cluster) String() string {
	return c.ID
}
