package upgradeplan

import (
	"fmt"
	"iter"

	"github.com/quay/upgradeplan/pkg/arch"
)

// Product is the software inventory held by one [Media]: either what is
// installed in an environment or what is on the new media.
type Product struct {
	// Name and Version form the release token ("Solaris", "10").
	Name    string `json:"name"`
	Version string `json:"version"`
	Rev     string `json:"rev,omitempty"`
	// Metacluster is the installed metacluster, from the CLUSTER file.
	Metacluster string `json:"metacluster,omitempty"`
	// Null marks a placeholder product for an environment with nothing
	// installed.
	Null bool `json:"null,omitempty"`

	// Packages holds the primary package nodes. Instances hang off of their
	// primaries.
	Packages []*Package `json:"-"`
	Clusters []*Cluster `json:"-"`
	Locales  []*Locale  `json:"-"`
	Geos     []*Geo     `json:"-"`
	Patches  []*Patch   `json:"-"`
	Arches   []*Arch    `json:"-"`
	// InheritedDirs lists directories a non-global zone shares read-only with
	// the global zone.
	InheritedDirs []string `json:"inherited_dirs,omitempty"`

	// History holds the package history shipped with a media product. It is
	// applied to installed products, never to the media's own packages.
	History []HistoryEntry `json:"-"`

	// SubsetLocales records the locales selected as a subset of a geo.
	SubsetLocales map[string]bool `json:"-"`

	index map[string]*Package
}

var _ Module = (*Product)(nil)

func (*Product) module() {}

// ModuleType implements [Module].
func (p *Product) ModuleType() ModuleType {
	if p.Null {
		return NullProductModule
	}
	return ProductModule
}

// Release returns the product's release token.
func (p *Product) Release() string {
	return p.Name + "_" + p.Version
}

// AddPackage adds a package node. If a primary with the same pkgid exists the
// package becomes one of its instances.
func (p *Product) AddPackage(pkg *Package) {
	if prim := p.Package(pkg.ID); prim != nil {
		prim.Instances = append(prim.Instances, pkg)
		return
	}
	p.Packages = append(p.Packages, pkg)
	p.index[pkg.ID] = pkg
}

// Package returns the primary node for the pkgid, or nil.
func (p *Product) Package(id string) *Package {
	if p.index == nil || len(p.index) != len(p.Packages) {
		p.index = make(map[string]*Package, len(p.Packages))
		for _, pkg := range p.Packages {
			p.index[pkg.ID] = pkg
		}
	}
	return p.index[id]
}

// AllPackages yields every package node: each primary followed by its
// instances.
func (p *Product) AllPackages() iter.Seq[*Package] {
	return func(yield func(*Package) bool) {
		for _, prim := range p.Packages {
			for pkg := range prim.Chain() {
				if !yield(pkg) {
					return
				}
			}
		}
	}
}

// Cluster returns the cluster or metacluster with the ID, or nil.
func (p *Product) Cluster(id string) *Cluster {
	for _, c := range p.Clusters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Metaclusters yields the metaclusters of the product.
func (p *Product) Metaclusters() iter.Seq[*Cluster] {
	return func(yield func(*Cluster) bool) {
		for _, c := range p.Clusters {
			if c.Meta && !yield(c) {
				return
			}
		}
	}
}

// Locale returns the locale with the tag, or nil.
func (p *Product) Locale(tag string) *Locale {
	for _, l := range p.Locales {
		if l.Tag == tag {
			return l
		}
	}
	return nil
}

// Patch returns the patch with the ID, or nil.
func (p *Product) Patch(id string) *Patch {
	for _, pt := range p.Patches {
		if pt.ID == id {
			return pt
		}
	}
	return nil
}

// Arch returns the arch entry with the name, or nil.
func (p *Product) Arch(name string) *Arch {
	for _, a := range p.Arches {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ArchNames returns the names of the product's arches.
func (p *Product) ArchNames() []string {
	out := make([]string, len(p.Arches))
	for i, a := range p.Arches {
		out[i] = a.Name
	}
	return out
}

// SelectedArches returns the names of the selected arches.
func (p *Product) SelectedArches() []string {
	var out []string
	for _, a := range p.Arches {
		if a.Selected {
			out = append(out, a.Name)
		}
	}
	return out
}

// Arch is an architecture offered by a product.
type Arch struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected,omitempty"`
	// Loaded is set when the media actually carries packages for the arch.
	Loaded bool `json:"loaded,omitempty"`
}

// FindResult is the outcome of [Product.Find].
type FindResult int

// Find results, best first.
const (
	FoundMatch FindResult = iota
	FoundMoreSpecific
	FoundLessSpecific
	NoArchMatch
	ArchNotSupported
	NotFound
)

// Found reports whether the result carries a package.
func (r FindResult) Found() bool {
	return r <= FoundLessSpecific
}

// Find looks up the package node for the pkgid whose architecture best fits
// "tag": an exact match wins immediately, then a more specific architecture,
// then a less specific one.
//
// If the pkgid exists but nothing fits, the result is NoArchMatch, unless the
// product does not support the tag's instruction set at all, in which case it
// is ArchNotSupported.
func (p *Product) Find(id, tag string) (*Package, FindResult) {
	prim := p.Package(id)
	if prim == nil {
		return nil, NotFound
	}
	var more, less *Package
	for pkg := range prim.Chain() {
		switch arch.Compare(tag, pkg.Arch) {
		case arch.Match:
			return pkg, FoundMatch
		case arch.MoreSpecific:
			if more == nil {
				more = pkg
			}
		case arch.LessSpecific:
			if less == nil {
				less = pkg
			}
		}
	}
	switch {
	case more != nil:
		return more, FoundMoreSpecific
	case less != nil:
		return less, FoundLessSpecific
	case arch.Valid(tag) && !arch.Supported(tag, p.ArchNames()):
		return nil, ArchNotSupported
	}
	return nil, NoArchMatch
}

// Validate checks the structural invariants the planner relies on.
//
// A package node must not be both a primary and an instance, package keys
// must be unique, and a package may be a direct member of at most one
// metacluster.
func (p *Product) Validate() error {
	const op = "Product.Validate"
	seen := make(map[*Package]struct{})
	keys := make(map[string]struct{})
	for _, prim := range p.Packages {
		for pkg := range prim.Chain() {
			if _, ok := seen[pkg]; ok {
				return &Error{
					Op:      op,
					Kind:    ErrInternal,
					Message: fmt.Sprintf("package %v is both a primary and an instance", pkg),
				}
			}
			seen[pkg] = struct{}{}
			k := pkg.Key()
			if _, ok := keys[k]; ok {
				return &Error{
					Op:      op,
					Kind:    ErrInternal,
					Message: fmt.Sprintf("duplicate package key %q", k),
				}
			}
			keys[k] = struct{}{}
		}
	}
	owner := make(map[*Package]string)
	for mc := range p.Metaclusters() {
		for _, m := range mc.Members {
			pkg, ok := m.(*Package)
			if !ok {
				continue
			}
			if prev, ok := owner[pkg]; ok && prev != mc.ID {
				return &Error{
					Op:      op,
					Kind:    ErrInternal,
					Message: fmt.Sprintf("package %v is a member of metaclusters %q and %q", pkg, prev, mc.ID),
				}
			}
			owner[pkg] = mc.ID
		}
	}
	return nil
}
