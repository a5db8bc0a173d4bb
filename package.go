package upgradeplan

import (
	"iter"
	"slices"
	"strings"
)

// Package is one installable SVR4 package as known to either side of an
// upgrade: an installed image or the new media.
//
// A Package is either a primary node (held in [Product.Packages]) or a member
// of some primary's Instances, never both.
type Package struct {
	// History is the package history entry from the media, if any.
	History *History `json:"history,omitempty"`
	// PatchOf points at the package this node patches. It is nil for
	// non-patch nodes.
	PatchOf *Package `json:"-"`
	// ID is the pkgid, the package's unique name (e.g. "SUNWcsu").
	ID string `json:"pkgid"`
	// Name is the human-readable NAME from pkginfo.
	Name string `json:"name,omitempty"`
	// Version is the VERSION from pkginfo.
	Version string `json:"version"`
	// Arch is the dot-separated architecture refinement chain.
	Arch string `json:"arch"`
	// Basedir is the BASEDIR the package was installed relative to.
	Basedir string `json:"basedir,omitempty"`
	// InstDir is where the planner decided the package will be installed.
	InstDir string `json:"instdir,omitempty"`
	// PatchID is set on patch nodes.
	PatchID string `json:"patch_id,omitempty"`
	// Locales is the SUNW_LOC list. A non-empty list makes this an L10N
	// package.
	Locales []string `json:"locales,omitempty"`
	// Instances are the other packages sharing this pkgid, keyed by arch and
	// version.
	Instances []*Package `json:"-"`
	// Patches is the ordered patch chain applied on top of this package.
	Patches []*Package `json:"-"`
	// L10N are the localization packages for this package.
	L10N []*Package `json:"-"`
	// Localizes are the packages this L10N package localizes.
	Localizes []*Package `json:"-"`

	Type   PType  `json:"ptype"`
	Shared Shared `json:"shared"`
	Status Status `json:"status"`
	Action Action `json:"action"`
	Flags  Flag   `json:"flags,omitempty"`
}

var _ Module = (*Package)(nil)

func (*Package) module() {}

// ModuleType implements [Module].
func (*Package) ModuleType() ModuleType { return PackageModule }

// Key identifies a package node within a product.
func (p *Package) Key() string {
	var b strings.Builder
	b.WriteString(p.ID)
	b.WriteByte('|')
	b.WriteString(p.Arch)
	b.WriteByte('|')
	b.WriteString(p.Version)
	if p.PatchID != "" {
		b.WriteByte('|')
		b.WriteString(p.PatchID)
	}
	return b.String()
}

// Chain yields the package followed by each of its instances.
func (p *Package) Chain() iter.Seq[*Package] {
	return func(yield func(*Package) bool) {
		if !yield(p) {
			return
		}
		for _, i := range p.Instances {
			if !yield(i) {
				return
			}
		}
	}
}

// IsL10N reports whether the package is a localization package.
func (p *Package) IsL10N() bool {
	return len(p.Locales) != 0
}

// HasLocale reports whether the package realizes the locale tag.
func (p *Package) HasLocale(tag string) bool {
	return slices.Contains(p.Locales, tag)
}

// Selected reports whether the package's status puts it on the system.
func (p *Package) Selected() bool {
	return p.Status.IsSelected()
}

// SetStatus sets the status, leaving REQUIRED packages alone.
func (p *Package) SetStatus(s Status) {
	if p.Status == Required {
		return
	}
	p.Status = s
}

// String implements [fmt.Stringer].
func (p *Package) String() string {
	return p.ID + " " + p.Version + " (" + p.Arch + ")"
}
