package wire

import (
	"fmt"

	"github.com/quay/upgradeplan"
)

// ResolveReferences builds a [upgradeplan.Product] from a decoded stream,
// turning every key and ID back into a pointer.
//
// Every node is owned by exactly one place in the result: primaries by the
// product, instances by their primary, and patch nodes by the package they
// patch. Everything else (cluster members, locale packages, patch targets,
// and the localization links) points at those nodes. A reference that names
// nothing is reported as an [upgradeplan.ErrInternal] error.
func ResolveReferences(t *Tree) (*upgradeplan.Product, error) {
	const op = "wire.ResolveReferences"
	unresolved := func(format string, args ...any) error {
		return &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInternal,
			Message: "unresolved reference: " + fmt.Sprintf(format, args...),
		}
	}
	if t.product.Product == nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "missing product record",
		}
	}
	p := t.product.Product
	p.Arches = t.arches
	p.Geos = t.geos
	p.History = t.history
	if len(t.product.Subset) != 0 {
		p.SubsetLocales = make(map[string]bool, len(t.product.Subset))
		for _, tag := range t.product.Subset {
			p.SubsetLocales[tag] = true
		}
	}

	byKey := make(map[string]*upgradeplan.Package, len(t.packages))
	for i := range t.packages {
		r := &t.packages[i]
		if r.Package == nil {
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: fmt.Sprintf("empty package record %q", r.Key),
			}
		}
		byKey[r.Key] = r.Package
	}
	for i := range t.packages {
		r := &t.packages[i]
		switch {
		case r.Patched != "":
			base, ok := byKey[r.Patched]
			if !ok {
				return nil, unresolved("patch %q of package %q", r.Key, r.Patched)
			}
			r.PatchOf = base
			base.Patches = append(base.Patches, r.Package)
		case r.Primary != "":
			prim, ok := byKey[r.Primary]
			if !ok {
				return nil, unresolved("instance %q of package %q", r.Key, r.Primary)
			}
			prim.Instances = append(prim.Instances, r.Package)
		default:
			p.Packages = append(p.Packages, r.Package)
		}
		for _, k := range r.LocalizeRef {
			base, ok := byKey[k]
			if !ok {
				return nil, unresolved("package %q localizes %q", r.Key, k)
			}
			r.Localizes = append(r.Localizes, base)
			base.L10N = append(base.L10N, r.Package)
		}
	}

	byID := make(map[string]*upgradeplan.Cluster, len(t.clusters))
	for i := range t.clusters {
		r := &t.clusters[i]
		if r.Cluster == nil {
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: "empty cluster record",
			}
		}
		byID[r.ID] = r.Cluster
		p.Clusters = append(p.Clusters, r.Cluster)
	}
	for i := range t.clusters {
		r := &t.clusters[i]
		for _, m := range r.MemberRefs {
			switch {
			case m.Package != "":
				pkg, ok := byKey[m.Package]
				if !ok {
					return nil, unresolved("cluster %q member package %q", r.ID, m.Package)
				}
				r.Members = append(r.Members, pkg)
			default:
				c, ok := byID[m.Cluster]
				if !ok {
					return nil, unresolved("cluster %q member cluster %q", r.ID, m.Cluster)
				}
				r.Members = append(r.Members, c)
			}
		}
	}

	for i := range t.locales {
		r := &t.locales[i]
		if r.Locale == nil {
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: "empty locale record",
			}
		}
		for _, k := range r.PackageRefs {
			pkg, ok := byKey[k]
			if !ok {
				return nil, unresolved("locale %q package %q", r.Tag, k)
			}
			r.Packages = append(r.Packages, pkg)
		}
		p.Locales = append(p.Locales, r.Locale)
	}

	for i := range t.patches {
		r := &t.patches[i]
		if r.Patch == nil {
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: "empty patch record",
			}
		}
		for j, k := range r.TargetRefs {
			if k == "" || j >= len(r.Targets) {
				continue
			}
			pkg, ok := byKey[k]
			if !ok {
				return nil, unresolved("patch %q target %q", r.ID, k)
			}
			r.Targets[j].Package = pkg
		}
		p.Patches = append(p.Patches, r.Patch)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
