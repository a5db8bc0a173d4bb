package inventory

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"runtime/trace"
	"slices"

	"github.com/quay/upgradeplan"
)

// Media table-of-contents files.
const (
	CDTOCFile      = ".cdtoc"
	PackageTOCName = ".packagetoc"
	ClusterTOCName = ".clustertoc"
	HistoryName    = ".pkghistory"
)

// LoadInstalled reads the installed product rooted at "sys".
//
// Every installed package is SELECTED. Clusters take their status from how
// many of their packages are installed, and the metacluster named in the
// CLUSTER file is SELECTED.
func LoadInstalled(ctx context.Context, sys fs.FS) (*upgradeplan.Product, error) {
	const op = "inventory.LoadInstalled"
	defer trace.StartRegion(ctx, "LoadInstalled").End()
	rel, err := Upgradeable(sys)
	if err != nil {
		return nil, err
	}
	var meta string
	if err := withFile(sys, ClusterFile, func(r io.Reader) (err error) {
		meta, err = ReadCluster(r)
		return err
	}); err != nil {
		return nil, precondition(op, ClusterFile, err)
	}
	p := &upgradeplan.Product{
		Name:        rel.OS,
		Version:     rel.Version,
		Rev:         rel.Rev,
		Metacluster: meta,
	}

	ents, err := fs.ReadDir(sys, PkgDir)
	if err != nil {
		return nil, precondition(op, PkgDir, err)
	}
	var infos []*Pkginfo
	for _, d := range ents {
		if !d.IsDir() {
			continue
		}
		n := path.Join(PkgDir, d.Name(), "pkginfo")
		var info *Pkginfo
		err := withFile(sys, n, func(r io.Reader) (err error) {
			info, err = ReadPkginfo(r)
			return err
		})
		switch {
		case errors.Is(err, nil):
		case errors.Is(err, fs.ErrNotExist):
			slog.DebugContext(ctx, "package directory without pkginfo", "dir", d.Name())
			continue
		default:
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: n,
				Inner:   err,
			}
		}
		info.Inst = d.Name()
		infos = append(infos, info)
	}
	build(p, infos, upgradeplan.Selected)

	var toc []ClusterEntry
	if err := withFile(sys, ClusterTOCFile, func(r io.Reader) (err error) {
		toc, err = ReadClusterTOC(r)
		return err
	}); err != nil {
		return nil, precondition(op, ClusterTOCFile, err)
	}
	missing := clusters(ctx, p, toc)
	for _, c := range p.Clusters {
		c.Status = installedStatus(c, missing)
		if c.Meta && c.ID == meta {
			c.Status = upgradeplan.Selected
		}
	}

	var li *Locales
	err = withFile(sys, LocalesInstalled, func(r io.Reader) (err error) {
		li, err = ReadLocalesInstalled(r)
		return err
	})
	switch {
	case errors.Is(err, nil):
		for _, l := range p.Locales {
			l.Selected = slices.Contains(li.Locales, l.Tag)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Older releases do not write the file: a locale counts as
		// installed when any of its packages is.
		var tags []string
		for _, l := range p.Locales {
			l.Selected = slices.ContainsFunc(l.Packages, (*upgradeplan.Package).Selected)
			if l.Selected {
				tags = append(tags, l.Tag)
			}
		}
		slog.InfoContext(ctx, "no installed locales list, inferred from packages",
			"file", LocalesInstalled,
			"locales", tags)
	default:
		return nil, precondition(op, LocalesInstalled, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "loaded installed product",
		"release", p.Release(),
		"metacluster", meta,
		"packages", len(infos),
		"clusters", len(p.Clusters))
	return p, nil
}

// LoadMedia reads the product on an install media image rooted at "sys",
// along with the media's package history. The history is also kept on the
// returned product's History field, so it travels with snapshots.
//
// The .cdtoc at the root names the product and the directory holding its
// table-of-contents files. The history file is optional.
func LoadMedia(ctx context.Context, sys fs.FS) (*upgradeplan.Product, []HistoryEntry, error) {
	const op = "inventory.LoadMedia"
	defer trace.StartRegion(ctx, "LoadMedia").End()
	var cd stanza
	if err := withFile(sys, CDTOCFile, func(r io.Reader) error {
		ss, err := readStanzas(r)
		if len(ss) != 0 {
			cd = ss[0]
		}
		return err
	}); err != nil {
		return nil, nil, precondition(op, CDTOCFile, err)
	}
	dir := cd.get("PRODDIR")
	if cd.get("PRODNAME") == "" || cd.get("PRODVERS") == "" || dir == "" {
		return nil, nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: CDTOCFile + ": missing PRODNAME, PRODVERS, or PRODDIR",
		}
	}
	p := &upgradeplan.Product{
		Name:    cd.get("PRODNAME"),
		Version: cd.get("PRODVERS"),
	}

	var infos []*Pkginfo
	n := path.Join(dir, PackageTOCName)
	if err := withFile(sys, n, func(r io.Reader) (err error) {
		infos, err = ReadPackageTOC(r)
		return err
	}); err != nil {
		return nil, nil, precondition(op, n, err)
	}
	build(p, infos, upgradeplan.Unselected)
	for _, i := range infos {
		if p.Arch(i.Arch) == nil {
			p.Arches = append(p.Arches, &upgradeplan.Arch{Name: i.Arch, Loaded: true})
		}
	}

	var toc []ClusterEntry
	n = path.Join(dir, ClusterTOCName)
	if err := withFile(sys, n, func(r io.Reader) (err error) {
		toc, err = ReadClusterTOC(r)
		return err
	}); err != nil {
		return nil, nil, precondition(op, n, err)
	}
	clusters(ctx, p, toc)

	var hist []HistoryEntry
	n = path.Join(dir, HistoryName)
	err := withFile(sys, n, func(r io.Reader) (err error) {
		hist, err = ReadPkgHistory(r)
		return err
	})
	switch {
	case errors.Is(err, nil):
	case errors.Is(err, fs.ErrNotExist):
		slog.DebugContext(ctx, "media has no package history")
	default:
		return nil, nil, precondition(op, n, err)
	}

	p.History = hist
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	slog.DebugContext(ctx, "loaded media product",
		"release", p.Release(),
		"packages", len(infos),
		"clusters", len(p.Clusters),
		"history", len(hist))
	return p, hist, nil
}

func withFile(sys fs.FS, name string, f func(io.Reader) error) error {
	fp, err := sys.Open(name)
	if err != nil {
		return err
	}
	defer fp.Close()
	return f(fp)
}

func precondition(op, name string, err error) error {
	kind := upgradeplan.ErrInvalid
	if errors.Is(err, fs.ErrNotExist) {
		kind = upgradeplan.ErrPrecondition
	}
	return &upgradeplan.Error{
		Op:      op,
		Kind:    kind,
		Message: name,
		Inner:   err,
	}
}

// Build adds a package node for every description and links localization
// packages, patch chains, and locales.
func build(p *upgradeplan.Product, infos []*Pkginfo, st upgradeplan.Status) {
	nodes := make([]*upgradeplan.Package, len(infos))
	for i, info := range infos {
		q := info.Package()
		q.Status = st
		p.AddPackage(q)
		nodes[i] = q
	}
	for i, info := range infos {
		q := nodes[i]
		for _, id := range info.Localizes {
			base := p.Package(id)
			if base == nil {
				continue
			}
			q.Localizes = append(q.Localizes, base)
			base.L10N = append(base.L10N, q)
		}
		for _, pid := range info.Patches {
			pn := &upgradeplan.Package{
				ID:      q.ID,
				Version: q.Version,
				Arch:    q.Arch,
				Basedir: q.Basedir,
				PatchID: pid,
				PatchOf: q,
				Type:    q.Type,
				Status:  st,
			}
			q.Patches = append(q.Patches, pn)
			pt := p.Patch(pid)
			if pt == nil {
				pt = &upgradeplan.Patch{ID: pid}
				p.Patches = append(p.Patches, pt)
			}
			pt.Targets = append(pt.Targets, upgradeplan.PatchTarget{
				Package: q,
				PkgID:   q.ID,
				Version: q.Version,
			})
		}
		for _, tag := range info.Locales {
			l := p.Locale(tag)
			if l == nil {
				l = &upgradeplan.Locale{Tag: tag}
				p.Locales = append(p.Locales, l)
			}
			l.Packages = append(l.Packages, q)
		}
	}
}

// Clusters adds the clusters of a table of contents to the product. Members
// naming neither a package nor a cluster are dropped; the returned map counts
// them per cluster.
func clusters(ctx context.Context, p *upgradeplan.Product, toc []ClusterEntry) map[*upgradeplan.Cluster]int {
	for _, e := range toc {
		p.Clusters = append(p.Clusters, &upgradeplan.Cluster{
			ID:       e.ID,
			Name:     e.Name,
			Meta:     e.Meta,
			Required: e.Required,
			Default:  e.Default,
		})
	}
	missing := make(map[*upgradeplan.Cluster]int)
	for i, e := range toc {
		c := p.Clusters[i]
		for _, m := range e.Members {
			if q := p.Package(m); q != nil {
				c.Members = append(c.Members, q)
				continue
			}
			if sub := p.Cluster(m); sub != nil && sub != c {
				c.Members = append(c.Members, sub)
				continue
			}
			missing[c]++
			slog.DebugContext(ctx, "cluster member not found", "cluster", c.ID, "member", m)
		}
	}
	return missing
}

// InstalledStatus derives a cluster's status from how many of its packages
// are installed. Members missing from the package database count as not
// installed.
func installedStatus(c *upgradeplan.Cluster, missing map[*upgradeplan.Cluster]int) upgradeplan.Status {
	n, sel := 0, 0
	var walk func(*upgradeplan.Cluster)
	seen := make(map[*upgradeplan.Cluster]bool)
	walk = func(c *upgradeplan.Cluster) {
		if seen[c] {
			return
		}
		seen[c] = true
		n += missing[c]
		for _, m := range c.Members {
			switch m := m.(type) {
			case *upgradeplan.Package:
				n++
				if m.Selected() {
					sel++
				}
			case *upgradeplan.Cluster:
				walk(m)
			}
		}
	}
	walk(c)
	switch {
	case n != 0 && sel == n:
		return upgradeplan.Selected
	case sel != 0:
		return upgradeplan.PartiallySelected
	}
	return upgradeplan.Unselected
}
