package inventory

import (
	"fmt"
	"io"
	"strings"

	"github.com/quay/upgradeplan"
)

// Pkginfo is the description of one package, from an installed package's
// pkginfo file or a media .packagetoc entry.
type Pkginfo struct {
	// Inst is the package instance name (PKGINST), e.g. "SUNWcsu.2".
	Inst    string
	PkgID   string
	Name    string
	Arch    string
	Version string
	Basedir string
	Type    upgradeplan.PType
	// Locales is the SUNW_LOC list.
	Locales []string
	// Localizes is the SUNW_PKGLIST list: the packages a localization
	// package localizes.
	Localizes []string
	// Patches is the PATCHLIST, in installation order.
	Patches []string
}

func pkginfoFrom(s stanza) *Pkginfo {
	i := Pkginfo{
		Inst:    s.get("PKGINST"),
		PkgID:   s.get("PKG"),
		Name:    s.get("NAME"),
		Arch:    s.get("ARCH"),
		Version: s.get("VERSION"),
		Basedir: s.get("BASEDIR"),
		Type:    upgradeplan.ParsePType(s.get("SUNW_PKGTYPE")),
		Locales: list(s.get("SUNW_LOC")),
		Patches: list(s.get("PATCHLIST")),
	}
	for _, p := range list(s.get("SUNW_PKGLIST")) {
		id, _, _ := strings.Cut(p, ":")
		i.Localizes = append(i.Localizes, id)
	}
	if i.Inst == "" {
		i.Inst = i.PkgID
	}
	if i.Basedir == "" {
		i.Basedir = "/"
	}
	return &i
}

// ReadPkginfo reads an installed package's pkginfo file.
func ReadPkginfo(r io.Reader) (*Pkginfo, error) {
	ss, err := readStanzas(r)
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 || !ss[0].has("PKG") {
		return nil, fmt.Errorf("inventory: pkginfo: missing PKG")
	}
	return pkginfoFrom(ss[0]), nil
}

// ReadPackageTOC reads a media .packagetoc: one stanza per package, each
// starting with "PKG=".
func ReadPackageTOC(r io.Reader) ([]*Pkginfo, error) {
	ss, err := readStanzas(r, "PKG")
	if err != nil {
		return nil, err
	}
	out := make([]*Pkginfo, len(ss))
	for i, s := range ss {
		out[i] = pkginfoFrom(s)
	}
	return out, nil
}

// Package returns a package node for the description.
func (i *Pkginfo) Package() *upgradeplan.Package {
	return &upgradeplan.Package{
		ID:      i.PkgID,
		Name:    i.Name,
		Version: i.Version,
		Arch:    i.Arch,
		Basedir: i.Basedir,
		Locales: i.Locales,
		Type:    i.Type,
	}
}
