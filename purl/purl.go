// Package purl produces package URLs for planned packages.
//
// SVR4 packages have no registered purl type, so they are spelled as
// "generic" packages in the "solaris" namespace, qualified by architecture,
// release, and (for patched copies) patch ID:
//
//	pkg:generic/solaris/SUNWcsu@11.10.0?arch=sparc&distro=Solaris_10
package purl

import (
	"fmt"

	"github.com/package-url/packageurl-go"

	"github.com/quay/upgradeplan"
)

// Namespace is the purl namespace of SVR4 packages.
const Namespace = "solaris"

// Qualifier keys.
const (
	ArchQualifier   = "arch"
	DistroQualifier = "distro"
	PatchQualifier  = "patch"
)

// Generate returns the package URL of a package in the given release, e.g.
// "Solaris_10".
func Generate(p *upgradeplan.PlannedPackage, release string) packageurl.PackageURL {
	qs := map[string]string{
		ArchQualifier: p.Arch,
	}
	if release != "" {
		qs[DistroQualifier] = release
	}
	if p.PatchID != "" {
		qs[PatchQualifier] = p.PatchID
	}
	return packageurl.PackageURL{
		Type:       packageurl.TypeGeneric,
		Namespace:  Namespace,
		Name:       p.PkgID,
		Version:    p.Version,
		Qualifiers: packageurl.QualifiersFromMap(qs),
	}
}

// String returns the package URL of a package in the given release, as a
// string.
func String(p *upgradeplan.PlannedPackage, release string) string {
	u := Generate(p, release)
	return u.ToString()
}

// Parse is the inverse of Generate. It returns the package identity and the
// release the package URL names.
func Parse(purl packageurl.PackageURL) (*upgradeplan.PlannedPackage, string, error) {
	if purl.Type != packageurl.TypeGeneric || purl.Namespace != Namespace {
		return nil, "", fmt.Errorf("purl: not an SVR4 package: %q", purl.ToString())
	}
	qs := purl.Qualifiers.Map()
	p := upgradeplan.PlannedPackage{
		PkgID:   purl.Name,
		Version: purl.Version,
		Arch:    qs[ArchQualifier],
		PatchID: qs[PatchQualifier],
	}
	if p.PkgID == "" || p.Arch == "" {
		return nil, "", fmt.Errorf("purl: missing name or arch: %q", purl.ToString())
	}
	return &p, qs[DistroQualifier], nil
}

// Fill sets the PURL of every package in the report: installed packages in
// the installed release, new packages in the new one.
func Fill(r *upgradeplan.PlanReport) {
	for i := range r.Installed {
		p := &r.Installed[i]
		p.PURL = String(p, r.From)
	}
	for i := range r.New {
		p := &r.New[i]
		p.PURL = String(p, r.Product)
	}
}
