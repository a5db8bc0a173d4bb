package main

import (
	"strings"

	"github.com/quay/upgradeplan/pkg/arch"
)

// LocalArch returns the package architecture of the machine doing the
// upgrade, or "" if the machine name is not one packages are built for.
func localArch(m string) string {
	var a string
	switch {
	case strings.HasPrefix(m, "sun4"):
		a = "sparc." + m
	case m == "i86pc", m == "i386", m == "x86_64", m == "amd64":
		a = "i386.i86pc"
	default:
		return ""
	}
	if !arch.Valid(a) {
		return ""
	}
	return a
}
