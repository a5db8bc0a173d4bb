// Package release orders product release tokens and package versions.
//
// A release token has the form "Name_M.N[.k]...", for example "Solaris_2.5.1"
// or "Solaris_10". Package versions are free-form SVR4 VERSION strings such as
// "11.11,REV=2000.01.08.18.12" and are compared segment-wise.
package release

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
	version "github.com/knqyf263/go-rpm-version"
)

// Ordering is the result of comparing two versions.
type Ordering int

//go:generate stringer -type=Ordering -linecomment

// Orderings.
//
// Callers treat NotUpgradeable like GreaterThan.
const (
	LessThan       Ordering = iota // V_LESS_THEN
	EqualTo                        // V_EQUAL_TO
	GreaterThan                    // V_GREATER_THEN
	NotUpgradeable                 // V_NOT_UPGRADEABLE
)

// KBI is the release at which the kernel binary interface changed the meaning
// of KVM packages.
const KBI = "Solaris_2.5"

var tokenRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)_([0-9]+(?:\.[0-9]+)*)$`)

// Token joins a product name and version into a release token.
func Token(name, ver string) string {
	return name + "_" + ver
}

// Parse splits a release token into its name and numeric version.
//
// Components past the third ride in the version's build metadata, so
// "Solaris_2.5.1.1" parses as "2.5.1+1". [Compare] orders on them.
func Parse(token string) (string, *semver.Version, error) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return "", nil, fmt.Errorf("release: malformed token %q", token)
	}
	num := m[2]
	if ss := strings.SplitN(num, ".", 4); len(ss) == 4 {
		num = strings.Join(ss[:3], ".") + "+" + ss[3]
	}
	v, err := semver.NewVersion(num)
	if err != nil {
		return "", nil, fmt.Errorf("release: malformed token %q: %w", token, err)
	}
	return m[1], v, nil
}

// Compare reports how "a" orders against "b": LessThan means a < b.
//
// Identical strings are EqualTo. Two release tokens with different names, or
// a release token compared with anything that is not one, are
// NotUpgradeable. Everything else is compared as a package version.
func Compare(a, b string) Ordering {
	if a == b {
		return EqualTo
	}
	an, av, aerr := Parse(a)
	bn, bv, berr := Parse(b)
	switch {
	case aerr == nil && berr == nil:
		if an != bn {
			return NotUpgradeable
		}
		if c := av.Compare(bv); c != 0 {
			return fromInt(c)
		}
		return fromInt(compareTail(av.Metadata(), bv.Metadata()))
	case aerr == nil || berr == nil:
		return NotUpgradeable
	}
	return fromInt(version.NewVersion(a).Compare(version.NewVersion(b)))
}

// CompareTail orders the dot-separated numeric components past the third.
// Missing components count as zero.
func compareTail(a, b string) int {
	as, bs := splitTail(a), splitTail(b)
	for i := range max(len(as), len(bs)) {
		var x, y uint64
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func splitTail(s string) []uint64 {
	if s == "" {
		return nil
	}
	var out []uint64
	for f := range strings.SplitSeq(s, ".") {
		n, _ := strconv.ParseUint(f, 10, 64)
		out = append(out, n)
	}
	return out
}

func fromInt(c int) Ordering {
	switch {
	case c < 0:
		return LessThan
	case c > 0:
		return GreaterThan
	}
	return EqualTo
}

// PostKBI reports whether the release token names a release at or after the
// KBI change. Tokens that cannot be ordered against [KBI] are treated as
// post-KBI.
func PostKBI(token string) bool {
	return Compare(token, KBI) != LessThan
}
