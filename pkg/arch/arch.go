// Package arch compares SVR4 architecture tags.
//
// An architecture tag is a dot-separated refinement chain: "sparc" is refined
// by "sparc.sun4u", which is refined by "sparc.sun4u.us3". The tag "all" is the
// root of every chain, and a trailing ".all" segment ("i386.all") means the
// same thing as the chain without it.
package arch

import (
	"slices"
	"strings"
)

// Result is the outcome of comparing an installed architecture with a
// candidate architecture.
type Result int

//go:generate stringer -type=Result -linecomment

// Comparison results.
const (
	None         Result = iota // NO_ARCH_MATCH
	Match                      // ARCH_MATCH
	MoreSpecific               // ARCH_MORE_SPECIFIC
	LessSpecific               // ARCH_LESS_SPECIFIC
)

// All is the architecture tag matching every chain.
const All = "all"

// Valid reports whether the tag parses: it must be non-empty and contain no
// empty segments, so "sparc." and ".sun4u" are both invalid.
func Valid(tag string) bool {
	if tag == "" {
		return false
	}
	for s := range strings.SplitSeq(tag, ".") {
		if s == "" {
			return false
		}
	}
	return true
}

// Segments returns the normalized refinement chain for the tag, or nil if the
// tag is invalid. The root tag "all" is the empty chain.
func Segments(tag string) []string {
	if !Valid(tag) {
		return nil
	}
	ss := strings.Split(tag, ".")
	if ss[len(ss)-1] == All {
		ss = ss[:len(ss)-1]
	}
	return ss
}

// Compare classifies the candidate tag "new" relative to the installed tag
// "old".
//
// MoreSpecific means "new" refines "old" further; LessSpecific means "old"
// refines "new". Tags that fail to parse never match.
func Compare(old, new string) Result {
	o, n := Segments(old), Segments(new)
	if o == nil || n == nil {
		return None
	}
	l := min(len(o), len(n))
	if !slices.Equal(o[:l], n[:l]) {
		return None
	}
	switch {
	case len(o) == len(n):
		return Match
	case len(n) > len(o):
		return MoreSpecific
	default:
		return LessSpecific
	}
}

// ISA returns the instruction set part of the tag: the first segment, or
// "all" for the root tag. Invalid tags return the empty string.
func ISA(tag string) string {
	ss := Segments(tag)
	switch {
	case ss == nil:
		return ""
	case len(ss) == 0:
		return All
	}
	return ss[0]
}

// Supported reports whether a media carrying the architectures in "list" can
// install a package of architecture "tag" at all. That is the case when the
// tag shares an instruction set with an entry in the list, or either is the
// root tag. An empty list supports every valid tag.
func Supported(tag string, list []string) bool {
	isa := ISA(tag)
	if isa == "" {
		return false
	}
	if isa == All || len(list) == 0 {
		return true
	}
	for _, a := range list {
		if x := ISA(a); x == isa || x == All {
			return true
		}
	}
	return false
}

// Compatible reports whether a package of architecture "tag" can run on a
// machine of architecture "machine". That is the case when one chain is a
// prefix of the other.
func Compatible(tag, machine string) bool {
	return Compare(machine, tag) != None
}

// Dotted returns the tag with ".all" appended when it has no refinement, as
// used in spool template and exec directory names.
func Dotted(tag string) string {
	if strings.Contains(tag, ".") {
		return tag
	}
	return tag + "." + All
}
