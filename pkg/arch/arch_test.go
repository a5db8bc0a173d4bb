package arch

import (
	"fmt"
	"testing"
)

func ExampleCompare() {
	fmt.Println(Compare("sparc", "sparc"))
	fmt.Println(Compare("sparc", "sparc.sun4u"))
	fmt.Println(Compare("sparc.sun4u", "sparc"))
	fmt.Println(Compare("sparc.sun4m", "sparc.sun4u"))
	fmt.Println(Compare("sparc.", "sparc"))
	// Output:
	// ARCH_MATCH
	// ARCH_MORE_SPECIFIC
	// ARCH_LESS_SPECIFIC
	// NO_ARCH_MATCH
	// NO_ARCH_MATCH
}

type compareTestcase struct {
	Old, New string
	Want     Result
}

func (tc compareTestcase) Run(t *testing.T) {
	t.Helper()
	if got, want := Compare(tc.Old, tc.New), tc.Want; got != want {
		t.Errorf("Compare(%q, %q): got: %v, want: %v", tc.Old, tc.New, got, want)
	}
}

func TestCompare(t *testing.T) {
	tt := []compareTestcase{
		{Old: "sparc", New: "sparc", Want: Match},
		{Old: "i386", New: "i386.all", Want: Match},
		{Old: "sparc.sun4u", New: "sparc.sun4u", Want: Match},
		{Old: "all", New: "all", Want: Match},
		{Old: "sparc", New: "sparc.sun4u", Want: MoreSpecific},
		{Old: "all", New: "sparc", Want: MoreSpecific},
		{Old: "sparc", New: "sparc.sun4u.us3", Want: MoreSpecific},
		{Old: "sparc.sun4u", New: "sparc", Want: LessSpecific},
		{Old: "i386.i86pc", New: "all", Want: LessSpecific},
		{Old: "sparc.sun4m", New: "sparc.sun4u", Want: None},
		{Old: "sparc", New: "i386", Want: None},
		{Old: "sparc.", New: "sparc", Want: None},
		{Old: "sparc", New: "sparc..sun4u", Want: None},
		{Old: "", New: "sparc", Want: None},
		{Old: "sparc", New: "", Want: None},
		{Old: ".sun4u", New: ".sun4u", Want: None},
	}
	for _, tc := range tt {
		t.Run(tc.Old+"→"+tc.New, tc.Run)
	}
}

func TestCompareTranspose(t *testing.T) {
	tags := []string{"all", "sparc", "sparc.sun4u", "sparc.sun4m", "sparc.sun4u.us3", "i386", "i386.i86pc", "i386.all", "sparc.", ""}
	transpose := map[Result]Result{
		Match:        Match,
		MoreSpecific: LessSpecific,
		LessSpecific: MoreSpecific,
		None:         None,
	}
	for _, a := range tags {
		for _, b := range tags {
			ab, ba := Compare(a, b), Compare(b, a)
			if got, want := ba, transpose[ab]; got != want {
				t.Errorf("Compare(%q, %q) = %v, Compare(%q, %q) = %v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestSupported(t *testing.T) {
	list := []string{"sparc.sun4u", "sparc.sun4v"}
	tt := []struct {
		Tag  string
		Want bool
	}{
		{"sparc.sun4m", true},
		{"sparc", true},
		{"all", true},
		{"i386", false},
		{"i386.i86pc", false},
		{"sparc.", false},
	}
	for _, tc := range tt {
		if got := Supported(tc.Tag, list); got != tc.Want {
			t.Errorf("Supported(%q): got: %v, want: %v", tc.Tag, got, tc.Want)
		}
	}
	if !Supported("i386", nil) {
		t.Error("empty list should support every valid tag")
	}
}

func TestDotted(t *testing.T) {
	for in, want := range map[string]string{
		"sparc":       "sparc.all",
		"sparc.sun4u": "sparc.sun4u",
		"i386":        "i386.all",
	} {
		if got := Dotted(in); got != want {
			t.Errorf("Dotted(%q): got: %q, want: %q", in, got, want)
		}
	}
}

func TestISA(t *testing.T) {
	for in, want := range map[string]string{
		"sparc.sun4u": "sparc",
		"i386.all":    "i386",
		"all":         "all",
		"":            "",
		"sparc..x":    "",
	} {
		if got := ISA(in); got != want {
			t.Errorf("ISA(%q): got: %q, want: %q", in, got, want)
		}
	}
}
