package release

import (
	"fmt"
	"testing"
)

func ExampleCompare() {
	fmt.Println(Compare("Solaris_2.5.1", "Solaris_10"))
	fmt.Println(Compare("Solaris_10", "Solaris_10"))
	fmt.Println(Compare("Solaris_10", "Trusted_10"))
	fmt.Println(Compare("11.11,REV=2000.01.08.18.12", "11.10,REV=2005.01.21.15.53"))
	// Output:
	// V_LESS_THEN
	// V_EQUAL_TO
	// V_NOT_UPGRADEABLE
	// V_GREATER_THEN
}

type compareTestcase struct {
	A, B string
	Want Ordering
}

func (tc compareTestcase) Run(t *testing.T) {
	t.Helper()
	if got, want := Compare(tc.A, tc.B), tc.Want; got != want {
		t.Errorf("Compare(%q, %q): got: %v, want: %v", tc.A, tc.B, got, want)
	}
}

func TestCompare(t *testing.T) {
	tt := []compareTestcase{
		{A: "Solaris_2.4", B: "Solaris_2.5", Want: LessThan},
		{A: "Solaris_2.5", B: "Solaris_2.5.1", Want: LessThan},
		{A: "Solaris_2.6", B: "Solaris_2.5.1", Want: GreaterThan},
		{A: "Solaris_8", B: "Solaris_10", Want: LessThan},
		{A: "Solaris_2.5", B: "Solaris_2.5.0", Want: EqualTo},
		{A: "Solaris_2.5.1", B: "Solaris_2.5.1.1", Want: LessThan},
		{A: "Solaris_2.5.1.2", B: "Solaris_2.5.1.10", Want: LessThan},
		{A: "Solaris_2.5.1.0", B: "Solaris_2.5.1", Want: EqualTo},
		{A: "Solaris_2.6", B: "Solaris_2.5.1.1.3", Want: GreaterThan},
		{A: "Solaris_10", B: "Nevada_10", Want: NotUpgradeable},
		{A: "Solaris_10", B: "1.0", Want: NotUpgradeable},
		{A: "1.0", B: "2.0", Want: LessThan},
		{A: "2.0", B: "1.0", Want: GreaterThan},
		{A: "11.11,REV=2000.01.08.18.12", B: "11.11,REV=2000.01.08.18.12", Want: EqualTo},
		{A: "11.10.0,REV=2005.01.21.15.53", B: "11.10.0,REV=2005.01.21.16.34", Want: LessThan},
		{A: "11.9.0,REV=2002.04.06.15.27", B: "11.10.0,REV=2005.01.21.15.53", Want: LessThan},
	}
	for _, tc := range tt {
		t.Run(tc.A+"_"+tc.B, tc.Run)
	}
}

func TestPostKBI(t *testing.T) {
	for tok, want := range map[string]bool{
		"Solaris_2.4":     false,
		"Solaris_2.5":     true,
		"Solaris_2.5.1":   true,
		"Solaris_2.4.1.1": false,
		"Solaris_2.5.1.1": true,
		"Solaris_10":      true,
	} {
		if got := PostKBI(tok); got != want {
			t.Errorf("PostKBI(%q): got: %v, want: %v", tok, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	name, v, err := Parse("Solaris_2.5.1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Solaris" || v.String() != "2.5.1" {
		t.Errorf("got: %q %v", name, v)
	}
	name, v, err = Parse("Solaris_2.5.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "Solaris" || v.String() != "2.5.1+1" {
		t.Errorf("got: %q %v", name, v)
	}
	for _, bad := range []string{"Solaris", "Solaris_", "_10", "Solaris_10a", "Solaris_1..0"} {
		if _, _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q): expected error", bad)
		}
	}
}
