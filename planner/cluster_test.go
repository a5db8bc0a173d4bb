package planner

import (
	"testing"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/test"
)

func TestAltClusterToggles(t *testing.T) {
	const (
		sel   = upgradeplan.Selected
		unsel = upgradeplan.Unselected
		part  = upgradeplan.PartiallySelected
	)
	tt := []struct {
		Name      string
		Main, Alt clusterSel
		Want      int
	}{
		{"SelSel", clusterSel{status: sel}, clusterSel{status: sel}, 0},
		{"SelUnsel", clusterSel{status: sel}, clusterSel{status: unsel}, 1},
		{"SelPart", clusterSel{status: sel}, clusterSel{status: part, partial: unsel}, -1},
		{"UnselSel", clusterSel{status: unsel}, clusterSel{status: sel}, 1},
		{"UnselUnsel", clusterSel{status: unsel}, clusterSel{status: unsel}, 0},
		{"UnselPartWasSel", clusterSel{status: unsel}, clusterSel{status: part, partial: sel}, 1},
		{"UnselPartWasUnsel", clusterSel{status: unsel}, clusterSel{status: part, partial: unsel}, 0},
		{"PartSelDiffers", clusterSel{status: part, partial: unsel}, clusterSel{status: sel}, 1},
		{"PartSelSame", clusterSel{status: part, partial: sel}, clusterSel{status: sel}, 0},
		{"PartUnsel", clusterSel{status: part, partial: sel}, clusterSel{status: unsel}, 0},
		{"PartPart", clusterSel{status: part, partial: sel}, clusterSel{status: part, partial: unsel}, 0},
		{"RequiredUnsel", clusterSel{status: upgradeplan.Required}, clusterSel{status: unsel}, 1},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			if got, want := altClusterToggles(tc.Main, tc.Alt), tc.Want; got != want {
				t.Errorf("got: %d, want: %d", got, want)
			}
		})
	}
}

func TestFindNewCluster(t *testing.T) {
	ctx := test.Logging(t)
	np := newProduct("10")
	np.Clusters = []*cluster{
		{ID: "SUNWCreq", Meta: true},
		{ID: "SUNWCuser", Meta: true},
		{ID: "SUNWCdtu"},
	}
	p := mustPlanner(ctx, t, nil, newMediaList(np, newProduct("9")))
	tt := []struct {
		ID, Want string
	}{
		{"SUNWCreq", "SUNWCreq"},
		{"SUNWCdtu", "SUNWCdtu"},
		{"SUNWCXall", "SUNWCuser"},
		{"SUNWCall", "SUNWCuser"},
		{"SUNWCprog", "SUNWCuser"},
		{"SUNWCopenwin", ""},
	}
	for _, tc := range tt {
		t.Run(tc.ID, func(t *testing.T) {
			var got string
			if c := p.findNewCluster(tc.ID); c != nil {
				got = c.ID
			}
			if got != tc.Want {
				t.Errorf("got: %q, want: %q", got, tc.Want)
			}
		})
	}
}

type clusterStatusTestcase struct {
	Name    string
	Prior   upgradeplan.Status
	Meta    bool
	Members []upgradeplan.Status
	Want    upgradeplan.Status
	Partial upgradeplan.Status
}

func (tc clusterStatusTestcase) Run(t *testing.T) {
	c := &cluster{ID: "SUNWCtest", Status: tc.Prior, Meta: tc.Meta}
	for i, s := range tc.Members {
		c.Members = append(c.Members, &pkg{ID: "SUNWp" + string(rune('a'+i)), Status: s})
	}
	if got, want := clusterStatus(c, make(map[*cluster]bool)), tc.Want; got != want {
		t.Errorf("status: got: %v, want: %v", got, want)
	}
	if tc.Want == upgradeplan.PartiallySelected {
		if got, want := c.PartialStatus, tc.Partial; got != want {
			t.Errorf("partial status: got: %v, want: %v", got, want)
		}
	}
}

func TestClusterStatus(t *testing.T) {
	const (
		sel   = upgradeplan.Selected
		unsel = upgradeplan.Unselected
		req   = upgradeplan.Required
	)
	tt := []clusterStatusTestcase{
		{Name: "AllSelected", Members: []upgradeplan.Status{sel, sel}, Want: sel},
		{Name: "AllUnselected", Prior: sel, Members: []upgradeplan.Status{unsel, unsel}, Want: unsel},
		{Name: "SomeFromSelected", Prior: sel, Members: []upgradeplan.Status{sel, unsel}, Want: upgradeplan.PartiallySelected, Partial: sel},
		{Name: "SomeFromUnselected", Members: []upgradeplan.Status{sel, unsel}, Want: upgradeplan.PartiallySelected, Partial: unsel},
		{Name: "RequiredCounts", Members: []upgradeplan.Status{req, sel}, Want: sel},
		{Name: "RequiredOnlyCluster", Members: []upgradeplan.Status{req, unsel}, Want: unsel},
		{Name: "RequiredOnlyMeta", Meta: true, Members: []upgradeplan.Status{req, unsel}, Want: upgradeplan.PartiallySelected, Partial: unsel},
		{Name: "StaysRequired", Prior: req, Members: []upgradeplan.Status{unsel}, Want: req},
		{Name: "NoMembers", Prior: sel, Want: sel},
	}
	for _, tc := range tt {
		t.Run(tc.Name, tc.Run)
	}
}
