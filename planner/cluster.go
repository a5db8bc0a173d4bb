package planner

import (
	"context"
	"log/slog"
	"slices"

	"github.com/quay/upgradeplan"
)

// MetaclusterFallback is the order in which metaclusters stand in for one
// another when an installed metacluster is missing from the new media. It
// exists for x86 media, which do not carry every metacluster.
var metaclusterFallback = []string{
	"SUNWCXall",
	"SUNWCall",
	"SUNWCprog",
	"SUNWCuser",
	"SUNWCreq",
}

// FindNewCluster finds the new product's cluster for an installed cluster ID,
// walking down the metacluster fallback ladder if needed.
func (p *Planner) findNewCluster(id string) *cluster {
	np := p.NewProduct()
	if c := np.Cluster(id); c != nil {
		return c
	}
	i := slices.Index(metaclusterFallback, id)
	if i == -1 {
		return nil
	}
	for _, alt := range metaclusterFallback[i+1:] {
		if c := np.Cluster(alt); c != nil {
			return c
		}
	}
	return nil
}

// MarkClusterTree carries the installed cluster selection over to the new
// product.
//
// Every fully installed cluster (and the installed metacluster) selects its
// counterpart on the new media unless its history retires it, and selects
// the clusters its history names as replacements.
func (p *Planner) MarkClusterTree(ctx context.Context) {
	inst := p.installed()
	if inst == nil {
		return
	}
	for _, ic := range inst.Clusters {
		installed := ic.Status.IsSelected() || (ic.Meta && ic.ID == inst.Metacluster)
		if !installed {
			continue
		}
		if h := ic.History; h != nil {
			for _, r := range h.ReplacedBy {
				if nc := p.findNewCluster(r.PkgID); nc != nil {
					p.markModule(nc, upgradeplan.Selected)
				}
			}
			if h.ToBeRemoved {
				slog.DebugContext(ctx, "cluster retired", "cluster", ic.ID)
				continue
			}
		}
		nc := p.findNewCluster(ic.ID)
		if nc == nil {
			slog.DebugContext(ctx, "cluster not on media", "cluster", ic.ID)
			continue
		}
		p.markModule(nc, upgradeplan.Selected)
	}
}

// MarkModule sets the status of a module and everything in it. REQUIRED
// modules are left alone; packages whose arch does not fit the view are not
// selected.
func (p *Planner) markModule(m upgradeplan.Module, s upgradeplan.Status) {
	switch m := m.(type) {
	case *pkg:
		p.markPackage(m, s)
	case *cluster:
		if m.Status != upgradeplan.Required {
			m.Status = s
		}
		for _, x := range m.Members {
			p.markModule(x, s)
		}
	}
}

func (p *Planner) markPackage(prim *pkg, s upgradeplan.Status) {
	for q := range prim.Chain() {
		if s.IsSelected() && !p.archOK(q) {
			continue
		}
		q.SetStatus(s)
	}
}

// SetClusterStatus derives every cluster's status from its members.
func (p *Planner) SetClusterStatus(ctx context.Context) {
	np := p.NewProduct()
	done := make(map[*cluster]bool, len(np.Clusters))
	for _, c := range np.Clusters {
		clusterStatus(c, done)
		c.Action = clusterAction(c)
	}
	if inst := p.installed(); inst != nil {
		for _, c := range inst.Clusters {
			nc := p.findNewCluster(c.ID)
			switch {
			case nc == nil:
				c.Action = upgradeplan.ToBePreserved
			case c.Status == upgradeplan.Unselected && c.ID != inst.Metacluster:
				c.Action = upgradeplan.ToBePreserved
			case c.History != nil && c.History.ToBeRemoved:
				c.Action = upgradeplan.ToBeRemoved
			case nc.Status == upgradeplan.Unselected:
				c.Action = upgradeplan.ToBeRemoved
			default:
				c.Action = upgradeplan.ToBeReplaced
			}
		}
	}
}

func clusterAction(c *cluster) upgradeplan.Action {
	if c.Status == upgradeplan.Unselected {
		return upgradeplan.ToBePreserved
	}
	return upgradeplan.ToBePkgadded
}

// ClusterStatus computes the status of a cluster from its members, recording
// which way it leaned when it becomes partial. A cluster without members
// keeps its status.
func clusterStatus(c *cluster, done map[*cluster]bool) upgradeplan.Status {
	if done[c] {
		return c.Status
	}
	done[c] = true
	if len(c.Members) == 0 {
		return c.Status
	}
	var sel, req, unsel int
	for _, m := range c.Members {
		var s upgradeplan.Status
		switch m := m.(type) {
		case *pkg:
			s = m.Status
		case *cluster:
			s = clusterStatus(m, done)
		default:
			continue
		}
		switch s {
		case upgradeplan.Required:
			req++
		case upgradeplan.Selected:
			sel++
		case upgradeplan.Unselected:
			unsel++
		default:
			sel++
			unsel++
		}
	}
	var next upgradeplan.Status
	switch {
	case c.Status == upgradeplan.Required:
		return c.Status
	case unsel == 0:
		next = upgradeplan.Selected
	case sel == 0 && req == 0:
		next = upgradeplan.Unselected
	case sel == 0 && !c.Meta:
		// Only required and unselected members: the cluster itself was not
		// chosen.
		next = upgradeplan.Unselected
	default:
		next = upgradeplan.PartiallySelected
	}
	if next == upgradeplan.PartiallySelected && c.Status != upgradeplan.PartiallySelected {
		c.PartialStatus = upgradeplan.Unselected
		if c.Status.IsSelected() {
			c.PartialStatus = upgradeplan.Selected
		}
	}
	c.Status = next
	return next
}

// ToggleCluster flips a cluster in the loaded view: a selected cluster is
// unselected, an unselected one selected, and a partial one goes back to the
// way it leaned before it became partial.
func (p *Planner) toggleCluster(c *cluster) {
	var s upgradeplan.Status
	switch c.Status {
	case upgradeplan.Required:
		return
	case upgradeplan.Selected:
		s = upgradeplan.Unselected
	case upgradeplan.Unselected:
		s = upgradeplan.Selected
	case upgradeplan.PartiallySelected:
		s = upgradeplan.Selected
		if c.PartialStatus == upgradeplan.Selected {
			s = upgradeplan.Unselected
		}
	}
	p.markModule(c, s)
	clusterStatus(c, make(map[*cluster]bool))
}

// ClusterSel is a cluster's selection as seen from one view.
type clusterSel struct {
	status  upgradeplan.Status
	partial upgradeplan.Status
}

func selOf(c *cluster) clusterSel {
	return clusterSel{status: c.Status, partial: c.PartialStatus}
}

// AltClusterToggles returns how many times to toggle a cluster in another
// view, given its selection in the main view and in the other view. A count
// of -1 means "toggle, and again if still partial".
func altClusterToggles(main, alt clusterSel) int {
	switch main.status {
	case upgradeplan.Selected, upgradeplan.Required:
		switch alt.status {
		case upgradeplan.Unselected:
			return 1
		case upgradeplan.PartiallySelected:
			return -1
		}
	case upgradeplan.Unselected:
		switch alt.status {
		case upgradeplan.Selected:
			return 1
		case upgradeplan.PartiallySelected:
			if alt.partial == upgradeplan.Selected {
				return 1
			}
		}
	case upgradeplan.PartiallySelected:
		if alt.status == upgradeplan.Selected && main.partial != upgradeplan.Selected {
			return 1
		}
	}
	return 0
}
