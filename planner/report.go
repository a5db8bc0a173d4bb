package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/quay/upgradeplan"
)

// Report snapshots the plan of the loaded view.
func (p *Planner) Report() *upgradeplan.PlanReport {
	m, np := p.cur, p.NewProduct()
	r := &upgradeplan.PlanReport{
		ID:       uuid.New(),
		RunID:    p.runID,
		Created:  time.Now(),
		Product:  np.Release(),
		DiffRevs: p.DiffRevs(),
	}
	if m == nil {
		return r
	}
	r.Environment = m.Dir
	r.Zone = m.Zone
	r.Kind = m.Kind
	if inst := m.Product; inst != nil && !inst.Null {
		r.From = inst.Release()
		for q := range inst.AllPackages() {
			r.Installed = append(r.Installed, upgradeplan.NewPlannedPackage(q))
			for _, pt := range q.Patches {
				r.Installed = append(r.Installed, upgradeplan.NewPlannedPackage(pt))
			}
		}
		r.Patches = appendPatches(r.Patches, inst)
	}
	for q := range np.AllPackages() {
		r.New = append(r.New, upgradeplan.NewPlannedPackage(q))
		for _, pt := range q.Patches {
			r.New = append(r.New, upgradeplan.NewPlannedPackage(pt))
		}
	}
	r.Patches = appendPatches(r.Patches, np)
	for _, c := range np.Clusters {
		r.Clusters = append(r.Clusters, upgradeplan.PlannedCluster{
			ID:     c.ID,
			Status: c.Status,
			Action: c.Action,
			Meta:   c.Meta,
		})
	}
	r.Success = true
	return r
}

func appendPatches(out []upgradeplan.PlannedPatch, prod *product) []upgradeplan.PlannedPatch {
	for _, pt := range prod.Patches {
		out = append(out, upgradeplan.PlannedPatch{ID: pt.ID, Removed: pt.Removed})
	}
	return out
}
