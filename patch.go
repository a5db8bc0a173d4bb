package upgradeplan

// Patch is a patch known to a product and the packages it targets.
type Patch struct {
	ID      string        `json:"id"`
	Targets []PatchTarget `json:"targets,omitempty"`
	// Removed is derived by the planner: it is set when none of the
	// targets is being preserved.
	Removed bool `json:"removed,omitempty"`
}

// PatchTarget is one package a patch applies to.
type PatchTarget struct {
	Package *Package `json:"-"`
	PkgID   string   `json:"pkgid"`
	Version string   `json:"version,omitempty"`
}
