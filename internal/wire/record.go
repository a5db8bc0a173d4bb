package wire

import (
	"encoding/json"

	"github.com/quay/upgradeplan"
)

// Record kinds.
const (
	kindProduct = "product"
	kindArch    = "arch"
	kindPackage = "package"
	kindCluster = "cluster"
	kindLocale  = "locale"
	kindGeo     = "geo"
	kindPatch   = "patch"
	kindHistory = "history"
	kindEnd     = "end"
)

type record struct {
	Kind  string          `json:"k"`
	Value json.RawMessage `json:"v"`
}

type productRecord struct {
	*upgradeplan.Product
	Subset []string `json:"subset_locales,omitempty"`
}

// PackageRecord is a package node. Instances name their primary, and patch
// nodes the package they patch.
type packageRecord struct {
	*upgradeplan.Package
	Key         string   `json:"key"`
	Primary     string   `json:"primary,omitempty"`
	Patched     string   `json:"patched,omitempty"`
	LocalizeRef []string `json:"localizes,omitempty"`
}

// MemberRef is a cluster member: a package key or a cluster ID.
type memberRef struct {
	Package string `json:"p,omitempty"`
	Cluster string `json:"c,omitempty"`
}

type clusterRecord struct {
	*upgradeplan.Cluster
	MemberRefs []memberRef `json:"members,omitempty"`
}

type localeRecord struct {
	*upgradeplan.Locale
	PackageRefs []string `json:"packages,omitempty"`
}

// PatchRecord carries the key of each resolved target, parallel to Targets.
type patchRecord struct {
	*upgradeplan.Patch
	TargetRefs []string `json:"target_keys,omitempty"`
}

// EndRecord closes a stream. Its counts catch truncated streams.
type endRecord struct {
	Packages int `json:"packages"`
	Clusters int `json:"clusters"`
	History  int `json:"history,omitempty"`
}
