package inventory

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/release"
)

// Well-known paths, relative to an installed root.
const (
	PkgDir           = "var/sadm/pkg"
	AdminDir         = "var/sadm/system/admin"
	ReleaseFile      = AdminDir + "/INST_RELEASE"
	ClusterFile      = AdminDir + "/CLUSTER"
	ClusterTOCFile   = AdminDir + "/.clustertoc"
	LocalesInstalled = "var/sadm/system/data/locales_installed"
)

// Release is the content of an INST_RELEASE file.
type Release struct {
	OS      string
	Version string
	Rev     string
}

// Token returns the release token, e.g. "Solaris_9".
func (r *Release) Token() string {
	return release.Token(r.OS, r.Version)
}

// ReadRelease reads an INST_RELEASE file.
func ReadRelease(r io.Reader) (*Release, error) {
	ss, err := readStanzas(r)
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, errors.New("inventory: INST_RELEASE: empty")
	}
	rel := Release{
		OS:      ss[0].get("OS"),
		Version: ss[0].get("VERSION"),
		Rev:     ss[0].get("REV"),
	}
	if rel.OS == "" || rel.Version == "" {
		return nil, errors.New("inventory: INST_RELEASE: missing OS or VERSION")
	}
	return &rel, nil
}

// ReadCluster reads a CLUSTER file and returns the installed metacluster.
func ReadCluster(r io.Reader) (string, error) {
	ss, err := readStanzas(r)
	if err != nil {
		return "", err
	}
	if len(ss) == 0 || ss[0].get("CLUSTER") == "" {
		return "", errors.New("inventory: CLUSTER: missing CLUSTER")
	}
	return ss[0].get("CLUSTER"), nil
}

// Locales is the content of a locales_installed file.
type Locales struct {
	Geos    []string
	Locales []string
}

// ReadLocalesInstalled reads a locales_installed file.
func ReadLocalesInstalled(r io.Reader) (*Locales, error) {
	ss, err := readStanzas(r)
	if err != nil {
		return nil, err
	}
	var l Locales
	if len(ss) != 0 {
		l.Geos = list(ss[0].get("GEOS"))
		l.Locales = list(ss[0].get("LOCALES"))
	}
	return &l, nil
}

// Upgradeable checks that "sys" holds an installed root the planner can
// upgrade and returns its release.
//
// The release, installed metacluster, and installed cluster table must all be
// present. A missing one is reported as an [upgradeplan.ErrPrecondition]
// error naming the file.
func Upgradeable(sys fs.FS) (*Release, error) {
	const op = "inventory.Upgradeable"
	for _, n := range []string{ReleaseFile, ClusterFile, ClusterTOCFile} {
		_, err := fs.Stat(sys, n)
		switch {
		case errors.Is(err, nil):
		case errors.Is(err, fs.ErrNotExist):
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrPrecondition,
				Message: "missing " + n,
				Inner:   err,
			}
		default:
			return nil, &upgradeplan.Error{
				Op:    op,
				Kind:  upgradeplan.ErrInternal,
				Inner: err,
			}
		}
	}
	f, err := sys.Open(ReleaseFile)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	defer f.Close()
	rel, err := ReadRelease(f)
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrPrecondition,
			Message: "unreadable " + ReleaseFile,
			Inner:   err,
		}
	}
	return rel, nil
}
