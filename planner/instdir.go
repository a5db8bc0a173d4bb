package planner

import (
	"path"

	"github.com/quay/upgradeplan"
	"github.com/quay/upgradeplan/pkg/arch"
	"github.com/quay/upgradeplan/pkg/release"
)

// InstDir computes where the new package "rp" is installed for action "a" in
// the environment "target". "ip" is the installed package being replaced,
// or nil for a package only present on the new media.
func (p *Planner) instDir(target *media, ip, rp *pkg, a upgradeplan.Action) string {
	np := p.NewProduct()
	switch a {
	case upgradeplan.ToBeSpooled:
		return path.Join(p.opts.TemplateRoot,
			np.Release(),
			rp.ID+"_"+rp.Version+"_"+arch.Dotted(rp.Arch))
	case upgradeplan.ToBePkgadded, upgradeplan.AddedBySharedEnv:
	default:
		return ""
	}

	if target.Kind != upgradeplan.InstalledSvc {
		if ip == nil || (ip.History != nil && ip.History.BasedirChange) {
			return basedir(rp)
		}
		return basedir(ip)
	}

	isa := arch.ISA(rp.Arch)
	postKBI := release.PostKBI(np.Release())
	var dir string
	if target.Flags&upgradeplan.SplitFromServer != 0 {
		if p.opts.LocalArch != "" && arch.Compatible(rp.Arch, p.opts.LocalArch) {
			return basedir(rp)
		}
		switch rp.Type {
		case upgradeplan.PTypeUsr, upgradeplan.PTypeOW:
			dir = "/export/exec/" + np.Release() + "_" + isa + ".all"
		case upgradeplan.PTypeKVM:
			if postKBI {
				dir = "/export/exec/" + np.Release() + "_" + isa + ".all"
			} else {
				dir = "/export/exec/kvm/" + np.Release() + "_" + rp.Arch
			}
		default:
			dir = "/export/" + np.Release()
		}
	} else {
		switch rp.Type {
		case upgradeplan.PTypeKVM:
			if postKBI {
				dir = "/usr_" + isa + ".all"
			} else {
				dir = "/usr.kvm_" + rp.Arch
			}
		case upgradeplan.PTypeUsr, upgradeplan.PTypeOW:
			dir = "/usr_" + isa + ".all"
		default:
			dir = "/export/" + np.Release()
		}
	}
	if b := basedir(rp); b != "/" {
		dir = path.Join(dir, b)
	}
	return dir
}

func basedir(p *pkg) string {
	if p.Basedir == "" {
		return "/"
	}
	return p.Basedir
}
