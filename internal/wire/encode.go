package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/quay/upgradeplan"
)

// Encode writes the product to "w" as a record stream with the given
// compression.
func Encode(w io.Writer, p *upgradeplan.Product, c Compression) error {
	cw, err := compressor(w, c)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(cw)
	if err := encode(bw, p); err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return cw.Close()
}

type encoder struct {
	enc *json.Encoder
}

func (e *encoder) put(kind string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s record: %w", kind, err)
	}
	return e.enc.Encode(record{Kind: kind, Value: b})
}

func encode(w io.Writer, p *upgradeplan.Product) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{Version}); err != nil {
		return err
	}
	e := encoder{enc: json.NewEncoder(w)}

	subset := slices.Sorted(maps.Keys(p.SubsetLocales))
	if err := e.put(kindProduct, productRecord{Product: p, Subset: subset}); err != nil {
		return err
	}
	for _, a := range p.Arches {
		if err := e.put(kindArch, a); err != nil {
			return err
		}
	}

	var end endRecord
	putPkg := func(q *upgradeplan.Package, primary, patched string) error {
		r := packageRecord{Package: q, Key: q.Key(), Primary: primary, Patched: patched}
		for _, x := range q.Localizes {
			r.LocalizeRef = append(r.LocalizeRef, x.Key())
		}
		end.Packages++
		return e.put(kindPackage, r)
	}
	// Every package goes out before any patch node, so patch nodes can
	// name the package they patch.
	for _, prim := range p.Packages {
		if err := putPkg(prim, "", ""); err != nil {
			return err
		}
		for _, i := range prim.Instances {
			if err := putPkg(i, prim.Key(), ""); err != nil {
				return err
			}
		}
	}
	for q := range p.AllPackages() {
		for _, pt := range q.Patches {
			if err := putPkg(pt, "", q.Key()); err != nil {
				return err
			}
		}
	}

	for _, c := range p.Clusters {
		r := clusterRecord{Cluster: c}
		for _, m := range c.Members {
			switch m := m.(type) {
			case *upgradeplan.Package:
				r.MemberRefs = append(r.MemberRefs, memberRef{Package: m.Key()})
			case *upgradeplan.Cluster:
				r.MemberRefs = append(r.MemberRefs, memberRef{Cluster: m.ID})
			default:
				return fmt.Errorf("cluster %s: unexpected member %T", c.ID, m)
			}
		}
		end.Clusters++
		if err := e.put(kindCluster, r); err != nil {
			return err
		}
	}
	for _, l := range p.Locales {
		r := localeRecord{Locale: l}
		for _, q := range l.Packages {
			r.PackageRefs = append(r.PackageRefs, q.Key())
		}
		if err := e.put(kindLocale, r); err != nil {
			return err
		}
	}
	for _, g := range p.Geos {
		if err := e.put(kindGeo, g); err != nil {
			return err
		}
	}
	for _, pt := range p.Patches {
		r := patchRecord{Patch: pt, TargetRefs: make([]string, len(pt.Targets))}
		for i, t := range pt.Targets {
			if t.Package != nil {
				r.TargetRefs[i] = t.Package.Key()
			}
		}
		if err := e.put(kindPatch, r); err != nil {
			return err
		}
	}
	for i := range p.History {
		end.History++
		if err := e.put(kindHistory, &p.History[i]); err != nil {
			return err
		}
	}
	return e.put(kindEnd, end)
}
