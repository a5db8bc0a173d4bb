package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/quay/upgradeplan"
)

// Tree is a decoded stream whose cross references have not yet been turned
// into pointers.
type Tree struct {
	// Version is the record format version the stream was written with.
	Version int

	product  productRecord
	arches   []*upgradeplan.Arch
	packages []packageRecord
	clusters []clusterRecord
	locales  []localeRecord
	geos     []*upgradeplan.Geo
	patches  []patchRecord
	history  []upgradeplan.HistoryEntry
}

// Decode reads a stream written by [Encode]. A stream that does not end with
// an end record, or whose end record disagrees with the records read, is
// reported as truncated.
func Decode(r io.Reader) (*Tree, error) {
	const op = "wire.Decode"
	rd, done, err := decompressor(r)
	if err != nil {
		return nil, &upgradeplan.Error{
			Op:    op,
			Kind:  upgradeplan.ErrInvalid,
			Inner: err,
		}
	}
	defer done()

	var hdr [len(Magic) + 1]byte
	if _, err := io.ReadFull(rd, hdr[:]); err != nil {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: "short header",
			Inner:   err,
		}
	}
	if string(hdr[:len(Magic)]) != Magic {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: fmt.Sprintf("bad magic %q", hdr[:len(Magic)]),
		}
	}
	t := Tree{Version: int(hdr[len(Magic)])}
	if t.Version != Version {
		return nil, &upgradeplan.Error{
			Op:      op,
			Kind:    upgradeplan.ErrInvalid,
			Message: fmt.Sprintf("unknown version %d", t.Version),
		}
	}

	dec := json.NewDecoder(rd)
	seenProduct := false
	for {
		var rec record
		switch err := dec.Decode(&rec); {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: "truncated stream",
				Inner:   err,
			}
		default:
			return nil, &upgradeplan.Error{
				Op:    op,
				Kind:  upgradeplan.ErrInvalid,
				Inner: err,
			}
		}
		var v any
		switch rec.Kind {
		case kindProduct:
			seenProduct = true
			v = &t.product
		case kindArch:
			t.arches = append(t.arches, new(upgradeplan.Arch))
			v = t.arches[len(t.arches)-1]
		case kindPackage:
			t.packages = append(t.packages, packageRecord{})
			v = &t.packages[len(t.packages)-1]
		case kindCluster:
			t.clusters = append(t.clusters, clusterRecord{})
			v = &t.clusters[len(t.clusters)-1]
		case kindLocale:
			t.locales = append(t.locales, localeRecord{})
			v = &t.locales[len(t.locales)-1]
		case kindGeo:
			t.geos = append(t.geos, new(upgradeplan.Geo))
			v = t.geos[len(t.geos)-1]
		case kindPatch:
			t.patches = append(t.patches, patchRecord{})
			v = &t.patches[len(t.patches)-1]
		case kindHistory:
			t.history = append(t.history, upgradeplan.HistoryEntry{})
			v = &t.history[len(t.history)-1]
		case kindEnd:
			var end endRecord
			if err := json.Unmarshal(rec.Value, &end); err != nil {
				return nil, &upgradeplan.Error{
					Op:      op,
					Kind:    upgradeplan.ErrInvalid,
					Message: "end record",
					Inner:   err,
				}
			}
			if !seenProduct || end.Packages != len(t.packages) || end.Clusters != len(t.clusters) || end.History != len(t.history) {
				return nil, &upgradeplan.Error{
					Op:   op,
					Kind: upgradeplan.ErrInvalid,
					Message: fmt.Sprintf("truncated stream: have %d packages, %d clusters, and %d history entries, want %d, %d, and %d",
						len(t.packages), len(t.clusters), len(t.history), end.Packages, end.Clusters, end.History),
				}
			}
			return &t, nil
		default:
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: fmt.Sprintf("unknown record kind %q", rec.Kind),
			}
		}
		if err := json.Unmarshal(rec.Value, v); err != nil {
			return nil, &upgradeplan.Error{
				Op:      op,
				Kind:    upgradeplan.ErrInvalid,
				Message: rec.Kind + " record",
				Inner:   err,
			}
		}
	}
}

// ReadProduct decodes a stream and resolves its references.
func ReadProduct(r io.Reader) (*upgradeplan.Product, error) {
	t, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return ResolveReferences(t)
}
