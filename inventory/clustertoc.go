package inventory

import (
	"io"
	"strings"
)

// ClusterEntry is one cluster or metacluster from a .clustertoc.
type ClusterEntry struct {
	ID       string
	Name     string
	Members  []string
	Meta     bool
	Required bool
	Default  bool
}

// ReadClusterTOC reads a .clustertoc. Entries start with "CLUSTER=" or
// "METACLUSTER=" and end with "END". Members are listed either one per
// SUNW_CSRMEMBER line or together in a MEMBERS line separated by colons or
// whitespace.
func ReadClusterTOC(r io.Reader) ([]ClusterEntry, error) {
	ss, err := readStanzas(r, "CLUSTER", "METACLUSTER")
	if err != nil {
		return nil, err
	}
	out := make([]ClusterEntry, 0, len(ss))
	for _, s := range ss {
		e := ClusterEntry{
			Name:     s.get("NAME"),
			Required: flag(s.get("REQUIRED")),
			Default:  flag(s.get("DEFAULT")),
		}
		if id := s.get("METACLUSTER"); id != "" {
			e.ID, e.Meta = id, true
		} else {
			e.ID = s.get("CLUSTER")
		}
		for _, v := range s.all("MEMBERS") {
			e.Members = append(e.Members, strings.FieldsFunc(v, func(r rune) bool {
				return r == ':' || r == ' ' || r == '\t'
			})...)
		}
		e.Members = append(e.Members, s.all("SUNW_CSRMEMBER")...)
		out = append(out, e)
	}
	return out, nil
}
