// Package inventory reads the on-disk software inventories the planner works
// from: the package database of an installed root and the table-of-contents
// files of an install media image.
//
// The readers take an [io.Reader] over one file. [LoadInstalled] and
// [LoadMedia] walk an [fs.FS] and assemble a complete [upgradeplan.Product].
package inventory

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
)

type field struct {
	Key   string
	Value string
}

// Stanza is one record of a KEY=VALUE file, in file order.
type stanza []field

// Get returns the last value for the key.
func (s stanza) get(key string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Key == key {
			return s[i].Value
		}
	}
	return ""
}

func (s stanza) has(key string) bool {
	return slices.ContainsFunc(s, func(f field) bool { return f.Key == key })
}

// All returns every value for the key.
func (s stanza) all(key string) []string {
	var out []string
	for _, f := range s {
		if f.Key == key {
			out = append(out, f.Value)
		}
	}
	return out
}

// ReadStanzas splits a KEY=VALUE file into stanzas. A stanza starts at a line
// whose key is one of "starts" and runs to an "END" line, the next starting
// key, or the end of the file. With no starting keys the whole file is one
// stanza.
//
// Blank lines and lines starting with "#" are skipped. Values may be wrapped
// in single or double quotes.
func readStanzas(r io.Reader, starts ...string) ([]stanza, error) {
	var out []stanza
	var cur stanza
	open := len(starts) == 0
	flush := func() {
		if len(cur) != 0 {
			out = append(out, cur)
		}
		cur = nil
	}
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		b := bytes.TrimSpace(s.Bytes())
		switch {
		case len(b) == 0, b[0] == '#':
			continue
		case string(b) == "END":
			if len(starts) != 0 {
				flush()
				open = false
			}
			continue
		}
		eq := bytes.IndexByte(b, '=')
		if eq == -1 {
			return nil, fmt.Errorf("inventory: line %d: malformed line %q", n, s.Text())
		}
		f := field{
			Key:   string(bytes.TrimSpace(b[:eq])),
			Value: unquote(string(bytes.TrimSpace(b[eq+1:]))),
		}
		if slices.Contains(starts, f.Key) {
			flush()
			open = true
		}
		if !open {
			return nil, fmt.Errorf("inventory: line %d: %q outside of a stanza", n, f.Key)
		}
		cur = append(cur, f)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	flush()
	return out, nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		switch q := v[0]; q {
		case '\'', '"':
			if v[len(v)-1] == q {
				return v[1 : len(v)-1]
			}
		}
	}
	return v
}

// List splits a list value on commas and whitespace. An empty list is nil.
func list(v string) []string {
	out := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// Words splits a list value on whitespace only. An empty list is nil.
func words(v string) []string {
	out := strings.Fields(v)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Flag reports whether a value spells "true".
func flag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "y", "yes", "true":
		return true
	}
	return false
}
