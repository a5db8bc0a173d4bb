// Package wire implements the record stream used to move a [upgradeplan.Product]
// between processes: from a zone inventory child to its parent, and to and
// from snapshot files.
//
// A stream is optionally compressed as a whole (zstd, gzip, or xz; detected
// on read). Inside the compression is the 4-byte magic "UPGP", a version
// byte, and then a sequence of JSON records, each an object with a kind "k"
// and a value "v". Records refer to packages by their [upgradeplan.Package.Key]
// and to clusters by ID; [ResolveReferences] turns those back into pointers.
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Magic starts every stream.
const Magic = "UPGP"

// Version is the record format version written by [Encode].
const Version = 1

// Compression selects the compression [Encode] applies.
type Compression int

//go:generate stringer -type=Compression -linecomment

// Supported compressions.
const (
	Zstd Compression = iota // zstd
	Gzip                    // gzip
	Xz                      // xz
	None                    // none
)

var cmpHeaders = [...][]byte{
	Zstd: {0x28, 0xB5, 0x2F, 0xFD},
	Gzip: {0x1F, 0x8B, 0x08},
	Xz:   {0xFD, '7', 'z', 'X', 'Z', 0x00},
}

// DetectCompression reports the compression of a stream starting with "b".
func DetectCompression(b []byte) Compression {
	for c, h := range cmpHeaders {
		if len(b) >= len(h) && bytes.Equal(h, b[:len(h)]) {
			return Compression(c)
		}
	}
	return None
}

// ParseCompression parses a compression name as printed by
// [Compression.String].
func ParseCompression(s string) (Compression, error) {
	for c := Zstd; c <= None; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("wire: unknown compression %q", s)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		return zstd.NewWriter(w)
	case Gzip:
		return gzip.NewWriter(w), nil
	case Xz:
		return xz.NewWriter(w)
	case None:
		return nopCloser{w}, nil
	}
	return nil, fmt.Errorf("wire: unknown compression %v", c)
}

// Decompressor sniffs the compression of "r" and returns a reader of the
// decompressed stream and a function to release it.
func decompressor(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	b, err := br.Peek(len(cmpHeaders[Xz]))
	if err != nil && len(b) == 0 {
		return nil, nil, err
	}
	switch DetectCompression(b) {
	case Zstd:
		d, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	case Gzip:
		g, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { g.Close() }, nil
	case Xz:
		x, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return x, func() {}, nil
	}
	return br, func() {}, nil
}
