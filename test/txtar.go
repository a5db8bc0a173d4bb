package test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// Unpack extracts the txtar archive "testdata/<name>.txtar" into a fresh
// temporary directory and returns the directory. A file named with a trailing
// slash creates an empty directory.
func Unpack(t testing.TB, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name+".txtar"))
	if err != nil {
		t.Fatal(err)
	}
	return Extract(t, ar)
}

// Extract writes the files of "ar" into a fresh temporary directory and
// returns the directory.
func Extract(t testing.TB, ar *txtar.Archive) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range ar.Files {
		if !fs.ValidPath(filepath.ToSlash(filepath.Clean(f.Name))) {
			t.Fatalf("bad archive member name: %q", f.Name)
		}
		p := filepath.Join(root, filepath.FromSlash(f.Name))
		if f.Name[len(f.Name)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
