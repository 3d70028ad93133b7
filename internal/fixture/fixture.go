// Package fixture unpacks test projects stored as txtar archives.
//
// Archives live in tests/testdata. Each file section becomes a file below a fresh
// temporary directory, so tests can lay out node_modules trees without committing
// them to the repository.
package fixture

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/txtar"
)

// Dir returns the absolute path of the tests/testdata directory.
func Dir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "tests", "testdata")
}

// Extract unpacks the named archive from tests/testdata into a temporary
// directory and returns the directory's canonical path.
func Extract(t testing.TB, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join(Dir(), name))
	if err != nil {
		t.Fatalf("parsing fixture %s: %v", name, err)
	}
	return write(t, ar.Files)
}

// Write lays out files (slash-separated path to content) in a temporary
// directory and returns the directory's canonical path.
func Write(t testing.TB, files map[string]string) string {
	t.Helper()
	list := make([]txtar.File, 0, len(files))
	for name, data := range files {
		list = append(list, txtar.File{Name: name, Data: []byte(data)})
	}
	return write(t, list)
}

func write(t testing.TB, files []txtar.File) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	return root
}
