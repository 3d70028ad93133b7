package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tender-barbarian/npm-lens/internal/fixture"
	"github.com/tender-barbarian/npm-lens/internal/logging"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

func names(pkgs []symtab.Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func TestScanAll(t *testing.T) {
	root := fixture.Extract(t, "project.txtar")
	reg := New(logging.Nop())

	pkgs := reg.ScanAll(root, "")
	assert.Equal(t, []string{
		"@types/node",
		"@types/unnamed",
		"kitchen-sink",
		"left-pad",
		"left-pad-extra",
	}, names(pkgs))

	byName := make(map[string]symtab.Package)
	for _, p := range pkgs {
		byName[p.Name] = p
	}
	assert.Equal(t, "20.11.5", byName["@types/node"].Version)
	assert.Equal(t, filepath.Join(root, "node_modules", "@types", "node"), byName["@types/node"].Dir)
	assert.Equal(t, "0.1.0", byName["@types/unnamed"].Version, "name falls back to scope/child")
}

func TestScanAllMissingVersion(t *testing.T) {
	root := fixture.Write(t, map[string]string{
		"node_modules/bare/package.json":   `{"name": "bare"}`,
		"node_modules/broken/package.json": `{"name": `,
	})

	pkgs := New(logging.Nop()).ScanAll(root, "")
	require.Len(t, pkgs, 1)
	assert.Equal(t, "bare", pkgs[0].Name)
	assert.Equal(t, symtab.UnknownVersion, pkgs[0].Version)
}

func TestScanAllFilter(t *testing.T) {
	root := fixture.Extract(t, "project.txtar")
	reg := New(logging.Nop())

	tests := []struct {
		filter string
		want   []string
	}{
		{"pad", []string{"left-pad", "left-pad-extra"}},
		{"@types/", []string{"@types/node", "@types/unnamed"}},
		{"nothing-matches", nil},
	}

	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			got := names(reg.ScanAll(root, tc.filter))
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScanAllWorkspaceFirstMatchWins(t *testing.T) {
	root := fixture.Extract(t, "monorepo.txtar")
	reg := New(logging.Nop())

	pkgs := reg.ScanAll(root, "")
	assert.Equal(t, []string{"shared", "lodash", "only-b", "react", "util-x", "commander"}, names(pkgs))

	for _, p := range pkgs {
		switch p.Name {
		case "lodash":
			assert.Equal(t, "4.17.21", p.Version)
			assert.Equal(t, filepath.Join(root, "packages", "a", "node_modules", "lodash"), p.Dir)
		case "shared":
			assert.Equal(t, "1.0.0", p.Version)
		}
	}
}

func TestScanAllFollowsSymlinks(t *testing.T) {
	root := fixture.Write(t, map[string]string{
		"package.json": `{"name": "pnpm-app"}`,
		"node_modules/.pnpm/left-pad@1.3.0/node_modules/left-pad/package.json": `{"name": "left-pad", "version": "1.3.0"}`,
	})
	target := filepath.Join(root, "node_modules", ".pnpm", "left-pad@1.3.0", "node_modules", "left-pad")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "node_modules", "left-pad")))

	pkgs := New(logging.Nop()).ScanAll(root, "")
	require.Len(t, pkgs, 1)
	assert.Equal(t, "left-pad", pkgs[0].Name)
	assert.Equal(t, filepath.Join(root, "node_modules", "left-pad"), pkgs[0].Dir)
}

func TestResolve(t *testing.T) {
	root := fixture.Extract(t, "project.txtar")
	reg := New(logging.Nop())

	tests := []struct {
		name     string
		query    string
		wantName string
		wantOK   bool
	}{
		{"exact beats substring", "left-pad", "left-pad", true},
		{"exact scoped name", "@types/node", "@types/node", true},
		{"substring takes first in registry order", "pad", "left-pad", true},
		{"substring of scoped name", "node", "@types/node", true},
		{"not found", "nonexistent-pkg-xyz", "", false},
		{"empty query", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pkg, ok := reg.Resolve(root, tc.query)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantName, pkg.Name)
		})
	}
}

func TestResolveMissingRoot(t *testing.T) {
	_, ok := New(logging.Nop()).Resolve(filepath.Join(t.TempDir(), "gone"), "left-pad")
	assert.False(t, ok)
}
