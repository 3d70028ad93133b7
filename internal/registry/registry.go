// Package registry catalogues the packages installed in a project's dependency
// directories and resolves user-supplied names against that catalogue.
//
// A catalogue is rebuilt on every call. When the same name is installed in more
// than one dependency directory, the first one scanned wins: discovery-directory
// order first, then the filesystem's lexical listing order.
package registry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tender-barbarian/npm-lens/internal/manifest"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
	"github.com/tender-barbarian/npm-lens/internal/workspace"
)

// scopePrefix marks a scope container such as node_modules/@types.
const scopePrefix = "@"

// Registry scans dependency directories into package entries.
type Registry struct {
	log logrus.FieldLogger
}

// New creates a Registry.
func New(log logrus.FieldLogger) *Registry {
	return &Registry{log: log.WithField("component", "registry")}
}

// ScanAll returns every package installed under root, de-duplicated by name.
// When filter is non-empty only names containing it are kept.
func (r *Registry) ScanAll(root, filter string) []symtab.Package {
	var pkgs []symtab.Package
	seen := make(map[string]bool)

	for _, depsDir := range workspace.Discover(root, r.log) {
		for _, pkg := range r.scanDir(depsDir) {
			if seen[pkg.Name] {
				continue
			}
			seen[pkg.Name] = true
			if filter != "" && !strings.Contains(pkg.Name, filter) {
				continue
			}
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs
}

// Resolve finds the package called name: an exact match if one exists, otherwise
// the first package, in registry order, whose name contains name.
func (r *Registry) Resolve(root, name string) (symtab.Package, bool) {
	pkgs := r.ScanAll(root, "")
	for _, pkg := range pkgs {
		if pkg.Name == name {
			return pkg, true
		}
	}
	if name == "" {
		return symtab.Package{}, false
	}
	for _, pkg := range pkgs {
		if strings.Contains(pkg.Name, name) {
			return pkg, true
		}
	}
	return symtab.Package{}, false
}

// scanDir lists the packages directly inside one dependency directory, expanding scopes.
func (r *Registry) scanDir(depsDir string) []symtab.Package {
	entries, err := os.ReadDir(depsDir)
	if err != nil {
		r.log.WithError(err).WithField("dir", depsDir).Warn("listing dependency directory")
		return nil
	}

	var pkgs []symtab.Package
	for _, entry := range entries {
		name := entry.Name()
		dir := filepath.Join(depsDir, name)
		if strings.HasPrefix(name, ".") || !isDir(entry, dir) {
			continue
		}

		if !strings.HasPrefix(name, scopePrefix) {
			if pkg, ok := r.readPackage(dir, name); ok {
				pkgs = append(pkgs, pkg)
			}
			continue
		}

		scoped, err := os.ReadDir(dir)
		if err != nil {
			r.log.WithError(err).WithField("dir", dir).Debug("listing scope")
			continue
		}
		for _, child := range scoped {
			childDir := filepath.Join(dir, child.Name())
			if strings.HasPrefix(child.Name(), ".") || !isDir(child, childDir) {
				continue
			}
			if pkg, ok := r.readPackage(childDir, name+"/"+child.Name()); ok {
				pkgs = append(pkgs, pkg)
			}
		}
	}
	return pkgs
}

// readPackage builds an entry from dir's manifest, using fallback when it declares no name.
func (r *Registry) readPackage(dir, fallback string) (symtab.Package, bool) {
	m, err := manifest.Read(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.WithError(err).WithField("dir", dir).Debug("skipping unreadable manifest")
		}
		return symtab.Package{}, false
	}

	pkg := symtab.Package{Name: m.Name, Version: m.Version, Dir: dir}
	if pkg.Name == "" {
		pkg.Name = fallback
	}
	if pkg.Version == "" {
		pkg.Version = symtab.UnknownVersion
	}
	return pkg, true
}

// isDir reports whether entry is a directory, following symlinks as pnpm installs them.
func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
