// Package workspace locates the project root and the dependency directories of a
// project, including the per-member dependency directories of a monorepo workspace.
//
// Discovery goes exactly one workspace level deep: members of members are not visited.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tender-barbarian/npm-lens/internal/manifest"
)

// DepsDir is the directory holding installed packages.
const DepsDir = "node_modules"

// conventionalMembers are member globs tried for every workspace, in order.
var conventionalMembers = []string{"packages/*", "apps/*", "*"}

// Discover returns the existing dependency directories of the project at root,
// as absolute paths: root's own first, then workspace members' in glob order.
func Discover(root string, log logrus.FieldLogger) []string {
	root, err := filepath.Abs(root)
	if err != nil {
		log.WithError(err).WithField("root", root).Warn("resolving project root")
		return nil
	}

	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if seen[dir] || !isDir(dir) {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	add(filepath.Join(root, DepsDir))

	declared, isWorkspace := memberPatterns(root, log)
	if !isWorkspace {
		return dirs
	}

	for _, pattern := range append(append([]string{}, conventionalMembers...), declared...) {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern), DepsDir))
		if err != nil {
			log.WithError(err).WithField("pattern", pattern).Debug("skipping workspace pattern")
			continue
		}
		for _, match := range matches {
			if nestedDeps(root, match) {
				continue
			}
			add(match)
		}
	}
	return dirs
}

// memberPatterns reports whether root is a workspace and returns the one-level
// member patterns it declares in package.json or pnpm-workspace.yaml.
func memberPatterns(root string, log logrus.FieldLogger) ([]string, bool) {
	var raw []string
	isWorkspace := false

	pnpm, ok, err := manifest.ReadPnpmWorkspace(root)
	if err != nil {
		log.WithError(err).Debug("ignoring pnpm workspace patterns")
	}
	if ok {
		isWorkspace = true
		raw = append(raw, pnpm...)
	}

	m, err := manifest.Read(root)
	switch {
	case err == nil:
		if m.HasWorkspaces {
			isWorkspace = true
			raw = append(raw, m.Workspaces...)
		}
	case !os.IsNotExist(err):
		log.WithError(err).WithField("root", root).Debug("reading root manifest")
	}

	patterns := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = oneLevel(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns, isWorkspace
}

// oneLevel normalises a declared member pattern so it names member directories
// at most one directory below the root. A recursive "**" segment becomes "*" and
// ends the pattern, anything deeper than dir/member is cut to dir/*, and
// negations are dropped.
func oneLevel(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "!") {
		return ""
	}
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	pattern = strings.TrimSuffix(pattern, "/")

	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if seg == "**" {
			segments = append(segments[:i:i], "*")
			break
		}
	}
	if len(segments) > 2 {
		segments = []string{segments[0], "*"}
	}
	pattern = strings.Join(segments, "/")
	if pattern == "" || pattern == "." || strings.HasPrefix(pattern, "..") {
		return ""
	}
	return pattern
}

// nestedDeps reports whether a matched dependency directory sits inside another
// dependency directory, e.g. node_modules/node_modules.
func nestedDeps(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return true
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segments[:len(segments)-1] {
		if seg == DepsDir {
			return true
		}
	}
	return false
}

// DetectRoot walks upward from start to the first directory holding both a
// package.json and an installed node_modules directory. It returns start when
// no such directory exists.
func DetectRoot(start string) string {
	start, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for dir := start; ; {
		if isFile(filepath.Join(dir, manifest.FileName)) && isDir(filepath.Join(dir, DepsDir)) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
