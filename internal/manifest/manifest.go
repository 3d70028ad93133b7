// Package manifest reads the parts of package.json and pnpm-workspace.yaml that
// package discovery relies on.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the npm package manifest.
	FileName = "package.json"
	// PnpmWorkspaceFile marks a pnpm workspace root.
	PnpmWorkspaceFile = "pnpm-workspace.yaml"
)

// ErrInvalidManifest is returned when package.json is not valid JSON.
var ErrInvalidManifest = errors.New("invalid package manifest")

// Manifest holds the package.json fields used by discovery.
type Manifest struct {
	Name    string
	Version string
	Types   string // "types", falling back to "typings"

	// HasWorkspaces is true when a "workspaces" field is present in any form.
	HasWorkspaces bool
	// Workspaces holds member patterns from the array form or the
	// {"packages": [...]} object form.
	Workspaces []string
}

// Read parses dir/package.json.
func Read(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Manifest{}, err
	}
	return Parse(data)
}

// Parse decodes package.json content. Fields of the wrong type are treated as absent.
func Parse(data []byte) (Manifest, error) {
	if !gjson.ValidBytes(data) {
		return Manifest{}, ErrInvalidManifest
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Manifest{}, fmt.Errorf("%w: top level is not an object", ErrInvalidManifest)
	}

	m := Manifest{
		Name:    stringField(doc, "name"),
		Version: stringField(doc, "version"),
		Types:   stringField(doc, "types"),
	}
	if m.Types == "" {
		m.Types = stringField(doc, "typings")
	}

	ws := doc.Get("workspaces")
	if ws.Exists() {
		m.HasWorkspaces = true
		if ws.IsObject() {
			ws = ws.Get("packages")
		}
		m.Workspaces = stringArray(ws)
	}
	return m, nil
}

// pnpmWorkspace mirrors the relevant part of pnpm-workspace.yaml.
type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// ReadPnpmWorkspace parses root/pnpm-workspace.yaml. ok is false when the file does not exist.
func ReadPnpmWorkspace(root string) (patterns []string, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(root, PnpmWorkspaceFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", PnpmWorkspaceFile, err)
	}

	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, true, fmt.Errorf("parsing %s: %w", PnpmWorkspaceFile, err)
	}
	return ws.Packages, true, nil
}

func stringField(doc gjson.Result, key string) string {
	v := doc.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

func stringArray(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
	}
	return out
}
