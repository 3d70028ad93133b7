package finder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tender-barbarian/npm-lens/internal/cache"
	"github.com/tender-barbarian/npm-lens/internal/registry"
	"github.com/tender-barbarian/npm-lens/internal/search"
	"github.com/tender-barbarian/npm-lens/internal/source"
	"github.com/tender-barbarian/npm-lens/internal/symtab"
	"github.com/tender-barbarian/npm-lens/internal/workspace"
)

// MatchMode controls how symbol names are compared in FindSymbols.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchPrefix   MatchMode = "prefix"
	MatchContains MatchMode = "contains"
)

// ParseMatchMode converts tool input to a MatchMode. The empty string is MatchExact.
func ParseMatchMode(s string) (MatchMode, bool) {
	switch m := MatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MatchExact, true
	case MatchExact, MatchPrefix, MatchContains:
		return m, true
	default:
		return "", false
	}
}

func matchesQuery(symbolName, query string, mode MatchMode) bool {
	switch mode {
	case MatchPrefix:
		return strings.HasPrefix(symbolName, query)
	case MatchContains:
		return strings.Contains(symbolName, query)
	default:
		return symbolName == query
	}
}

// Defaults for Options. MaxLines and MaxResults fall back when not positive.
// Padding falls back only when negative, as zero asks for no context lines.
const (
	DefaultMaxLines = 2000
	DefaultPadding  = 10
)

// Options configures a Finder.
type Options struct {
	// Root is the project root used when a call passes none. Empty means
	// auto-detect from the working directory.
	Root       string
	MaxLines   int
	Padding    int
	MaxResults int
}

// Finder answers module and symbol queries against a project's installed packages.
type Finder struct {
	registry *registry.Registry
	cache    *cache.Cache
	searcher *search.Searcher
	opts     Options
	log      logrus.FieldLogger
}

// New creates a Finder. The cache is shared by every query the Finder serves.
func New(reg *registry.Registry, c *cache.Cache, s *search.Searcher, opts Options, log logrus.FieldLogger) *Finder {
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.Padding < 0 {
		opts.Padding = DefaultPadding
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = search.DefaultMaxResults
	}
	return &Finder{
		registry: reg,
		cache:    c,
		searcher: s,
		opts:     opts,
		log:      log.WithField("component", "finder"),
	}
}

// Padding returns the default number of context lines around symbol code.
func (f *Finder) Padding() int {
	return f.opts.Padding
}

// ModuleSummary is one entry of a module listing.
type ModuleSummary struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ModuleList is the result of ListModules.
type ModuleList struct {
	Root    string          `json:"root"`
	Total   int             `json:"total"`
	Modules []ModuleSummary `json:"modules"`
}

// ListModules lists the packages installed under root, optionally keeping only
// names that contain filter.
func (f *Finder) ListModules(root, filter string) (ModuleList, error) {
	root, err := f.root(root)
	if err != nil {
		return ModuleList{}, err
	}

	pkgs := f.registry.ScanAll(root, filter)
	mods := make([]ModuleSummary, 0, len(pkgs))
	for _, p := range pkgs {
		mods = append(mods, ModuleSummary{Name: p.Name, Version: p.Version})
	}
	return ModuleList{Root: root, Total: len(mods), Modules: mods}, nil
}

// ResolveAndIndex resolves module under root and returns its symbols, building the
// index on first use. The returned slice is shared with the cache and must not be modified.
func (f *Finder) ResolveAndIndex(ctx context.Context, root, module string) (symtab.Package, []symtab.Symbol, error) {
	pkg, err := f.resolve(root, module)
	if err != nil {
		return symtab.Package{}, nil, err
	}
	syms, err := f.cache.GetOrBuild(ctx, pkg)
	if err != nil {
		return symtab.Package{}, nil, err
	}
	return pkg, syms, nil
}

// Query selects symbols of one module. Zero fields match everything.
type Query struct {
	Name  string
	Match MatchMode
	Kind  symtab.Kind
	File  string
}

func (q Query) matches(s symtab.Symbol) bool {
	if q.Kind != "" && s.Kind != q.Kind {
		return false
	}
	if q.File != "" && s.File != q.File {
		return false
	}
	return q.Name == "" || matchesQuery(s.Name, q.Name, q.Match)
}

// FindSymbols returns the symbols of module that satisfy q, in index order.
func (f *Finder) FindSymbols(ctx context.Context, root, module string, q Query) ([]symtab.Symbol, error) {
	_, syms, err := f.ResolveAndIndex(ctx, root, module)
	if err != nil {
		return nil, err
	}
	q.File = normalizeFile(q.File)

	result := make([]symtab.Symbol, 0)
	for _, s := range syms {
		if q.matches(s) {
			result = append(result, s)
		}
	}
	return result, nil
}

// SymbolCode is a symbol together with its source text.
type SymbolCode struct {
	Module string         `json:"module"`
	Symbol symtab.Symbol  `json:"symbol"`
	Code   source.Excerpt `json:"code"`
}

// GetSymbolCode returns the first symbol named name declared in file, with padding
// lines of context on each side. A negative padding uses the configured default.
func (f *Finder) GetSymbolCode(ctx context.Context, root, module, file, name string, padding int) (SymbolCode, error) {
	pkg, syms, err := f.ResolveAndIndex(ctx, root, module)
	if err != nil {
		return SymbolCode{}, err
	}
	if padding < 0 {
		padding = f.opts.Padding
	}

	file = normalizeFile(file)
	for _, s := range syms {
		if s.File != file || s.Name != name {
			continue
		}
		path, err := f.packageFile(pkg, s.File)
		if err != nil {
			return SymbolCode{}, err
		}
		from, count := source.Window(s.StartLine, s.EndLine, padding)
		excerpt, err := source.ReadRange(path, from, count)
		if err != nil {
			return SymbolCode{}, fmt.Errorf("reading symbol %s: %w", name, err)
		}
		return SymbolCode{Module: pkg.Name, Symbol: s, Code: excerpt}, nil
	}
	return SymbolCode{}, &NotFoundError{What: "symbol", Name: name, In: pkg.Name + "/" + file}
}

// ReadSourceRange reads count lines of file starting at start. Both zero reads the
// whole file; otherwise count is capped at the configured maximum.
func (f *Finder) ReadSourceRange(root, module, file string, start, count int) (source.Excerpt, error) {
	pkg, err := f.resolve(root, module)
	if err != nil {
		return source.Excerpt{}, err
	}
	path, err := f.packageFile(pkg, file)
	if err != nil {
		return source.Excerpt{}, err
	}

	if start > 0 || count > 0 {
		if count <= 0 || count > f.opts.MaxLines {
			count = f.opts.MaxLines
		}
	}
	return source.ReadRange(path, start, count)
}

// SearchModule returns lines of module's files matching the regular expression pattern.
// A non-positive limit uses the configured maximum.
func (f *Finder) SearchModule(ctx context.Context, root, module, pattern string, limit int) ([]search.Match, error) {
	if _, err := search.Compile(pattern); err != nil {
		return nil, err
	}
	pkg, err := f.resolve(root, module)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > f.opts.MaxResults {
		limit = f.opts.MaxResults
	}
	return f.searcher.Search(ctx, pkg.Dir, pattern, limit)
}

// root picks the project root for a call: the override, the configured root, or
// the root detected from the working directory.
func (f *Finder) root(override string) (string, error) {
	root := override
	if root == "" {
		root = f.opts.Root
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		root = workspace.DetectRoot(wd)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	return abs, nil
}

func (f *Finder) resolve(root, module string) (symtab.Package, error) {
	root, err := f.root(root)
	if err != nil {
		return symtab.Package{}, err
	}
	pkg, ok := f.registry.Resolve(root, module)
	if !ok {
		return symtab.Package{}, &NotFoundError{What: "module", Name: module, In: root}
	}
	f.log.WithFields(logrus.Fields{"query": module, "package": pkg.Name, "dir": pkg.Dir}).Debug("resolved module")
	return pkg, nil
}

// packageFile maps a package-relative file to an absolute path, refusing paths that
// leave the package directory directly or through symlinks.
func (f *Finder) packageFile(pkg symtab.Package, file string) (string, error) {
	notFound := &NotFoundError{What: "file", Name: file, In: pkg.Name}

	rel := normalizeFile(file)
	if rel == "" || filepath.IsAbs(filepath.FromSlash(rel)) {
		return "", notFound
	}
	path := filepath.Join(pkg.Dir, filepath.FromSlash(rel))
	if !isUnderRoot(path, pkg.Dir) {
		return "", notFound
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", notFound
	}
	if !isUnderRoot(resolved, cache.Key(pkg.Dir)) {
		return "", notFound
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", notFound
	}
	return resolved, nil
}

func normalizeFile(file string) string {
	file = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(file)), "./")
	return file
}

// isUnderRoot reports whether path is within root (both should be absolute).
func isUnderRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NotFoundError reports a module, file or symbol that does not exist.
type NotFoundError struct {
	What string
	Name string
	In   string
}

func (e *NotFoundError) Error() string {
	if e.In == "" {
		return fmt.Sprintf("%s %q not found", e.What, e.Name)
	}
	return fmt.Sprintf("%s %q not found in %s", e.What, e.Name, e.In)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
