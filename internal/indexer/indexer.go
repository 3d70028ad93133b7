package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"

	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// DefaultMaxFiles bounds how many files of one package are parsed.
const DefaultMaxFiles = 3000

// DefaultMaxFileBytes bounds the size of a single parsed file.
const DefaultMaxFileBytes = 5 << 20

// sourceExts lists the TypeScript source and declaration extensions that are indexed.
// Declaration files (.d.ts, .d.mts, .d.cts) share these suffixes.
var sourceExts = []string{".ts", ".tsx", ".mts", ".cts"}

// DefaultIgnore lists paths never indexed: nested dependencies, tests and tooling output.
// Patterns use gitignore syntax relative to the package directory.
var DefaultIgnore = []string{
	"node_modules",
	".git",
	"test",
	"tests",
	"__tests__",
	"__mocks__",
	"__fixtures__",
	"*.test.ts",
	"*.test.tsx",
	"*.spec.ts",
	"*.spec.tsx",
	"*.test-d.ts",
	"coverage",
	".cache",
	".turbo",
}

// Options configures an Indexer.
type Options struct {
	MaxFiles     int
	MaxFileBytes int64
	Ignore       []string // extra patterns appended to DefaultIgnore
}

// Indexer extracts declaration symbols from installed packages.
type Indexer struct {
	opts   Options
	ignore *ignore.GitIgnore
	log    logrus.FieldLogger
}

// New creates an Indexer. Zero limits fall back to the package defaults.
func New(opts Options, log logrus.FieldLogger) *Indexer {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	patterns := append(append([]string{}, DefaultIgnore...), opts.Ignore...)
	return &Indexer{
		opts:   opts,
		ignore: ignore.CompileIgnoreLines(patterns...),
		log:    log.WithField("component", "indexer"),
	}
}

// Files lists the indexable files under dir as slash-separated relative paths,
// in lexical walk order, stopping at the configured file cap. A symlinked dir
// is walked at its target.
func (idx *Indexer) Files(dir string) ([]string, error) {
	root := realDir(dir)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			idx.log.WithError(err).WithField("path", path).Debug("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if idx.ignore.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !isSourceFile(rel) || idx.ignore.MatchesPath(rel) {
			return nil
		}

		files = append(files, rel)
		if len(files) >= idx.opts.MaxFiles {
			idx.log.WithFields(logrus.Fields{"dir": dir, "max_files": idx.opts.MaxFiles}).
				Info("file cap reached, remaining files are not indexed")
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files in %s: %w", dir, err)
	}
	return files, nil
}

// Index parses the package's files and returns their symbols in traversal order.
// Files that cannot be read or parsed are skipped.
func (idx *Indexer) Index(ctx context.Context, pkg symtab.Package) ([]symtab.Symbol, error) {
	dir := realDir(pkg.Dir)
	files, err := idx.Files(dir)
	if err != nil {
		return nil, err
	}

	fp := newFileParser()
	defer fp.close()

	symbols := make([]symtab.Symbol, 0, len(files)*4)
	for _, rel := range files {
		syms, err := idx.indexFile(ctx, fp, dir, rel)
		if err != nil {
			idx.log.WithError(err).WithFields(logrus.Fields{"package": pkg.Name, "file": rel}).
				Debug("skipping file")
			continue
		}
		symbols = append(symbols, syms...)
	}

	idx.log.WithFields(logrus.Fields{
		"package": pkg.Name,
		"files":   len(files),
		"symbols": len(symbols),
	}).Debug("indexed package")
	return symbols, nil
}

// indexFile reads and parses a single file listed by Files.
func (idx *Indexer) indexFile(ctx context.Context, fp *fileParser, dir, rel string) ([]symtab.Symbol, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > idx.opts.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, info.Size(), idx.opts.MaxFileBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	return fp.parse(ctx, rel, content)
}

// ErrTooLarge is returned for files above Options.MaxFileBytes.
var ErrTooLarge = errors.New("file too large")

// isSourceFile reports whether name has an indexed extension.
func isSourceFile(name string) bool {
	for _, ext := range sourceExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// realDir resolves symlinks in dir, which filepath.WalkDir does not follow at
// the root. Unresolvable paths are returned as given so the walk reports them.
func realDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return dir
}
