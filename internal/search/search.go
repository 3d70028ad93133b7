// Package search runs regular-expression line searches over an installed package.
package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"

	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// DefaultMaxResults is used when a search is given no positive limit.
const DefaultMaxResults = 100

// maxLineBytes bounds a single scanned line; minified bundles can exceed bufio's default.
const maxLineBytes = 1 << 20

// sniffLen is how much of a file is inspected to decide whether it is binary.
const sniffLen = 512

// ErrInvalidPattern is returned when the search pattern does not compile.
var ErrInvalidPattern = errors.New("invalid search pattern")

// defaultIgnore keeps nested dependencies and VCS metadata out of results.
var defaultIgnore = []string{"node_modules", ".git"}

// Match is one matching line.
type Match struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Options configures a Searcher.
type Options struct {
	MaxFileBytes int64
	Ignore       []string
}

// Searcher greps files under a package directory.
type Searcher struct {
	opts   Options
	ignore *ignore.GitIgnore
	log    logrus.FieldLogger
}

// New creates a Searcher. Extra ignore patterns are appended to the defaults.
func New(opts Options, log logrus.FieldLogger) *Searcher {
	return &Searcher{
		opts:   opts,
		ignore: ignore.CompileIgnoreLines(append(append([]string{}, defaultIgnore...), opts.Ignore...)...),
		log:    log.WithField("component", "search"),
	}
}

// Compile validates pattern, wrapping failures in ErrInvalidPattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// Search returns up to limit lines under dir matching pattern, in walk order.
// Binary files, oversized files and unreadable files are skipped.
func (s *Searcher) Search(ctx context.Context, dir, pattern string, limit int) ([]Match, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	// WalkDir does not descend a symlinked root, so walk its target.
	root := dir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		root = resolved
	}

	matches := []Match{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if s.ignore.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		found, err := s.searchFile(path, rel, re, limit-len(matches))
		if err != nil {
			s.log.WithError(err).WithField("file", rel).Debug("skipping file")
		}
		matches = append(matches, found...)
		if len(matches) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", dir, err)
	}
	return matches, nil
}

func (s *Searcher) searchFile(path, rel string, re *regexp.Regexp, limit int) ([]Match, error) {
	if s.opts.MaxFileBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > s.opts.MaxFileBytes {
			return nil, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head, _ := r.Peek(sniffLen)
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}

	var matches []Match
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if !re.Match(line) {
			continue
		}
		matches = append(matches, Match{File: rel, Line: n, Text: symtab.Preview(string(line))})
		if len(matches) >= limit {
			break
		}
	}
	return matches, scanner.Err()
}
