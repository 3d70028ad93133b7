// Package cache memoizes package symbol indexes for the life of the process.
//
// Entries are keyed by the package directory's canonical path, so a package reached
// through different symlinks is indexed once. Entries are never invalidated: installed
// packages are assumed not to change while the server runs.
package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tender-barbarian/npm-lens/internal/symtab"
)

// Builder produces the symbols for a package on a cache miss.
type Builder interface {
	Index(ctx context.Context, pkg symtab.Package) ([]symtab.Symbol, error)
}

// Cache holds one immutable symbol slice per canonical package directory.
// Callers must treat returned slices as read-only.
type Cache struct {
	builder Builder
	log     logrus.FieldLogger

	mu      sync.RWMutex
	entries map[string][]symtab.Symbol
	group   singleflight.Group
}

// New creates an empty cache that fills misses with b.
func New(b Builder, log logrus.FieldLogger) *Cache {
	return &Cache{
		builder: b,
		log:     log.WithField("component", "cache"),
		entries: make(map[string][]symtab.Symbol),
	}
}

// Key returns the canonical identity of dir: its absolute, symlink-resolved path.
// When dir cannot be resolved the cleaned absolute path is used instead.
func Key(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// GetOrBuild returns the cached symbols for pkg, building them on first use.
// Concurrent misses for the same package share one build. A build is not
// cancelled when the caller that started it goes away.
func (c *Cache) GetOrBuild(ctx context.Context, pkg symtab.Package) ([]symtab.Symbol, error) {
	key := Key(pkg.Dir)
	if syms, ok := c.lookup(key); ok {
		return syms, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if syms, ok := c.lookup(key); ok {
			return syms, nil
		}
		syms, err := c.builder.Index(context.WithoutCancel(ctx), pkg)
		if err != nil {
			return nil, err
		}
		if syms == nil {
			syms = []symtab.Symbol{}
		}

		c.mu.Lock()
		c.entries[key] = syms
		c.mu.Unlock()

		c.log.WithFields(logrus.Fields{"package": pkg.Name, "key": key, "symbols": len(syms)}).
			Info("cached package index")
		return syms, nil
	})
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", pkg.Name, err)
	}
	return v.([]symtab.Symbol), nil
}

// Len reports how many packages are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) ([]symtab.Symbol, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	syms, ok := c.entries[key]
	return syms, ok
}
