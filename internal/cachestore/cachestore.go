// Package cachestore implements the process-global, content-addressed
// package cache of spec.md §3/§5: downloaded conda package tarballs are
// stored under their content hash, reference-counted while a prefix install
// is using them, and written with single-writer-per-hash semantics so
// concurrent solves that want the same package coalesce into one download.
package cachestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store defines the package cache contract used by the installer layer.
type Store interface {
	Get(hash string) (path string, ok bool)
	Put(ctx context.Context, hash string, src io.Reader) (path string, err error)
	Acquire(hash string) (release func())
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir overrides the cache directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.dir = dir
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager is the on-disk, content-addressed package cache. One Manager is
// shared process-wide across every update pass and every environment
// (spec.md §5 "The package cache is shared; it enforces
// single-writer-per-package-hash internally").
type Manager struct {
	dir    string
	logger *slog.Logger

	group singleflight.Group

	mu   sync.Mutex
	refs map[string]int
}

var _ Store = (*Manager)(nil)

// New creates a package cache rooted at dir (or a platform default, honoring
// PIXI_CACHE_DIR/PIXI_HOME, when dir is unset).
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		logger: slog.Default(),
		refs:   map[string]int{},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.dir == "" {
		m.dir = DefaultDir(os.LookupEnv)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", m.dir, err)
	}

	return m, nil
}

// Get reports whether hash is already cached, returning its path.
func (m *Manager) Get(hash string) (string, bool) {
	path := m.path(hash)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}

	return path, true
}

// Put stores src under hash, deduplicating concurrent writes of the same
// hash into a single write (spec.md §5's single-writer-per-hash guarantee).
// A cache hit short-circuits without draining src.
func (m *Manager) Put(ctx context.Context, hash string, src io.Reader) (string, error) {
	if path, ok := m.Get(hash); ok {
		m.logger.Debug("cache hit", slog.String("hash", hash))
		return path, nil
	}

	v, err, _ := m.group.Do(hash, func() (any, error) {
		if path, ok := m.Get(hash); ok {
			return path, nil
		}

		return m.writeAtomic(ctx, hash, src)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// Acquire marks hash as in-use, returning a release function to call once
// the caller (typically a prefix install) is done with it. The store is
// reference-counted rather than evicting on every release: nothing evicts
// yet, but the count lets a future eviction policy know what's safe to
// reclaim (spec.md §3 "process-global, reference-counted").
func (m *Manager) Acquire(hash string) func() {
	m.mu.Lock()
	m.refs[hash]++
	m.mu.Unlock()

	released := false

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if released {
			return
		}

		released = true
		m.refs[hash]--

		if m.refs[hash] <= 0 {
			delete(m.refs, hash)
		}
	}
}

// RefCount reports how many active acquisitions hold hash, for tests and
// diagnostics.
func (m *Manager) RefCount(hash string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refs[hash]
}

func (m *Manager) path(hash string) string {
	return filepath.Join(m.dir, hash)
}

func (m *Manager) writeAtomic(ctx context.Context, hash string, src io.Reader) (string, error) {
	dstPath := m.path(hash)
	tmpPath := dstPath + ".tmp"

	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file %s: %w", tmpPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)

		return "", fmt.Errorf("writing cache entry %s: %w", hash, err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)

		return "", err
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)

		return "", fmt.Errorf("renaming cache entry %s: %w", hash, err)
	}

	m.logger.Debug("cached", slog.String("hash", hash))

	return dstPath, nil
}

// DefaultDir resolves the platform-appropriate cache directory, honoring
// PIXI_CACHE_DIR and PIXI_HOME overrides ahead of the XDG/platform default
// (spec.md §6 "Environment variables").
func DefaultDir(lookup func(string) (string, bool)) string {
	if dir, ok := lookup("PIXI_CACHE_DIR"); ok && dir != "" {
		return dir
	}

	if home, ok := lookup("PIXI_HOME"); ok && home != "" {
		return filepath.Join(home, "cache", "pkgs")
	}

	if xdg, ok := lookup("XDG_CACHE_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, "pixi", "pkgs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pixi", "pkgs")
	}

	return filepath.Join(home, ".cache", "pixi", "pkgs")
}
