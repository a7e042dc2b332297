// Package storage implements the hierarchical document and asset store.
//
// The store maps untrusted relative paths onto a filesystem root, mutates a
// tree of markdown documents and directories, and owns the reserved asset
// subtree. It keeps no in-memory cache of the document tree: every operation
// reflects the current on-disk state. Concurrent operations against the same
// path are serialized with advisory per-path locks; cross-process access is
// out of scope, the root is assumed to be owned by one service instance.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is a document and asset store rooted at a single directory.
type Store struct {
	cfg   Config
	locks *pathLocks
}

// New creates a store, creating the root and the reserved asset and metadata
// directories as needed.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(cfg.RootDir, cfg.AssetDir, cfg.MetaDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directories: %w", err)
	}
	return &Store{
		cfg:   cfg,
		locks: newPathLocks(),
	}, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string {
	return s.cfg.RootDir
}

// AssetRoot returns the absolute path of the reserved asset subtree.
func (s *Store) AssetRoot() string {
	return filepath.Join(s.cfg.RootDir, s.cfg.AssetDir)
}

// MetaRoot returns the absolute path of the reserved metadata area within
// the asset subtree.
func (s *Store) MetaRoot() string {
	return filepath.Join(s.cfg.RootDir, s.cfg.AssetDir, s.cfg.MetaDir)
}
