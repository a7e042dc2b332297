package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdvault/mdvault/internal/models"
)

// CreateDir creates a directory, failing ErrAlreadyExists if an entry of any
// kind already occupies the path. Intermediate directories are created.
func (s *Store) CreateDir(rel string) error {
	abs, cleaned, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if s.inAssetSubtree(cleaned) {
		return ErrInvalidPath
	}

	unlock := s.locks.lock(cleaned)
	defer unlock()

	if _, err := os.Stat(abs); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check directory existence: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// ListContents returns a shallow listing of a directory, split into file and
// directory names. Used by callers to decide whether a delete needs a policy.
func (s *Store) ListContents(rel string) (*models.DirectoryListing, error) {
	abs, cleaned, err := s.resolveMaybeRoot(rel)
	if err != nil {
		return nil, err
	}
	if s.inAssetSubtree(cleaned) {
		return nil, ErrInvalidPath
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	listing := &models.DirectoryListing{Files: []string{}, Directories: []string{}}
	for _, e := range entries {
		if cleaned == "" && e.Name() == s.cfg.AssetDir && e.IsDir() {
			continue
		}
		if e.IsDir() {
			listing.Directories = append(listing.Directories, e.Name())
		} else {
			listing.Files = append(listing.Files, e.Name())
		}
	}
	return listing, nil
}

// DeleteEmptyDir removes a directory only if it is empty. This is the quick
// delete path used when the caller already confirmed emptiness.
func (s *Store) DeleteEmptyDir(rel string) error {
	abs, cleaned, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if s.inAssetSubtree(cleaned) {
		return ErrInvalidPath
	}

	unlock := s.locks.lock(cleaned)
	defer unlock()

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return ErrNotADirectory
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}
	if len(entries) > 0 {
		return ErrNotEmpty
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}
	return nil
}

// DeleteDirWithPolicy deletes a non-empty directory under an explicit policy.
//
// Relocate moves every direct child of the directory under target ("" means
// the store root), then removes the now-empty directory. The destinations of
// all children are checked before anything moves; a collision aborts the
// whole operation with a ConflictError naming the offending child. The scan
// and the moves are not atomic: a failure mid-sequence leaves already-moved
// children in place and reports them via PartialMoveError.
//
// Purge removes the directory and everything beneath it unconditionally.
func (s *Store) DeleteDirWithPolicy(ctx context.Context, rel string, policy models.DeletePolicy, target string) error {
	abs, cleaned, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if s.inAssetSubtree(cleaned) {
		return ErrInvalidPath
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return ErrNotADirectory
	}

	switch policy {
	case models.DeletePolicyPurge:
		unlock := s.locks.lock(cleaned)
		defer unlock()
		if err := os.RemoveAll(abs); err != nil {
			return fmt.Errorf("failed to purge directory: %w", err)
		}
		return nil
	case models.DeletePolicyRelocate:
		return s.relocateChildren(ctx, abs, cleaned, target)
	default:
		return fmt.Errorf("unknown delete policy %q", policy)
	}
}

func (s *Store) relocateChildren(ctx context.Context, srcAbs, srcRel, target string) error {
	dstAbs, dstRel, err := s.resolveMaybeRoot(target)
	if err != nil {
		return err
	}
	if s.inAssetSubtree(dstRel) {
		return ErrInvalidPath
	}
	// A target inside the directory being deleted can never work.
	if dstRel == srcRel || strings.HasPrefix(dstRel, srcRel+"/") {
		return ErrInvalidPath
	}

	unlock := s.locks.lockPair(srcRel, orRoot(dstRel))
	defer unlock()

	entries, err := os.ReadDir(srcAbs)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	// Pre-flight conflict scan: a partial relocation leaves the tree in a
	// confusing mixed state, so every destination is confirmed clear before
	// anything moves.
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dstAbs, name)); err == nil {
			return &ConflictError{Child: name}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check destination for %q: %w", name, err)
		}
	}

	if err := os.MkdirAll(dstAbs, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	var moved []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return &PartialMoveError{Moved: moved, Child: name, Err: err}
		}
		if err := os.Rename(filepath.Join(srcAbs, name), filepath.Join(dstAbs, name)); err != nil {
			return &PartialMoveError{Moved: moved, Child: name, Err: err}
		}
		moved = append(moved, name)
	}

	if err := os.Remove(srcAbs); err != nil {
		return fmt.Errorf("failed to remove emptied directory: %w", err)
	}
	return nil
}

// orRoot maps the empty relative path to a stable lock key for the root.
func orRoot(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
