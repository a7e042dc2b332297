package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Move relocates a file or directory to a new path. The source must exist
// (ErrNotFound) and the target must not (ErrTargetExists); a move never
// silently overwrites. The rename is a single filesystem operation; there is
// no cross-volume copy fallback, a failed rename is reported as-is.
func (s *Store) Move(oldRel, newRel string) error {
	srcAbs, srcRel, err := s.resolve(oldRel)
	if err != nil {
		return err
	}
	dstAbs, dstRel, err := s.resolve(newRel)
	if err != nil {
		return err
	}
	if s.inAssetSubtree(srcRel) || s.inAssetSubtree(dstRel) {
		return ErrInvalidPath
	}
	// Moving a directory into itself would orphan it.
	if dstRel == srcRel || strings.HasPrefix(dstRel, srcRel+"/") {
		return ErrInvalidPath
	}

	unlock := s.locks.lockPair(srcRel, dstRel)
	defer unlock()

	if _, err := os.Stat(srcAbs); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if _, err := os.Stat(dstAbs); err == nil {
		return ErrTargetExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check target: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dstAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create target parent: %w", err)
	}
	if err := os.Rename(srcAbs, dstAbs); err != nil {
		return fmt.Errorf("failed to move %q to %q: %w", srcRel, dstRel, err)
	}
	return nil
}
