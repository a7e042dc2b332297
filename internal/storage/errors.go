package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath reports a path that is malformed or would escape the
	// store root. Always rejected before touching storage.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotFound reports an absent document or directory.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports a creation that would clobber an existing entry.
	ErrAlreadyExists = errors.New("already exists")
	// ErrTargetExists reports a move destination that is already occupied.
	// Moves never silently overwrite.
	ErrTargetExists = errors.New("target already exists")
	// ErrNotADirectory reports a directory operation on a non-directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrNotEmpty reports a plain delete of a non-empty directory. The caller
	// must pick a policy.
	ErrNotEmpty = errors.New("directory not empty")
	// ErrMetadataUnavailable reports a shard that failed to load or parse.
	// Treated as empty and logged, never fatal to the triggering operation.
	ErrMetadataUnavailable = errors.New("metadata unavailable")
)

// ConflictError reports that a relocate pre-flight scan found a child whose
// destination already exists. It is raised before any child is moved.
type ConflictError struct {
	Child string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("destination already exists for %q", e.Child)
}

// PartialMoveError reports a relocate that failed after some children had
// already been moved. Moved lists them so the caller can reconcile manually.
type PartialMoveError struct {
	Moved []string
	Child string
	Err   error
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("relocate failed at %q after moving [%s]: %v", e.Child, strings.Join(e.Moved, ", "), e.Err)
}

func (e *PartialMoveError) Unwrap() error {
	return e.Err
}
