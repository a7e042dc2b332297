// Maps storage-layer failures onto the API error taxonomy.

package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/mdvault/mdvault/internal/errors"
	"github.com/mdvault/mdvault/internal/storage"
)

// storeError translates typed storage failures into APIErrors. path is
// attached as a detail where it helps the caller.
func storeError(err error, path string) error {
	var conflict *storage.ConflictError
	var partial *storage.PartialMoveError
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		return apierrors.InvalidPath(path)
	case errors.Is(err, storage.ErrNotFound):
		return apierrors.NotFound("entry").WithDetail("path", path)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apierrors.Conflict(apierrors.ErrAlreadyExists, "entry already exists").WithDetail("path", path)
	case errors.Is(err, storage.ErrTargetExists):
		return apierrors.Conflict(apierrors.ErrTargetExists, "target already exists").WithDetail("path", path)
	case errors.Is(err, storage.ErrNotADirectory):
		return apierrors.NewAPIError(http.StatusBadRequest, apierrors.ErrNotADirectory, "not a directory").WithDetail("path", path)
	case errors.Is(err, storage.ErrNotEmpty):
		return apierrors.Conflict(apierrors.ErrNotEmptyDirectory, "directory is not empty, a delete policy is required").WithDetail("path", path)
	case errors.As(err, &conflict):
		return apierrors.Conflict(apierrors.ErrMoveConflict, "destination already exists for a child").
			WithDetail("child", conflict.Child)
	case errors.As(err, &partial):
		return apierrors.NewAPIError(http.StatusInternalServerError, apierrors.ErrStorageError, "relocation failed after some children moved").
			WithDetail("moved", partial.Moved).
			WithDetail("child", partial.Child).
			Wrap(partial.Err)
	default:
		return apierrors.NewAPIError(http.StatusInternalServerError, apierrors.ErrStorageError, "storage operation failed").Wrap(err)
	}
}
