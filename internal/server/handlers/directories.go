package handlers

import (
	"context"

	apierrors "github.com/mdvault/mdvault/internal/errors"
	"github.com/mdvault/mdvault/internal/models"
	"github.com/mdvault/mdvault/internal/storage"
)

// DirectoryHandler handles directory lifecycle HTTP requests.
type DirectoryHandler struct {
	store *storage.Store
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(store *storage.Store) *DirectoryHandler {
	return &DirectoryHandler{store: store}
}

// CreateDirectoryRequest is a request to create a directory.
type CreateDirectoryRequest struct {
	Path string `json:"path"`
}

// ListDirectoryRequest is a request for a shallow directory listing.
type ListDirectoryRequest struct {
	Path string `path:"path"`
}

// DeleteDirectoryRequest deletes a directory. Without a policy only an empty
// directory is removed; policy=relocate moves children to target first,
// policy=purge removes everything beneath.
type DeleteDirectoryRequest struct {
	Path   string `path:"path"`
	Policy string `query:"policy"`
	Target string `query:"target"`
}

// CreateDirectory creates a directory, failing when the path is occupied.
func (h *DirectoryHandler) CreateDirectory(ctx context.Context, req CreateDirectoryRequest) (*PathResponse, error) {
	if req.Path == "" {
		return nil, apierrors.MissingField("path")
	}
	if err := h.store.CreateDir(req.Path); err != nil {
		return nil, storeError(err, req.Path)
	}
	return &PathResponse{Path: req.Path}, nil
}

// ListDirectory returns the shallow contents of a directory.
func (h *DirectoryHandler) ListDirectory(ctx context.Context, req ListDirectoryRequest) (*models.DirectoryListing, error) {
	listing, err := h.store.ListContents(req.Path)
	if err != nil {
		return nil, storeError(err, req.Path)
	}
	return listing, nil
}

// DeleteDirectory removes a directory, with or without a policy.
func (h *DirectoryHandler) DeleteDirectory(ctx context.Context, req DeleteDirectoryRequest) (*PathResponse, error) {
	if req.Policy == "" {
		if err := h.store.DeleteEmptyDir(req.Path); err != nil {
			return nil, storeError(err, req.Path)
		}
		return &PathResponse{Path: req.Path}, nil
	}

	policy := models.DeletePolicy(req.Policy)
	if !policy.Valid() {
		return nil, apierrors.BadRequest("policy must be \"relocate\" or \"purge\"")
	}
	if err := h.store.DeleteDirWithPolicy(ctx, req.Path, policy, req.Target); err != nil {
		return nil, storeError(err, req.Path)
	}
	return &PathResponse{Path: req.Path}, nil
}
