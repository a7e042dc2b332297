package handlers

import (
	"context"

	apierrors "github.com/mdvault/mdvault/internal/errors"
	"github.com/mdvault/mdvault/internal/models"
	"github.com/mdvault/mdvault/internal/storage"
)

// DocumentHandler handles markdown document HTTP requests.
type DocumentHandler struct {
	store *storage.Store
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(store *storage.Store) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// ListDocumentsRequest is a request to list all documents.
type ListDocumentsRequest struct{}

// ListDocumentsResponse carries the flat entry list and the built tree.
type ListDocumentsResponse struct {
	Entries []models.DocumentNode `json:"entries"`
	Tree    *models.TreeNode      `json:"tree"`
}

// ReadDocumentRequest is a request to read one document.
type ReadDocumentRequest struct {
	Path string `path:"path"`
}

// DocumentResponse is a document with its content.
type DocumentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CreateDocumentRequest is a request to create a document. Content is
// optional; an empty content gets the templated placeholder.
type CreateDocumentRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WriteDocumentRequest is the create-or-overwrite upsert request.
type WriteDocumentRequest struct {
	Path    string `path:"path"`
	Content string `json:"content"`
}

// DeleteDocumentRequest is a request to delete one document.
type DeleteDocumentRequest struct {
	Path string `path:"path"`
}

// PathResponse acknowledges an operation on one path.
type PathResponse struct {
	Path string `json:"path"`
}

// MoveEntryRequest is a request to relocate a file or directory.
type MoveEntryRequest struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

// MoveEntryResponse acknowledges a completed move.
type MoveEntryResponse struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

// ListDocuments returns all directories and markdown files under the store
// root, with the nested tree built from them.
func (h *DocumentHandler) ListDocuments(ctx context.Context, req ListDocumentsRequest) (*ListDocumentsResponse, error) {
	entries, err := h.store.List(ctx)
	if err != nil {
		return nil, storeError(err, "")
	}
	return &ListDocumentsResponse{
		Entries: entries,
		Tree:    storage.BuildTree(entries),
	}, nil
}

// ReadDocument returns the content of one document.
func (h *DocumentHandler) ReadDocument(ctx context.Context, req ReadDocumentRequest) (*DocumentResponse, error) {
	content, err := h.store.Read(req.Path)
	if err != nil {
		return nil, storeError(err, req.Path)
	}
	return &DocumentResponse{Path: req.Path, Content: content}, nil
}

// CreateDocument creates a document, failing when the target exists.
func (h *DocumentHandler) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*PathResponse, error) {
	if req.Path == "" {
		return nil, apierrors.MissingField("path")
	}
	if err := h.store.Create(req.Path, req.Content); err != nil {
		return nil, storeError(err, req.Path)
	}
	return &PathResponse{Path: req.Path}, nil
}

// WriteDocument creates or overwrites a document.
func (h *DocumentHandler) WriteDocument(ctx context.Context, req WriteDocumentRequest) (*PathResponse, error) {
	if err := h.store.Write(req.Path, req.Content); err != nil {
		return nil, storeError(err, req.Path)
	}
	return &PathResponse{Path: req.Path}, nil
}

// DeleteDocument removes a single document file.
func (h *DocumentHandler) DeleteDocument(ctx context.Context, req DeleteDocumentRequest) (*PathResponse, error) {
	if err := h.store.Delete(req.Path); err != nil {
		return nil, storeError(err, req.Path)
	}
	return &PathResponse{Path: req.Path}, nil
}

// MoveEntry relocates a file or directory without overwriting.
func (h *DocumentHandler) MoveEntry(ctx context.Context, req MoveEntryRequest) (*MoveEntryResponse, error) {
	if req.OldPath == "" {
		return nil, apierrors.MissingField("oldPath")
	}
	if req.NewPath == "" {
		return nil, apierrors.MissingField("newPath")
	}
	if err := h.store.Move(req.OldPath, req.NewPath); err != nil {
		return nil, storeError(err, req.OldPath)
	}
	return &MoveEntryResponse{OldPath: req.OldPath, NewPath: req.NewPath}, nil
}
