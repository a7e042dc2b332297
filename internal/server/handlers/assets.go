// Handles upload, listing, serving and deletion of binary assets.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	apierrors "github.com/mdvault/mdvault/internal/errors"
	"github.com/mdvault/mdvault/internal/models"
	"github.com/mdvault/mdvault/internal/storage/assets"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 64 << 20

func init() {
	// Register MIME types not in the standard library.
	for _, pair := range [][2]string{
		{".md", "text/markdown"},
		{".webp", "image/webp"},
	} {
		if err := mime.AddExtensionType(pair[0], pair[1]); err != nil {
			panic(err)
		}
	}
}

// AssetHandler handles asset HTTP requests.
type AssetHandler struct {
	svc *assets.Service
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(svc *assets.Service) *AssetHandler {
	return &AssetHandler{svc: svc}
}

// UploadResponse carries the new asset record plus warning-class failures
// (a shard that could not be written) that did not abort the upload.
type UploadResponse struct {
	Asset    *models.AssetRecord `json:"asset"`
	Warnings []string            `json:"warnings,omitempty"`
}

// ListAssetsRequest lists one folder of the asset subtree.
type ListAssetsRequest struct {
	Folder string `query:"folder"`
}

// ListAssetsResponse is a response containing asset records.
type ListAssetsResponse struct {
	Assets []*models.AssetRecord `json:"assets"`
}

// DeleteAssetRequest deletes one asset by its subtree-relative path.
type DeleteAssetRequest struct {
	Path string `path:"path"`
}

// DeleteAssetResponse acknowledges the deletion, with pruning warnings.
type DeleteAssetResponse struct {
	Path     string   `json:"path"`
	Warnings []string `json:"warnings,omitempty"`
}

// RecoverNameRequest asks for the best-effort display name of a stored name.
type RecoverNameRequest struct {
	StoredName string `query:"storedName"`
}

// RecoverNameResponse carries the recovered display name.
type RecoverNameResponse struct {
	DisplayName string `json:"displayName"`
}

// UploadHandler ingests an uploaded binary (multipart/form-data, field
// "file", optional field "folder"). This is a raw http.HandlerFunc because
// it handles multipart forms.
func (h *AssetHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErrorJSON(w, apierrors.BadRequest("invalid multipart form").Wrap(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorJSON(w, apierrors.MissingField("file"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorJSON(w, apierrors.BadRequest("failed to read upload").Wrap(err))
		return
	}

	rec, warnings, err := h.svc.Ingest(ctx, data, header.Filename, r.FormValue("folder"))
	if err != nil {
		writeErrorJSON(w, storeError(err, r.FormValue("folder")))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&UploadResponse{Asset: rec, Warnings: warnings}); err != nil {
		slog.ErrorContext(ctx, "Failed to encode upload response", "err", err)
	}
}

// ServeHandler streams an asset binary. Raw handler so http.ServeFile can do
// range requests and content types.
func (h *AssetHandler) ServeHandler(w http.ResponseWriter, r *http.Request) {
	abs, err := h.svc.Resolve(r.PathValue("path"))
	if err != nil {
		writeErrorJSON(w, storeError(err, r.PathValue("path")))
		return
	}
	http.ServeFile(w, r, abs)
}

// ListAssets lists the assets in one folder.
func (h *AssetHandler) ListAssets(ctx context.Context, req ListAssetsRequest) (*ListAssetsResponse, error) {
	records, err := h.svc.List(ctx, req.Folder)
	if err != nil {
		return nil, storeError(err, req.Folder)
	}
	if records == nil {
		records = []*models.AssetRecord{}
	}
	return &ListAssetsResponse{Assets: records}, nil
}

// DeleteAsset removes an asset file and prunes its shard entries.
func (h *AssetHandler) DeleteAsset(ctx context.Context, req DeleteAssetRequest) (*DeleteAssetResponse, error) {
	warnings, err := h.svc.Delete(req.Path)
	if err != nil {
		return nil, storeError(err, req.Path)
	}
	return &DeleteAssetResponse{Path: req.Path, Warnings: warnings}, nil
}

// RecoverName returns the best-effort display name for a stored name.
func (h *AssetHandler) RecoverName(ctx context.Context, req RecoverNameRequest) (*RecoverNameResponse, error) {
	if req.StoredName == "" {
		return nil, apierrors.MissingField("storedName")
	}
	return &RecoverNameResponse{DisplayName: assets.RecoverDisplayName(req.StoredName)}, nil
}

// writeErrorJSON writes an APIError (or generic error) as the standard
// error envelope.
func writeErrorJSON(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	code := apierrors.ErrInternal
	var details map[string]any

	var ewsErr apierrors.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		code = ewsErr.Code()
		details = ewsErr.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	}
	if len(details) > 0 {
		response["details"] = details
	}
	_ = json.NewEncoder(w).Encode(response)
}
