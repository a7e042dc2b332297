// Package assets handles uploaded binary assets and their metadata indexes.
//
// Uploaded files are written under the store's reserved asset subtree with a
// collision-free stored name; metadata is denormalized into three shard
// families (by first letter, by year-month, and one global index) kept in
// the reserved metadata area. The asset file is the authoritative side
// effect of an ingest: a failed index write degrades the asset to
// not-yet-discoverable but never fails the upload.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/mdvault/mdvault/internal/models"
	"github.com/mdvault/mdvault/internal/storage"
)

var (
	errNameEmpty = errors.New("asset name cannot be empty")
	errDataEmpty = errors.New("asset data cannot be empty")
)

// Service ingests, lists, serves and deletes uploaded assets.
type Service struct {
	root     string // absolute path of the asset subtree
	metaName string // name of the reserved metadata directory within it
	prefix   string // store-root-relative prefix of the asset subtree
	index    *Index
}

// NewService creates the asset service for a store.
func NewService(store *storage.Store) *Service {
	return &Service{
		root:     store.AssetRoot(),
		metaName: filepath.Base(store.MetaRoot()),
		prefix:   filepath.Base(store.AssetRoot()),
		index:    NewIndex(store.MetaRoot()),
	}
}

// Index exposes the metadata index, mainly for listings and tests.
func (s *Service) Index() *Index {
	return s.index
}

// Ingest stores an uploaded binary under folder (optional, "" means the
// asset subtree root), assigns it a fresh stored name, derives metadata and
// records it in all three shard families.
//
// Returned warnings are degraded-but-recoverable conditions, currently only
// failed shard writes. They never abort the upload.
func (s *Service) Ingest(ctx context.Context, data []byte, originalName, folder string) (*models.AssetRecord, []string, error) {
	if originalName == "" {
		return nil, nil, errNameEmpty
	}
	if len(data) == 0 {
		return nil, nil, errDataEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Browsers and proxies disagree about filename encodings; normalize to
	// NFC so equal-looking names compare equal.
	display := norm.NFC.String(originalName)

	ext := strings.ToLower(filepath.Ext(display))
	base := sanitizeBaseName(strings.TrimSuffix(display, filepath.Ext(display)))
	storedName := uuid.NewString() + "_" + base + ext

	dirAbs, folderClean, err := s.resolveFolder(folder)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dirAbs, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create asset folder: %w", err)
	}

	abs := filepath.Join(dirAbs, storedName)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to write asset: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat asset: %w", err)
	}

	// Undeterminable dimensions are fine; width and height stay zero.
	width, height := probeDimensions(data)

	rec := &models.AssetRecord{
		StoredName:   storedName,
		OriginalName: display,
		RelativePath: path.Join(s.prefix, folderClean, storedName),
		Size:         info.Size(),
		UploadDate:   time.Now().UTC(),
		Width:        width,
		Height:       height,
	}

	var warnings []string
	if err := s.index.Record(rec); err != nil {
		slog.Warn("asset indexed partially", "storedName", storedName, "err", err)
		warnings = append(warnings, fmt.Sprintf("metadata index update failed: %v", err))
	}
	return rec, warnings, nil
}

// List returns the assets in one folder of the asset subtree. Metadata comes
// from the global shard; entries that predate indexing (or whose shard is
// unavailable) fall back to best-effort name recovery from the stored name.
func (s *Service) List(ctx context.Context, folder string) ([]*models.AssetRecord, error) {
	dirAbs, folderClean, err := s.resolveFolder(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirAbs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	var records []*models.AssetRecord
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rec := &models.AssetRecord{
			StoredName:   entry.Name(),
			RelativePath: path.Join(s.prefix, folderClean, entry.Name()),
			Size:         info.Size(),
			UploadDate:   info.ModTime().UTC(),
		}
		if hit, err := s.index.Lookup(entry.Name()); err == nil && hit != nil {
			rec.OriginalName = hit.OriginalName
			rec.UploadDate = hit.UploadDate
		} else {
			// Lossy fallback, never authoritative. Logged so missing-index
			// bugs stay visible.
			rec.OriginalName = RecoverDisplayName(entry.Name())
			slog.Warn("asset missing from index, recovered display name", "storedName", entry.Name())
		}
		records = append(records, rec)
	}
	return records, nil
}

// Resolve maps an asset-subtree-relative path (folder/storedName) to the
// absolute file path, for serving. The reserved metadata area is not
// reachable this way.
func (s *Service) Resolve(rel string) (string, error) {
	cleaned, err := storage.CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	if cleaned == "" || s.inMetaArea(cleaned) {
		return "", storage.ErrInvalidPath
	}
	return storage.ResolveUnder(s.root, cleaned)
}

// Delete removes an asset file and eagerly prunes its entries from all three
// shard families. Pruning is best-effort: a shard that cannot be updated is
// logged and reported as a warning, the file deletion stands.
func (s *Service) Delete(rel string) ([]string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete asset: %w", err)
	}

	var warnings []string
	if err := s.index.Remove(filepath.Base(abs)); err != nil {
		slog.Warn("asset shard pruning incomplete", "storedName", filepath.Base(abs), "err", err)
		warnings = append(warnings, fmt.Sprintf("metadata index pruning failed: %v", err))
	}
	return warnings, nil
}

func (s *Service) resolveFolder(folder string) (string, string, error) {
	cleaned, err := storage.CleanRelPath(folder)
	if err != nil {
		return "", "", err
	}
	if s.inMetaArea(cleaned) {
		return "", "", storage.ErrInvalidPath
	}
	abs, err := storage.ResolveUnder(s.root, cleaned)
	if err != nil {
		return "", "", err
	}
	return abs, cleaned, nil
}

func (s *Service) inMetaArea(cleaned string) bool {
	return cleaned == s.metaName || strings.HasPrefix(cleaned, s.metaName+"/")
}

// sanitizeBaseName substitutes characters that are hostile in filenames.
// The substitution is one-way; RecoverDisplayName does not undo it.
func sanitizeBaseName(base string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, base)
}
