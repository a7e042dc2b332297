package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mdvault/mdvault/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	s, err := storage.New(storage.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewService(s), s
}

// tinyPNG returns a valid 3x2 PNG.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func readShard(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read shard %s: %v", path, err)
	}
	shard := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &shard); err != nil {
		t.Fatalf("failed to parse shard %s: %v", path, err)
	}
	return shard
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("PNGWithUnicodeName", func(t *testing.T) {
		svc, store := newTestService(t)
		rec, warnings, err := svc.Ingest(ctx, tinyPNG(t), "Café Photo.png", "")
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
		if rec.OriginalName != "Café Photo.png" {
			t.Errorf("originalName = %q", rec.OriginalName)
		}
		if !strings.HasSuffix(rec.StoredName, ".png") {
			t.Errorf("storedName %q lost extension", rec.StoredName)
		}
		if strings.Contains(rec.StoredName, " ") {
			t.Errorf("storedName %q contains a space", rec.StoredName)
		}
		if rec.Width != 3 || rec.Height != 2 {
			t.Errorf("dimensions = %dx%d, want 3x2", rec.Width, rec.Height)
		}
		if rec.Size == 0 {
			t.Error("size not recorded")
		}

		// File on disk under the asset subtree.
		if _, err := os.Stat(filepath.Join(store.AssetRoot(), rec.StoredName)); err != nil {
			t.Fatalf("asset file missing: %v", err)
		}

		// All three shard families carry the entry.
		meta := store.MetaRoot()
		for name, path := range map[string]string{
			"letter": filepath.Join(meta, "letters", "c.json"),
			"month":  filepath.Join(meta, "months", time.Now().UTC().Format("2006-01")+".json"),
			"global": filepath.Join(meta, "index.json"),
		} {
			shard := readShard(t, path)
			if _, ok := shard[rec.StoredName]; !ok {
				t.Errorf("%s shard missing entry for %q", name, rec.StoredName)
			}
		}
	})

	t.Run("DistinctStoredNamesForSameUpload", func(t *testing.T) {
		svc, _ := newTestService(t)
		a, _, err := svc.Ingest(ctx, []byte("x"), "dup.bin", "")
		if err != nil {
			t.Fatalf("first ingest: %v", err)
		}
		b, _, err := svc.Ingest(ctx, []byte("x"), "dup.bin", "")
		if err != nil {
			t.Fatalf("second ingest: %v", err)
		}
		if a.StoredName == b.StoredName {
			t.Errorf("stored names collide: %q", a.StoredName)
		}
	})

	t.Run("FolderPlacement", func(t *testing.T) {
		svc, store := newTestService(t)
		rec, _, err := svc.Ingest(ctx, []byte("x"), "f.bin", "sub/deep")
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if !strings.HasPrefix(rec.RelativePath, "assets/sub/deep/") {
			t.Errorf("relativePath = %q", rec.RelativePath)
		}
		if _, err := os.Stat(filepath.Join(store.AssetRoot(), "sub", "deep", rec.StoredName)); err != nil {
			t.Fatalf("asset file missing: %v", err)
		}
	})

	t.Run("EmptyInputsRejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, _, err := svc.Ingest(ctx, nil, "f.bin", ""); err == nil {
			t.Error("empty data accepted")
		}
		if _, _, err := svc.Ingest(ctx, []byte("x"), "", ""); err == nil {
			t.Error("empty name accepted")
		}
	})

	t.Run("MetaAreaFolderRejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, _, err := svc.Ingest(ctx, []byte("x"), "f.bin", ".meta"); !errors.Is(err, storage.ErrInvalidPath) {
			t.Fatalf("expected ErrInvalidPath, got %v", err)
		}
	})

	t.Run("TraversalFolderRejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, _, err := svc.Ingest(ctx, []byte("x"), "f.bin", "../escape"); !errors.Is(err, storage.ErrInvalidPath) {
			t.Fatalf("expected ErrInvalidPath, got %v", err)
		}
	})

	t.Run("ConcurrentIngestsAllLand", func(t *testing.T) {
		svc, _ := newTestService(t)
		const n = 20
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, errs[i] = svc.Ingest(ctx, []byte("x"), fmt.Sprintf("file-%02d.bin", i), "")
			}()
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				t.Fatalf("ingest %d: %v", i, err)
			}
		}
		count, err := svc.Index().GlobalCount()
		if err != nil {
			t.Fatalf("global count: %v", err)
		}
		if count != n {
			t.Errorf("global shard holds %d entries, want %d", count, n)
		}
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("IndexedMetadataWins", func(t *testing.T) {
		svc, _ := newTestService(t)
		rec, _, err := svc.Ingest(ctx, []byte("x"), "My File.bin", "")
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		records, err := svc.List(ctx, "")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].StoredName != rec.StoredName {
			t.Errorf("storedName = %q", records[0].StoredName)
		}
		if records[0].OriginalName != "My File.bin" {
			t.Errorf("originalName = %q, want the indexed original", records[0].OriginalName)
		}
	})

	t.Run("UnindexedFallsBackToRecovery", func(t *testing.T) {
		svc, store := newTestService(t)
		// A file dropped into the subtree outside of Ingest has no index entry.
		stored := "0a0a0a0a-0a0a-0a0a-0a0a-0a0a0a0a0a0a_manual.png"
		if err := os.WriteFile(filepath.Join(store.AssetRoot(), stored), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		records, err := svc.List(ctx, "")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].OriginalName != "manual.png" {
			t.Errorf("originalName = %q, want manual.png", records[0].OriginalName)
		}
	})

	t.Run("MissingFolder", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.List(ctx, "absent"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesFileAndPrunesShards", func(t *testing.T) {
		svc, store := newTestService(t)
		rec, _, err := svc.Ingest(ctx, []byte("x"), "Gone.bin", "")
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		warnings, err := svc.Delete(rec.StoredName)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
		if _, err := os.Stat(filepath.Join(store.AssetRoot(), rec.StoredName)); !os.IsNotExist(err) {
			t.Error("asset file still exists")
		}
		meta := store.MetaRoot()
		for name, path := range map[string]string{
			"letter": filepath.Join(meta, "letters", "g.json"),
			"global": filepath.Join(meta, "index.json"),
		} {
			if shard := readShard(t, path); len(shard) != 0 {
				t.Errorf("%s shard not pruned: %v", name, shard)
			}
		}
	})

	t.Run("Missing", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.Delete("absent.bin"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("MetaAreaUnreachable", func(t *testing.T) {
		svc, _ := newTestService(t)
		if _, err := svc.Delete(".meta/index.json"); !errors.Is(err, storage.ErrInvalidPath) {
			t.Fatalf("expected ErrInvalidPath, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	svc, store := newTestService(t)
	abs, err := svc.Resolve("sub/file.png")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if abs != filepath.Join(store.AssetRoot(), "sub", "file.png") {
		t.Errorf("abs = %q", abs)
	}
	if _, err := svc.Resolve(""); !errors.Is(err, storage.ErrInvalidPath) {
		t.Errorf("empty path accepted: %v", err)
	}
	if _, err := svc.Resolve("../escape"); !errors.Is(err, storage.ErrInvalidPath) {
		t.Errorf("traversal accepted: %v", err)
	}
}

func TestSanitizeBaseName(t *testing.T) {
	got := sanitizeBaseName(`a b/c\d:e*f?g"h<i>j|k`)
	want := "a_b_c_d_e_f_g_h_i_j_k"
	if got != want {
		t.Errorf("sanitizeBaseName = %q, want %q", got, want)
	}
}
