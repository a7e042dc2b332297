package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mdvault/mdvault/internal/models"
	"github.com/mdvault/mdvault/internal/storage"
)

const globalShardFile = "index.json"

// Index maintains three denormalized shard families over asset metadata:
// by lowercase first character of the original name, by year-month of the
// upload date, and one global shard holding a projection of every record.
//
// Each shard document is read-modify-write merged under its own mutex, never
// replaced wholesale. The per-shard locks are what makes N concurrent
// ingests land N entries in every family; without them the second writer
// silently drops the first writer's entry.
type Index struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // shard file -> its writer lock
}

// NewIndex creates an index rooted at the reserved metadata directory.
func NewIndex(dir string) *Index {
	return &Index{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
}

// Record inserts an asset record into all three shard families. Each shard
// write is independent; failures are joined and returned so the caller can
// surface them as warnings, but shards that did succeed stay written.
func (x *Index) Record(rec *models.AssetRecord) error {
	var errs []error
	if err := x.updateShard(x.letterShardPath(rec.OriginalName), func(shard map[string]*models.AssetRecord) {
		shard[rec.StoredName] = rec
	}); err != nil {
		errs = append(errs, fmt.Errorf("letter shard: %w", err))
	}
	if err := x.updateShard(x.monthShardPath(rec.UploadDate), func(shard map[string]*models.AssetRecord) {
		shard[rec.StoredName] = rec
	}); err != nil {
		errs = append(errs, fmt.Errorf("month shard: %w", err))
	}
	if err := x.updateGlobal(func(shard map[string]*models.ShardEntry) {
		shard[rec.StoredName] = &models.ShardEntry{
			StoredName:   rec.StoredName,
			OriginalName: rec.OriginalName,
			RelativePath: rec.RelativePath,
			UploadDate:   rec.UploadDate,
		}
	}); err != nil {
		errs = append(errs, fmt.Errorf("global shard: %w", err))
	}
	return errors.Join(errs...)
}

// Lookup returns the global shard entry for a stored name, or nil when the
// asset is not indexed.
func (x *Index) Lookup(storedName string) (*models.ShardEntry, error) {
	path := filepath.Join(x.dir, globalShardFile)
	lock := x.shardLock(path)
	lock.Lock()
	defer lock.Unlock()

	shard := make(map[string]*models.ShardEntry)
	if err := loadShard(path, &shard); err != nil {
		return nil, err
	}
	return shard[storedName], nil
}

// Remove prunes a stored name from all three shard families. The global
// shard supplies the letter and month keys; when the asset was never
// indexed there is nothing to prune.
func (x *Index) Remove(storedName string) error {
	entry, err := x.Lookup(storedName)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	var errs []error
	if err := x.updateShard(x.letterShardPath(entry.OriginalName), func(shard map[string]*models.AssetRecord) {
		delete(shard, storedName)
	}); err != nil {
		errs = append(errs, fmt.Errorf("letter shard: %w", err))
	}
	if err := x.updateShard(x.monthShardPath(entry.UploadDate), func(shard map[string]*models.AssetRecord) {
		delete(shard, storedName)
	}); err != nil {
		errs = append(errs, fmt.Errorf("month shard: %w", err))
	}
	if err := x.updateGlobal(func(shard map[string]*models.ShardEntry) {
		delete(shard, storedName)
	}); err != nil {
		errs = append(errs, fmt.Errorf("global shard: %w", err))
	}
	return errors.Join(errs...)
}

// GlobalCount returns the number of entries in the global shard.
func (x *Index) GlobalCount() (int, error) {
	path := filepath.Join(x.dir, globalShardFile)
	lock := x.shardLock(path)
	lock.Lock()
	defer lock.Unlock()

	shard := make(map[string]*models.ShardEntry)
	if err := loadShard(path, &shard); err != nil {
		return 0, err
	}
	return len(shard), nil
}

func (x *Index) updateShard(path string, mutate func(map[string]*models.AssetRecord)) error {
	lock := x.shardLock(path)
	lock.Lock()
	defer lock.Unlock()

	shard := make(map[string]*models.AssetRecord)
	if err := loadShard(path, &shard); err != nil {
		return err
	}
	mutate(shard)
	return persistShard(path, shard)
}

func (x *Index) updateGlobal(mutate func(map[string]*models.ShardEntry)) error {
	path := filepath.Join(x.dir, globalShardFile)
	lock := x.shardLock(path)
	lock.Lock()
	defer lock.Unlock()

	shard := make(map[string]*models.ShardEntry)
	if err := loadShard(path, &shard); err != nil {
		return err
	}
	mutate(shard)
	return persistShard(path, shard)
}

// shardLock returns the writer lock for a shard file. The lock set is
// bounded by the shard key space, so entries are never evicted.
func (x *Index) shardLock(path string) *sync.Mutex {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.locks[path]
	if !ok {
		l = &sync.Mutex{}
		x.locks[path] = l
	}
	return l
}

func (x *Index) letterShardPath(originalName string) string {
	return filepath.Join(x.dir, "letters", letterKey(originalName)+".json")
}

func (x *Index) monthShardPath(t time.Time) string {
	return filepath.Join(x.dir, "months", t.UTC().Format("2006-01")+".json")
}

// letterKey is the lowercase first character of the original name. Names
// starting with something unusable as a filename share the "other" shard.
func letterKey(originalName string) string {
	r, size := utf8.DecodeRuneInString(originalName)
	if size == 0 || r == utf8.RuneError {
		return "other"
	}
	r = unicode.ToLower(r)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return "other"
	}
	return string(r)
}

// loadShard reads a shard document into out. An absent or unparsable file
// starts from an empty mapping: first-run tolerance, logged when the file
// existed but would not parse.
func loadShard(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", storage.ErrMetadataUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Warn("shard unparsable, starting from empty mapping", "path", path, "err", err)
	}
	return nil
}

func persistShard(path string, shard any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}
	data, err := json.Marshal(shard)
	if err != nil {
		return fmt.Errorf("failed to marshal shard: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write shard: %w", err)
	}
	return nil
}
