package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mdvault/mdvault/internal/models"
)

const markdownExt = ".md"

// placeholderFrontMatter is the YAML front matter written into freshly
// created documents when the caller supplies no content.
type placeholderFrontMatter struct {
	Title   string `yaml:"title"`
	Created string `yaml:"created"`
}

// List recursively walks the store root and returns directories and markdown
// files as a flat list, ordered by walk order (lexical within each
// directory). The reserved asset subtree is excluded; non-markdown files are
// invisible to this store.
func (s *Store) List(ctx context.Context) ([]models.DocumentNode, error) {
	var nodes []models.DocumentNode
	assetRoot := s.AssetRoot()
	err := filepath.WalkDir(s.cfg.RootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.cfg.RootDir {
			return nil
		}
		if p == assetRoot {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(s.cfg.RootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !d.IsDir() && !strings.HasSuffix(d.Name(), markdownExt) {
			return nil
		}
		nodes = append(nodes, models.DocumentNode{
			Name:  d.Name(),
			Path:  rel,
			IsDir: d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk store root: %w", err)
	}
	return nodes, nil
}

// Tree lists the store and builds the nested tree in one call.
func (s *Store) Tree(ctx context.Context) (*models.TreeNode, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(entries), nil
}

// Read returns the content of a markdown file. Fails ErrNotFound when the
// path is absent or is a directory.
func (s *Store) Read(rel string) (string, error) {
	abs, cleaned, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if s.inAssetSubtree(cleaned) {
		return "", ErrInvalidPath
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// Create writes a new markdown file, failing ErrAlreadyExists if the target
// exists. Intermediate directories are created as needed. When content is
// empty, a templated placeholder is written instead.
func (s *Store) Create(rel, content string) error {
	abs, cleaned, err := s.resolveDocument(rel)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(cleaned)
	defer unlock()

	if _, err := os.Stat(abs); err == nil {
		return ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check document existence: %w", err)
	}

	if content == "" {
		content = placeholderDocument(cleaned)
	}
	return writeFileMkdir(abs, []byte(content))
}

// Write is the create-or-overwrite upsert, distinct from Create: no
// existence check, intermediate directories created as needed.
func (s *Store) Write(rel, content string) error {
	abs, cleaned, err := s.resolveDocument(rel)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(cleaned)
	defer unlock()

	return writeFileMkdir(abs, []byte(content))
}

// Delete removes a single markdown file. Fails ErrNotFound when the path is
// absent or is a directory; directory deletion goes through the directory
// lifecycle operations.
func (s *Store) Delete(rel string) error {
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
		return fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return ErrNotFound
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// resolveDocument resolves a path that must denote a markdown file outside
// the reserved asset subtree.
func (s *Store) resolveDocument(rel string) (string, string, error) {
	abs, cleaned, err := s.resolve(rel)
	if err != nil {
		return "", "", err
	}
	if s.inAssetSubtree(cleaned) {
		return "", "", ErrInvalidPath
	}
	if !strings.HasSuffix(cleaned, markdownExt) {
		return "", "", ErrInvalidPath
	}
	return abs, cleaned, nil
}

func writeFileMkdir(abs string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// placeholderDocument renders the default content for a new document.
func placeholderDocument(cleaned string) string {
	title := strings.TrimSuffix(path.Base(cleaned), markdownExt)
	fm, err := yaml.Marshal(placeholderFrontMatter{
		Title:   title,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the document usable anyway.
		return "# " + title + "\n"
	}
	return "---\n" + string(fm) + "---\n\n# " + title + "\n"
}
