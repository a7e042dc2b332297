package storage

import (
	"path/filepath"
	"strings"
)

// CleanRelPath normalizes an untrusted slash-separated relative path.
// It splits on "/", drops empty and "." segments, and rejects any
// parent-traversal segment or segment containing a path separator.
// Returns the normalized slash-separated path, or ErrInvalidPath.
// The empty result is valid here; callers that require a non-empty path
// check for it themselves.
func CleanRelPath(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	var segs []string
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidPath
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, "/"), nil
}

// ResolveUnder validates rel and joins it onto root. The joined path is
// guaranteed to stay lexically inside root. An empty rel resolves to root
// itself.
func ResolveUnder(root, rel string) (string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return filepath.Clean(root), nil
	}
	abs := filepath.Join(root, filepath.FromSlash(cleaned))
	// Belt and braces: CleanRelPath already rejected traversal, but verify
	// the joined path before handing it to the filesystem.
	rootClean := filepath.Clean(root)
	if abs != rootClean && !strings.HasPrefix(abs, rootClean+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return abs, nil
}

// resolve validates rel against the store root and requires a non-empty path.
func (s *Store) resolve(rel string) (string, string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", "", err
	}
	if cleaned == "" {
		return "", "", ErrInvalidPath
	}
	abs, err := ResolveUnder(s.cfg.RootDir, cleaned)
	if err != nil {
		return "", "", err
	}
	return abs, cleaned, nil
}

// resolveMaybeRoot is resolve but permits the empty path, meaning the store
// root itself. Used where the contract treats "" as root, e.g. a relocate
// target.
func (s *Store) resolveMaybeRoot(rel string) (string, string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", "", err
	}
	abs, err := ResolveUnder(s.cfg.RootDir, cleaned)
	if err != nil {
		return "", "", err
	}
	return abs, cleaned, nil
}

// inAssetSubtree reports whether a cleaned relative path is the reserved
// asset subtree or inside it. Those entries are invisible to the document
// store.
func (s *Store) inAssetSubtree(cleaned string) bool {
	return cleaned == s.cfg.AssetDir || strings.HasPrefix(cleaned, s.cfg.AssetDir+"/")
}
