package storage

import (
	"strings"

	"github.com/mdvault/mdvault/internal/models"
)

// BuildTree converts a flat list of document entries into a nested tree.
//
// Each entry's path is split into segments; intermediate segments are
// directories by construction (a parent of a deeper entry is always a
// directory), and the final segment takes the entry's own flag. When two
// entries disagree about the same path, the later entry's explicit flag wins.
//
// This is a pure function over the materialized list; children are in
// insertion order, re-sorting is the renderer's business. The caller filters
// out the asset subtree before building.
func BuildTree(entries []models.DocumentNode) *models.TreeNode {
	root := &models.TreeNode{IsDir: true}
	index := map[string]*models.TreeNode{"": root}

	for _, e := range entries {
		segs := strings.Split(e.Path, "/")
		cur := root
		prefix := ""
		for i, seg := range segs {
			if seg == "" {
				continue
			}
			if prefix == "" {
				prefix = seg
			} else {
				prefix += "/" + seg
			}
			node, ok := index[prefix]
			if !ok {
				node = &models.TreeNode{Name: seg, Path: prefix, IsDir: true}
				index[prefix] = node
				cur.Children = append(cur.Children, node)
			}
			if i == len(segs)-1 {
				node.IsDir = e.IsDir
			} else {
				// Implied by a deeper entry.
				node.IsDir = true
			}
			cur = node
		}
	}
	return root
}
