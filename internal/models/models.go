// Package models defines the core data structures used throughout the application.
package models

import "time"

// DocumentNode is one filesystem entry in the document tree: a markdown file
// or a directory. Path is root-relative, slash-separated, with no leading or
// trailing slash.
type DocumentNode struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
}

// TreeNode is a node in the nested tree built from a flat DocumentNode list.
// Files never carry children; directories never carry content.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	IsDir    bool        `json:"isDir"`
	Children []*TreeNode `json:"children,omitempty"`
}

// AssetRecord is the metadata for one uploaded binary asset.
// StoredName is globally unique and immutable once assigned.
// OriginalName is the user-supplied display name and may collide.
type AssetRecord struct {
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	RelativePath string    `json:"relativePath"`
	Size         int64     `json:"size"`
	UploadDate   time.Time `json:"uploadDate"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
}

// ShardEntry is the projection of an AssetRecord kept in the global shard.
type ShardEntry struct {
	StoredName   string    `json:"storedName"`
	OriginalName string    `json:"originalName"`
	RelativePath string    `json:"relativePath"`
	UploadDate   time.Time `json:"uploadDate"`
}

// DirectoryListing is a shallow listing of one directory, used by callers to
// decide whether a delete needs a policy.
type DirectoryListing struct {
	Files       []string `json:"files"`
	Directories []string `json:"directories"`
}

// DeletePolicy selects how a non-empty directory is deleted.
type DeletePolicy string

const (
	// DeletePolicyRelocate moves all direct children elsewhere before
	// removing the now-empty directory.
	DeletePolicyRelocate DeletePolicy = "relocate"
	// DeletePolicyPurge removes the directory and all descendants.
	DeletePolicyPurge DeletePolicy = "purge"
)

// Valid reports whether the policy is one of the known values.
func (p DeletePolicy) Valid() bool {
	return p == DeletePolicyRelocate || p == DeletePolicyPurge
}
