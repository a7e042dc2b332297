package storage

import (
	"testing"

	"github.com/mdvault/mdvault/internal/models"
)

func findChild(node *models.TreeNode, name string) *models.TreeNode {
	for _, c := range node.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestBuildTree(t *testing.T) {
	t.Run("ImplicitParentDirectory", func(t *testing.T) {
		tree := BuildTree([]models.DocumentNode{
			{Name: "b.md", Path: "a/b.md", IsDir: false},
		})
		a := findChild(tree, "a")
		if a == nil || !a.IsDir {
			t.Fatalf("expected directory %q at root, got %+v", "a", a)
		}
		b := findChild(a, "b.md")
		if b == nil || b.IsDir {
			t.Fatalf("expected file %q under a, got %+v", "b.md", b)
		}
	})

	t.Run("ExplicitParentSameShape", func(t *testing.T) {
		tree := BuildTree([]models.DocumentNode{
			{Name: "a", Path: "a", IsDir: true},
			{Name: "b.md", Path: "a/b.md", IsDir: false},
		})
		a := findChild(tree, "a")
		if a == nil || !a.IsDir {
			t.Fatalf("expected directory %q at root, got %+v", "a", a)
		}
		if b := findChild(a, "b.md"); b == nil || b.IsDir {
			t.Fatalf("expected file %q under a, got %+v", "b.md", b)
		}
		if len(tree.Children) != 1 {
			t.Errorf("expected a single root child, got %d", len(tree.Children))
		}
	})

	t.Run("LaterExplicitFlagWins", func(t *testing.T) {
		tree := BuildTree([]models.DocumentNode{
			{Name: "x", Path: "x", IsDir: false},
			{Name: "x", Path: "x", IsDir: true},
		})
		x := findChild(tree, "x")
		if x == nil || !x.IsDir {
			t.Fatalf("expected later directory flag to win, got %+v", x)
		}
	})

	t.Run("DeeperEntryImpliesDirectory", func(t *testing.T) {
		// x arrives as a file first, then a deeper entry implies it is a
		// directory.
		tree := BuildTree([]models.DocumentNode{
			{Name: "x", Path: "x", IsDir: false},
			{Name: "y.md", Path: "x/y.md", IsDir: false},
		})
		x := findChild(tree, "x")
		if x == nil || !x.IsDir {
			t.Fatalf("expected x to become a directory, got %+v", x)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		tree := BuildTree(nil)
		if !tree.IsDir || len(tree.Children) != 0 {
			t.Fatalf("expected empty directory root, got %+v", tree)
		}
	})
}
