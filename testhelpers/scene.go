// Package testhelpers builds throwaway git repositories with patch stacks
// for tests.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/stack"
)

// Scene is a temporary git repository with one branch and, optionally, an
// initialized patch stack.
type Scene struct {
	T      *testing.T
	Dir    string
	Store  *git.Store
	Branch string
}

var sig = object.Signature{
	Name:  "Test Author",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
}

// NewScene creates a repository on branch main with one initial commit
func NewScene(t *testing.T) *Scene {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}

	s := &Scene{
		T:      t,
		Dir:    dir,
		Store:  git.NewStore(repo, dir),
		Branch: "main",
	}
	s.WriteFile("README.md", "hello\n")
	s.CommitAll("initial commit")
	return s
}

// WriteFile writes a file under the scene's worktree
func (s *Scene) WriteFile(path, content string) {
	s.T.Helper()
	full := filepath.Join(s.Dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		s.T.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		s.T.Fatalf("write %s: %v", path, err)
	}
}

// RemoveFile deletes a file from the worktree
func (s *Scene) RemoveFile(path string) {
	s.T.Helper()
	if err := os.Remove(filepath.Join(s.Dir, path)); err != nil {
		s.T.Fatalf("remove %s: %v", path, err)
	}
}

// StageAll adds every worktree change to the index. New files must be
// staged before a refresh picks them up.
func (s *Scene) StageAll() {
	s.T.Helper()
	wt, err := s.Store.Repo().Worktree()
	if err != nil {
		s.T.Fatalf("open worktree: %v", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		s.T.Fatalf("stage changes: %v", err)
	}
}

// CommitAll stages everything and commits it on the current branch
func (s *Scene) CommitAll(message string) plumbing.Hash {
	s.T.Helper()
	wt, err := s.Store.Repo().Worktree()
	if err != nil {
		s.T.Fatalf("open worktree: %v", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		s.T.Fatalf("stage changes: %v", err)
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: &sig, Committer: &sig})
	if err != nil {
		s.T.Fatalf("commit: %v", err)
	}
	return hash
}

// InitStack starts tracking the scene's branch as a patch stack
func (s *Scene) InitStack() *stack.Stack {
	s.T.Helper()
	stk, err := stack.Initialize(s.Store, s.Branch)
	if err != nil {
		s.T.Fatalf("initialize stack: %v", err)
	}
	return stk
}

// LoadStack loads the current stack state
func (s *Scene) LoadStack() *stack.Stack {
	s.T.Helper()
	stk, err := stack.Load(s.Store, s.Branch)
	if err != nil {
		s.T.Fatalf("load stack: %v", err)
	}
	return stk
}

// Run executes one transaction on the scene's stack
func (s *Scene) Run(message string, fn func(*engine.Transaction) error) *stack.Stack {
	s.T.Helper()
	stk, err := engine.Run(s.Store, s.Branch, message, engine.RunOptions{}, fn)
	if err != nil {
		s.T.Fatalf("run %s: %v", message, err)
	}
	return stk
}

// TreeWith builds a tree object from path to content
func (s *Scene) TreeWith(files map[string]string) plumbing.Hash {
	s.T.Helper()
	paths := make(map[string]git.PathEntry, len(files))
	for path, content := range files {
		blob, err := s.Store.WriteBlob([]byte(content))
		if err != nil {
			s.T.Fatalf("write blob: %v", err)
		}
		paths[path] = git.PathEntry{Mode: filemode.Regular, Hash: blob}
	}
	tree, err := s.Store.BuildTree(paths)
	if err != nil {
		s.T.Fatalf("build tree: %v", err)
	}
	return tree
}

// TreeOverlay layers files on top of an existing tree. An empty content
// string still writes the file; use RemovePath to drop one.
func (s *Scene) TreeOverlay(base plumbing.Hash, files map[string]string) plumbing.Hash {
	s.T.Helper()
	paths, err := s.Store.FlattenTree(base)
	if err != nil {
		s.T.Fatalf("flatten tree: %v", err)
	}
	for path, content := range files {
		blob, err := s.Store.WriteBlob([]byte(content))
		if err != nil {
			s.T.Fatalf("write blob: %v", err)
		}
		paths[path] = git.PathEntry{Mode: filemode.Regular, Hash: blob}
	}
	tree, err := s.Store.BuildTree(paths)
	if err != nil {
		s.T.Fatalf("build tree: %v", err)
	}
	return tree
}

// HeadTree returns the tree of the current stack head
func (s *Scene) HeadTree() plumbing.Hash {
	s.T.Helper()
	stk := s.LoadStack()
	commit, err := s.Store.Commit(stk.Head)
	if err != nil {
		s.T.Fatalf("read head commit: %v", err)
	}
	return commit.TreeHash
}

// AddPatch creates a patch whose content overlays files onto the current
// head, using a new-then-refresh transaction.
func (s *Scene) AddPatch(name string, files map[string]string) *stack.Stack {
	s.T.Helper()
	return s.Run("add "+name, func(t *engine.Transaction) error {
		if err := t.NewPatch(name, name); err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}
		head, err := s.Store.Commit(t.Head())
		if err != nil {
			return err
		}
		return t.RefreshPatch(name, s.TreeOverlay(head.TreeHash, files))
	})
}

// FileAt returns a file's content in the given tree, and whether the path
// exists at all.
func (s *Scene) FileAt(tree plumbing.Hash, path string) (string, bool) {
	s.T.Helper()
	paths, err := s.Store.FlattenTree(tree)
	if err != nil {
		s.T.Fatalf("flatten tree: %v", err)
	}
	entry, ok := paths[path]
	if !ok {
		return "", false
	}
	data, err := s.Store.BlobBytes(entry.Hash)
	if err != nil {
		s.T.Fatalf("read blob: %v", err)
	}
	return string(data), true
}
