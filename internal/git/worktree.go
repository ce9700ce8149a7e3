package git

import (
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"stax.dev/stax/internal/errors"
)

// CheckoutHard resets the worktree and index to the given commit. Used
// after a committed transaction to materialize the new head, including
// conflict markers when the head tree is a conflicted merge result.
func (s *Store) CheckoutHard(commit plumbing.Hash) error {
	wt, err := s.repo.Worktree()
	if err != nil {
		return errors.NewStoreError("open worktree", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: commit, Mode: gogit.HardReset}); err != nil {
		return errors.NewStoreError("checkout", err)
	}
	return nil
}

// WorktreeDelta captures the tracked changes in the worktree relative to
// HEAD as blob writes. The returned map has a nil entry for deleted paths.
// Untracked files are ignored; staged additions are included.
func (s *Store) WorktreeDelta() (map[string]*PathEntry, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, errors.NewStoreError("open worktree", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, errors.NewStoreError("worktree status", err)
	}

	delta := make(map[string]*PathEntry)
	for path, st := range status {
		if st.Staging == gogit.Untracked && st.Worktree == gogit.Untracked {
			continue
		}
		if st.Staging == gogit.Unmodified && st.Worktree == gogit.Unmodified {
			continue
		}
		if st.Worktree == gogit.Deleted || st.Staging == gogit.Deleted {
			delta[path] = nil
			continue
		}

		entry, err := s.blobFromWorkFile(path)
		if err != nil {
			return nil, err
		}
		delta[path] = entry
	}
	return delta, nil
}

// ApplyDelta overlays a worktree delta onto a tree and returns the new
// tree hash.
func (s *Store) ApplyDelta(tree plumbing.Hash, delta map[string]*PathEntry) (plumbing.Hash, error) {
	paths, err := s.FlattenTree(tree)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for path, entry := range delta {
		if entry == nil {
			delete(paths, path)
		} else {
			paths[path] = *entry
		}
	}
	return s.BuildTree(paths)
}

func (s *Store) blobFromWorkFile(path string) (*PathEntry, error) {
	full := filepath.Join(s.root, path)
	fi, err := os.Lstat(full)
	if err != nil {
		return nil, errors.NewStoreError("stat "+path, err)
	}

	mode := filemode.Regular
	var data []byte
	if fi.Mode()&os.ModeSymlink != 0 {
		mode = filemode.Symlink
		target, err := os.Readlink(full)
		if err != nil {
			return nil, errors.NewStoreError("readlink "+path, err)
		}
		data = []byte(target)
	} else {
		if fi.Mode()&0o111 != 0 {
			mode = filemode.Executable
		}
		data, err = os.ReadFile(full)
		if err != nil {
			return nil, errors.NewStoreError("read "+path, err)
		}
	}

	h, err := s.WriteBlob(data)
	if err != nil {
		return nil, err
	}
	return &PathEntry{Mode: mode, Hash: h}, nil
}
