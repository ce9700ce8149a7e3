package merge

import (
	"bytes"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stax.dev/stax/internal/git"
)

// Result is the outcome of a tree-level merge. Conflicts lists the paths
// that did not merge cleanly; for those paths the result tree carries
// conflict markers (or the surviving side, for binary and delete/modify
// conflicts).
type Result struct {
	Tree      plumbing.Hash
	Conflicts []string
}

// Clean reports whether the merge produced no conflicts
func (r Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// Engine performs three-way merges against a store
type Engine struct {
	store *git.Store
}

// NewEngine creates a merge engine over the given store
func NewEngine(store *git.Store) *Engine {
	return &Engine{store: store}
}

// Apply merges the patch's change onto the given tree. The change is the
// difference between the patch commit's tree and its first parent's tree.
func (e *Engine) Apply(onto plumbing.Hash, patch *object.Commit) (Result, error) {
	base, err := e.PatchBaseTree(patch)
	if err != nil {
		return Result{}, err
	}
	return e.MergeTrees(base, onto, patch.TreeHash)
}

// Unapply removes the patch's change from the given tree: the inverse of
// Apply, run by swapping the base and theirs roles.
func (e *Engine) Unapply(from plumbing.Hash, patch *object.Commit) (Result, error) {
	parent, err := e.PatchBaseTree(patch)
	if err != nil {
		return Result{}, err
	}
	return e.MergeTrees(patch.TreeHash, from, parent)
}

// PatchBaseTree returns the tree of the patch commit's first parent, the
// base side of the patch's change. A parentless patch has an empty base.
func (e *Engine) PatchBaseTree(patch *object.Commit) (plumbing.Hash, error) {
	if patch.NumParents() == 0 {
		return plumbing.ZeroHash, nil
	}
	parent, err := e.store.Commit(patch.ParentHashes[0])
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return parent.TreeHash, nil
}

// MergeTrees three-way-merges ours and theirs against base, per path.
// Paths merge independently; the final tree assembly is deterministic
// regardless of evaluation order.
func (e *Engine) MergeTrees(base, ours, theirs plumbing.Hash) (Result, error) {
	if ours == theirs {
		return Result{Tree: ours}, nil
	}
	if base == ours {
		return Result{Tree: theirs}, nil
	}
	if base == theirs {
		return Result{Tree: ours}, nil
	}

	baseMap, err := e.store.FlattenTree(base)
	if err != nil {
		return Result{}, err
	}
	oursMap, err := e.store.FlattenTree(ours)
	if err != nil {
		return Result{}, err
	}
	theirsMap, err := e.store.FlattenTree(theirs)
	if err != nil {
		return Result{}, err
	}

	paths := make(map[string]struct{})
	for p := range baseMap {
		paths[p] = struct{}{}
	}
	for p := range oursMap {
		paths[p] = struct{}{}
	}
	for p := range theirsMap {
		paths[p] = struct{}{}
	}

	merged := make(map[string]git.PathEntry)
	var conflicts []string
	for path := range paths {
		entry, conflicted, err := e.mergePath(path, lookup(baseMap, path), lookup(oursMap, path), lookup(theirsMap, path))
		if err != nil {
			return Result{}, err
		}
		if entry != nil {
			merged[path] = *entry
		}
		if conflicted {
			conflicts = append(conflicts, path)
		}
	}
	sort.Strings(conflicts)

	tree, err := e.store.BuildTree(merged)
	if err != nil {
		return Result{}, err
	}
	return Result{Tree: tree, Conflicts: conflicts}, nil
}

func lookup(m map[string]git.PathEntry, path string) *git.PathEntry {
	if e, ok := m[path]; ok {
		return &e
	}
	return nil
}

func sameEntry(a, b *git.PathEntry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Hash == b.Hash && a.Mode == b.Mode
}

// mergePath resolves a single path. A nil returned entry means the path is
// absent from the merged tree.
func (e *Engine) mergePath(path string, base, ours, theirs *git.PathEntry) (*git.PathEntry, bool, error) {
	switch {
	case sameEntry(ours, theirs):
		return ours, false, nil
	case sameEntry(base, ours):
		return theirs, false, nil
	case sameEntry(base, theirs):
		return ours, false, nil
	}

	// Delete/modify: keep the surviving side and flag the path.
	if ours == nil {
		return theirs, true, nil
	}
	if theirs == nil {
		return ours, true, nil
	}

	mode, modeConflict := mergeMode(base, ours, theirs)

	// Symlinks and gitlinks have no meaningful content merge.
	if ours.Mode == filemode.Symlink || theirs.Mode == filemode.Symlink ||
		ours.Mode == filemode.Submodule || theirs.Mode == filemode.Submodule {
		return ours, true, nil
	}

	var baseData []byte
	var err error
	if base != nil {
		baseData, err = e.store.BlobBytes(base.Hash)
		if err != nil {
			return nil, false, err
		}
	}
	oursData, err := e.store.BlobBytes(ours.Hash)
	if err != nil {
		return nil, false, err
	}
	theirsData, err := e.store.BlobBytes(theirs.Hash)
	if err != nil {
		return nil, false, err
	}

	// Binary content that diverged on both sides never auto-resolves.
	if isBinary(baseData) || isBinary(oursData) || isBinary(theirsData) {
		return ours, true, nil
	}

	mergedData, clean := Merge3(baseData, oursData, theirsData, "current", "patch")
	blob, err := e.store.WriteBlob(mergedData)
	if err != nil {
		return nil, false, err
	}
	return &git.PathEntry{Mode: mode, Hash: blob}, !clean || modeConflict, nil
}

// mergeMode carries a one-sided mode change through and flags a double
// mode change as a conflict, keeping ours.
func mergeMode(base, ours, theirs *git.PathEntry) (filemode.FileMode, bool) {
	if ours.Mode == theirs.Mode {
		return ours.Mode, false
	}
	if base != nil {
		if ours.Mode == base.Mode {
			return theirs.Mode, false
		}
		if theirs.Mode == base.Mode {
			return ours.Mode, false
		}
	}
	return ours.Mode, true
}

// isBinary applies git's heuristic: a NUL byte in the leading bytes.
func isBinary(data []byte) bool {
	const probe = 8000
	if len(data) > probe {
		data = data[:probe]
	}
	return bytes.IndexByte(data, 0) >= 0
}
