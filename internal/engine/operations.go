package engine

import (
	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/stack"
)

// FloatPatch moves a patch to the top of the applied list. For a buried
// applied patch, every patch above it is rebuilt by unapplying the floated
// patch's change from its tree, bottom-up; a conflicting rebuild stops the
// transaction at that patch and leaves the ones above it unapplied.
func (t *Transaction) FloatPatch(name string) (PushResult, error) {
	if err := t.checkMutable(); err != nil {
		return 0, err
	}
	if !t.cur.Has(name) {
		return 0, errors.NewInvalidOperationError("patch %s does not exist", name)
	}
	if !t.cur.IsApplied(name) {
		return t.PushPatch(name)
	}

	idx := index(t.cur.Applied, name)
	if idx == len(t.cur.Applied)-1 {
		return PushClean, nil // already on top
	}

	patch, err := t.patchCommit(name)
	if err != nil {
		return 0, err
	}

	above := append([]string(nil), t.cur.Applied[idx+1:]...)
	t.cur.Applied = t.cur.Applied[:idx]
	t.cur.Head = t.cur.TopCommit()

	for i, q := range above {
		qc, err := t.patchCommit(q)
		if err != nil {
			return 0, err
		}
		result, err := t.merger.Unapply(qc.TreeHash, patch)
		if err != nil {
			return 0, err
		}
		newCommit, err := t.rewritePatch(qc, t.cur.Head, result.Tree)
		if err != nil {
			return 0, err
		}
		t.cur.Applied = append(t.cur.Applied, q)
		t.cur.Patches[q] = newCommit
		if !result.Clean() {
			rest := append(above[i+1:len(above):len(above)], name)
			t.cur.Unapplied = append(append([]string(nil), rest...), t.cur.Unapplied...)
			t.haltOnConflict(q, "pop", result.Conflicts, newCommit)
			return PushConflict, nil
		}
		t.cur.Head = newCommit
	}

	t.cur.Unapplied = append([]string{name}, t.cur.Unapplied...)
	return t.PushPatch(name)
}

// SinkPatch moves an applied patch down to the given applied position.
// Patches between the positions are rebuilt by applying the sunk patch's
// change onto their trees; patches above the old position only change
// parents.
func (t *Transaction) SinkPatch(name string, pos int) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if !t.cur.IsApplied(name) {
		return errors.NewInvalidOperationError("patch %s is not applied", name)
	}

	idx := index(t.cur.Applied, name)
	if pos < 0 || pos > idx {
		return errors.NewInvalidOperationError("cannot sink %s to position %d", name, pos)
	}
	if pos == idx {
		return nil
	}

	patch, err := t.patchCommit(name)
	if err != nil {
		return err
	}

	order := append([]string(nil), t.cur.Applied...)
	between := append([]string(nil), order[pos:idx]...)
	rest := append([]string(nil), order[idx+1:]...)

	t.cur.Applied = order[:pos]
	t.cur.Head = t.cur.TopCommit()

	// The sunk patch itself.
	cursorCommit, err := t.store.Commit(t.cur.TopCommit())
	if err != nil {
		return err
	}
	result, err := t.merger.Apply(cursorCommit.TreeHash, patch)
	if err != nil {
		return err
	}
	newCommit, err := t.rewritePatch(patch, t.cur.Head, result.Tree)
	if err != nil {
		return err
	}
	t.cur.Applied = append(t.cur.Applied, name)
	t.cur.Patches[name] = newCommit
	if !result.Clean() {
		pending := append(between, rest...)
		t.cur.Unapplied = append(append([]string(nil), pending...), t.cur.Unapplied...)
		t.haltOnConflict(name, "push", result.Conflicts, newCommit)
		return nil
	}
	t.cur.Head = newCommit

	// Rebuild the patches the sunk patch dove under.
	for i, q := range between {
		qc, err := t.patchCommit(q)
		if err != nil {
			return err
		}
		result, err := t.merger.Apply(qc.TreeHash, patch)
		if err != nil {
			return err
		}
		newCommit, err := t.rewritePatch(qc, t.cur.Head, result.Tree)
		if err != nil {
			return err
		}
		t.cur.Applied = append(t.cur.Applied, q)
		t.cur.Patches[q] = newCommit
		if !result.Clean() {
			pending := append(between[i+1:len(between):len(between)], rest...)
			t.cur.Unapplied = append(append([]string(nil), pending...), t.cur.Unapplied...)
			t.haltOnConflict(q, "push", result.Conflicts, newCommit)
			return nil
		}
		t.cur.Head = newCommit
	}

	// Patches above the old position keep their trees; only parents move.
	for _, q := range rest {
		qc, err := t.patchCommit(q)
		if err != nil {
			return err
		}
		newCommit, err := t.rewritePatch(qc, t.cur.Head, qc.TreeHash)
		if err != nil {
			return err
		}
		t.cur.Applied = append(t.cur.Applied, q)
		t.cur.Patches[q] = newCommit
		t.cur.Head = newCommit
	}
	return nil
}

// DeletePatches removes the named patches from the stack. Applied targets
// cascade-pop first; patches stacked above a target that are not
// themselves deleted are left unapplied and returned so the caller may
// push them back.
func (t *Transaction) DeletePatches(names []string) ([]string, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}
	doomed := make(map[string]bool, len(names))
	for _, name := range names {
		if !t.cur.Has(name) {
			return nil, errors.NewInvalidOperationError("patch %s does not exist", name)
		}
		doomed[name] = true
	}

	popped, err := t.PopPatches(func(n string) bool { return doomed[n] })
	if err != nil {
		return nil, err
	}

	var incidental []string
	for _, n := range popped {
		if !doomed[n] {
			incidental = append(incidental, n)
		}
	}

	for name := range doomed {
		t.removeFromLists(name)
		delete(t.cur.Patches, name)
	}
	return incidental, nil
}

// RenamePatch renames a patch, keeping its commit and position
func (t *Transaction) RenamePatch(oldName, newName string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if err := stack.ValidatePatchName(newName); err != nil {
		return errors.NewInvalidOperationError("%v", err)
	}
	if !t.cur.Has(oldName) {
		return errors.NewInvalidOperationError("patch %s does not exist", oldName)
	}
	if t.cur.Has(newName) {
		return errors.NewInvalidOperationError("patch %s already exists", newName)
	}

	for _, list := range []*[]string{&t.cur.Applied, &t.cur.Unapplied, &t.cur.Hidden} {
		for i, n := range *list {
			if n == oldName {
				(*list)[i] = newName
			}
		}
	}
	t.cur.Patches[newName] = t.cur.Patches[oldName]
	delete(t.cur.Patches, oldName)
	return nil
}

// NewPatch creates an empty patch on top of the applied stack
func (t *Transaction) NewPatch(name, message string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if err := stack.ValidatePatchName(name); err != nil {
		return errors.NewInvalidOperationError("%v", err)
	}
	if t.cur.Has(name) {
		return errors.NewInvalidOperationError("patch %s already exists", name)
	}

	head, err := t.store.Commit(t.cur.TopCommit())
	if err != nil {
		return err
	}
	sig := t.store.DefaultSignature()
	commit, err := t.store.WriteCommit(git.CommitFields{
		Tree:      head.TreeHash,
		Parents:   []plumbing.Hash{head.Hash},
		Author:    sig,
		Committer: sig,
		Message:   message,
	})
	if err != nil {
		return err
	}

	t.cur.Applied = append(t.cur.Applied, name)
	t.cur.Patches[name] = commit
	t.cur.Head = commit
	return nil
}

// RefreshPatch folds newContentTree (the desired head tree) into the named
// applied patch. The patch and everything above it are rebuilt so the
// final head tree equals newContentTree while patches above keep their own
// diffs.
func (t *Transaction) RefreshPatch(name string, newContentTree plumbing.Hash) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if !t.cur.IsApplied(name) {
		return errors.NewInvalidOperationError("patch %s is not applied", name)
	}

	headCommit, err := t.store.Commit(t.cur.Head)
	if err != nil {
		return err
	}
	oldHeadTree := headCommit.TreeHash
	if oldHeadTree == newContentTree {
		return nil
	}

	idx := index(t.cur.Applied, name)
	toRebuild := append([]string(nil), t.cur.Applied[idx:]...)
	t.cur.Applied = t.cur.Applied[:idx]
	t.cur.Head = t.cur.TopCommit()

	for i, q := range toRebuild {
		qc, err := t.patchCommit(q)
		if err != nil {
			return err
		}
		result, err := t.merger.MergeTrees(oldHeadTree, qc.TreeHash, newContentTree)
		if err != nil {
			return err
		}
		newCommit, err := t.rewritePatch(qc, t.cur.Head, result.Tree)
		if err != nil {
			return err
		}
		t.cur.Applied = append(t.cur.Applied, q)
		t.cur.Patches[q] = newCommit
		if !result.Clean() {
			rest := toRebuild[i+1:]
			t.cur.Unapplied = append(append([]string(nil), rest...), t.cur.Unapplied...)
			t.haltOnConflict(q, "refresh", result.Conflicts, newCommit)
			return nil
		}
		t.cur.Head = newCommit
	}
	return nil
}

// ResolveConflict replaces the in-progress patch's commit with a resolved
// tree and clears the conflict record. The resolved tree becomes the new
// head.
func (t *Transaction) ResolveConflict(resolvedTree plumbing.Hash) error {
	if t.status != StatusRunning {
		return errors.NewInvalidOperationError("transaction is closed")
	}
	rec := t.cur.InProgress
	if rec == nil {
		return errors.NewInvalidOperationError("no conflict to resolve")
	}

	patch, err := t.patchCommit(rec.Patch)
	if err != nil {
		return err
	}
	var parent plumbing.Hash
	if patch.NumParents() > 0 {
		parent = patch.ParentHashes[0]
	}
	newCommit, err := t.rewritePatch(patch, parent, resolvedTree)
	if err != nil {
		return err
	}
	t.cur.Patches[rec.Patch] = newCommit
	t.cur.Head = newCommit
	t.cur.InProgress = nil
	return nil
}

// HidePatches moves unapplied patches to the hidden list
func (t *Transaction) HidePatches(names []string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	for _, name := range names {
		if !t.cur.Has(name) {
			return errors.NewInvalidOperationError("patch %s does not exist", name)
		}
		if t.cur.IsApplied(name) {
			return errors.NewInvalidOperationError("cannot hide applied patch %s", name)
		}
	}
	for _, name := range names {
		if t.cur.IsHidden(name) {
			continue
		}
		t.cur.Unapplied = remove(t.cur.Unapplied, name)
		t.cur.Hidden = append(t.cur.Hidden, name)
	}
	return nil
}

// UnhidePatches moves hidden patches back to the unapplied list
func (t *Transaction) UnhidePatches(names []string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	for _, name := range names {
		if !t.cur.IsHidden(name) {
			return errors.NewInvalidOperationError("patch %s is not hidden", name)
		}
	}
	for _, name := range names {
		t.cur.Hidden = remove(t.cur.Hidden, name)
		t.cur.Unapplied = append(t.cur.Unapplied, name)
	}
	return nil
}

// PickCommit imports an existing commit as a new unapplied patch. The
// patch's change is the commit versus its first parent; pushing it later
// merges that change wherever the stack stands.
func (t *Transaction) PickCommit(name string, commit plumbing.Hash) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if err := stack.ValidatePatchName(name); err != nil {
		return errors.NewInvalidOperationError("%v", err)
	}
	if t.cur.Has(name) {
		return errors.NewInvalidOperationError("patch %s already exists", name)
	}
	if _, err := t.store.Commit(commit); err != nil {
		return err
	}

	t.cur.Unapplied = append(t.cur.Unapplied, name)
	t.cur.Patches[name] = commit
	return nil
}

// UncommitPatches turns the n regular commits directly below the stack
// base into applied patches, deepest first. Merge commits cannot be
// uncommitted.
func (t *Transaction) UncommitPatches(names []string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	for _, name := range names {
		if err := stack.ValidatePatchName(name); err != nil {
			return errors.NewInvalidOperationError("%v", err)
		}
		if t.cur.Has(name) {
			return errors.NewInvalidOperationError("patch %s already exists", name)
		}
	}

	n := len(names)
	commits := make([]plumbing.Hash, n)
	cursor := t.cur.Base
	for i := n - 1; i >= 0; i-- {
		commit, err := t.store.Commit(cursor)
		if err != nil {
			return err
		}
		if commit.NumParents() == 0 && i > 0 {
			return errors.NewInvalidOperationError("not enough history below the stack base")
		}
		if commit.NumParents() > 1 {
			return errors.NewInvalidOperationError("cannot uncommit merge commit %s", cursor)
		}
		commits[i] = cursor
		if commit.NumParents() > 0 {
			cursor = commit.ParentHashes[0]
		} else {
			cursor = plumbing.ZeroHash
		}
	}
	if cursor.IsZero() {
		return errors.NewInvalidOperationError("not enough history below the stack base")
	}

	t.cur.Base = cursor
	t.cur.Applied = append(append([]string(nil), names...), t.cur.Applied...)
	for i, name := range names {
		t.cur.Patches[name] = commits[i]
	}
	return nil
}

// CommitPatches finalizes the bottommost n applied patches into regular
// history: the base advances past them and they leave the stack, their
// commits staying in the branch's ancestry.
func (t *Transaction) CommitPatches(n int) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if n <= 0 || n > len(t.cur.Applied) {
		return errors.NewInvalidOperationError("cannot commit %d patches, %d applied", n, len(t.cur.Applied))
	}

	names := append([]string(nil), t.cur.Applied[:n]...)
	t.cur.Base = t.cur.Patches[names[n-1]]
	t.cur.Applied = t.cur.Applied[n:]
	for _, name := range names {
		delete(t.cur.Patches, name)
	}
	return nil
}

func index(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}
