package engine

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/stack"
)

// Undo moves the stack back to the state before the most recent
// transaction by stepping down the state commit chain. The branch ref,
// stack ref, and patch refs all move together; the departed state is kept
// reachable through the redo ref.
func Undo(store *git.Store, branch string) (*stack.Stack, error) {
	lock, err := store.AcquireLock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	current, err := store.Ref(stack.StackRef(branch))
	if err != nil {
		return nil, err
	}
	if current.IsZero() {
		return nil, errors.NewNoStackError(branch)
	}

	stateCommit, err := store.Commit(current)
	if err != nil {
		return nil, err
	}
	if stateCommit.NumParents() == 0 {
		return nil, errors.ErrNothingToUndo
	}
	prev := stateCommit.ParentHashes[0]

	curState, err := stack.ReadStateAt(store, branch, current)
	if err != nil {
		return nil, err
	}
	prevState, err := stack.ReadStateAt(store, branch, prev)
	if err != nil {
		return nil, err
	}

	if err := restoreState(store, branch, current, prev, curState, prevState); err != nil {
		return nil, err
	}

	// Remember the departed tip so redo can walk forward again. Repeated
	// undos keep the original tip.
	redo, err := store.Ref(stack.RedoRef(branch))
	if err != nil {
		return nil, err
	}
	if redo.IsZero() {
		if err := store.UpdateRef(stack.RedoRef(branch), plumbing.ZeroHash, current); err != nil {
			return nil, err
		}
	}

	return &stack.Stack{Branch: branch, StateCommit: prev, State: *prevState}, nil
}

// Redo re-applies the most recently undone transaction by stepping one
// state forward along the chain toward the redo tip.
func Redo(store *git.Store, branch string) (*stack.Stack, error) {
	lock, err := store.AcquireLock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	tip, err := store.Ref(stack.RedoRef(branch))
	if err != nil {
		return nil, err
	}
	if tip.IsZero() {
		return nil, errors.ErrNothingToRedo
	}

	current, err := store.Ref(stack.StackRef(branch))
	if err != nil {
		return nil, err
	}

	// Walk back from the tip to find the state whose parent is current.
	next := tip
	for {
		commit, err := store.Commit(next)
		if err != nil {
			return nil, err
		}
		if commit.NumParents() == 0 {
			return nil, errors.ErrNothingToRedo
		}
		if commit.ParentHashes[0] == current {
			break
		}
		next = commit.ParentHashes[0]
	}

	curState, err := stack.ReadStateAt(store, branch, current)
	if err != nil {
		return nil, err
	}
	nextState, err := stack.ReadStateAt(store, branch, next)
	if err != nil {
		return nil, err
	}

	if err := restoreState(store, branch, current, next, curState, nextState); err != nil {
		return nil, err
	}

	if next == tip {
		if err := store.UpdateRef(stack.RedoRef(branch), tip, plumbing.ZeroHash); err != nil {
			return nil, err
		}
	}

	return &stack.Stack{Branch: branch, StateCommit: next, State: *nextState}, nil
}

// restoreState moves the branch ref, stack ref, and patch refs from one
// recorded state to another.
func restoreState(store *git.Store, branch string, fromCommit, toCommit plumbing.Hash, from, to *stack.State) error {
	if from.Head != to.Head {
		if err := store.UpdateRef(stack.BranchRef(branch), from.Head, to.Head); err != nil {
			return err
		}
	}
	if err := store.UpdateRef(stack.StackRef(branch), fromCommit, toCommit); err != nil {
		return err
	}

	for name, oldHash := range from.Patches {
		newHash, exists := to.Patches[name]
		if exists && newHash == oldHash {
			continue
		}
		if !exists {
			newHash = plumbing.ZeroHash
		}
		if err := store.UpdateRef(stack.PatchRef(branch, name), oldHash, newHash); err != nil {
			return err
		}
	}
	for name, newHash := range to.Patches {
		if _, existed := from.Patches[name]; existed {
			continue
		}
		if err := store.UpdateRef(stack.PatchRef(branch, name), plumbing.ZeroHash, newHash); err != nil {
			return err
		}
	}
	return nil
}

// HistoryEntry describes one recorded stack revision
type HistoryEntry struct {
	StateCommit plumbing.Hash
	Message     string
	When        time.Time
}

// History lists recorded stack revisions, newest first, up to limit
// entries (0 meaning all).
func History(store *git.Store, branch string, limit int) ([]HistoryEntry, error) {
	current, err := store.Ref(stack.StackRef(branch))
	if err != nil {
		return nil, err
	}
	if current.IsZero() {
		return nil, errors.NewNoStackError(branch)
	}

	var entries []HistoryEntry
	for !current.IsZero() {
		commit, err := store.Commit(current)
		if err != nil {
			return nil, err
		}
		entries = append(entries, HistoryEntry{
			StateCommit: current,
			Message:     commit.Message,
			When:        commit.Committer.When,
		})
		if limit > 0 && len(entries) >= limit {
			break
		}
		if commit.NumParents() == 0 {
			break
		}
		current = commit.ParentHashes[0]
	}
	return entries, nil
}
