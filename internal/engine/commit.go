package engine

import (
	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/stack"
)

// Commit persists the transaction's working state. The branch ref update
// is attempted first and is the durability boundary: if it fails with a
// ref conflict nothing has changed and the caller may retry against fresh
// state. A halted transaction commits its conflicted state the same way.
func (t *Transaction) Commit(message string) (*stack.Stack, error) {
	if t.status != StatusRunning {
		return nil, errors.NewInvalidOperationError("transaction is closed")
	}
	if t.halted {
		message += " (conflict)"
	}

	branch := t.orig.Branch

	// Branch ref first: this is where external writers race with us.
	if t.cur.Head != t.orig.Head {
		if err := t.store.UpdateRef(stack.BranchRef(branch), t.orig.Head, t.cur.Head); err != nil {
			return nil, err
		}
	}

	stateCommit, err := stack.WriteStateCommit(t.store, &t.cur, t.orig.StateCommit, message)
	if err != nil {
		return nil, err
	}
	if err := t.store.UpdateRef(stack.StackRef(branch), t.orig.StateCommit, stateCommit); err != nil {
		return nil, err
	}

	// Patch refs keep every patch commit reachable and inspectable.
	for name, oldHash := range t.orig.Patches {
		newHash, exists := t.cur.Patches[name]
		if exists && newHash == oldHash {
			continue
		}
		if !exists {
			newHash = plumbing.ZeroHash
		}
		if err := t.store.UpdateRef(stack.PatchRef(branch, name), oldHash, newHash); err != nil {
			return nil, err
		}
	}
	for name, newHash := range t.cur.Patches {
		if _, existed := t.orig.Patches[name]; existed {
			continue
		}
		if err := t.store.UpdateRef(stack.PatchRef(branch, name), plumbing.ZeroHash, newHash); err != nil {
			return nil, err
		}
	}

	// A committed transaction starts a fresh timeline; drop any redo state.
	if redo, err := t.store.Ref(stack.RedoRef(branch)); err == nil && !redo.IsZero() {
		_ = t.store.UpdateRef(stack.RedoRef(branch), redo, plumbing.ZeroHash)
	}

	if t.halted {
		t.status = StatusConflicted
	} else {
		t.status = StatusCommitted
	}

	return &stack.Stack{
		Branch:      branch,
		StateCommit: stateCommit,
		State:       t.cur,
	}, nil
}

// Abort discards the transaction. Objects written during the transaction
// stay in the store unreferenced until garbage collection; no ref moves.
func (t *Transaction) Abort() {
	if t.status == StatusRunning {
		t.status = StatusAborted
	}
}
