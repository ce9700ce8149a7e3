package engine

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/merge"
	"stax.dev/stax/internal/stack"
)

// Status is the lifecycle state of a transaction
type Status int

const (
	// StatusRunning indicates the transaction is accepting operations
	StatusRunning Status = iota
	// StatusCommitted indicates the transaction committed cleanly
	StatusCommitted
	// StatusConflicted indicates the transaction committed a conflicted state
	StatusConflicted
	// StatusAborted indicates the transaction was discarded
	StatusAborted
)

// PushResult describes the outcome of pushing a single patch
type PushResult int

const (
	// PushClean indicates the patch applied without conflicts
	PushClean PushResult = iota
	// PushEmpty indicates the patch applied but its diff became empty
	PushEmpty
	// PushConflict indicates the patch left conflict markers in the head tree
	PushConflict
)

// Transaction is one atomic unit of stack mutation. It works on a value
// copy of the stack; only Commit makes any repository change.
type Transaction struct {
	store  *git.Store
	merger *merge.Engine

	orig   *stack.Stack // immutable pre-transaction snapshot
	cur    stack.State  // working copy
	status Status
	halted bool
}

// Begin opens a transaction over a loaded stack
func Begin(store *git.Store, stk *stack.Stack) *Transaction {
	return &Transaction{
		store:  store,
		merger: merge.NewEngine(store),
		orig:   stk,
		cur:    stk.State.Clone(),
	}
}

// Status returns the transaction's lifecycle state
func (t *Transaction) Status() Status {
	return t.status
}

// Halted reports whether a conflict has stopped the transaction. Once
// halted, only Commit is meaningful; the conflicted state is committed so
// the user can resolve it.
func (t *Transaction) Halted() bool {
	return t.halted
}

// Conflict returns the in-progress conflict record, if any
func (t *Transaction) Conflict() *stack.ConflictRecord {
	return t.cur.InProgress
}

// State exposes the working copy for read-only inspection
func (t *Transaction) State() *stack.State {
	return &t.cur
}

// Head returns the working head cursor
func (t *Transaction) Head() plumbing.Hash {
	return t.cur.Head
}

func (t *Transaction) checkMutable() error {
	if t.status != StatusRunning {
		return errors.NewInvalidOperationError("transaction is closed")
	}
	if t.halted || t.cur.InProgress != nil {
		return errors.ErrConflictPending
	}
	return nil
}

func (t *Transaction) patchCommit(name string) (*object.Commit, error) {
	h, ok := t.cur.Patches[name]
	if !ok {
		return nil, errors.NewInvalidOperationError("patch %s does not exist", name)
	}
	return t.store.Commit(h)
}

// haltOnConflict records the conflicted merge result as the new head and
// stops the transaction.
func (t *Transaction) haltOnConflict(name, kind string, paths []string, conflicted plumbing.Hash) {
	t.cur.Head = conflicted
	t.cur.InProgress = &stack.ConflictRecord{Patch: name, Kind: kind, Paths: paths}
	t.halted = true
}

// rewritePatch writes a new commit for a patch, keeping the patch's stored
// message and author while re-parenting it and swapping its tree.
func (t *Transaction) rewritePatch(patch *object.Commit, parent, tree plumbing.Hash) (plumbing.Hash, error) {
	return t.store.WriteCommit(git.CommitFields{
		Tree:      tree,
		Parents:   []plumbing.Hash{parent},
		Author:    patch.Author,
		Committer: t.store.DefaultSignature(),
		Message:   patch.Message,
	})
}

// PushPatch moves an unapplied or hidden patch to the top of the applied
// list, three-way-merging its change onto the current head tree. A
// conflicted merge commits the marker tree as head, marks the patch in
// progress, and halts the transaction; it is reported through the result,
// not as an error.
func (t *Transaction) PushPatch(name string) (PushResult, error) {
	if err := t.checkMutable(); err != nil {
		return 0, err
	}
	if t.cur.IsApplied(name) {
		return 0, errors.NewInvalidOperationError("patch %s is already applied", name)
	}
	if !t.cur.Has(name) {
		return 0, errors.NewInvalidOperationError("patch %s does not exist", name)
	}

	patch, err := t.patchCommit(name)
	if err != nil {
		return 0, err
	}
	headCommit, err := t.store.Commit(t.cur.TopCommit())
	if err != nil {
		return 0, err
	}

	oldParentTree, err := t.merger.PatchBaseTree(patch)
	if err != nil {
		return 0, err
	}
	newParent := headCommit.Hash
	newParentTree := headCommit.TreeHash

	// Fast paths mirror the tree identities three-way merge would produce.
	var newTree plumbing.Hash
	var conflicts []string
	switch {
	case oldParentTree == newParentTree:
		newTree = patch.TreeHash
	case oldParentTree == patch.TreeHash:
		newTree = newParentTree
	case newParentTree == patch.TreeHash:
		newTree = patch.TreeHash
	default:
		result, err := t.merger.MergeTrees(oldParentTree, newParentTree, patch.TreeHash)
		if err != nil {
			return 0, err
		}
		newTree = result.Tree
		conflicts = result.Conflicts
	}

	var oldParent plumbing.Hash
	if patch.NumParents() > 0 {
		oldParent = patch.ParentHashes[0]
	}
	newCommit := patch.Hash
	if newTree != patch.TreeHash || newParent != oldParent {
		newCommit, err = t.rewritePatch(patch, newParent, newTree)
		if err != nil {
			return 0, err
		}
	}

	t.removeFromLists(name)
	t.cur.Applied = append(t.cur.Applied, name)
	t.cur.Patches[name] = newCommit

	if len(conflicts) > 0 {
		t.haltOnConflict(name, "push", conflicts, newCommit)
		return PushConflict, nil
	}

	t.cur.Head = newCommit
	if newTree == newParentTree {
		return PushEmpty, nil
	}
	return PushClean, nil
}

// PopPatches unapplies every applied patch for which shouldPop returns
// true, cascading over the patches stacked above the lowest one popped.
// Popped patches keep their commits; the head simply retreats down the
// chain. Returns the popped names in stack order.
func (t *Transaction) PopPatches(shouldPop func(string) bool) ([]string, error) {
	if err := t.checkMutable(); err != nil {
		return nil, err
	}

	first := -1
	for i, name := range t.cur.Applied {
		if shouldPop(name) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil
	}

	popped := append([]string(nil), t.cur.Applied[first:]...)
	t.cur.Applied = t.cur.Applied[:first]
	t.cur.Unapplied = append(append([]string(nil), popped...), t.cur.Unapplied...)
	t.cur.Head = t.cur.TopCommit()
	return popped, nil
}

// removeFromLists drops a name from whichever list holds it
func (t *Transaction) removeFromLists(name string) {
	t.cur.Applied = remove(t.cur.Applied, name)
	t.cur.Unapplied = remove(t.cur.Unapplied, name)
	t.cur.Hidden = remove(t.cur.Hidden, name)
}

func remove(list []string, name string) []string {
	for i, n := range list {
		if n == name {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
