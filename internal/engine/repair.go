package engine

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/stack"
)

// Repair reconciles the stack with a branch head that moved outside of
// stax. Commits added on top of the recorded head are imported as applied
// patches, deepest first, named from their messages. The branch ref is
// left alone; only the stack metadata moves. Returns the updated stack
// and the imported patch names.
func Repair(store *git.Store, branch string) (*stack.Stack, []string, error) {
	lock, err := store.AcquireLock()
	if err != nil {
		return nil, nil, err
	}
	defer lock.Release()

	stk, err := stack.Load(store, branch)
	if err != nil {
		return nil, nil, err
	}

	branchHead, err := store.Ref(stack.BranchRef(branch))
	if err != nil {
		return nil, nil, err
	}
	if branchHead.IsZero() {
		return nil, nil, errors.NewCorruptStackError(branch, "branch no longer exists")
	}
	if branchHead == stk.Head {
		return stk, nil, nil
	}

	// Walk first parents from the branch head down to the recorded head.
	var chain []plumbing.Hash
	cursor := branchHead
	for cursor != stk.Head {
		commit, err := store.Commit(cursor)
		if err != nil {
			return nil, nil, err
		}
		if commit.NumParents() > 1 {
			return nil, nil, errors.NewCorruptStackError(branch,
				fmt.Sprintf("merge commit %s is in the way; flatten the branch history first", cursor))
		}
		if commit.NumParents() == 0 {
			return nil, nil, errors.NewCorruptStackError(branch,
				"branch head no longer contains the recorded stack head")
		}
		chain = append(chain, cursor)
		cursor = commit.ParentHashes[0]
	}

	state := stk.State.Clone()
	var imported []string
	for i := len(chain) - 1; i >= 0; i-- {
		commit, err := store.Commit(chain[i])
		if err != nil {
			return nil, nil, err
		}
		name := stack.NameFromMessage(commit.Message, func(n string) bool {
			return state.Has(n)
		})
		state.Applied = append(state.Applied, name)
		state.Patches[name] = chain[i]
		imported = append(imported, name)
	}
	state.Head = branchHead

	stateCommit, err := stack.WriteStateCommit(store, &state, stk.StateCommit,
		fmt.Sprintf("repair: import %d commits", len(imported)))
	if err != nil {
		return nil, nil, err
	}
	if err := store.UpdateRef(stack.StackRef(branch), stk.StateCommit, stateCommit); err != nil {
		return nil, nil, err
	}
	for _, name := range imported {
		if err := store.UpdateRef(stack.PatchRef(branch, name), plumbing.ZeroHash, state.Patches[name]); err != nil {
			return nil, nil, err
		}
	}

	return &stack.Stack{Branch: branch, StateCommit: stateCommit, State: state}, imported, nil
}
