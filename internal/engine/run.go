package engine

import (
	stderrors "errors"
	"fmt"

	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/stack"
)

// RunOptions adjusts the checks Run performs before opening a transaction
type RunOptions struct {
	// AllowConflict permits running while a conflict is in progress
	// (conflict resolution itself needs this).
	AllowConflict bool
}

// Run executes one top-level stack operation as a transaction: acquire the
// repository lock, load and validate the stack, run fn against a
// transaction, and commit. A commit that loses the branch-ref race is
// retried once against freshly loaded state; a second loss surfaces as
// ErrConcurrentModification.
func Run(store *git.Store, branch, message string, opts RunOptions, fn func(*Transaction) error) (*stack.Stack, error) {
	lock, err := store.AcquireLock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	for attempt := 0; ; attempt++ {
		stk, err := stack.Load(store, branch)
		if err != nil {
			return nil, err
		}
		if stk.InProgress != nil && !opts.AllowConflict {
			return nil, fmt.Errorf("%w: patch %s must be resolved first",
				errors.ErrConflictPending, stk.InProgress.Patch)
		}
		branchHead, err := store.Ref(stack.BranchRef(branch))
		if err != nil {
			return nil, err
		}
		if branchHead != stk.Head {
			// A mismatch on the retry means the branch ref moved under us
			// after the first load passed this check.
			if attempt > 0 {
				return nil, fmt.Errorf("%w: branch %s moved to %s while the stack recorded %s",
					errors.ErrConcurrentModification, branch, branchHead, stk.Head)
			}
			return nil, errors.NewCorruptStackError(branch,
				fmt.Sprintf("branch head %s does not match stack head %s (run 'stax repair')", branchHead, stk.Head))
		}

		t := Begin(store, stk)
		if err := fn(t); err != nil {
			t.Abort()
			return nil, err
		}

		result, err := t.Commit(message)
		if stderrors.Is(err, errors.ErrRefConflict) {
			if attempt == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: %v", errors.ErrConcurrentModification, err)
		}
		return result, err
	}
}
