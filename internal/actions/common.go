// Package actions implements the user-level stack operations: each
// command maps to one action, which runs as a single transaction and
// leaves the worktree synced to the resulting head.
package actions

import (
	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// runStack executes fn as one transaction on the current branch's stack
// and syncs the worktree afterwards. The returned stack reflects the
// committed state, conflicted or not.
func runStack(ctx *runtime.Context, message string, opts engine.RunOptions, fn func(*engine.Transaction) error) (*stack.Stack, error) {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return nil, err
	}
	ctx.Splog.Debug("transaction %q on %s", message, branch)
	result, err := engine.Run(ctx.Store, branch, message, opts, fn)
	if err != nil {
		ctx.Splog.Debug("transaction %q failed: %v", message, err)
		return nil, err
	}
	ctx.Splog.Debug("transaction %q committed, head %s state %s", message, result.Head, result.StateCommit)
	if err := syncWorktree(ctx, branch, result); err != nil {
		return result, err
	}
	return result, nil
}

// syncWorktree resets the working tree to the stack head when the stack's
// branch is the one checked out.
func syncWorktree(ctx *runtime.Context, branch string, stk *stack.Stack) error {
	if !ctx.Config.ShouldCheckout() {
		return nil
	}
	current, err := ctx.Store.CurrentBranch()
	if err != nil || current != branch {
		ctx.Splog.Debug("skipping worktree sync, %s is not checked out", branch)
		return nil
	}
	ctx.Splog.Debug("resetting worktree to %s", stk.Head)
	return ctx.Store.CheckoutHard(stk.Head)
}

// finish reports the transaction outcome. A committed conflict is
// surfaced as an error so the process exits nonzero, after telling the
// user how to proceed.
func finish(ctx *runtime.Context, stk *stack.Stack) error {
	if stk.InProgress == nil {
		return nil
	}
	rec := stk.InProgress
	ctx.Splog.Conflict("conflict while %sing patch %s", rec.Kind, rec.Patch)
	for _, path := range rec.Paths {
		ctx.Splog.Info("  both modified: %s", path)
	}
	ctx.Splog.Tip("fix the conflicts in the worktree, then run 'stax refresh'")
	ctx.Splog.Tip("or run 'stax undo' to roll the operation back")
	return errors.NewConflictError(rec.Patch, rec.Paths)
}
