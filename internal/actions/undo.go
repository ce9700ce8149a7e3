package actions

import (
	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// UndoAction rolls the stack back one recorded operation, branch ref
// included. A pending conflict is undone like anything else.
func UndoAction(ctx *runtime.Context) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}

	stk, err := engine.Undo(ctx.Store, branch)
	if err != nil {
		return err
	}
	ctx.Splog.Debug("undo restored state %s", stk.StateCommit)

	if err := syncWorktree(ctx, branch, stk); err != nil {
		return err
	}
	reportPosition(ctx, stk)
	return nil
}

// RedoAction re-applies the most recently undone operation
func RedoAction(ctx *runtime.Context) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}

	stk, err := engine.Redo(ctx.Store, branch)
	if err != nil {
		return err
	}
	ctx.Splog.Debug("redo restored state %s", stk.StateCommit)

	if err := syncWorktree(ctx, branch, stk); err != nil {
		return err
	}
	reportPosition(ctx, stk)
	return nil
}

func reportPosition(ctx *runtime.Context, stk *stack.Stack) {
	if top, ok := stk.Top(); ok {
		ctx.Splog.Info("now at %s", ctx.Splog.Applied(top))
	} else {
		ctx.Splog.Info("no patches applied")
	}
}
