package actions

import (
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// RepairAction reconciles the stack with commits made on the branch
// outside of stax, importing them as applied patches.
func RepairAction(ctx *runtime.Context) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}

	stk, imported, err := engine.Repair(ctx.Store, branch)
	if err != nil {
		return err
	}

	if len(imported) == 0 {
		ctx.Splog.Info("stack is consistent, nothing to repair")
		return nil
	}

	if err := syncWorktree(ctx, branch, stk); err != nil {
		return err
	}
	ctx.Splog.Info("imported %s", strings.Join(imported, " "))
	return nil
}
