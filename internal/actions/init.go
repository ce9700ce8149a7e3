package actions

import (
	"stax.dev/stax/internal/config"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// InitAction starts tracking the current branch as a patch stack
func InitAction(ctx *runtime.Context) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}

	lock, err := ctx.Store.AcquireLock()
	if err != nil {
		return err
	}
	defer lock.Release()

	stk, err := stack.Initialize(ctx.Store, branch)
	if err != nil {
		return err
	}

	// Record the branch so stack commands still resolve it when HEAD is
	// detached later.
	if ctx.Config.DefaultBranch == nil {
		ctx.Config.DefaultBranch = &branch
		if err := config.WriteRepoConfig(ctx.Store.GitDir(), ctx.Config); err != nil {
			ctx.Splog.Warn("failed to write repo config: %v", err)
		}
	}

	ctx.Splog.Info("initialized stack on branch %s at %s", branch, stk.Head.String()[:10])
	return nil
}
