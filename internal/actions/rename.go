package actions

import (
	"fmt"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// RenameOptions contains options for the rename command
type RenameOptions struct {
	OldName string
	NewName string
}

// RenameAction renames a patch without touching its commit
func RenameAction(ctx *runtime.Context, opts RenameOptions) error {
	msg := fmt.Sprintf("rename %s to %s", opts.OldName, opts.NewName)
	_, err := runStack(ctx, msg, engine.RunOptions{}, func(t *engine.Transaction) error {
		return t.RenamePatch(opts.OldName, opts.NewName)
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("renamed %s to %s", opts.OldName, opts.NewName)
	return nil
}
