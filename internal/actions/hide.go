package actions

import (
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// HideOptions contains options for the hide and unhide commands
type HideOptions struct {
	Names []string
}

// HideAction moves unapplied patches to the hidden list, keeping them out
// of push --all and the default series listing.
func HideAction(ctx *runtime.Context, opts HideOptions) error {
	_, err := runStack(ctx, "hide "+strings.Join(opts.Names, " "), engine.RunOptions{}, func(t *engine.Transaction) error {
		return t.HidePatches(opts.Names)
	})
	if err != nil {
		return err
	}

	for _, name := range opts.Names {
		ctx.Splog.Info("hid %s", name)
	}
	return nil
}

// UnhideAction moves hidden patches back to the unapplied list
func UnhideAction(ctx *runtime.Context, opts HideOptions) error {
	_, err := runStack(ctx, "unhide "+strings.Join(opts.Names, " "), engine.RunOptions{}, func(t *engine.Transaction) error {
		return t.UnhidePatches(opts.Names)
	})
	if err != nil {
		return err
	}

	for _, name := range opts.Names {
		ctx.Splog.Info("unhid %s", name)
	}
	return nil
}
