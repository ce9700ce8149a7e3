package actions

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// DeleteOptions contains options for the delete command
type DeleteOptions struct {
	Names []string
	Force bool
}

// DeleteAction removes patches from the stack. Applied patches above a
// deleted one are popped for the removal and pushed back afterwards; a
// conflict during the re-push halts with the conflicted state committed.
func DeleteAction(ctx *runtime.Context, opts DeleteOptions) error {
	if !opts.Force {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Delete %s?", strings.Join(opts.Names, ", ")),
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			ctx.Splog.Info("aborted")
			return nil
		}
	}

	result, err := runStack(ctx, "delete "+strings.Join(opts.Names, " "), engine.RunOptions{}, func(t *engine.Transaction) error {
		incidental, err := t.DeletePatches(opts.Names)
		if err != nil {
			return err
		}
		for _, name := range incidental {
			res, err := t.PushPatch(name)
			if err != nil {
				return err
			}
			if res == engine.PushConflict {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range opts.Names {
		ctx.Splog.Info("deleted %s", name)
	}
	return finish(ctx, result)
}
