package actions

import (
	"fmt"
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
)

// PushOptions contains options for the push command
type PushOptions struct {
	Names  []string
	All    bool
	Number int
}

// PushAction applies unapplied patches onto the head, in order. Hidden
// patches are only pushed when named explicitly. The first conflict stops
// the run with the conflicted state committed.
func PushAction(ctx *runtime.Context, opts PushOptions) error {
	var pushed []string
	var empty []string

	result, err := runStack(ctx, pushMessage(opts), engine.RunOptions{}, func(t *engine.Transaction) error {
		pushed, empty = nil, nil

		names := opts.Names
		if len(names) == 0 {
			unapplied := t.State().Unapplied
			if len(unapplied) == 0 {
				return errors.NewInvalidOperationError("no unapplied patches")
			}
			n := opts.Number
			if opts.All || n > len(unapplied) {
				n = len(unapplied)
			}
			if n <= 0 {
				n = 1
			}
			names = append([]string(nil), unapplied[:n]...)
		}

		for _, name := range names {
			res, err := t.PushPatch(name)
			if err != nil {
				return err
			}
			pushed = append(pushed, name)
			if res == engine.PushEmpty {
				empty = append(empty, name)
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

	for _, name := range pushed {
		suffix := ""
		if contains(empty, name) {
			suffix = " (empty)"
		}
		if result.InProgress != nil && result.InProgress.Patch == name {
			continue
		}
		ctx.Splog.Info("pushed %s%s", ctx.Splog.Applied(name), suffix)
	}
	return finish(ctx, result)
}

func pushMessage(opts PushOptions) string {
	switch {
	case len(opts.Names) > 0:
		return "push " + strings.Join(opts.Names, " ")
	case opts.All:
		return "push --all"
	case opts.Number > 1:
		return fmt.Sprintf("push -n %d", opts.Number)
	default:
		return "push"
	}
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
