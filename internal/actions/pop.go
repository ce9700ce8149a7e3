package actions

import (
	"fmt"
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
)

// PopOptions contains options for the pop command
type PopOptions struct {
	Names  []string
	All    bool
	Number int
}

// PopAction unapplies patches from the top of the stack. Naming a patch
// below the top also pops everything stacked above it.
func PopAction(ctx *runtime.Context, opts PopOptions) error {
	var popped []string

	result, err := runStack(ctx, popMessage(opts), engine.RunOptions{}, func(t *engine.Transaction) error {
		applied := t.State().Applied
		if len(applied) == 0 {
			return errors.NewInvalidOperationError("no applied patches")
		}

		want := make(map[string]bool)
		switch {
		case len(opts.Names) > 0:
			for _, name := range opts.Names {
				if !t.State().IsApplied(name) {
					return errors.NewInvalidOperationError("patch %s is not applied", name)
				}
				want[name] = true
			}
		case opts.All:
			for _, name := range applied {
				want[name] = true
			}
		default:
			n := opts.Number
			if n <= 0 {
				n = 1
			}
			if n > len(applied) {
				n = len(applied)
			}
			for _, name := range applied[len(applied)-n:] {
				want[name] = true
			}
		}

		var err error
		popped, err = t.PopPatches(func(name string) bool { return want[name] })
		return err
	})
	if err != nil {
		return err
	}

	for i := len(popped) - 1; i >= 0; i-- {
		ctx.Splog.Info("popped %s", popped[i])
	}
	if top, ok := result.Top(); ok {
		ctx.Splog.Info("now at %s", ctx.Splog.Applied(top))
	} else {
		ctx.Splog.Info("no patches applied")
	}
	return nil
}

func popMessage(opts PopOptions) string {
	switch {
	case len(opts.Names) > 0:
		return "pop " + strings.Join(opts.Names, " ")
	case opts.All:
		return "pop --all"
	case opts.Number > 1:
		return fmt.Sprintf("pop -n %d", opts.Number)
	default:
		return "pop"
	}
}
