package actions

import (
	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
)

// FloatOptions contains options for the float command
type FloatOptions struct {
	Name string
}

// FloatAction moves an applied patch to the top of the stack, rebuilding
// the patches it jumps over.
func FloatAction(ctx *runtime.Context, opts FloatOptions) error {
	result, err := runStack(ctx, "float "+opts.Name, engine.RunOptions{}, func(t *engine.Transaction) error {
		_, err := t.FloatPatch(opts.Name)
		return err
	})
	if err != nil {
		return err
	}

	if result.InProgress == nil {
		ctx.Splog.Info("floated %s to the top", ctx.Splog.Applied(opts.Name))
	}
	return finish(ctx, result)
}

// SinkOptions contains options for the sink command
type SinkOptions struct {
	Name string
	// Below names the applied patch to sink under; empty sinks to the
	// bottom of the stack.
	Below string
}

// SinkAction moves an applied patch down the stack, rebuilding the
// patches it passes under.
func SinkAction(ctx *runtime.Context, opts SinkOptions) error {
	result, err := runStack(ctx, "sink "+opts.Name, engine.RunOptions{}, func(t *engine.Transaction) error {
		pos := 0
		if opts.Below != "" {
			applied := t.State().Applied
			pos = -1
			for i, name := range applied {
				if name == opts.Below {
					pos = i
					break
				}
			}
			if pos < 0 {
				return errors.NewInvalidOperationError("patch %s is not applied", opts.Below)
			}
		}
		return t.SinkPatch(opts.Name, pos)
	})
	if err != nil {
		return err
	}

	if result.InProgress == nil {
		if opts.Below != "" {
			ctx.Splog.Info("sank %s below %s", opts.Name, opts.Below)
		} else {
			ctx.Splog.Info("sank %s to the bottom", opts.Name)
		}
	}
	return finish(ctx, result)
}

// GotoOptions contains options for the goto command
type GotoOptions struct {
	Name string
}

// GotoAction makes the named patch the top of the stack, pushing or
// popping whatever lies between.
func GotoAction(ctx *runtime.Context, opts GotoOptions) error {
	result, err := runStack(ctx, "goto "+opts.Name, engine.RunOptions{}, func(t *engine.Transaction) error {
		state := t.State()
		if state.IsHidden(opts.Name) {
			return errors.NewInvalidOperationError("patch %s is hidden", opts.Name)
		}
		if !state.Has(opts.Name) {
			return errors.NewInvalidOperationError("patch %s does not exist", opts.Name)
		}

		if state.IsApplied(opts.Name) {
			idx := -1
			for i, name := range state.Applied {
				if name == opts.Name {
					idx = i
					break
				}
			}
			above := make(map[string]bool)
			for _, name := range state.Applied[idx+1:] {
				above[name] = true
			}
			if len(above) == 0 {
				return nil
			}
			_, err := t.PopPatches(func(name string) bool { return above[name] })
			return err
		}

		// Push intervening unapplied patches in order until the target
		// is on top.
		for {
			if top, ok := t.State().Top(); ok && top == opts.Name {
				return nil
			}
			next := t.State().Unapplied[0]
			res, err := t.PushPatch(next)
			if err != nil {
				return err
			}
			if res == engine.PushConflict {
				return nil
			}
		}
	})
	if err != nil {
		return err
	}

	if result.InProgress == nil {
		ctx.Splog.Info("now at %s", ctx.Splog.Applied(opts.Name))
	}
	return finish(ctx, result)
}
