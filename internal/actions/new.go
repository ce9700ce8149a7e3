package actions

import (
	"fmt"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// NewOptions contains options for the new command
type NewOptions struct {
	Name    string
	Message string
}

// NewAction creates an empty patch on top of the applied stack
func NewAction(ctx *runtime.Context, opts NewOptions) error {
	message := opts.Message
	if message == "" {
		message = opts.Name
	}

	_, err := runStack(ctx, fmt.Sprintf("new %s", opts.Name), engine.RunOptions{}, func(t *engine.Transaction) error {
		return t.NewPatch(opts.Name, message)
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("created patch %s", ctx.Splog.Applied(opts.Name))
	return nil
}
