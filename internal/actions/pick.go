package actions

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// PickOptions contains options for the pick command
type PickOptions struct {
	// Rev is any revision expression resolving to a commit
	Rev string
	// Name overrides the derived patch name
	Name string
	// Apply pushes the picked patch immediately
	Apply bool
}

// PickAction imports an existing commit as a new patch. The picked
// change is the commit against its first parent; the commit itself is
// not rewritten until the patch is pushed.
func PickAction(ctx *runtime.Context, opts PickOptions) error {
	hash, err := ctx.Store.ResolveRevision(opts.Rev)
	if err != nil {
		return err
	}

	var picked string
	result, err := runStack(ctx, "pick "+opts.Rev, engine.RunOptions{}, func(t *engine.Transaction) error {
		name := opts.Name
		if name == "" {
			commit, err := ctx.Store.Commit(hash)
			if err != nil {
				return err
			}
			name = stack.NameFromMessage(commit.Message, t.State().Has)
		}
		picked = name
		if err := t.PickCommit(name, hash); err != nil {
			return err
		}
		if opts.Apply {
			if _, err := t.PushPatch(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("picked %s as %s", shortHash(hash), picked)
	return finish(ctx, result)
}

func shortHash(h plumbing.Hash) string {
	return fmt.Sprintf("%.10s", h.String())
}
