package actions

import (
	"fmt"
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// UncommitOptions contains options for the uncommit command
type UncommitOptions struct {
	// Names assigns explicit patch names, bottommost first. When empty,
	// Number commits are uncommitted with derived names.
	Names  []string
	Number int
}

// UncommitAction turns the commits directly below the stack base into
// applied patches, without changing any tree.
func UncommitAction(ctx *runtime.Context, opts UncommitOptions) error {
	var names []string

	_, err := runStack(ctx, "uncommit", engine.RunOptions{}, func(t *engine.Transaction) error {
		names = opts.Names
		if len(names) == 0 {
			n := opts.Number
			if n <= 0 {
				n = 1
			}
			derived, err := deriveNames(ctx, t, n)
			if err != nil {
				return err
			}
			names = derived
		}
		return t.UncommitPatches(names)
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("uncommitted %s", strings.Join(names, " "))
	return nil
}

// deriveNames walks the first-parent chain below the stack base and names
// each commit from its message, bottommost first.
func deriveNames(ctx *runtime.Context, t *engine.Transaction, n int) ([]string, error) {
	names := make([]string, n)
	cursor := t.State().Base
	for i := n - 1; i >= 0; i-- {
		commit, err := ctx.Store.Commit(cursor)
		if err != nil {
			return nil, err
		}
		if commit.NumParents() == 0 {
			return nil, errors.NewInvalidOperationError("not enough history below the stack base")
		}
		taken := func(name string) bool {
			if t.State().Has(name) {
				return true
			}
			for _, existing := range names {
				if existing == name {
					return true
				}
			}
			return false
		}
		names[i] = stack.NameFromMessage(commit.Message, taken)
		cursor = commit.ParentHashes[0]
	}
	return names, nil
}

// CommitOptions contains options for the commit command
type CommitOptions struct {
	Number int
	All    bool
}

// CommitAction finalizes the bottommost applied patches into regular
// history by advancing the stack base past them.
func CommitAction(ctx *runtime.Context, opts CommitOptions) error {
	var finalized []string

	_, err := runStack(ctx, commitMessage(opts), engine.RunOptions{}, func(t *engine.Transaction) error {
		n := opts.Number
		if opts.All {
			n = len(t.State().Applied)
		}
		if n <= 0 {
			n = 1
		}
		if n > len(t.State().Applied) {
			return errors.NewInvalidOperationError("cannot commit %d patches, %d applied", n, len(t.State().Applied))
		}
		finalized = append([]string(nil), t.State().Applied[:n]...)
		return t.CommitPatches(n)
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("committed %s", strings.Join(finalized, " "))
	return nil
}

func commitMessage(opts CommitOptions) string {
	if opts.All {
		return "commit --all"
	}
	if opts.Number > 1 {
		return fmt.Sprintf("commit -n %d", opts.Number)
	}
	return "commit"
}
