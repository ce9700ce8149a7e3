package actions

import (
	"bytes"

	"github.com/go-git/go-git/v5/plumbing"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/errors"
	"stax.dev/stax/internal/runtime"
)

// RefreshOptions contains options for the refresh command
type RefreshOptions struct {
	// Patch names the applied patch to fold changes into; empty means
	// the topmost patch.
	Patch string
}

var conflictMarker = []byte("<<<<<<<")

// RefreshAction folds the worktree's tracked changes into a patch. When a
// conflict is pending, refresh instead records the worktree as that
// patch's resolution and clears the conflict.
func RefreshAction(ctx *runtime.Context, opts RefreshOptions) error {
	delta, err := ctx.Store.WorktreeDelta()
	if err != nil {
		return err
	}
	ctx.Splog.Debug("worktree delta covers %d paths", len(delta))

	var refreshed string
	result, err := runStack(ctx, "refresh", engine.RunOptions{AllowConflict: true}, func(t *engine.Transaction) error {
		head, err := ctx.Store.Commit(t.Head())
		if err != nil {
			return err
		}
		newTree, err := ctx.Store.ApplyDelta(head.TreeHash, delta)
		if err != nil {
			return err
		}

		if rec := t.Conflict(); rec != nil {
			if opts.Patch != "" && opts.Patch != rec.Patch {
				return errors.NewInvalidOperationError(
					"conflict on patch %s must be resolved before refreshing %s", rec.Patch, opts.Patch)
			}
			if err := checkMarkersGone(ctx, rec.Paths, newTree); err != nil {
				return err
			}
			refreshed = rec.Patch
			return t.ResolveConflict(newTree)
		}

		name := opts.Patch
		if name == "" {
			top, ok := t.State().Top()
			if !ok {
				return errors.NewInvalidOperationError("no applied patches to refresh")
			}
			name = top
		}
		refreshed = name
		return t.RefreshPatch(name, newTree)
	})
	if err != nil {
		return err
	}

	ctx.Splog.Info("refreshed %s", ctx.Splog.Applied(refreshed))
	return finish(ctx, result)
}

// checkMarkersGone refuses a resolution whose tree still carries conflict
// markers in a previously conflicted file.
func checkMarkersGone(ctx *runtime.Context, paths []string, tree plumbing.Hash) error {
	entries, err := ctx.Store.FlattenTree(tree)
	if err != nil {
		return err
	}
	for _, path := range paths {
		entry, ok := entries[path]
		if !ok {
			continue
		}
		data, err := ctx.Store.BlobBytes(entry.Hash)
		if err != nil {
			return err
		}
		if bytes.Contains(data, conflictMarker) {
			return errors.NewInvalidOperationError("%s still contains conflict markers", path)
		}
	}
	return nil
}
