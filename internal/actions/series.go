package actions

import (
	"strings"

	"stax.dev/stax/internal/runtime"
	"stax.dev/stax/internal/stack"
)

// SeriesOptions contains options for the series command
type SeriesOptions struct {
	// Description adds each patch's commit summary to the listing
	Description bool
	// All includes hidden patches
	All bool
}

// SeriesAction lists the stack: applied patches marked '+', the top '>',
// unapplied '-', and hidden '!'. The in-progress marker on the top patch
// means a conflict is waiting for resolution.
func SeriesAction(ctx *runtime.Context, opts SeriesOptions) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}
	stk, err := stack.Load(ctx.Store, branch)
	if err != nil {
		return err
	}

	printLine := func(marker byte, name string, styled bool) error {
		line := string(marker) + " " + name
		if styled {
			line = string(marker) + " " + ctx.Splog.Applied(name)
		}
		if opts.Description {
			commit, err := ctx.Store.Commit(stk.Patches[name])
			if err != nil {
				return err
			}
			summary := commit.Message
			if i := strings.IndexByte(summary, '\n'); i >= 0 {
				summary = summary[:i]
			}
			line += " # " + summary
		}
		ctx.Splog.Info("%s", line)
		return nil
	}

	for i, name := range stk.Applied {
		marker := byte('+')
		if i == len(stk.Applied)-1 {
			marker = '>'
			if stk.InProgress != nil {
				marker = '!'
			}
		}
		if err := printLine(marker, name, marker != '+'); err != nil {
			return err
		}
	}
	for _, name := range stk.Unapplied {
		if err := printLine('-', name, false); err != nil {
			return err
		}
	}
	if opts.All {
		for _, name := range stk.Hidden {
			if err := printLine('!', name, false); err != nil {
				return err
			}
		}
	}
	return nil
}
