package actions

import (
	"strings"

	"stax.dev/stax/internal/engine"
	"stax.dev/stax/internal/runtime"
)

// LogOptions contains options for the log command
type LogOptions struct {
	Number int
}

// LogAction lists recorded stack operations, newest first. Each entry is
// an undo step.
func LogAction(ctx *runtime.Context, opts LogOptions) error {
	branch, err := ctx.CurrentBranch()
	if err != nil {
		return err
	}

	entries, err := engine.History(ctx.Store, branch, opts.Number)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		summary := entry.Message
		if i := strings.IndexByte(summary, '\n'); i >= 0 {
			summary = summary[:i]
		}
		ctx.Splog.Info("%s %s %s",
			entry.StateCommit.String()[:10],
			entry.When.Format("2006-01-02 15:04:05"),
			summary)
	}
	return nil
}
