// Package cli wires the stax commands. Each command resolves its options
// and delegates to an action; the shared runtime context is built once in
// the root command's PersistentPreRunE.
package cli

import (
	"github.com/spf13/cobra"

	"stax.dev/stax/internal/runtime"
)

// NewRootCmd creates the stax root command
func NewRootCmd(version string) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:           "stax",
		Version:       version,
		Short:         "Manage a stack of patches on a git branch",
		Long:          "stax maintains an ordered series of named patches on top of a git branch.\nPatches can be pushed, popped, reordered and refreshed; every operation is\natomic and undoable.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rc, err := runtime.NewContext()
			if err != nil {
				return err
			}
			rc.Splog.SetQuiet(quiet)
			cmd.SetContext(runtime.WithContext(cmd.Context(), rc))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(
		newInitCmd(),
		newNewCmd(),
		newPushCmd(),
		newPopCmd(),
		newGotoCmd(),
		newRefreshCmd(),
		newSeriesCmd(),
		newDeleteCmd(),
		newRenameCmd(),
		newFloatCmd(),
		newSinkCmd(),
		newHideCmd(),
		newUnhideCmd(),
		newPickCmd(),
		newUncommitCmd(),
		newCommitCmd(),
		newLogCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newRepairCmd(),
	)

	return cmd
}
