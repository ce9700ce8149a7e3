package cli

import (
	"github.com/spf13/cobra"

	"stax.dev/stax/internal/actions"
	"stax.dev/stax/internal/runtime"
)

// newRefreshCmd creates the refresh command
func newRefreshCmd() *cobra.Command {
	var patch string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fold worktree changes into a patch, or resolve a conflict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.RefreshAction(ctx, actions.RefreshOptions{Patch: patch})
		},
	}

	cmd.Flags().StringVarP(&patch, "patch", "p", "", "fold into this applied patch instead of the top one")
	return cmd
}

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>...",
		Short: "Remove patches from the stack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.DeleteAction(ctx, actions.DeleteOptions{
				Names: args,
				Force: force,
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

// newRenameCmd creates the rename command
func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a patch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.RenameAction(ctx, actions.RenameOptions{
				OldName: args[0],
				NewName: args[1],
			})
		},
	}
}

// newFloatCmd creates the float command
func newFloatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "float <name>",
		Short: "Move an applied patch to the top of the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.FloatAction(ctx, actions.FloatOptions{Name: args[0]})
		},
	}
}

// newSinkCmd creates the sink command
func newSinkCmd() *cobra.Command {
	var below string

	cmd := &cobra.Command{
		Use:   "sink <name>",
		Short: "Move an applied patch down the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.SinkAction(ctx, actions.SinkOptions{
				Name:  args[0],
				Below: below,
			})
		},
	}

	cmd.Flags().StringVarP(&below, "below", "b", "", "sink underneath this applied patch")
	return cmd
}

// newHideCmd creates the hide command
func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide <name>...",
		Short: "Hide unapplied patches from the series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.HideAction(ctx, actions.HideOptions{Names: args})
		},
	}
}

// newUnhideCmd creates the unhide command
func newUnhideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhide <name>...",
		Short: "Move hidden patches back to the unapplied list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.UnhideAction(ctx, actions.HideOptions{Names: args})
		},
	}
}

// newPickCmd creates the pick command
func newPickCmd() *cobra.Command {
	var name string
	var apply bool

	cmd := &cobra.Command{
		Use:   "pick <rev>",
		Short: "Import an existing commit as a new patch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.PickAction(ctx, actions.PickOptions{
				Rev:   args[0],
				Name:  name,
				Apply: apply,
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name for the new patch")
	cmd.Flags().BoolVar(&apply, "apply", false, "push the picked patch immediately")
	return cmd
}

// newUncommitCmd creates the uncommit command
func newUncommitCmd() *cobra.Command {
	var number int

	cmd := &cobra.Command{
		Use:   "uncommit [name...]",
		Short: "Turn commits below the stack base into patches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.UncommitAction(ctx, actions.UncommitOptions{
				Names:  args,
				Number: number,
			})
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 1, "uncommit n commits")
	return cmd
}

// newCommitCmd creates the commit command
func newCommitCmd() *cobra.Command {
	var number int
	var all bool

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Finalize the bottommost applied patches into history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.CommitAction(ctx, actions.CommitOptions{
				Number: number,
				All:    all,
			})
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 1, "commit n patches")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "commit every applied patch")
	return cmd
}
