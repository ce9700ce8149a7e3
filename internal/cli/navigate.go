package cli

import (
	"github.com/spf13/cobra"

	"stax.dev/stax/internal/actions"
	"stax.dev/stax/internal/runtime"
)

// newPushCmd creates the push command
func newPushCmd() *cobra.Command {
	var all bool
	var number int

	cmd := &cobra.Command{
		Use:   "push [name...]",
		Short: "Apply unapplied patches onto the head",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.PushAction(ctx, actions.PushOptions{
				Names:  args,
				All:    all,
				Number: number,
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "push every unapplied patch")
	cmd.Flags().IntVarP(&number, "number", "n", 0, "push n patches")
	return cmd
}

// newPopCmd creates the pop command
func newPopCmd() *cobra.Command {
	var all bool
	var number int

	cmd := &cobra.Command{
		Use:   "pop [name...]",
		Short: "Unapply patches from the top of the stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.PopAction(ctx, actions.PopOptions{
				Names:  args,
				All:    all,
				Number: number,
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "pop every applied patch")
	cmd.Flags().IntVarP(&number, "number", "n", 0, "pop n patches")
	return cmd
}

// newGotoCmd creates the goto command
func newGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto <name>",
		Short: "Push or pop until the named patch is on top",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.GotoAction(ctx, actions.GotoOptions{Name: args[0]})
		},
	}
}

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Roll back the most recent stack operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.UndoAction(ctx)
		},
	}
}

// newRedoCmd creates the redo command
func newRedoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the most recently undone operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.RedoAction(ctx)
		},
	}
}
