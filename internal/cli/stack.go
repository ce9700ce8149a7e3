package cli

import (
	"github.com/spf13/cobra"

	"stax.dev/stax/internal/actions"
	"stax.dev/stax/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Start tracking the current branch as a patch stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.InitAction(ctx)
		},
	}
}

// newNewCmd creates the new command
func newNewCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty patch on top of the stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.NewAction(ctx, actions.NewOptions{
				Name:    args[0],
				Message: message,
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message for the patch")
	return cmd
}

// newSeriesCmd creates the series command
func newSeriesCmd() *cobra.Command {
	var description, all bool

	cmd := &cobra.Command{
		Use:     "series",
		Short:   "List the patches in the stack",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.SeriesAction(ctx, actions.SeriesOptions{
				Description: description,
				All:         all,
			})
		},
	}

	cmd.Flags().BoolVarP(&description, "description", "d", false, "show each patch's commit summary")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden patches")
	return cmd
}

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	var number int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recorded stack operations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.LogAction(ctx, actions.LogOptions{Number: number})
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 0, "limit to n entries")
	return cmd
}

// newRepairCmd creates the repair command
func newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Import commits made on the branch outside of stax",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}
			return actions.RepairAction(ctx)
		},
	}
}
