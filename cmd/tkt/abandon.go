package main

import (
	"github.com/spf13/cobra"
)

var abandonCmd = &cobra.Command{
	Use:   "abandon <ticket|branch>",
	Short: "Retire a ticket's branch into the trash namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		return wf.Abandon(ctx, args[0])
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Abandon every ticket branch already merged into the trunk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		return wf.PruneClosedTickets(ctx)
	},
}

func init() {
	rootCmd.AddCommand(abandonCmd)
	rootCmd.AddCommand(pruneCmd)
}
