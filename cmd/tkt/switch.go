package main

import (
	"github.com/spf13/cobra"

	"github.com/tktflow/tkt/internal/types"
)

var switchCmd = &cobra.Command{
	Use:   "switch <ticket>",
	Short: "Switch to a ticket's branch, creating it if needed",
	Long: `Switch to the local branch for a ticket. Without an existing branch one is
created: from the ticket's branch on the tracker when it has one, from the
trunk otherwise, or from an explicit --base (a ticket or a local branch).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		ticket, err := types.ParseTicket(args[0])
		if err != nil {
			return err
		}
		branch, _ := cmd.Flags().GetString("branch")
		base, _ := cmd.Flags().GetString("base")
		return wf.SwitchTicket(ctx, ticket, branch, base)
	},
}

var switchBranchCmd = &cobra.Command{
	Use:   "switch-branch <branch>",
	Short: "Check out a local branch, handling uncommitted changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		return wf.SwitchBranch(ctx, args[0])
	},
}

func init() {
	switchCmd.Flags().String("branch", "", "name for the ticket's local branch")
	switchCmd.Flags().String("base", "", "start the new branch from this ticket or branch")
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(switchBranchCmd)
}
