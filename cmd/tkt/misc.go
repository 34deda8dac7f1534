package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the working tree to the current branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		return wf.Commit(ctx, message)
	},
}

var setRemoteCmd = &cobra.Command{
	Use:   "set-remote <ticket|branch> <remote-branch>",
	Short: "Set the remote branch a local branch pushes to",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		return wf.SetRemote(ctx, args[0], args[1])
	},
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List the tickets with a local branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		rows, err := wf.LocalTickets(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			wf.UI.Info("No tickets have a local branch; start one with \"tkt switch <ticket>\".")
			return nil
		}
		for _, row := range rows {
			line := fmt.Sprintf("%-8s %s", row.Ticket, row.Branch)
			if row.Summary != "" {
				line += "  " + row.Summary
			}
			wf.UI.Show("%s", line)
		}
		return nil
	},
}

var vanillaCmd = &cobra.Command{
	Use:   "vanilla [release]",
	Short: "Put the working tree on an unmodified trunk state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		release := ""
		if len(args) == 1 {
			release = args[0]
		}
		return wf.Vanilla(ctx, release)
	},
}

func init() {
	commitCmd.Flags().StringP("message", "m", "", "commit message")
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(setRemoteCmd)
	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(vanillaCmd)
}
