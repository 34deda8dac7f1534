package main

import (
	"github.com/spf13/cobra"
)

var stashesCmd = &cobra.Command{
	Use:   "stashes",
	Short: "List the stash branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		stashes, err := wf.WT.Stashes(ctx)
		if err != nil {
			return err
		}
		if len(stashes) == 0 {
			wf.UI.Info("No stashes.")
			return nil
		}
		for _, stash := range stashes {
			wf.UI.Show("%s", stash)
		}
		return nil
	},
}

var unstashCmd = &cobra.Command{
	Use:   "unstash [stash-branch]",
	Short: "Restore stashed changes into the working tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return stashesCmd.RunE(cmd, nil)
		}
		showDiff, _ := cmd.Flags().GetBool("show-diff")
		return wf.WT.Unstash(ctx, args[0], showDiff)
	},
}

func init() {
	unstashCmd.Flags().Bool("show-diff", false, "show the stashed changes instead of applying them")
	rootCmd.AddCommand(stashesCmd)
	rootCmd.AddCommand(unstashCmd)
}
