package main

import (
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps [ticket]",
	Short: "Show the dependencies of a ticket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		recursive, _ := cmd.Flags().GetBool("recursive")

		deps, err := wf.ShowDependencies(ctx, arg, recursive)
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			wf.UI.Info("No dependencies recorded.")
			return nil
		}
		for _, dep := range deps {
			line := dep.String()
			if branch, ok := wf.Reg.BranchForTicket(dep); ok {
				line += "  (" + branch + ")"
			}
			wf.UI.Show("%s", line)
		}
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff [base]",
	Short: "Diff the working tree against a base",
	Long: `Diff the working tree against a base: "commit" (the default) for HEAD,
"dependencies" for the merged dependencies of the current ticket, or a
ticket, local branch, or remote branch name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		base := ""
		if len(args) == 1 {
			base = args[0]
		}
		diff, err := wf.Diff(ctx, base)
		if err != nil {
			return err
		}
		if diff == "" {
			wf.UI.Info("No differences.")
			return nil
		}
		wf.UI.Show("%s", diff)
		return nil
	},
}

func init() {
	depsCmd.Flags().BoolP("recursive", "r", false, "follow dependencies of dependencies")
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(diffCmd)
}
