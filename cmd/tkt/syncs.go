package main

import (
	"github.com/spf13/cobra"

	"github.com/tktflow/tkt/internal/sync"
)

var downloadCmd = &cobra.Command{
	Use:   "download <ticket|remote-branch>",
	Short: "Bring remote ticket work into a local branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		branch, _ := cmd.Flags().GetString("branch")
		return wf.Download(ctx, args[0], branch)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [ticket|branch]",
	Short: "Push a ticket's branch and update its tracker attributes",
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
		remoteBranch, _ := cmd.Flags().GetString("remote")
		force, _ := cmd.Flags().GetBool("force")
		return wf.Upload(ctx, arg, remoteBranch, force)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <ticket|branch|dependencies>",
	Short: "Merge another ticket's work into the current branch",
	Long: `Merge a ticket's branch (or a plain branch) into the current branch.
The special source "dependencies" merges every recorded dependency of the
current ticket from the remote, one after another.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		var opts sync.MergeOptions
		if cmd.Flags().Changed("download") {
			v, _ := cmd.Flags().GetBool("download")
			opts.Download = &v
		}
		if cmd.Flags().Changed("create-dependency") {
			v, _ := cmd.Flags().GetBool("create-dependency")
			opts.CreateDependency = &v
		}
		return wf.Merge(ctx, args[0], opts)
	},
}

var gatherCmd = &cobra.Command{
	Use:   "gather <new-branch> <ticket|branch>...",
	Short: "Collect several tickets' work on a fresh branch off the trunk",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}
		return wf.Gather(ctx, args[0], args[1:])
	},
}

func init() {
	downloadCmd.Flags().String("branch", "", "local branch to download into")
	uploadCmd.Flags().String("remote", "", "remote branch to push to")
	uploadCmd.Flags().BoolP("force", "f", false, "overwrite remote commits and a diverged tracker branch field")
	mergeCmd.Flags().Bool("download", false, "merge the remote branch instead of the local one")
	mergeCmd.Flags().Bool("create-dependency", true, "record a dependency on the merged ticket")
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(gatherCmd)
}
