package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create [summary]",
	Short: "File a new ticket and switch to a branch for it",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		wf, err := newWorkflow(ctx)
		if err != nil {
			return err
		}

		summary := strings.Join(args, " ")
		if summary == "" {
			summary, err = wf.UI.Input("Summary")
			if err != nil {
				return err
			}
		}
		description, _ := cmd.Flags().GetString("description")

		_, err = wf.CreateTicket(ctx, summary, description)
		return err
	},
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "ticket description")
	rootCmd.AddCommand(createCmd)
}
