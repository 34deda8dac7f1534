// Command tkt is a ticket-branch workflow tool: it keeps a git clone, a
// remote git server, and a Trac issue tracker in step so that every numbered
// ticket is worked on as a local branch that can be safely shared.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/registry"
	"github.com/tktflow/tkt/internal/sync"
	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/ui"
	"github.com/tktflow/tkt/internal/workflow"
	"github.com/tktflow/tkt/internal/worktree"
)

var (
	rootCtx    context.Context
	rootCancel context.CancelFunc

	terminal = ui.NewTerminal()
)

var rootCmd = &cobra.Command{
	Use:   "tkt",
	Short: "Work on tracker tickets as git branches",
	Long: `tkt keeps your local git clone, the shared git server, and the issue
tracker in a well-defined relationship: every ticket you work on lives on a
local branch, is pushed to a per-user remote branch, and carries its
dependencies on other tickets both locally and on the tracker.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().String("config", "", "config file (default .tkt.yaml in the repository, then $HOME)")
}

func loadConfig() {
	if path, _ := rootCmd.PersistentFlags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(".tkt")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("TKT")
	viper.AutomaticEnv()

	viper.SetDefault("git.remote", "origin")
	viper.SetDefault("git.trunk", "master")

	// A missing config file is fine; everything has defaults or prompts.
	_ = viper.ReadInConfig()
}

// newWorkflow wires the workflow against the repository in the working
// directory and the configured tracker.
func newWorkflow(ctx context.Context) (*workflow.Workflow, error) {
	g := git.New("")
	gitDir, err := g.GitDir(ctx)
	if err != nil {
		return nil, fmt.Errorf("tkt must run inside a git repository: %w", err)
	}
	reg, err := registry.Open(gitDir)
	if err != nil {
		return nil, err
	}

	username := viper.GetString("tracker.username")
	if username == "" {
		username = g.ConfigValue(ctx, "user.name")
	}
	if username == "" {
		username = os.Getenv("USER")
	}

	tracker := trac.NewClient(
		viper.GetString("tracker.url"),
		username,
		viper.GetString("tracker.token"),
	)

	engine := &sync.Engine{
		Git:      g,
		Trac:     tracker,
		UI:       terminal,
		Reg:      reg,
		WT:       &worktree.Manager{Git: g, UI: terminal},
		Remote:   viper.GetString("git.remote"),
		Trunk:    viper.GetString("git.trunk"),
		Username: username,
	}
	wf := workflow.New(engine)
	if err := wf.Reconcile(ctx); err != nil {
		return nil, err
	}
	return wf, nil
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		if types.IsCancelled(err) {
			terminal.Info("%v", err)
			os.Exit(2)
		}
		var cmdErr *git.CommandError
		if errors.As(err, &cmdErr) {
			terminal.Error("%s", cmdErr.Error())
			os.Exit(1)
		}
		terminal.Error("%v", err)
		os.Exit(1)
	}
}
