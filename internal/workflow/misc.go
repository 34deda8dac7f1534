package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
)

// TicketSummary is one row of the local ticket listing.
type TicketSummary struct {
	Ticket  types.TicketID
	Branch  string
	Summary string
}

// LocalTickets lists every ticket with a registered local branch, with the
// tracker's summary when it is reachable.
func (w *Workflow) LocalTickets(ctx context.Context) ([]TicketSummary, error) {
	var rows []TicketSummary
	for _, ticket := range w.Reg.Tickets() {
		branch, ok := w.Reg.BranchForTicket(ticket)
		if !ok {
			continue
		}
		row := TicketSummary{Ticket: ticket, Branch: branch}
		if attrs, err := w.Trac.Attributes(ctx, ticket); err == nil {
			row.Summary = attrs[trac.AttrSummary]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SetRemote records the remote branch a local branch (or a ticket's branch)
// pushes to. Branches outside the user's scope draw a permission warning.
func (w *Workflow) SetRemote(ctx context.Context, arg, remoteBranch string) error {
	branch, err := w.resolveLocalBranch(ctx, arg)
	if err != nil {
		return err
	}
	if err := types.CheckBranchName(remoteBranch); err != nil {
		return err
	}
	userScope := fmt.Sprintf("u/%s/", w.Username)
	if !strings.HasPrefix(remoteBranch, userScope) {
		w.UI.Warn("the remote branch %q is not in your user scope (%s*); you may not have permission to push to it", remoteBranch, userScope)
	}
	w.Reg.SetRemoteBranch(branch, remoteBranch)
	if err := w.Reg.Save(); err != nil {
		return err
	}
	w.UI.Info("Branch %q now pushes to %q.", branch, remoteBranch)
	return nil
}

// Vanilla puts the working tree on an unmodified trunk state: the local
// trunk branch, or, when release names something else, that ref from the
// remote in detached HEAD mode.
func (w *Workflow) Vanilla(ctx context.Context, release string) error {
	if err := w.WT.ResetToCleanWorkingDirectory(ctx); err != nil {
		return err
	}
	if release == "" || release == w.Trunk {
		return w.Git.Checkout(ctx, w.Trunk)
	}

	exists, err := w.Git.RemoteBranchExists(ctx, w.Remote, release)
	if err != nil {
		return err
	}
	if !exists {
		return &types.NotFoundError{Kind: "remote branch", Name: release}
	}
	if err := w.Git.Fetch(ctx, w.Remote, release); err != nil {
		return err
	}
	return w.Git.CheckoutDetached(ctx, "FETCH_HEAD")
}

// Commit records the working tree changes on the current branch. Untracked
// files are offered for inclusion; an empty message is asked for
// interactively.
func (w *Workflow) Commit(ctx context.Context, message string) error {
	branch, err := w.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	untracked, err := w.Git.UntrackedFiles(ctx)
	if err != nil {
		return err
	}
	if len(untracked) > 0 {
		w.UI.Info("The following files are not tracked:")
		for _, file := range untracked {
			w.UI.Show("    %s", file)
		}
		add, err := w.UI.Confirm("Add these files to your commit?", false)
		if err != nil {
			return err
		}
		if add {
			for _, file := range untracked {
				if err := w.Git.Add(ctx, file); err != nil {
					return err
				}
			}
		}
	}

	if message == "" {
		message, err = w.UI.Input("Commit message")
		if err != nil {
			return err
		}
		if strings.TrimSpace(message) == "" {
			return errors.New("refusing to commit with an empty message")
		}
	}

	if err := w.Git.Commit(ctx, message, true); err != nil {
		return err
	}
	w.UI.Info("Committed your changes to branch %q.", branch)
	return nil
}
