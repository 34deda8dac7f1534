package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/worktree"
)

// Abandon retires a ticket's branch (or a plain branch): the branch is
// renamed into the trash namespace and its ticket association and
// dependencies are cleared. The trunk and the checked-out branch are never
// abandoned, and unmerged work requires confirmation.
func (w *Workflow) Abandon(ctx context.Context, arg string) error {
	branch, err := w.resolveLocalBranch(ctx, arg)
	if err != nil {
		return err
	}
	if branch == w.Trunk {
		return fmt.Errorf("refusing to abandon the trunk branch %q: %w", w.Trunk, types.ErrCancelled)
	}

	current, err := w.Git.CurrentBranch(ctx)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return err
	}
	if err == nil && current == branch {
		return fmt.Errorf("cannot abandon the branch you are on; switch to another branch first (e.g. \"tkt switch-branch %s\"): %w",
			w.Trunk, types.ErrCancelled)
	}

	merged, err := w.Git.IsAncestorOf(ctx, branch, w.Trunk)
	if err != nil {
		return err
	}
	if !merged {
		ok, err := w.UI.Confirm(
			fmt.Sprintf("The branch %q has not been merged into %q; its work is not preserved anywhere else. Abandon it anyway?", branch, w.Trunk),
			false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("abandon of %q declined: %w", branch, types.ErrCancelled)
		}
	}

	branches, err := w.Git.LocalBranches(ctx)
	if err != nil {
		return err
	}
	trash := worktree.TrashName(branches, branch)
	if err := w.Git.RenameBranch(ctx, branch, trash); err != nil {
		return err
	}

	w.Reg.RemoveBranch(branch)
	if err := w.Reg.Save(); err != nil {
		return err
	}
	w.UI.Info("Moved %q to %q; recover it with \"git branch %s %s\".", branch, trash, branch, trash)
	return nil
}

// PruneClosedTickets abandons every registered branch whose work is already
// contained in the trunk. The checked-out branch is skipped with a warning.
func (w *Workflow) PruneClosedTickets(ctx context.Context) error {
	current, err := w.Git.CurrentBranch(ctx)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return err
	}

	pruned := 0
	for _, ticket := range w.Reg.Tickets() {
		branch, ok := w.Reg.BranchForTicket(ticket)
		if !ok || branch == w.Trunk {
			continue
		}
		merged, err := w.Git.IsAncestorOf(ctx, branch, w.Trunk)
		if err != nil {
			return err
		}
		if !merged {
			continue
		}
		if branch == current {
			w.UI.Warn("the branch %q for ticket %s is merged but checked out; not pruning it", branch, ticket)
			continue
		}
		w.UI.Info("Ticket %s is contained in %q; abandoning %q.", ticket, w.Trunk, branch)
		if err := w.Abandon(ctx, branch); err != nil {
			return err
		}
		pruned++
	}
	if pruned == 0 {
		w.UI.Info("No ticket branches are fully merged into %q.", w.Trunk)
	}
	return nil
}

// resolveLocalBranch maps a ticket or branch argument to an existing local
// branch.
func (w *Workflow) resolveLocalBranch(ctx context.Context, arg string) (string, error) {
	if types.IsTicketName(arg) {
		ticket, err := types.ParseTicket(arg)
		if err != nil {
			return "", err
		}
		branch, ok := w.Reg.BranchForTicket(ticket)
		if !ok {
			return "", &types.NotFoundError{Kind: "local branch for ticket", Name: ticket.String()}
		}
		return branch, nil
	}
	if err := types.CheckBranchName(arg); err != nil {
		return "", err
	}
	exists, err := w.Git.BranchExists(ctx, arg)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &types.NotFoundError{Kind: "branch", Name: arg}
	}
	return arg, nil
}
