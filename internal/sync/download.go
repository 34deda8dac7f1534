package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
)

// Download brings remote ticket work into a local branch. The argument is a
// ticket (whose tracker branch field names the remote branch) or a remote
// branch name; localBranch overrides where it lands. Downloading into the
// checked-out branch becomes a merge; into any other branch it must
// fast-forward.
func (e *Engine) Download(ctx context.Context, arg, localBranch string) error {
	remoteBranch := arg
	var ticket types.TicketID
	hasTicket := false

	if types.IsTicketName(arg) {
		var err error
		ticket, err = types.ParseTicket(arg)
		if err != nil {
			return err
		}
		hasTicket = true
		remoteBranch, err = trac.BranchForTicket(ctx, e.Trac, ticket)
		if err != nil {
			return err
		}
		if remoteBranch == "" {
			return &types.NotFoundError{Kind: "remote branch for ticket", Name: ticket.String()}
		}
	} else if err := types.CheckBranchName(arg); err != nil {
		return err
	}

	target := localBranch
	if target == "" {
		if hasTicket {
			if registered, ok := e.Reg.BranchForTicket(ticket); ok {
				target = registered
			} else {
				target = DefaultLocalBranch(ticket)
			}
		} else {
			current, err := e.Git.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			target = current
		}
	}

	current, err := e.Git.CurrentBranch(ctx)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return err
	}
	if err == nil && target == current {
		// Merging the remote branch by name sidesteps the self-merge check;
		// pulling a ticket's own remote work into its branch is the point.
		download := true
		return e.Merge(ctx, remoteBranch, MergeOptions{Download: &download})
	}

	exists, err := e.Git.BranchExists(ctx, target)
	if err != nil {
		return err
	}
	if err := e.Git.Fetch(ctx, e.Remote, remoteBranch+":"+target); err != nil {
		if exists {
			var cmdErr *git.CommandError
			if errors.As(err, &cmdErr) {
				cmdErr.Explain = fmt.Sprintf("the local branch %q has commits that are not on the remote branch %q, so it cannot be fast-forwarded", target, remoteBranch)
				cmdErr.Advice = fmt.Sprintf("switch to %q and run \"tkt merge --download %s\" to merge the remote changes instead", target, arg)
			}
		}
		return err
	}
	e.UI.Info("Downloaded %q into the local branch %q.", remoteBranch, target)
	return nil
}
