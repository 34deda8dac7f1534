package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
)

// Upload pushes a ticket's local branch to its remote branch and brings the
// ticket's tracker attributes in line with what was pushed. arg names a
// ticket or local branch; empty means the checked-out branch. remoteBranch
// overrides where to push. Without force the push must be a fast-forward and
// a diverged tracker branch field is never overwritten.
func (e *Engine) Upload(ctx context.Context, arg, remoteBranch string, force bool) error {
	branch, ticket, hasTicket, err := e.resolveUploadTarget(ctx, arg)
	if err != nil {
		return err
	}

	if remoteBranch == "" {
		remoteBranch, err = e.remoteBranchFor(ctx, branch, ticket, hasTicket)
		if err != nil {
			return err
		}
	}
	if err := types.CheckBranchName(remoteBranch); err != nil {
		return err
	}
	userScope := fmt.Sprintf("u/%s/", e.Username)
	if !strings.HasPrefix(remoteBranch, userScope) {
		e.UI.Warn("the remote branch %q is not in your user scope (%s*); you may not have permission to push to it", remoteBranch, userScope)
	}

	pushed, err := e.push(ctx, branch, remoteBranch, force)
	if err != nil {
		return err
	}
	if pushed {
		e.UI.Info("Uploaded %q to the remote branch %q.", branch, remoteBranch)
	}

	e.Reg.SetRemoteBranch(branch, remoteBranch)
	if err := e.Reg.Save(); err != nil {
		return err
	}

	if !hasTicket {
		return nil
	}
	if err := e.updateTicketBranchField(ctx, ticket, branch, remoteBranch, force); err != nil {
		return err
	}
	return e.reconcileDependencies(ctx, ticket)
}

// resolveUploadTarget maps the command argument to the local branch to push
// and its ticket, when there is one.
func (e *Engine) resolveUploadTarget(ctx context.Context, arg string) (string, types.TicketID, bool, error) {
	if arg == "" {
		branch, err := e.Git.CurrentBranch(ctx)
		if err != nil {
			return "", 0, false, err
		}
		ticket, ok := e.Reg.TicketForBranch(branch)
		return branch, ticket, ok, nil
	}
	if types.IsTicketName(arg) {
		ticket, err := types.ParseTicket(arg)
		if err != nil {
			return "", 0, false, err
		}
		branch, ok := e.Reg.BranchForTicket(ticket)
		if !ok {
			return "", 0, false, &types.NotFoundError{Kind: "local branch for ticket", Name: ticket.String()}
		}
		return branch, ticket, true, nil
	}
	if err := types.CheckBranchName(arg); err != nil {
		return "", 0, false, err
	}
	exists, err := e.Git.BranchExists(ctx, arg)
	if err != nil {
		return "", 0, false, err
	}
	if !exists {
		return "", 0, false, &types.NotFoundError{Kind: "branch", Name: arg}
	}
	ticket, ok := e.Reg.TicketForBranch(arg)
	return arg, ticket, ok, nil
}

// remoteBranchFor picks the remote branch to push to: the ticket's tracker
// branch field, the branch's recorded tracking branch, or the conventional
// name for a ticket branch.
func (e *Engine) remoteBranchFor(ctx context.Context, branch string, ticket types.TicketID, hasTicket bool) (string, error) {
	if hasTicket {
		field, err := trac.BranchForTicket(ctx, e.Trac, ticket)
		if err != nil {
			return "", err
		}
		if field != "" {
			return field, nil
		}
	}
	if remote, ok := e.Reg.RemoteBranch(branch); ok {
		return remote, nil
	}
	if hasTicket {
		return e.DefaultRemoteBranch(ticket), nil
	}
	return "", fmt.Errorf("branch %q has no remote branch to push to, use \"tkt set-remote\" first: %w", branch, types.ErrCancelled)
}

// push pushes branch to remoteBranch, refusing non-fast-forward pushes
// unless force is set. It reports whether anything was pushed; identical
// tips are a no-op.
func (e *Engine) push(ctx context.Context, branch, remoteBranch string, force bool) (bool, error) {
	exists, err := e.Git.RemoteBranchExists(ctx, e.Remote, remoteBranch)
	if err != nil {
		return false, err
	}
	if exists {
		if err := e.Git.Fetch(ctx, e.Remote, remoteBranch); err != nil {
			return false, err
		}
		remoteTip, err := e.Git.CommitForRef(ctx, "FETCH_HEAD")
		if err != nil {
			return false, err
		}
		localTip, err := e.Git.CommitForRef(ctx, branch)
		if err != nil {
			return false, err
		}
		if remoteTip == localTip {
			e.UI.Info("Not uploading %q; the remote branch %q is already identical.", branch, remoteBranch)
			return false, nil
		}
		if !force {
			ancestor, err := e.Git.IsAncestorOf(ctx, "FETCH_HEAD", branch)
			if err != nil {
				return false, err
			}
			if !ancestor {
				return false, fmt.Errorf(
					"the remote branch %q has commits that are not on %q; refusing to overwrite them. Download the remote changes first, or rerun with --force: %w",
					remoteBranch, branch, types.ErrCancelled)
			}
		}
		if log, err := e.Git.Log(ctx, "FETCH_HEAD.."+branch, "%h %s"); err == nil && log != "" {
			e.UI.Info("Pushing these commits to %q:", remoteBranch)
			e.UI.Show("%s", log)
		}
	} else {
		ok, err := e.UI.Confirm(fmt.Sprintf("The remote branch %q does not exist yet; create it?", remoteBranch), true)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("not uploading %q: %w", branch, types.ErrCancelled)
		}
	}
	if err := e.Git.Push(ctx, e.Remote, branch+":"+remoteBranch, force); err != nil {
		return false, err
	}
	return true, nil
}

// updateTicketBranchField points the ticket's tracker branch field at the
// pushed remote branch, asking first and refusing to clobber a diverged
// field unless forced.
func (e *Engine) updateTicketBranchField(ctx context.Context, ticket types.TicketID, branch, remoteBranch string, force bool) error {
	field, err := trac.BranchForTicket(ctx, e.Trac, ticket)
	if err != nil {
		return err
	}
	if field == remoteBranch {
		return nil
	}

	if field != "" && !force {
		exists, err := e.Git.RemoteBranchExists(ctx, e.Remote, field)
		if err != nil {
			return err
		}
		if exists {
			if err := e.Git.Fetch(ctx, e.Remote, field); err != nil {
				return err
			}
			ancestor, err := e.Git.IsAncestorOf(ctx, "FETCH_HEAD", branch)
			if err != nil {
				return err
			}
			if !ancestor {
				return fmt.Errorf(
					"the branch field of ticket %s points to %q, which has commits not contained in the upload; refusing to overwrite it. Merge %q first, or rerun with --force: %w",
					ticket, field, field, types.ErrCancelled)
			}
		}
	}

	prompt := fmt.Sprintf("Change the branch field of ticket %s from %q to %q?", ticket, field, remoteBranch)
	if field == "" {
		prompt = fmt.Sprintf("Set the branch field of ticket %s to %q?", ticket, remoteBranch)
	}
	ok, err := e.UI.Confirm(prompt, true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return e.Trac.UpdateAttributes(ctx, ticket, "", map[string]string{trac.AttrBranch: remoteBranch})
}

// reconcileDependencies arbitrates between the locally recorded dependency
// set and the tracker's field. Matching sets need nothing; diverged sets
// require an explicit upload/download/keep decision.
func (e *Engine) reconcileDependencies(ctx context.Context, ticket types.TicketID) error {
	local := e.Reg.Dependencies(ticket)
	remote, err := trac.Dependencies(ctx, e.Trac, ticket)
	if err != nil {
		return err
	}
	if trac.EqualDependencies(local, remote) {
		return nil
	}

	e.UI.Info("The dependencies recorded for ticket %s differ from the tracker's:", ticket)
	e.UI.Show("    local:   %s", trac.FormatDependencies(local))
	e.UI.Show("    tracker: %s", trac.FormatDependencies(remote))

	choice, err := e.UI.Select("Reconcile dependencies", []string{"upload", "download", "keep"}, -1)
	if err != nil {
		return err
	}
	switch choice {
	case 0:
		return e.Trac.UpdateAttributes(ctx, ticket, "", map[string]string{
			trac.AttrDependencies: trac.FormatDependencies(local),
		})
	case 1:
		e.Reg.SetDependencies(ticket, remote)
		return e.Reg.Save()
	default:
		return nil
	}
}
