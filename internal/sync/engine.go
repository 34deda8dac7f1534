// Package sync moves ticket work between the local repository, the remote
// git server, and the issue tracker. It owns download, upload, merge, and
// gather, the fast-forward and divergence checks they rely on, and the
// interactive conflict resolution loop they share.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/registry"
	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/ui"
	"github.com/tktflow/tkt/internal/worktree"
)

// Engine orchestrates branch data movement for one repository.
type Engine struct {
	Git      *git.Client
	Trac     trac.Tracker
	UI       ui.UI
	Reg      *registry.Registry
	WT       *worktree.Manager
	Remote   string
	Trunk    string
	Username string
}

// DefaultRemoteBranch returns the conventional remote branch for a ticket,
// "u/<username>/ticket/<id>".
func (e *Engine) DefaultRemoteBranch(ticket types.TicketID) string {
	return fmt.Sprintf("u/%s/ticket/%d", e.Username, int(ticket))
}

// DefaultLocalBranch returns the conventional local branch for a ticket,
// "ticket/<id>".
func DefaultLocalBranch(ticket types.TicketID) string {
	return fmt.Sprintf("ticket/%d", int(ticket))
}

// TrackingBranch returns the remote branch the local branch pushes to. The
// registry's record wins; a ticket branch without one falls back to the
// conventional name.
func (e *Engine) TrackingBranch(branch string) (string, bool) {
	if remote, ok := e.Reg.RemoteBranch(branch); ok {
		return remote, true
	}
	if ticket, ok := e.Reg.TicketForBranch(branch); ok {
		return e.DefaultRemoteBranch(ticket), true
	}
	return "", false
}

// CurrentTicket returns the ticket associated with the checked-out branch.
func (e *Engine) CurrentTicket(ctx context.Context) (types.TicketID, bool, error) {
	branch, err := e.Git.CurrentBranch(ctx)
	if err != nil {
		if errors.Is(err, git.ErrDetachedHead) {
			return 0, false, nil
		}
		return 0, false, err
	}
	ticket, ok := e.Reg.TicketForBranch(branch)
	return ticket, ok, nil
}

// source is a resolved merge source: a git ref to merge plus the ticket it
// stands for, when known.
type source struct {
	ref       string
	display   string
	ticket    types.TicketID
	hasTicket bool
}

// resolveSource turns a user argument (ticket or branch name) into something
// git can merge. With download set the remote branch is fetched and
// FETCH_HEAD is merged; otherwise an existing local branch is used, falling
// back to a fetch when only the remote has it.
func (e *Engine) resolveSource(ctx context.Context, arg string, download bool) (*source, error) {
	if types.IsTicketName(arg) {
		ticket, err := types.ParseTicket(arg)
		if err != nil {
			return nil, err
		}
		if !download {
			if local, ok := e.Reg.BranchForTicket(ticket); ok {
				return &source{ref: local, display: ticket.String(), ticket: ticket, hasTicket: true}, nil
			}
			// No local branch; fall through to the tracker's branch.
		}
		remoteBranch, err := trac.BranchForTicket(ctx, e.Trac, ticket)
		if err != nil {
			return nil, err
		}
		if remoteBranch == "" {
			return nil, &types.NotFoundError{Kind: "remote branch for ticket", Name: ticket.String()}
		}
		if err := e.Git.Fetch(ctx, e.Remote, remoteBranch); err != nil {
			return nil, fmt.Errorf("fetch %q from %q: %w", remoteBranch, e.Remote, err)
		}
		return &source{ref: "FETCH_HEAD", display: ticket.String(), ticket: ticket, hasTicket: true}, nil
	}

	if err := types.CheckBranchName(arg); err != nil {
		return nil, err
	}
	if !download {
		exists, err := e.Git.BranchExists(ctx, arg)
		if err != nil {
			return nil, err
		}
		if exists {
			src := &source{ref: arg, display: arg}
			if ticket, ok := e.Reg.TicketForBranch(arg); ok {
				src.ticket, src.hasTicket = ticket, true
			}
			return src, nil
		}
	}
	exists, err := e.Git.RemoteBranchExists(ctx, e.Remote, arg)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &types.NotFoundError{Kind: "branch", Name: arg}
	}
	if err := e.Git.Fetch(ctx, e.Remote, arg); err != nil {
		return nil, fmt.Errorf("fetch %q from %q: %w", arg, e.Remote, err)
	}
	return &source{ref: "FETCH_HEAD", display: arg}, nil
}
