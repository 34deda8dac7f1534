// Package workflow implements the ticket-level operations of tkt: creating
// and switching tickets, abandoning branches, dependency display, and diffs
// against a chosen base. It builds on the sync engine for anything that
// moves branch data.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/sync"
	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
)

// Workflow exposes the user-facing ticket operations. It shares all of its
// collaborators with the sync engine it embeds.
type Workflow struct {
	*sync.Engine
}

// New wires a Workflow around a configured engine.
func New(engine *sync.Engine) *Workflow {
	return &Workflow{Engine: engine}
}

// Reconcile drops registry entries whose local branch no longer exists,
// warning about each. Commands call this once on startup.
func (w *Workflow) Reconcile(ctx context.Context) error {
	dropped := w.Reg.Reconcile(func(branch string) bool {
		exists, err := w.Git.BranchExists(ctx, branch)
		return err == nil && exists
	})
	if len(dropped) == 0 {
		return nil
	}
	for _, stale := range dropped {
		w.UI.Warn("the branch %q for ticket %s no longer exists; dropping the stale record", stale.Branch, stale.Ticket)
	}
	return w.Reg.Save()
}

// CreateTicket files a new ticket on the tracker and switches to a fresh
// branch for it. A failed switch does not undo the creation; the manual
// command is reported instead.
func (w *Workflow) CreateTicket(ctx context.Context, summary, description string) (types.TicketID, error) {
	ticket, err := w.Trac.CreateTicket(ctx, summary, description)
	if err != nil {
		return 0, err
	}
	w.UI.Info("Created ticket %s.", ticket)

	if err := w.SwitchTicket(ctx, ticket, "", ""); err != nil {
		w.UI.Warn("could not switch to a branch for the new ticket: %v", err)
		w.UI.Info("Switch manually with \"tkt switch %d\".", int(ticket))
	}
	return ticket, nil
}

// SwitchTicket makes the ticket the current one. branch may name an existing
// local branch to adopt, or the name for a new branch; base picks what a new
// branch starts from (a ticket, a local branch, or empty for the tracker's
// branch falling back to the trunk).
func (w *Workflow) SwitchTicket(ctx context.Context, ticket types.TicketID, branch, base string) error {
	exists, err := w.Trac.ExistsTicket(ctx, ticket)
	if err != nil {
		return err
	}
	if !exists {
		return &types.NotFoundError{Kind: "ticket", Name: ticket.String()}
	}

	if branch != "" {
		if err := types.CheckBranchName(branch); err != nil {
			return err
		}
		haveBranch, err := w.Git.BranchExists(ctx, branch)
		if err != nil {
			return err
		}
		if haveBranch {
			// Adopt the existing branch for this ticket.
			w.Reg.SetTicketBranch(ticket, branch)
			if err := w.Reg.Save(); err != nil {
				return err
			}
			return w.SwitchBranch(ctx, branch)
		}
	}

	if branch == "" {
		if registered, ok := w.Reg.BranchForTicket(ticket); ok {
			return w.SwitchBranch(ctx, registered)
		}
		branch = sync.DefaultLocalBranch(ticket)
	}

	haveBranch, err := w.Git.BranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if haveBranch {
		return fmt.Errorf("%w; pick another name with \"tkt switch %d --branch <name>\"",
			&types.NotFoundError{Kind: "branch", Name: branch, Exists: true}, int(ticket))
	}

	if err := w.createTicketBranch(ctx, ticket, branch, base); err != nil {
		return err
	}

	w.Reg.SetTicketBranch(ticket, branch)
	w.Reg.SetRemoteBranch(branch, w.DefaultRemoteBranch(ticket))
	if err := w.Reg.Save(); err != nil {
		return err
	}
	return w.SwitchBranch(ctx, branch)
}

// createTicketBranch creates the ticket's new local branch from base: an
// explicit ticket or branch, or, with no base, the tracker's branch when it
// has one and the trunk otherwise. Downloading the tracker's branch also
// copies its dependency field into the registry.
func (w *Workflow) createTicketBranch(ctx context.Context, ticket types.TicketID, branch, base string) error {
	if base == "" {
		field, err := trac.BranchForTicket(ctx, w.Trac, ticket)
		if err != nil {
			return err
		}
		if field != "" {
			remoteExists, err := w.Git.RemoteBranchExists(ctx, w.Remote, field)
			if err != nil {
				return err
			}
			if remoteExists {
				if err := w.Git.Fetch(ctx, w.Remote, field+":"+branch); err != nil {
					return err
				}
				deps, err := trac.Dependencies(ctx, w.Trac, ticket)
				if err != nil {
					return err
				}
				w.Reg.SetDependencies(ticket, deps)
				return nil
			}
			w.UI.Warn("the branch field of ticket %s points to %q, which does not exist on %q; starting from %q instead",
				ticket, field, w.Remote, w.Trunk)
		}
		return w.Git.CreateBranch(ctx, branch, w.Trunk)
	}

	// An explicit base overrides whatever the tracker says; make sure that
	// is what the user wants when the ticket already has remote work.
	field, err := trac.BranchForTicket(ctx, w.Trac, ticket)
	if err != nil {
		return err
	}
	if field != "" {
		ok, err := w.UI.Confirm(fmt.Sprintf(
			"Ticket %s already has the branch %q on the tracker; start from %q instead?",
			ticket, field, base), true)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("not starting a branch for ticket %s: %w", ticket, types.ErrCancelled)
		}
	}

	baseRef := base
	if types.IsTicketName(base) {
		baseTicket, err := types.ParseTicket(base)
		if err != nil {
			return err
		}
		if baseTicket == ticket {
			return fmt.Errorf("ticket %s cannot be based on itself: %w", ticket, types.ErrCancelled)
		}
		if registered, ok := w.Reg.BranchForTicket(baseTicket); ok {
			baseRef = registered
		} else {
			baseField, err := trac.BranchForTicket(ctx, w.Trac, baseTicket)
			if err != nil {
				return err
			}
			if baseField == "" {
				return &types.NotFoundError{Kind: "branch for ticket", Name: baseTicket.String()}
			}
			if err := w.Git.Fetch(ctx, w.Remote, baseField); err != nil {
				return err
			}
			baseRef = "FETCH_HEAD"
		}
		// Basing on a ticket is depending on it.
		if w.Reg.AddDependency(ticket, baseTicket) {
			w.UI.Info("Recorded the dependency of %s on %s.", ticket, baseTicket)
		}
	} else {
		exists, err := w.Git.BranchExists(ctx, base)
		if err != nil {
			return err
		}
		if !exists {
			return &types.NotFoundError{Kind: "branch", Name: base}
		}
	}
	return w.Git.CreateBranch(ctx, branch, baseRef)
}

// SwitchBranch checks out branch. Uncommitted changes survive the switch
// only when the two branches point at the same commit; otherwise the user
// decides their fate first.
func (w *Workflow) SwitchBranch(ctx context.Context, branch string) error {
	exists, err := w.Git.BranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if !exists {
		return &types.NotFoundError{Kind: "branch", Name: branch}
	}

	current, err := w.Git.CurrentBranch(ctx)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return err
	}
	if err == nil && current == branch {
		w.UI.Info("Already on branch %q.", branch)
		return nil
	}

	changes, err := w.Git.UncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		same, err := w.sameCommit(ctx, "HEAD", branch)
		if err != nil {
			return err
		}
		if !same {
			if err := w.WT.ResetToCleanWorkingDirectory(ctx); err != nil {
				return err
			}
		}
	} else if err := w.WT.ResetToCleanState(ctx); err != nil {
		return err
	}

	if err := w.Git.Checkout(ctx, branch); err != nil {
		return err
	}
	w.UI.Info("Switched to branch %q.", branch)
	return nil
}

func (w *Workflow) sameCommit(ctx context.Context, a, b string) (bool, error) {
	commitA, err := w.Git.CommitForRef(ctx, a)
	if err != nil {
		return false, err
	}
	commitB, err := w.Git.CommitForRef(ctx, b)
	if err != nil {
		return false, err
	}
	return commitA == commitB, nil
}
