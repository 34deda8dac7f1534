package workflow

import (
	"context"
	"fmt"

	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
)

// Diff returns the changes of the working tree against a chosen base:
// "commit" (or empty) diffs against HEAD, "dependencies" against a throwaway
// branch holding the merged dependencies of the current ticket, anything
// else against a ticket, local branch, or remote branch.
func (w *Workflow) Diff(ctx context.Context, base string) (string, error) {
	switch base {
	case "", "commit":
		return w.Git.Diff(ctx, "HEAD")
	case "dependencies":
		return w.diffDependencies(ctx)
	}

	ref, err := w.resolveDiffBase(ctx, base)
	if err != nil {
		return "", err
	}
	return w.Git.Diff(ctx, ref)
}

// diffDependencies builds a temporary branch off the trunk, merges every
// dependency's remote branch into it, and diffs that against the current
// branch. The temporary branch is removed again no matter what; a dependency
// that does not merge cleanly fails the whole diff.
func (w *Workflow) diffDependencies(ctx context.Context) (string, error) {
	ticket, ok, err := w.CurrentTicket(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &types.NotFoundError{Kind: "ticket for the current branch", Name: "HEAD"}
	}

	if err := w.WT.ResetToCleanWorkingDirectory(ctx); err != nil {
		return "", err
	}
	current, err := w.Git.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}

	branches, err := w.Git.LocalBranches(ctx)
	if err != nil {
		return "", err
	}
	temp := unusedName(branches, "tmp/diff")
	if err := w.Git.CreateBranch(ctx, temp, w.Trunk); err != nil {
		return "", err
	}
	if err := w.Git.Checkout(ctx, temp); err != nil {
		_ = w.Git.DeleteBranch(ctx, temp)
		return "", err
	}
	cleanup := func() {
		_ = w.Git.ResetToCleanState(ctx)
		_ = w.Git.Checkout(ctx, current)
		_ = w.Git.DeleteBranch(ctx, temp)
	}

	for _, dep := range w.Reg.Dependencies(ticket) {
		field, err := trac.BranchForTicket(ctx, w.Trac, dep)
		if err != nil {
			cleanup()
			return "", err
		}
		if field == "" {
			w.UI.Warn("ticket %s has no branch on the tracker; leaving it out of the diff base", dep)
			continue
		}
		if err := w.Git.Fetch(ctx, w.Remote, field); err != nil {
			cleanup()
			return "", err
		}
		contained, err := w.Git.IsAncestorOf(ctx, "FETCH_HEAD", current)
		if err != nil {
			cleanup()
			return "", err
		}
		if !contained {
			w.UI.Warn("dependency %s is not merged into %q; the diff will include its changes", dep, current)
		}
		if err := w.Git.Merge(ctx, "FETCH_HEAD"); err != nil {
			cleanup()
			return "", fmt.Errorf("dependency %s does not merge cleanly into the diff base: %w", dep, err)
		}
	}

	diff, err := w.Git.DiffRange(ctx, temp, current)
	cleanup()
	return diff, err
}

// resolveDiffBase maps a ticket or branch argument to a diffable ref,
// fetching from the remote when only the remote has it.
func (w *Workflow) resolveDiffBase(ctx context.Context, base string) (string, error) {
	if types.IsTicketName(base) {
		ticket, err := types.ParseTicket(base)
		if err != nil {
			return "", err
		}
		if branch, ok := w.Reg.BranchForTicket(ticket); ok {
			return branch, nil
		}
		field, err := trac.BranchForTicket(ctx, w.Trac, ticket)
		if err != nil {
			return "", err
		}
		if field == "" {
			return "", &types.NotFoundError{Kind: "branch for ticket", Name: ticket.String()}
		}
		if err := w.Git.Fetch(ctx, w.Remote, field); err != nil {
			return "", err
		}
		return "FETCH_HEAD", nil
	}

	if err := types.CheckBranchName(base); err != nil {
		return "", err
	}
	exists, err := w.Git.BranchExists(ctx, base)
	if err != nil {
		return "", err
	}
	if exists {
		return base, nil
	}
	remoteExists, err := w.Git.RemoteBranchExists(ctx, w.Remote, base)
	if err != nil {
		return "", err
	}
	if !remoteExists {
		return "", &types.NotFoundError{Kind: "branch", Name: base}
	}
	if err := w.Git.Fetch(ctx, w.Remote, base); err != nil {
		return "", err
	}
	return "FETCH_HEAD", nil
}

// unusedName appends underscores to want until it collides with none of the
// existing branch names.
func unusedName(existing []string, want string) string {
	taken := make(map[string]bool, len(existing))
	for _, b := range existing {
		taken[b] = true
	}
	for taken[want] {
		want += "_"
	}
	return want
}
