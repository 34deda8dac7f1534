package sync

import (
	"context"
	"fmt"

	"github.com/tktflow/tkt/internal/types"
)

// Gather creates newBranch from the trunk and merges every source (ticket,
// local branch, or remote branch) into it in order. Any failure rolls the
// whole operation back: the new branch is deleted and the previous branch
// restored.
func (e *Engine) Gather(ctx context.Context, newBranch string, sources []string) error {
	if err := types.CheckBranchName(newBranch); err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("nothing to gather: %w", types.ErrCancelled)
	}
	exists, err := e.Git.BranchExists(ctx, newBranch)
	if err != nil {
		return err
	}
	if exists {
		return &types.NotFoundError{Kind: "branch", Name: newBranch, Exists: true}
	}

	if err := e.WT.ResetToCleanWorkingDirectory(ctx); err != nil {
		return err
	}
	previous, err := e.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	if err := e.Git.CreateBranch(ctx, newBranch, e.Trunk); err != nil {
		return err
	}
	if err := e.Git.Checkout(ctx, newBranch); err != nil {
		return err
	}

	rollback := func(cause error) error {
		if err := e.Git.ResetToCleanState(ctx); err != nil {
			return err
		}
		if err := e.Git.Checkout(ctx, previous); err != nil {
			return err
		}
		if err := e.Git.DeleteBranch(ctx, newBranch); err != nil {
			return err
		}
		e.UI.Info("Gather rolled back; branch %q was discarded.", newBranch)
		return cause
	}

	for _, arg := range sources {
		src, err := e.resolveSource(ctx, arg, false)
		if err != nil {
			return rollback(err)
		}
		if err := e.mergeRef(ctx, src.ref, src.display); err != nil {
			return rollback(fmt.Errorf("gathering %q: %w", arg, err))
		}
	}
	e.UI.Info("Gathered %d sources into %q.", len(sources), newBranch)
	return nil
}
