package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tktflow/tkt/internal/types"
)

// MergeOptions control Merge. The pointer fields are tri-state: nil means
// the flag was not given and the default applies.
type MergeOptions struct {
	// Download selects the remote branch as the merge source instead of
	// the local one. Defaults to false.
	Download *bool
	// CreateDependency records a dependency edge from the current ticket
	// to the merged ticket after a successful merge. Defaults to true when
	// merging a ticket whose dependency is not recorded yet.
	CreateDependency *bool
}

func (o MergeOptions) download() bool {
	return o.Download != nil && *o.Download
}

// DependenciesSource merges every dependency of the current ticket instead
// of a single source.
const DependenciesSource = "dependencies"

// Merge merges a ticket's branch or a plain branch into the current branch.
// The special source "dependencies" merges each dependency of the current
// ticket in turn, always from the remote.
func (e *Engine) Merge(ctx context.Context, arg string, opts MergeOptions) error {
	if arg == DependenciesSource {
		if opts.CreateDependency != nil {
			return fmt.Errorf("merging dependencies cannot create dependency records: %w", types.ErrCancelled)
		}
		return e.mergeDependencies(ctx)
	}

	currentTicket, hasCurrent, err := e.CurrentTicket(ctx)
	if err != nil {
		return err
	}

	src, err := e.resolveSource(ctx, arg, opts.download())
	if err != nil {
		return err
	}
	if src.hasTicket && hasCurrent && src.ticket == currentTicket {
		return fmt.Errorf("cannot merge ticket %s into its own branch: %w", src.ticket, types.ErrCancelled)
	}

	if err := e.WT.ResetToCleanWorkingDirectory(ctx); err != nil {
		return err
	}

	if err := e.mergeRef(ctx, src.ref, src.display); err != nil {
		return err
	}

	if src.hasTicket && hasCurrent {
		record := opts.CreateDependency == nil || *opts.CreateDependency
		if record {
			if e.Reg.AddDependency(currentTicket, src.ticket) {
				if err := e.Reg.Save(); err != nil {
					return err
				}
				e.UI.Info("Recorded dependency of %s on %s.", currentTicket, src.ticket)
			} else {
				e.UI.Info("Dependency of %s on %s already recorded.", currentTicket, src.ticket)
			}
		}
	}
	return nil
}

// mergeDependencies merges the remote branch of every dependency of the
// current ticket into the current branch.
func (e *Engine) mergeDependencies(ctx context.Context) error {
	ticket, ok, err := e.CurrentTicket(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("the current branch is not associated with a ticket: %w", types.ErrCancelled)
	}
	deps := e.Reg.Dependencies(ticket)
	if len(deps) == 0 {
		e.UI.Info("Ticket %s has no dependencies.", ticket)
		return nil
	}
	download := true
	noRecord := false
	for _, dep := range deps {
		e.UI.Info("Merging dependency %s.", dep)
		if err := e.Merge(ctx, dep.String(), MergeOptions{Download: &download, CreateDependency: &noRecord}); err != nil {
			return err
		}
	}
	return nil
}

// mergeRef merges ref into the current branch, entering the conflict
// resolution loop on failure. An aborted resolution rolls the working tree
// back before returning the cancellation.
func (e *Engine) mergeRef(ctx context.Context, ref, display string) error {
	err := e.Git.Merge(ctx, ref)
	if err == nil {
		return nil
	}
	resolveErr := e.resolveConflict(ctx, err)
	if resolveErr == nil {
		return nil
	}
	if errors.Is(resolveErr, types.ErrCancelled) {
		if resetErr := e.Git.ResetToCleanState(ctx); resetErr != nil {
			return resetErr
		}
		return fmt.Errorf("merge of %q: %w", display, resolveErr)
	}
	return resolveErr
}
