// Package worktree keeps the working tree in a state the workflow commands
// can operate on. It owns the interactive handling of interrupted merges and
// uncommitted changes, and the stash branches those changes get parked on.
package worktree

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/ui"
)

// Manager prepares the working tree for workflow operations.
type Manager struct {
	Git *git.Client
	UI  ui.UI
}

// ResetToCleanState makes sure no merge, rebase, cherry-pick, or bisect is in
// progress. If one is, the user is asked for permission to abort it; a
// declined prompt cancels the calling operation.
func (m *Manager) ResetToCleanState(ctx context.Context) error {
	states, err := m.Git.State(ctx)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(
		"Your repository is in an unclean state (%s in progress). Do you want me to reset it? This discards the interrupted operation.",
		strings.Join(states, ", "))
	ok, err := m.UI.Confirm(prompt, false)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("repository left in unclean state: %w", types.ErrCancelled)
	}
	return m.Git.ResetToCleanState(ctx)
}

// ResetToCleanWorkingDirectory makes sure there are no uncommitted changes to
// tracked files, asking the user to discard, keep, or stash them. Keeping the
// changes cancels the calling operation.
func (m *Manager) ResetToCleanWorkingDirectory(ctx context.Context) error {
	if err := m.ResetToCleanState(ctx); err != nil {
		return err
	}

	files, err := m.Git.UncommittedChanges(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	m.UI.Info("The following files in your working directory contain uncommitted changes:")
	for _, file := range files {
		m.UI.Show("    %s", file)
	}

	choice, err := m.UI.Select("Discard changes?", []string{"discard", "keep", "stash"}, 1)
	if err != nil {
		return err
	}
	switch choice {
	case 0:
		return m.Git.ResetHard(ctx, "HEAD")
	case 1:
		return fmt.Errorf("uncommitted changes kept: %w", types.ErrCancelled)
	default:
		stash, err := m.CreateStash(ctx)
		if err != nil {
			return err
		}
		m.UI.Info("Your changes have been moved to the branch %q.", stash)
		m.UI.Info("To recover them later, use \"tkt unstash %s\".", stash)
		return nil
	}
}

// CreateStash moves the uncommitted tracked changes onto a fresh stash
// branch and returns its name. The working tree ends up clean, back on the
// ref it started from.
func (m *Manager) CreateStash(ctx context.Context) (string, error) {
	branches, err := m.Git.LocalBranches(ctx)
	if err != nil {
		return "", err
	}
	name := NextStashName(branches)

	// Remember where to come back to. Detached HEADs return to the commit.
	restore, err := m.Git.CurrentBranch(ctx)
	detached := false
	if err != nil {
		if !errors.Is(err, git.ErrDetachedHead) {
			return "", err
		}
		detached = true
		restore, err = m.Git.CommitForRef(ctx, "HEAD")
		if err != nil {
			return "", err
		}
	}

	if err := m.Git.Stash(ctx); err != nil {
		return "", fmt.Errorf("stash changes: %w", err)
	}
	if err := m.Git.StashBranch(ctx, name); err != nil {
		return "", fmt.Errorf("create stash branch %q: %w", name, err)
	}
	if err := m.Git.Commit(ctx, "stashed changes", true); err != nil {
		return "", fmt.Errorf("commit stashed changes: %w", err)
	}

	if detached {
		err = m.Git.CheckoutDetached(ctx, restore)
	} else {
		err = m.Git.Checkout(ctx, restore)
	}
	if err != nil {
		return "", fmt.Errorf("return to %q: %w", restore, err)
	}
	return name, nil
}

// Unstash applies the changes recorded on a stash branch to the working tree
// without committing them. With showDiff set it only prints what would be
// applied. After a successful apply the user may delete the stash branch.
func (m *Manager) Unstash(ctx context.Context, branch string, showDiff bool) error {
	exists, err := m.Git.BranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if !exists {
		return &types.NotFoundError{Kind: "stash branch", Name: branch}
	}

	if showDiff {
		diff, err := m.Git.DiffRange(ctx, branch+"^", branch)
		if err != nil {
			return err
		}
		m.UI.Show("%s", diff)
		return nil
	}

	// The index is rolled back whether the pick applied or not; on conflict
	// the markers stay in the working tree for manual resolution.
	if err := m.Git.CherryPickNoCommit(ctx, branch); err != nil {
		if resetErr := m.Git.ResetIndex(ctx); resetErr != nil {
			return resetErr
		}
		m.UI.Error("The changes recorded in %q do not apply cleanly to your working directory.", branch)
		m.UI.Info("Resolve the conflicts in the marked files, then commit the result by hand.")
		return fmt.Errorf("unstash of %q left conflicts to resolve: %w", branch, types.ErrCancelled)
	}
	if err := m.Git.ResetIndex(ctx); err != nil {
		return err
	}

	drop, err := m.UI.Confirm(fmt.Sprintf("The changes recorded in %q have been restored in your working directory. Would you like to delete the branch they were stashed in?", branch), true)
	if err != nil {
		return err
	}
	if drop {
		return m.Git.DeleteBranch(ctx, branch)
	}
	return nil
}

// Stashes lists the stash branches, lowest number first.
func (m *Manager) Stashes(ctx context.Context) ([]string, error) {
	branches, err := m.Git.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	var stashes []string
	for _, branch := range branches {
		if IsStashName(branch) {
			stashes = append(stashes, branch)
		}
	}
	sort.Slice(stashes, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(stashes[i], stashPrefix))
		nj, _ := strconv.Atoi(strings.TrimPrefix(stashes[j], stashPrefix))
		return ni < nj
	})
	return stashes, nil
}
