package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/types"
)

// mergeBoilerplate lines are stripped from conflict output before showing it;
// the loop's own prompt replaces their instruction.
var mergeBoilerplate = map[string]bool{
	"Automatic merge failed; fix conflicts and then commit the result.": true,
	"Automatic cherry-pick failed; fix conflicts and then commit the result.": true,
}

// resolveConflict runs the interactive conflict handshake after a failed
// merge. The user edits files in another terminal and answers "resolved",
// which commits whatever is staged as the merge result, or "abort", which
// returns a cancellation; the caller rolls the working tree back.
//
// The claim of resolution is trusted: no re-scan for conflict markers happens
// before committing.
func (e *Engine) resolveConflict(ctx context.Context, mergeErr error) error {
	var cmdErr *git.CommandError
	if !errors.As(mergeErr, &cmdErr) {
		return mergeErr
	}

	e.UI.Error("merge reported conflicts:")
	for _, line := range cmdErr.Output() {
		if mergeBoilerplate[strings.TrimSpace(line)] {
			continue
		}
		e.UI.Show("    %s", line)
	}
	e.UI.Info("Edit the conflicted files to resolve the conflicts, then stage your changes.")

	for {
		choice, err := e.UI.Select("Conflict resolution", []string{"resolved", "abort"}, -1)
		if err != nil {
			return err
		}
		if choice == 1 {
			return fmt.Errorf("merge aborted: %w", types.ErrCancelled)
		}
		err = e.Git.CommitNoEdit(ctx)
		if err == nil {
			e.UI.Info("Created a commit from your conflict resolution.")
			return nil
		}
		var commitErr *git.CommandError
		if !errors.As(err, &commitErr) {
			return err
		}
		for _, line := range commitErr.Output() {
			e.UI.Show("    %s", line)
		}
		e.UI.Warn("committing the resolution failed; resolve the remaining conflicts and try again")
	}
}
