// Package git wraps the git command-line tool with the operations the
// ticket workflow needs: branch manipulation, fetch/push, merges, working
// tree state queries, and ancestry checks. All methods shell out to the git
// binary; failures surface as *CommandError carrying the raw output.
package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrDetachedHead is returned by CurrentBranch when HEAD does not point to a
// branch. A detached HEAD is not an unclean state; callers that need a branch
// decide how to react.
var ErrDetachedHead = errors.New("git is in a detached HEAD state")

// Client runs git commands in a fixed working directory.
type Client struct {
	// Dir is the repository working directory. Empty means the process
	// working directory.
	Dir string
}

// New returns a Client operating on the repository at dir.
func New(dir string) *Client {
	return &Client{Dir: dir}
}

// run executes git with args and returns trimmed stdout. A non-zero exit
// becomes a *CommandError with the captured output.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	out, err := c.runRaw(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// runRaw is run without the output trimming, for formats where leading
// whitespace is significant (status --porcelain).
func (c *Client) runRaw(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &CommandError{
			Args:     args,
			ExitCode: exitCode,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}
	return stdout.String(), nil
}

// GitDir returns the repository's .git directory (worktree-aware).
func (c *Client) GitDir(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.Dir, out)
	}
	return out, nil
}

// CurrentBranch returns the checked-out branch name, or ErrDetachedHead.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return "", ErrDetachedHead
		}
		return "", err
	}
	return out, nil
}

// CommitForRef resolves ref to a commit hash.
func (c *Client) CommitForRef(ctx context.Context, ref string) (string, error) {
	return c.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
}

// LocalBranches lists all local branch names.
func (c *Client) LocalBranches(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// BranchExists reports whether a local branch named name exists.
func (c *Client) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := c.run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateBranch creates branch name pointing at base without checking it out.
func (c *Client) CreateBranch(ctx context.Context, name, base string) error {
	_, err := c.run(ctx, "branch", name, base)
	return err
}

// DeleteBranch removes a local branch regardless of its merge status.
func (c *Client) DeleteBranch(ctx context.Context, name string) error {
	_, err := c.run(ctx, "branch", "-D", name)
	return err
}

// RenameBranch renames a local branch.
func (c *Client) RenameBranch(ctx context.Context, from, to string) error {
	_, err := c.run(ctx, "branch", "-m", from, to)
	return err
}

// Checkout switches the working tree to ref.
func (c *Client) Checkout(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "checkout", ref)
	return err
}

// CheckoutDetached checks out ref in detached HEAD mode.
func (c *Client) CheckoutDetached(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "checkout", "--detach", ref)
	return err
}

// Fetch fetches refspec from remote. The refspec may be a plain remote
// branch name (updating FETCH_HEAD) or "remote-branch:local-branch".
func (c *Client) Fetch(ctx context.Context, remote, refspec string) error {
	_, err := c.run(ctx, "fetch", remote, refspec)
	return err
}

// Push pushes refspec ("local:remote") to remote.
func (c *Client) Push(ctx context.Context, remote, refspec string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, refspec)
	_, err := c.run(ctx, args...)
	return err
}

// RemoteBranchExists probes remote for a branch named name.
func (c *Client) RemoteBranchExists(ctx context.Context, remote, name string) (bool, error) {
	_, err := c.run(ctx, "ls-remote", "--exit-code", "--heads", remote, "refs/heads/"+name)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 2 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Merge merges ref into the current branch.
func (c *Client) Merge(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "merge", ref)
	return err
}

// Commit records a commit with the given message, staging tracked changes
// when all is set.
func (c *Client) Commit(ctx context.Context, message string, all bool) error {
	args := []string{"commit", "-m", message}
	if all {
		args = append(args, "-a")
	}
	_, err := c.run(ctx, args...)
	return err
}

// CommitNoEdit commits the current index with the message git prepared
// (used to conclude a conflicted merge without opening an editor).
func (c *Client) CommitNoEdit(ctx context.Context) error {
	_, err := c.run(ctx, "commit", "-a", "--no-edit")
	return err
}

// Add stages a path.
func (c *Client) Add(ctx context.Context, path string) error {
	_, err := c.run(ctx, "add", "--", path)
	return err
}

// Log returns the commit log for rangeSpec in the given pretty format.
func (c *Client) Log(ctx context.Context, rangeSpec, format string) (string, error) {
	return c.run(ctx, "log", "--pretty="+format, rangeSpec)
}

// Diff returns the diff of the working tree against base.
func (c *Client) Diff(ctx context.Context, base string) (string, error) {
	return c.run(ctx, "diff", base)
}

// DiffRange returns the diff between two refs.
func (c *Client) DiffRange(ctx context.Context, from, to string) (string, error) {
	return c.run(ctx, "diff", from+".."+to)
}

// StatusPorcelain returns the porcelain status lines, one per entry. The
// two-character status prefix is preserved, leading space included.
func (c *Client) StatusPorcelain(ctx context.Context) ([]string, error) {
	out, err := c.runRaw(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// UncommittedChanges returns the paths of tracked files with uncommitted
// modifications. Untracked files do not count.
func (c *Client) UncommittedChanges(ctx context.Context) ([]string, error) {
	lines, err := c.StatusPorcelain(ctx)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range lines {
		if strings.HasPrefix(line, "?") || len(line) < 4 {
			continue
		}
		files = append(files, strings.TrimSpace(line[3:]))
	}
	return files, nil
}

// UntrackedFiles returns the paths git does not track.
func (c *Client) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// State reports any in-progress multi-step operations (merge, rebase,
// cherry-pick, bisect). An empty result means the repository is in a clean
// state; a detached HEAD does not count as unclean.
func (c *Client) State(ctx context.Context) ([]string, error) {
	gitDir, err := c.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	var states []string
	checks := []struct {
		marker string
		state  string
	}{
		{"MERGE_HEAD", "merge"},
		{"rebase-apply", "rebase"},
		{"rebase-merge", "rebase-i"},
		{"CHERRY_PICK_HEAD", "cherry-pick"},
		{"BISECT_LOG", "bisect"},
	}
	for _, check := range checks {
		if _, statErr := os.Stat(filepath.Join(gitDir, check.marker)); statErr == nil {
			states = append(states, check.state)
		}
	}
	return states, nil
}

// ResetToCleanState aborts any in-progress merge/rebase/cherry-pick/bisect
// and hard-resets so that no operation remains pending. It is destructive;
// callers confirm with the user first.
func (c *Client) ResetToCleanState(ctx context.Context) error {
	states, err := c.State(ctx)
	if err != nil {
		return err
	}
	for _, state := range states {
		switch state {
		case "merge":
			_, err = c.run(ctx, "merge", "--abort")
		case "rebase", "rebase-i":
			_, err = c.run(ctx, "rebase", "--abort")
		case "cherry-pick":
			_, err = c.run(ctx, "cherry-pick", "--abort")
		case "bisect":
			_, err = c.run(ctx, "bisect", "reset")
		}
		if err != nil {
			// Abort can fail when the operation left no head to return
			// to; a hard reset clears the remaining state.
			if _, resetErr := c.run(ctx, "reset", "--hard", "HEAD"); resetErr != nil {
				return resetErr
			}
			err = nil
		}
	}
	return nil
}

// ResetHard discards all tracked working tree and index changes, resetting
// to ref ("HEAD" for the current commit).
func (c *Client) ResetHard(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "reset", "--hard", ref)
	return err
}

// ResetIndex unstages everything, leaving the working tree intact.
func (c *Client) ResetIndex(ctx context.Context) error {
	_, err := c.run(ctx, "reset")
	return err
}

// CherryPickNoCommit replays ref's changes into the working tree and index
// without committing.
func (c *Client) CherryPickNoCommit(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "cherry-pick", "--no-commit", ref)
	return err
}

// IsAncestorOf reports whether a is an ancestor of b.
func (c *Client) IsAncestorOf(ctx context.Context, a, b string) (bool, error) {
	_, err := c.run(ctx, "merge-base", "--is-ancestor", a, b)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stash saves the working tree and index to the stash stack.
func (c *Client) Stash(ctx context.Context) error {
	_, err := c.run(ctx, "stash")
	return err
}

// StashBranch converts the newest stash entry into a branch (checking it
// out) and drops the entry.
func (c *Client) StashBranch(ctx context.Context, name string) error {
	_, err := c.run(ctx, "stash", "branch", name, "stash@{0}")
	return err
}

// ConfigValue reads a git configuration key, returning "" when unset.
func (c *Client) ConfigValue(ctx context.Context, key string) string {
	out, err := c.run(ctx, "config", "--get", key)
	if err != nil {
		return ""
	}
	return out
}
