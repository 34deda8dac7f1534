package worktree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/testutil"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/ui"
)

func newManager(t *testing.T, answers ...string) (*Manager, string, *ui.Script) {
	t.Helper()
	repo := testutil.InitRepo(t)
	script := ui.NewScript(answers...)
	return &Manager{Git: git.New(repo), UI: script}, repo, script
}

func TestResetToCleanWorkingDirectoryNoChanges(t *testing.T) {
	m, _, script := newManager(t)
	require.NoError(t, m.ResetToCleanWorkingDirectory(context.Background()))
	assert.Empty(t, script.Log)
}

func TestResetToCleanWorkingDirectoryKeepCancels(t *testing.T) {
	m, repo, _ := newManager(t, "keep")
	testutil.WriteFile(t, repo, "README", "dirty\n")

	err := m.ResetToCleanWorkingDirectory(context.Background())
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, "dirty\n", testutil.ReadFile(t, repo, "README"))
}

func TestResetToCleanWorkingDirectoryDiscard(t *testing.T) {
	m, repo, _ := newManager(t, "discard")
	testutil.WriteFile(t, repo, "README", "dirty\n")

	require.NoError(t, m.ResetToCleanWorkingDirectory(context.Background()))
	assert.NotEqual(t, "dirty\n", testutil.ReadFile(t, repo, "README"))
}

func TestResetToCleanWorkingDirectoryStash(t *testing.T) {
	ctx := context.Background()
	m, repo, script := newManager(t, "stash")
	testutil.WriteFile(t, repo, "README", "dirty\n")

	require.NoError(t, m.ResetToCleanWorkingDirectory(ctx))
	assert.True(t, script.Saw("stash/1"))

	// Back on master with a clean tree, changes parked on the stash branch.
	branch, err := m.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	files, err := m.Git.UncommittedChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	exists, err := m.Git.BranchExists(ctx, "stash/1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStashUnstashRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newManager(t, "stash", "no")
	testutil.WriteFile(t, repo, "README", "dirty\n")

	require.NoError(t, m.ResetToCleanWorkingDirectory(ctx))
	require.NoError(t, m.Unstash(ctx, "stash/1", false))

	assert.Equal(t, "dirty\n", testutil.ReadFile(t, repo, "README"))

	// Changes are restored uncommitted and unstaged.
	files, err := m.Git.UncommittedChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"README"}, files)

	// Declined deletion keeps the stash branch around.
	exists, err := m.Git.BranchExists(ctx, "stash/1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUnstashDeletesBranchByDefault(t *testing.T) {
	ctx := context.Background()
	// No answer to the deletion prompt; its default is yes.
	m, repo, _ := newManager(t, "stash")
	testutil.WriteFile(t, repo, "README", "dirty\n")

	require.NoError(t, m.ResetToCleanWorkingDirectory(ctx))
	require.NoError(t, m.Unstash(ctx, "stash/1", false))

	exists, err := m.Git.BranchExists(ctx, "stash/1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnstashMissingBranch(t *testing.T) {
	m, _, _ := newManager(t)
	err := m.Unstash(context.Background(), "stash/9", false)
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestUnstashConflictLeavesMarkersForResolution(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newManager(t, "stash")

	testutil.WriteFile(t, repo, "README", "stashed version\n")
	require.NoError(t, m.ResetToCleanWorkingDirectory(ctx))

	// Move master so the stashed change no longer applies.
	testutil.CommitFile(t, repo, "README", "conflicting version\n", "conflicting change")

	err := m.Unstash(ctx, "stash/1", false)
	assert.ErrorIs(t, err, types.ErrCancelled)

	// The index is rolled back, the markers stay for manual resolution.
	content := testutil.ReadFile(t, repo, "README")
	assert.Contains(t, content, "<<<<<<<")
	assert.Contains(t, content, "stashed version")
	assert.Contains(t, content, "conflicting version")

	staged := testutil.Git(t, repo, "diff", "--cached", "--name-only")
	assert.Empty(t, staged)

	// The stash branch survives a failed unstash.
	exists, existsErr := m.Git.BranchExists(ctx, "stash/1")
	require.NoError(t, existsErr)
	assert.True(t, exists)
}

func TestResetToCleanStatePrompts(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newManager(t, "no")

	// Manufacture a conflicted merge.
	testutil.Git(t, repo, "checkout", "-b", "a")
	testutil.CommitFile(t, repo, "f", "a\n", "a change")
	testutil.Git(t, repo, "checkout", "master")
	testutil.CommitFile(t, repo, "f", "b\n", "b change")
	_ = m.Git.Merge(ctx, "a")

	err := m.ResetToCleanState(ctx)
	assert.ErrorIs(t, err, types.ErrCancelled)

	m.UI = ui.NewScript("yes")
	require.NoError(t, m.ResetToCleanState(ctx))
	states, err := m.Git.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestStashesSortedNumerically(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newManager(t)

	for _, name := range []string{"stash/10", "stash/2", "stash/1"} {
		testutil.Git(t, repo, "branch", name)
	}

	stashes, err := m.Stashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stash/1", "stash/2", "stash/10"}, stashes)
}
