package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tktflow/tkt/internal/git"
	"github.com/tktflow/tkt/internal/registry"
	"github.com/tktflow/tkt/internal/sync"
	"github.com/tktflow/tkt/internal/testutil"
	"github.com/tktflow/tkt/internal/trac"
	"github.com/tktflow/tkt/internal/types"
	"github.com/tktflow/tkt/internal/ui"
	"github.com/tktflow/tkt/internal/worktree"
)

type fixture struct {
	wf     *Workflow
	repo   string
	fake   *trac.Fake
	script *ui.Script
}

func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := testutil.InitRepo(t)
	testutil.InitBareRemote(t, repo)

	g := git.New(repo)
	gitDir, err := g.GitDir(ctx)
	require.NoError(t, err)
	reg, err := registry.Open(gitDir)
	require.NoError(t, err)

	script := ui.NewScript(answers...)
	fake := trac.NewFake()
	engine := &sync.Engine{
		Git:      g,
		Trac:     fake,
		UI:       script,
		Reg:      reg,
		WT:       &worktree.Manager{Git: g, UI: script},
		Remote:   "origin",
		Trunk:    "master",
		Username: "test",
	}
	return &fixture{wf: New(engine), repo: repo, fake: fake, script: script}
}

func (f *fixture) newTicket(t *testing.T) types.TicketID {
	t.Helper()
	ticket, err := f.fake.CreateTicket(context.Background(), "a summary", "a description")
	require.NoError(t, err)
	return ticket
}

func TestSwitchTicketCreatesBranchFromTrunk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t)

	require.NoError(t, f.wf.SwitchTicket(ctx, ticket, "", ""))

	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket/1", branch)

	registered, ok := f.wf.Reg.BranchForTicket(ticket)
	require.True(t, ok)
	assert.Equal(t, "ticket/1", registered)

	remote, ok := f.wf.Reg.RemoteBranch("ticket/1")
	require.True(t, ok)
	assert.Equal(t, "u/test/ticket/1", remote)
}

func TestSwitchTicketUnknownTicket(t *testing.T) {
	f := newFixture(t)
	err := f.wf.SwitchTicket(context.Background(), 99, "", "")
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ticket", notFound.Kind)
}

func TestSwitchTicketDownloadsTrackerBranch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t)

	// Remote work for the ticket, plus tracker metadata pointing at it.
	testutil.Git(t, f.repo, "checkout", "-b", "elsewhere")
	testutil.CommitFile(t, f.repo, "remote-work", "from the server\n", "remote work")
	testutil.Git(t, f.repo, "push", "origin", "elsewhere:u/alice/ticket/1")
	testutil.Git(t, f.repo, "checkout", "master")
	testutil.Git(t, f.repo, "branch", "-D", "elsewhere")
	f.fake.SetBranch(ticket, "u/alice/ticket/1")
	require.NoError(t, f.fake.UpdateAttributes(ctx, ticket, "", map[string]string{
		trac.AttrDependencies: "#7",
	}))

	require.NoError(t, f.wf.SwitchTicket(ctx, ticket, "", ""))

	assert.Equal(t, "from the server\n", testutil.ReadFile(t, f.repo, "remote-work"))
	assert.Equal(t, []types.TicketID{7}, f.wf.Reg.Dependencies(ticket))
}

func TestSwitchTicketBranchCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t)
	testutil.Git(t, f.repo, "branch", "ticket/1")

	err := f.wf.SwitchTicket(ctx, ticket, "", "")
	var notFound *types.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.True(t, notFound.Exists)
	assert.Contains(t, err.Error(), "--branch")
}

func TestSwitchTicketAdoptsExistingBranch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t)
	testutil.Git(t, f.repo, "branch", "work")

	require.NoError(t, f.wf.SwitchTicket(ctx, ticket, "work", ""))

	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "work", branch)

	got, ok := f.wf.Reg.TicketForBranch("work")
	require.True(t, ok)
	assert.Equal(t, ticket, got)
}

func TestSwitchTicketWithTicketBase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	one := f.newTicket(t)
	two := f.newTicket(t)

	require.NoError(t, f.wf.SwitchTicket(ctx, one, "", ""))
	testutil.CommitFile(t, f.repo, "base-work", "needed by two\n", "work for one")

	require.NoError(t, f.wf.SwitchTicket(ctx, two, "", one.String()))
	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket/2", branch)
	assert.Equal(t, "needed by two\n", testutil.ReadFile(t, f.repo, "base-work"))
	assert.Equal(t, []types.TicketID{one}, f.wf.Reg.Dependencies(two),
		"basing on a ticket records a dependency on it")
}

func TestSwitchAbandonSwitchLeavesTrash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "yes")
	ticket := f.newTicket(t)

	require.NoError(t, f.wf.SwitchTicket(ctx, ticket, "", ""))
	testutil.CommitFile(t, f.repo, "work", "unfinished\n", "unfinished work")
	require.NoError(t, f.wf.SwitchBranch(ctx, "master"))

	require.NoError(t, f.wf.Abandon(ctx, ticket.String()))

	exists, err := f.wf.Git.BranchExists(ctx, "trash/ticket/1")
	require.NoError(t, err)
	assert.True(t, exists, "abandoned branch is preserved, not deleted")

	require.NoError(t, f.wf.SwitchTicket(ctx, ticket, "", ""))
	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket/1", branch)

	// The fresh branch starts from the trunk, without the abandoned work.
	files, err := f.wf.Git.UntrackedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NoFileExists(t, f.repo+"/work")
}

func TestSwitchBranchKeepsChangesOnSameCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.Git(t, f.repo, "branch", "twin")
	testutil.WriteFile(t, f.repo, "README", "edited\n")

	require.NoError(t, f.wf.SwitchBranch(ctx, "twin"))
	assert.Equal(t, "edited\n", testutil.ReadFile(t, f.repo, "README"))
	assert.Empty(t, f.script.Answers)
}

func TestSwitchBranchStashesWhenCommitsDiffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "stash")
	testutil.Git(t, f.repo, "checkout", "-b", "ahead")
	testutil.CommitFile(t, f.repo, "extra", "more\n", "extra commit")
	testutil.Git(t, f.repo, "checkout", "master")
	testutil.WriteFile(t, f.repo, "README", "edited\n")

	require.NoError(t, f.wf.SwitchBranch(ctx, "ahead"))

	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ahead", branch)

	exists, err := f.wf.Git.BranchExists(ctx, "stash/1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTicketSwitches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ticket, err := f.wf.CreateTicket(ctx, "new work", "details")
	require.NoError(t, err)
	assert.Equal(t, types.TicketID(1), ticket)

	branch, err := f.wf.Git.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket/1", branch)
}

func TestCreateTicketSurvivesSwitchFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.Git(t, f.repo, "branch", "ticket/1")

	ticket, err := f.wf.CreateTicket(ctx, "new work", "details")
	require.NoError(t, err, "switch failure must not fail creation")
	assert.Equal(t, types.TicketID(1), ticket)
	assert.True(t, f.script.Saw("tkt switch 1"))
}

func TestReconcileDropsStaleRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t)
	f.wf.Reg.SetTicketBranch(ticket, "gone")
	require.NoError(t, f.wf.Reg.Save())

	require.NoError(t, f.wf.Reconcile(ctx))
	_, ok := f.wf.Reg.BranchForTicket(ticket)
	assert.False(t, ok)
	assert.True(t, f.script.Saw("no longer exists"))
}
