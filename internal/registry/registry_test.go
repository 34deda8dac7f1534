package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tktflow/tkt/internal/types"
)

func open(t *testing.T, dir string) *Registry {
	t.Helper()
	r, err := Open(dir)
	require.NoError(t, err)
	return r
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	r := open(t, dir)
	r.SetTicketBranch(1, "ticket/1")
	r.SetRemoteBranch("ticket/1", "u/alice/ticket/1")
	r.SetDependencies(1, []types.TicketID{2})
	require.NoError(t, r.Save())

	r = open(t, dir)
	branch, ok := r.BranchForTicket(1)
	require.True(t, ok)
	assert.Equal(t, "ticket/1", branch)

	ticket, ok := r.TicketForBranch("ticket/1")
	require.True(t, ok)
	assert.Equal(t, types.TicketID(1), ticket)

	remote, ok := r.RemoteBranch("ticket/1")
	require.True(t, ok)
	assert.Equal(t, "u/alice/ticket/1", remote)

	assert.Equal(t, []types.TicketID{2}, r.Dependencies(1))
}

func TestSetTicketBranchReplacesBothDirections(t *testing.T) {
	r := open(t, t.TempDir())

	r.SetTicketBranch(1, "ticket/1")
	r.SetTicketBranch(1, "other")
	_, ok := r.TicketForBranch("ticket/1")
	assert.False(t, ok, "old branch should be unlinked")

	// Stealing a branch from another ticket unlinks that ticket too.
	r.SetTicketBranch(2, "other")
	_, ok = r.BranchForTicket(1)
	assert.False(t, ok)
	ticket, ok := r.TicketForBranch("other")
	require.True(t, ok)
	assert.Equal(t, types.TicketID(2), ticket)
}

func TestRenameBranchCarriesRecords(t *testing.T) {
	r := open(t, t.TempDir())

	r.SetTicketBranch(7, "ticket/7")
	r.SetRemoteBranch("ticket/7", "u/alice/ticket/7")
	r.SetDependencies(7, []types.TicketID{1})

	r.RenameBranch("ticket/7", "trash/ticket/7")

	_, ok := r.TicketForBranch("ticket/7")
	assert.False(t, ok)
	branch, ok := r.BranchForTicket(7)
	require.True(t, ok)
	assert.Equal(t, "trash/ticket/7", branch)
	remote, _ := r.RemoteBranch("trash/ticket/7")
	assert.Equal(t, "u/alice/ticket/7", remote)
	assert.Equal(t, []types.TicketID{1}, r.Dependencies(7))
}

func TestAddDependencyIdempotent(t *testing.T) {
	r := open(t, t.TempDir())

	assert.True(t, r.AddDependency(1, 2))
	assert.False(t, r.AddDependency(1, 2))
	assert.Equal(t, []types.TicketID{2}, r.Dependencies(1))
}

func TestRemoveTicketClearsDependencies(t *testing.T) {
	r := open(t, t.TempDir())

	r.SetTicketBranch(1, "ticket/1")
	r.SetDependencies(1, []types.TicketID{2, 3})
	r.RemoveTicket(1)

	_, ok := r.BranchForTicket(1)
	assert.False(t, ok)
	assert.Empty(t, r.Dependencies(1))
}

func TestReconcileDropsStaleEntries(t *testing.T) {
	r := open(t, t.TempDir())

	r.SetTicketBranch(1, "ticket/1")
	r.SetTicketBranch(2, "ticket/2")
	r.SetRemoteBranch("ticket/2", "u/alice/ticket/2")
	r.SetDependencies(2, []types.TicketID{1})

	live := map[string]bool{"ticket/1": true}
	dropped := r.Reconcile(func(branch string) bool { return live[branch] })

	require.Len(t, dropped, 1)
	assert.Equal(t, types.TicketID(2), dropped[0].Ticket)
	assert.Equal(t, "ticket/2", dropped[0].Branch)

	_, ok := r.BranchForTicket(2)
	assert.False(t, ok)
	_, ok = r.RemoteBranch("ticket/2")
	assert.False(t, ok)
	assert.Empty(t, r.Dependencies(2))

	branch, ok := r.BranchForTicket(1)
	require.True(t, ok)
	assert.Equal(t, "ticket/1", branch)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()

	r := open(t, dir)
	r.SetTicketBranch(1, "ticket/1")
	require.NoError(t, r.Save())

	// No temp file debris after a save.
	entries, err := os.ReadDir(filepath.Join(dir, "tkt"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestOpenRejectsCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tkt"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tkt", FileName), []byte("{"), 0o644))

	_, err := Open(dir)
	assert.Error(t, err)
}

func TestTicketsSorted(t *testing.T) {
	r := open(t, t.TempDir())
	r.SetTicketBranch(10, "ticket/10")
	r.SetTicketBranch(2, "ticket/2")
	r.SetTicketBranch(7, "seven")

	assert.Equal(t, []types.TicketID{2, 7, 10}, r.Tickets())
}
