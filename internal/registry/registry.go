// Package registry persists the local ticket/branch bookkeeping that the
// tracker does not own: which local branch holds a ticket's work, which
// remote branch each local branch pushes to, and the locally recorded
// dependencies between branches.
//
// Everything lives in one JSON document under the repository's git
// directory. Both lookup directions are answered by the same Registry so
// the two maps can never drift apart; writes go through a temp file and
// rename so a crash never leaves a torn document behind.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tktflow/tkt/internal/types"
)

// FileName is the registry document's name under <gitdir>/tkt/.
const FileName = "registry.json"

type document struct {
	// Tickets maps a ticket id (decimal string) to its local branch.
	Tickets map[string]string `json:"tickets"`
	// Dependencies maps a ticket id to the tickets it depends on.
	Dependencies map[string][]types.TicketID `json:"dependencies"`
	// Remote maps a local branch to its remote tracking branch.
	Remote map[string]string `json:"remote_branches"`
}

// Registry is the on-disk ticket/branch registry. It is not safe for
// concurrent use; commands run one at a time.
type Registry struct {
	path     string
	doc      document
	byBranch map[string]types.TicketID
}

// Open loads the registry stored under gitDir, returning an empty registry
// when none exists yet.
func Open(gitDir string) (*Registry, error) {
	r := &Registry{
		path: filepath.Join(gitDir, "tkt", FileName),
		doc: document{
			Tickets:      make(map[string]string),
			Dependencies: make(map[string][]types.TicketID),
			Remote:       make(map[string]string),
		},
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		r.reindex()
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", r.path, err)
	}
	if r.doc.Tickets == nil {
		r.doc.Tickets = make(map[string]string)
	}
	if r.doc.Dependencies == nil {
		r.doc.Dependencies = make(map[string][]types.TicketID)
	}
	if r.doc.Remote == nil {
		r.doc.Remote = make(map[string]string)
	}
	r.reindex()
	return r, nil
}

// reindex rebuilds the branch-to-ticket direction from the stored map.
func (r *Registry) reindex() {
	r.byBranch = make(map[string]types.TicketID, len(r.doc.Tickets))
	for key, branch := range r.doc.Tickets {
		ticket, err := types.ParseTicket(key)
		if err != nil {
			continue
		}
		r.byBranch[branch] = ticket
	}
}

// Save writes the registry atomically.
func (r *Registry) Save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

func ticketKey(ticket types.TicketID) string {
	return fmt.Sprintf("%d", int(ticket))
}

// BranchForTicket returns the local branch holding the ticket's work.
func (r *Registry) BranchForTicket(ticket types.TicketID) (string, bool) {
	branch, ok := r.doc.Tickets[ticketKey(ticket)]
	return branch, ok
}

// TicketForBranch returns the ticket whose work lives on branch.
func (r *Registry) TicketForBranch(branch string) (types.TicketID, bool) {
	ticket, ok := r.byBranch[branch]
	return ticket, ok
}

// SetTicketBranch records that the ticket's work lives on branch, replacing
// any previous association in either direction.
func (r *Registry) SetTicketBranch(ticket types.TicketID, branch string) {
	if old, ok := r.doc.Tickets[ticketKey(ticket)]; ok {
		delete(r.byBranch, old)
	}
	if oldTicket, ok := r.byBranch[branch]; ok {
		delete(r.doc.Tickets, ticketKey(oldTicket))
	}
	r.doc.Tickets[ticketKey(ticket)] = branch
	r.byBranch[branch] = ticket
}

// RemoveTicket drops the ticket's branch association and dependency set.
func (r *Registry) RemoveTicket(ticket types.TicketID) {
	if branch, ok := r.doc.Tickets[ticketKey(ticket)]; ok {
		delete(r.byBranch, branch)
		delete(r.doc.Tickets, ticketKey(ticket))
	}
	delete(r.doc.Dependencies, ticketKey(ticket))
}

// RemoveBranch drops everything recorded about the branch: its remote
// tracking branch and, when a ticket is associated, that ticket's
// association and dependency set.
func (r *Registry) RemoveBranch(branch string) {
	if ticket, ok := r.byBranch[branch]; ok {
		delete(r.doc.Tickets, ticketKey(ticket))
		delete(r.doc.Dependencies, ticketKey(ticket))
		delete(r.byBranch, branch)
	}
	delete(r.doc.Remote, branch)
}

// RenameBranch moves every branch-keyed record from old to new. Ticket-keyed
// records (dependencies) are untouched.
func (r *Registry) RenameBranch(old, new string) {
	if ticket, ok := r.byBranch[old]; ok {
		delete(r.byBranch, old)
		r.doc.Tickets[ticketKey(ticket)] = new
		r.byBranch[new] = ticket
	}
	if remote, ok := r.doc.Remote[old]; ok {
		delete(r.doc.Remote, old)
		r.doc.Remote[new] = remote
	}
}

// Dependencies returns the tickets the ticket depends on, in recorded order.
func (r *Registry) Dependencies(ticket types.TicketID) []types.TicketID {
	return append([]types.TicketID(nil), r.doc.Dependencies[ticketKey(ticket)]...)
}

// SetDependencies replaces the ticket's dependency list.
func (r *Registry) SetDependencies(ticket types.TicketID, deps []types.TicketID) {
	if len(deps) == 0 {
		delete(r.doc.Dependencies, ticketKey(ticket))
		return
	}
	r.doc.Dependencies[ticketKey(ticket)] = append([]types.TicketID(nil), deps...)
}

// AddDependency records that ticket depends on dep. It reports whether the
// edge was new.
func (r *Registry) AddDependency(ticket, dep types.TicketID) bool {
	key := ticketKey(ticket)
	for _, existing := range r.doc.Dependencies[key] {
		if existing == dep {
			return false
		}
	}
	r.doc.Dependencies[key] = append(r.doc.Dependencies[key], dep)
	return true
}

// RemoteBranch returns the remote tracking branch recorded for branch.
func (r *Registry) RemoteBranch(branch string) (string, bool) {
	remote, ok := r.doc.Remote[branch]
	return remote, ok
}

// SetRemoteBranch records the branch's remote tracking branch.
func (r *Registry) SetRemoteBranch(branch, remote string) {
	r.doc.Remote[branch] = remote
}

// Tickets returns all registered tickets in ascending order.
func (r *Registry) Tickets() []types.TicketID {
	tickets := make([]types.TicketID, 0, len(r.doc.Tickets))
	for key := range r.doc.Tickets {
		ticket, err := types.ParseTicket(key)
		if err != nil {
			continue
		}
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i] < tickets[j] })
	return tickets
}

// Stale is a registry entry whose local branch no longer exists.
type Stale struct {
	Ticket types.TicketID
	Branch string
}

// Reconcile drops every record whose local branch fails the exists check and
// returns what was dropped so the caller can warn about it. The registry is
// not saved; callers save after acting on the result.
func (r *Registry) Reconcile(exists func(branch string) bool) []Stale {
	var dropped []Stale
	for key, branch := range r.doc.Tickets {
		if exists(branch) {
			continue
		}
		ticket, _ := types.ParseTicket(key)
		dropped = append(dropped, Stale{Ticket: ticket, Branch: branch})
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Ticket < dropped[j].Ticket })
	for _, stale := range dropped {
		r.RemoveBranch(stale.Branch)
	}
	for branch := range r.doc.Remote {
		if !exists(branch) {
			delete(r.doc.Remote, branch)
		}
	}
	return dropped
}
