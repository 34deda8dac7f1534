// Package trac integrates with the Trac issue tracker. The Tracker interface
// is the capability the workflow packages program against; Client implements
// it over Trac's JSON-RPC endpoint, and Fake implements it in memory for
// tests.
//
// The workflow only reads and writes two ticket attributes: "branch" (the
// remote branch the ticket's work lives on) and "dependencies" (a comma
// separated list of ticket references). Both are treated as opaque tracker
// fields; this package owns their encoding.
package trac

import (
	"context"
	"sort"
	"strings"

	"github.com/tktflow/tkt/internal/types"
)

// Attribute names consumed by the workflow.
const (
	AttrBranch       = "branch"
	AttrDependencies = "dependencies"
	AttrSummary      = "summary"
	AttrDescription  = "description"
)

// Tracker is the capability the workflow needs from the issue tracker.
// Every call may fail with a transport or attribute error; such failures are
// terminal for the current command and are never retried.
type Tracker interface {
	// CreateTicket files a new ticket and returns its id.
	CreateTicket(ctx context.Context, summary, description string) (types.TicketID, error)

	// ExistsTicket reports whether a ticket exists on the tracker.
	ExistsTicket(ctx context.Context, ticket types.TicketID) (bool, error)

	// Attributes returns a ticket's attribute map.
	Attributes(ctx context.Context, ticket types.TicketID) (map[string]string, error)

	// UpdateAttributes overwrites the given attributes of a ticket,
	// attaching comment to the change (may be empty).
	UpdateAttributes(ctx context.Context, ticket types.TicketID, comment string, attrs map[string]string) error

	// AddComment posts a comment to a ticket.
	AddComment(ctx context.Context, ticket types.TicketID, comment string) error
}

// BranchForTicket returns the remote branch recorded in the ticket's branch
// field, or "" when the field is unset.
func BranchForTicket(ctx context.Context, tr Tracker, ticket types.TicketID) (string, error) {
	attrs, err := tr.Attributes(ctx, ticket)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(attrs[AttrBranch]), nil
}

// Dependencies returns the ticket ids in the ticket's dependency field, in
// field order. Unparseable entries are skipped; the tracker field is free
// text and may contain anything.
func Dependencies(ctx context.Context, tr Tracker, ticket types.TicketID) ([]types.TicketID, error) {
	attrs, err := tr.Attributes(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return ParseDependencies(attrs[AttrDependencies]), nil
}

// ParseDependencies decodes the tracker's comma separated dependency field
// ("#1, #3") into ticket ids.
func ParseDependencies(field string) []types.TicketID {
	var deps []types.TicketID
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ticket, err := types.ParseTicket(part)
		if err != nil {
			continue
		}
		deps = append(deps, ticket)
	}
	return deps
}

// FormatDependencies encodes ticket ids into the tracker's dependency field
// format ("#1, #3").
func FormatDependencies(deps []types.TicketID) string {
	parts := make([]string, len(deps))
	for i, dep := range deps {
		parts[i] = dep.String()
	}
	return strings.Join(parts, ", ")
}

// EqualDependencies reports whether two dependency lists name the same
// tickets, ignoring order and duplicates.
func EqualDependencies(a, b []types.TicketID) bool {
	return strings.Join(normalize(a), ",") == strings.Join(normalize(b), ",")
}

func normalize(deps []types.TicketID) []string {
	seen := make(map[types.TicketID]bool, len(deps))
	var out []string
	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		out = append(out, dep.String())
	}
	sort.Strings(out)
	return out
}
