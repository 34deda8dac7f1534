package trac

import (
	"context"
	"fmt"

	"github.com/tktflow/tkt/internal/types"
)

// Fake is an in-memory Tracker for tests. It hands out sequential ticket
// ids starting at 1 and stores attributes verbatim. Setting Disconnected
// makes every call fail, simulating a network outage.
type Fake struct {
	Tickets      map[types.TicketID]map[string]string
	Comments     map[types.TicketID][]string
	Disconnected bool
	nextID       int
}

// NewFake returns an empty fake tracker.
func NewFake() *Fake {
	return &Fake{
		Tickets:  make(map[types.TicketID]map[string]string),
		Comments: make(map[types.TicketID][]string),
	}
}

var errDisconnected = fmt.Errorf("tracker unreachable: connection refused")

// CreateTicket implements Tracker.
func (f *Fake) CreateTicket(_ context.Context, summary, description string) (types.TicketID, error) {
	if f.Disconnected {
		return 0, errDisconnected
	}
	f.nextID++
	id := types.TicketID(f.nextID)
	f.Tickets[id] = map[string]string{
		AttrSummary:     summary,
		AttrDescription: description,
	}
	return id, nil
}

// ExistsTicket implements Tracker.
func (f *Fake) ExistsTicket(_ context.Context, ticket types.TicketID) (bool, error) {
	if f.Disconnected {
		return false, errDisconnected
	}
	_, ok := f.Tickets[ticket]
	return ok, nil
}

// Attributes implements Tracker.
func (f *Fake) Attributes(_ context.Context, ticket types.TicketID) (map[string]string, error) {
	if f.Disconnected {
		return nil, errDisconnected
	}
	attrs, ok := f.Tickets[ticket]
	if !ok {
		return nil, &RPCError{Code: 404, Message: fmt.Sprintf("ticket %d does not exist", int(ticket))}
	}
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return copied, nil
}

// UpdateAttributes implements Tracker.
func (f *Fake) UpdateAttributes(_ context.Context, ticket types.TicketID, comment string, attrs map[string]string) error {
	if f.Disconnected {
		return errDisconnected
	}
	current, ok := f.Tickets[ticket]
	if !ok {
		return &RPCError{Code: 404, Message: fmt.Sprintf("ticket %d does not exist", int(ticket))}
	}
	for k, v := range attrs {
		current[k] = v
	}
	if comment != "" {
		f.Comments[ticket] = append(f.Comments[ticket], comment)
	}
	return nil
}

// AddComment implements Tracker.
func (f *Fake) AddComment(_ context.Context, ticket types.TicketID, comment string) error {
	if f.Disconnected {
		return errDisconnected
	}
	if _, ok := f.Tickets[ticket]; !ok {
		return &RPCError{Code: 404, Message: fmt.Sprintf("ticket %d does not exist", int(ticket))}
	}
	f.Comments[ticket] = append(f.Comments[ticket], comment)
	return nil
}

// SetBranch is a test helper that writes the ticket's branch field directly.
func (f *Fake) SetBranch(ticket types.TicketID, branch string) {
	f.Tickets[ticket][AttrBranch] = branch
}

// Branch is a test helper that reads the ticket's branch field directly.
func (f *Fake) Branch(ticket types.TicketID) string {
	return f.Tickets[ticket][AttrBranch]
}
