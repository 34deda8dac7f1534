package workflow

import (
	"context"

	"github.com/tktflow/tkt/internal/types"
)

// ShowDependencies returns the dependencies of a ticket (the current one
// when arg is empty). Non-recursive, that is the directly recorded set;
// recursive, a depth-first walk over the locally recorded sets, in
// first-discovered order with the root excluded. A dependency without a
// local branch is reported but cannot be walked into.
func (w *Workflow) ShowDependencies(ctx context.Context, arg string, recursive bool) ([]types.TicketID, error) {
	var ticket types.TicketID
	if arg == "" {
		current, ok, err := w.CurrentTicket(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.NotFoundError{Kind: "ticket for the current branch", Name: "HEAD"}
		}
		ticket = current
	} else {
		parsed, err := types.ParseTicket(arg)
		if err != nil {
			return nil, err
		}
		ticket = parsed
	}

	if !recursive {
		return w.Reg.Dependencies(ticket), nil
	}

	seen := map[types.TicketID]bool{ticket: true}
	var order []types.TicketID
	var walk func(types.TicketID)
	walk = func(t types.TicketID) {
		for _, dep := range w.Reg.Dependencies(t) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			order = append(order, dep)
			if _, ok := w.Reg.BranchForTicket(dep); !ok {
				w.UI.Warn("ticket %s has no local branch; its own dependencies are unknown here", dep)
				continue
			}
			walk(dep)
		}
	}
	walk(ticket)
	return order, nil
}
