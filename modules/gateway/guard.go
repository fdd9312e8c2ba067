package gateway

import (
	"context"
	"fmt"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Guard decides whether an identity may join a room. Agents and admins have
// blanket access (flat support-pool model); a customer only reaches the room
// of their own ticket. The check is re-evaluated on every join attempt so
// ownership or role changes between connections take effect.
type Guard struct {
	tickets TicketPort
}

// NewGuard creates a new Guard.
func NewGuard(tickets TicketPort) *Guard {
	return &Guard{tickets: tickets}
}

// CanAccess reports whether the identity may join the room. Unknown and
// inactive rooms are denials, never errors: a stale or hostile client may
// reference a room that no longer exists.
func (g *Guard) CanAccess(ctx context.Context, identity support.Identity, roomID string) (bool, error) {
	room, found, err := g.tickets.GetRoom(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("room lookup failed: %w", err)
	}
	if !found || !room.Active {
		return false, nil
	}

	if identity.IsStaff() {
		return true, nil
	}

	ticket, found, err := g.tickets.GetTicket(ctx, room.TicketID)
	if err != nil {
		return false, fmt.Errorf("ticket lookup failed: %w", err)
	}
	if !found {
		return false, nil
	}

	return ticket.CustomerID == identity.ID, nil
}
