package gateway

import (
	"context"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// AuthPort verifies bearer credentials on new connections.
type AuthPort interface {
	// Authenticate resolves a credential to an identity. A rejected
	// credential returns ok=false with a machine-readable reason; err is
	// reserved for transport failures.
	Authenticate(ctx context.Context, token string) (identity support.Identity, ok bool, reason string, err error)
}

// TicketPort resolves rooms and their owning tickets.
type TicketPort interface {
	GetRoom(ctx context.Context, roomID string) (support.Room, bool, error)
	GetTicket(ctx context.Context, ticketID string) (support.Ticket, bool, error)
}

// HistoryPort persists messages and serves the recent-history window.
type HistoryPort interface {
	// Persist stores a message. Validation failures and storage failures are
	// both surfaced as errors; a returned message is durable.
	Persist(ctx context.Context, roomID, senderID, senderName string, msgType support.MessageType, content, fileID string) (support.Message, error)
	Recent(ctx context.Context, roomID string, limit int) ([]support.Message, error)
}
