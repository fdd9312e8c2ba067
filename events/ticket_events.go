package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// TicketUpdatedEvent is emitted when a ticket's state changes.
type TicketUpdatedEvent struct {
	TicketID  string         `json:"ticket_id"`
	Ticket    support.Ticket `json:"ticket"`
	Timestamp time.Time      `json:"timestamp"`
}

// QueueUpdatedEvent is emitted when the unassigned-ticket queue changes.
// It carries no payload beyond the timestamp; clients re-fetch the queue.
type QueueUpdatedEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the ticket domain.
var (
	// TicketUpdatedV1 is published on every ticket status or assignment change.
	TicketUpdatedV1 = helper.EventDefinition[TicketUpdatedEvent](
		"tickets",
		"TicketUpdated",
		"v1",
	)

	// QueueUpdatedV1 is published when a ticket enters or leaves the
	// unassigned queue.
	QueueUpdatedV1 = helper.EventDefinition[QueueUpdatedEvent](
		"tickets",
		"QueueUpdated",
		"v1",
	)
)
