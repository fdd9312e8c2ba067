package tickets

import (
	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Service names registered in the service container.
const (
	ServiceGetRoom      = "get-room"
	ServiceGetTicket    = "get-ticket"
	ServiceCreateTicket = "create-ticket"
	ServiceUpdateStatus = "update-ticket-status"
	ServiceAssignTicket = "assign-ticket"
)

// GetRoomRequest asks for a room by ID.
type GetRoomRequest struct {
	RoomID string `json:"room_id"`
}

// GetRoomResponse carries the room, or Found=false when it does not exist.
type GetRoomResponse struct {
	Found bool         `json:"found"`
	Room  support.Room `json:"room,omitempty"`
}

// GetTicketRequest asks for a ticket by ID.
type GetTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

// GetTicketResponse carries the ticket, or Found=false when it does not exist.
type GetTicketResponse struct {
	Found  bool           `json:"found"`
	Ticket support.Ticket `json:"ticket,omitempty"`
}

// CreateTicketRequest opens a new ticket for a customer.
type CreateTicketRequest struct {
	CustomerID string `json:"customer_id"`
	Subject    string `json:"subject"`
}

// CreateTicketResponse returns the new ticket and its chat room.
type CreateTicketResponse struct {
	Ticket support.Ticket `json:"ticket"`
	Room   support.Room   `json:"room"`
}

// UpdateStatusRequest transitions a ticket's status.
type UpdateStatusRequest struct {
	TicketID string               `json:"ticket_id"`
	Status   support.TicketStatus `json:"status"`
}

// UpdateStatusResponse returns the updated ticket.
type UpdateStatusResponse struct {
	Ticket support.Ticket `json:"ticket"`
}

// AssignTicketRequest assigns a ticket to an agent.
type AssignTicketRequest struct {
	TicketID string `json:"ticket_id"`
	AgentID  string `json:"agent_id"`
}

// AssignTicketResponse returns the updated ticket.
type AssignTicketResponse struct {
	Ticket support.Ticket `json:"ticket"`
}
