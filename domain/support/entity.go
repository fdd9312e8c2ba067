package support

import "time"

// Role is the access level attached to an authenticated identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// UserStatus is the account state of a user record.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserDisabled  UserStatus = "disabled"
)

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// MessageType distinguishes the kinds of chat messages.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Identity is the authenticated principal attached to a connection.
// It is resolved once at connect time and immutable for the connection's
// lifetime.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// IsStaff reports whether the identity has blanket room access.
func (i Identity) IsStaff() bool {
	return i.Role == RoleAgent || i.Role == RoleAdmin
}

// Room is the isolation unit for one ticket's conversation.
type Room struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is the support request that owns a room.
type Ticket struct {
	ID         string       `json:"id"`
	CustomerID string       `json:"customer_id"`
	AgentID    string       `json:"agent_id,omitempty"`
	Subject    string       `json:"subject"`
	Status     TicketStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Message is a persisted chat message. Messages are immutable once stored;
// ordering is by creation time within a room only.
type Message struct {
	ID         string      `json:"id"`
	RoomID     string      `json:"room_id"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	FileID     string      `json:"file_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// User is a read-only snapshot of a user record from the directory.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Role        Role       `json:"role"`
	Status      UserStatus `json:"status"`
}

// Identity converts the user snapshot into a connection identity.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, DisplayName: u.DisplayName, Role: u.Role}
}
