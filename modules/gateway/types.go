package gateway

import (
	"encoding/json"
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Inbound frame types.
const (
	FrameJoin    = "join"
	FrameLeave   = "leave"
	FrameMessage = "message"
	FrameTyping  = "typing"
)

// Outbound frame types.
const (
	FrameJoined        = "joined"
	FrameLeft          = "left"
	FrameError         = "error"
	FrameTicketUpdated = "ticket_updated"
	FrameQueueUpdated  = "queue_updated"
)

// Machine-readable error reasons carried in error frames.
const (
	ReasonAccessDenied     = "access_denied"
	ReasonValidationError  = "validation_error"
	ReasonPersistenceError = "persistence_error"
	ReasonInvalidPayload   = "invalid_payload"
	ReasonRateLimited      = "rate_limited"
)

// JoinPayload is the inbound payload for joining a room.
type JoinPayload struct {
	RoomID string `json:"room_id"`
}

// LeavePayload is the inbound payload for leaving a room.
type LeavePayload struct {
	RoomID string `json:"room_id"`
}

// SendPayload is the inbound payload for sending a message.
type SendPayload struct {
	RoomID  string              `json:"room_id"`
	Type    support.MessageType `json:"type"`
	Content string              `json:"content"`
	FileID  string              `json:"file_id,omitempty"`
}

// TypingPayload is the inbound payload for typing signals.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

// JoinedPayload is the reply to a successful join: recent history plus a
// ticket summary so the client renders without extra round trips.
type JoinedPayload struct {
	RoomID   string            `json:"room_id"`
	Messages []support.Message `json:"messages"`
	Ticket   support.Ticket    `json:"ticket"`
}

// LeftPayload confirms a leave.
type LeftPayload struct {
	RoomID string `json:"room_id"`
}

// TypingEvent is fanned out to room members on every typing mutation.
type TypingEvent struct {
	RoomID      string `json:"room_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsTyping    bool   `json:"is_typing"`
}

// TicketUpdatedPayload is the global, best-effort ticket change hint.
type TicketUpdatedPayload struct {
	TicketID  string         `json:"ticket_id"`
	Ticket    support.Ticket `json:"ticket"`
	Timestamp time.Time      `json:"timestamp"`
}

// marshalFrame builds an outbound frame, marshaling once so a room fan-out
// shares the same bytes across peers.
func marshalFrame(frameType string, payload any) ([]byte, error) {
	env := Envelope{Type: frameType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = data
	}
	return json.Marshal(env)
}

// marshalError builds an error frame with a machine-readable reason.
func marshalError(reason string) []byte {
	data, _ := json.Marshal(Envelope{Type: FrameError, Error: reason})
	return data
}
