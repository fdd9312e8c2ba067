package history

import (
	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Service names registered in the service container.
const (
	ServicePersistMessage = "persist-message"
	ServiceRecentMessages = "recent-messages"
)

// PersistMessageRequest stores one message.
type PersistMessageRequest struct {
	RoomID     string              `json:"room_id"`
	SenderID   string              `json:"sender_id"`
	SenderName string              `json:"sender_name"`
	Type       support.MessageType `json:"type"`
	Content    string              `json:"content"`
	FileID     string              `json:"file_id,omitempty"`
}

// PersistMessageResponse returns the durable message record.
type PersistMessageResponse struct {
	Message support.Message `json:"message"`
}

// RecentMessagesRequest fetches the recent-history window for a room.
type RecentMessagesRequest struct {
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
}

// RecentMessagesResponse carries messages in chronological order.
type RecentMessagesResponse struct {
	Messages []support.Message `json:"messages"`
}
