package history

import (
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// MessageRecord is the persisted chat message entity. Records are append-only;
// the gateway never mutates or deletes them. Seq is assigned by the database
// in insertion order and is the replay sort key: created_at can tie across
// rapid sends and the random message IDs give no usable tie-break.
type MessageRecord struct {
	Seq        int64               `gorm:"primaryKey;autoIncrement;index:idx_room_seq,priority:2"`
	ID         string              `gorm:"uniqueIndex;not null;type:text"`
	RoomID     string              `gorm:"not null;index:idx_room_seq,priority:1;type:text"`
	SenderID   string              `gorm:"not null;type:text"`
	SenderName string              `gorm:"not null;type:text"`
	Type       support.MessageType `gorm:"not null;type:text"`
	Content    string              `gorm:"not null;type:text"`
	FileID     string              `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName returns the table name for the MessageRecord entity.
func (MessageRecord) TableName() string {
	return "chat_messages"
}

// Message converts the record into the domain view.
func (r MessageRecord) Message() support.Message {
	return support.Message{
		ID:         r.ID,
		RoomID:     r.RoomID,
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		Type:       r.Type,
		Content:    r.Content,
		FileID:     r.FileID,
		CreatedAt:  r.CreatedAt,
	}
}
