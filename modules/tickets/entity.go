package tickets

import (
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// TicketRecord is the persisted ticket entity.
type TicketRecord struct {
	ID         string               `gorm:"primaryKey;type:text"`
	CustomerID string               `gorm:"not null;index;type:text"`
	AgentID    string               `gorm:"index;type:text"`
	Subject    string               `gorm:"not null;type:text"`
	Status     support.TicketStatus `gorm:"not null;type:text;default:open"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for the TicketRecord entity.
func (TicketRecord) TableName() string {
	return "tickets"
}

// Ticket converts the record into the domain view.
func (t TicketRecord) Ticket() support.Ticket {
	return support.Ticket{
		ID:         t.ID,
		CustomerID: t.CustomerID,
		AgentID:    t.AgentID,
		Subject:    t.Subject,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// RoomRecord is the persisted chat room entity. One room per ticket.
type RoomRecord struct {
	ID        string `gorm:"primaryKey;type:text"`
	TicketID  string `gorm:"uniqueIndex;not null;type:text"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the RoomRecord entity.
func (RoomRecord) TableName() string {
	return "chat_rooms"
}

// Room converts the record into the domain view.
func (r RoomRecord) Room() support.Room {
	return support.Room{
		ID:        r.ID,
		TicketID:  r.TicketID,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}
}
