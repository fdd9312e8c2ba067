package history

import (
	"gorm.io/gorm"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Repository handles message persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a message record.
func (r *Repository) Create(msg *MessageRecord) error {
	return r.db.Create(msg).Error
}

// Recent returns the most recent messages for a room in insertion order,
// bounded by limit. Ordering by seq keeps replay aligned with persistence
// order even when rows share a created_at tick.
func (r *Repository) Recent(roomID string, limit int) ([]support.Message, error) {
	var records []MessageRecord
	result := r.db.
		Where("room_id = ?", roomID).
		Order("seq DESC").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	// The query returns newest first; reverse into chronological order.
	messages := make([]support.Message, len(records))
	for i, rec := range records {
		messages[len(records)-1-i] = rec.Message()
	}
	return messages, nil
}

// CountForRoom returns the number of stored messages for a room.
func (r *Repository) CountForRoom(roomID string) (int64, error) {
	var count int64
	result := r.db.Model(&MessageRecord{}).Where("room_id = ?", roomID).Count(&count)
	return count, result.Error
}
