package tickets

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrTicketNotFound is returned when a ticket is not found.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrRoomNotFound is returned when a room is not found.
	ErrRoomNotFound = errors.New("room not found")
)

// Repository handles ticket and room persistence using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTicketWithRoom stores a ticket and its room in one transaction.
func (r *Repository) CreateTicketWithRoom(ticket *TicketRecord, room *RoomRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}
		return tx.Create(room).Error
	})
}

// FindTicket finds a ticket by ID.
func (r *Repository) FindTicket(id string) (*TicketRecord, error) {
	var ticket TicketRecord
	result := r.db.First(&ticket, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, result.Error
	}
	return &ticket, nil
}

// FindRoom finds a room by ID.
func (r *Repository) FindRoom(id string) (*RoomRecord, error) {
	var room RoomRecord
	result := r.db.First(&room, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

// FindRoomByTicket finds the room belonging to a ticket.
func (r *Repository) FindRoomByTicket(ticketID string) (*RoomRecord, error) {
	var room RoomRecord
	result := r.db.First(&room, "ticket_id = ?", ticketID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

// SaveTicket persists changes to an existing ticket.
func (r *Repository) SaveTicket(ticket *TicketRecord) error {
	return r.db.Save(ticket).Error
}

// SetRoomActive flips the active flag on a ticket's room.
func (r *Repository) SetRoomActive(ticketID string, active bool) error {
	result := r.db.Model(&RoomRecord{}).Where("ticket_id = ?", ticketID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// CountUnassigned returns the number of open tickets without an agent.
func (r *Repository) CountUnassigned() (int64, error) {
	var count int64
	result := r.db.Model(&TicketRecord{}).
		Where("agent_id = ? AND status IN ?", "", []string{"open", "in_progress"}).
		Count(&count)
	return count, result.Error
}
