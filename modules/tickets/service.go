package tickets

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

var (
	// ErrSubjectEmpty is returned when a ticket is created without a subject.
	ErrSubjectEmpty = errors.New("ticket subject cannot be empty")
	// ErrCustomerEmpty is returned when a ticket is created without a customer.
	ErrCustomerEmpty = errors.New("ticket customer cannot be empty")
	// ErrInvalidStatus is returned on an unknown status transition target.
	ErrInvalidStatus = errors.New("invalid ticket status")
)

// Service implements ticket lifecycle operations over the repository.
type Service struct {
	repo *Repository
}

// NewService creates a new ticket service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateTicket opens a ticket and its chat room in one transaction.
func (s *Service) CreateTicket(customerID, subject string) (support.Ticket, support.Room, error) {
	if customerID == "" {
		return support.Ticket{}, support.Room{}, ErrCustomerEmpty
	}
	if subject == "" {
		return support.Ticket{}, support.Room{}, ErrSubjectEmpty
	}

	ticket := &TicketRecord{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Subject:    subject,
		Status:     support.TicketOpen,
	}
	room := &RoomRecord{
		ID:       uuid.New().String(),
		TicketID: ticket.ID,
		Active:   true,
	}
	if err := s.repo.CreateTicketWithRoom(ticket, room); err != nil {
		return support.Ticket{}, support.Room{}, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket.Ticket(), room.Room(), nil
}

// GetTicket returns a ticket by ID.
func (s *Service) GetTicket(id string) (support.Ticket, error) {
	ticket, err := s.repo.FindTicket(id)
	if err != nil {
		return support.Ticket{}, err
	}
	return ticket.Ticket(), nil
}

// GetRoom returns a room by ID.
func (s *Service) GetRoom(id string) (support.Room, error) {
	room, err := s.repo.FindRoom(id)
	if err != nil {
		return support.Room{}, err
	}
	return room.Room(), nil
}

// UpdateStatus transitions a ticket's status. Closing a ticket deactivates
// its room; reopening reactivates it.
func (s *Service) UpdateStatus(ticketID string, status support.TicketStatus) (support.Ticket, error) {
	switch status {
	case support.TicketOpen, support.TicketInProgress, support.TicketResolved, support.TicketClosed:
	default:
		return support.Ticket{}, ErrInvalidStatus
	}

	ticket, err := s.repo.FindTicket(ticketID)
	if err != nil {
		return support.Ticket{}, err
	}

	ticket.Status = status
	if err := s.repo.SaveTicket(ticket); err != nil {
		return support.Ticket{}, fmt.Errorf("failed to update ticket: %w", err)
	}

	active := status != support.TicketClosed
	if err := s.repo.SetRoomActive(ticketID, active); err != nil && !errors.Is(err, ErrRoomNotFound) {
		return support.Ticket{}, fmt.Errorf("failed to update room state: %w", err)
	}

	return ticket.Ticket(), nil
}

// Assign assigns a ticket to an agent and moves it to in_progress.
func (s *Service) Assign(ticketID, agentID string) (support.Ticket, error) {
	ticket, err := s.repo.FindTicket(ticketID)
	if err != nil {
		return support.Ticket{}, err
	}

	ticket.AgentID = agentID
	if ticket.Status == support.TicketOpen {
		ticket.Status = support.TicketInProgress
	}
	if err := s.repo.SaveTicket(ticket); err != nil {
		return support.Ticket{}, fmt.Errorf("failed to assign ticket: %w", err)
	}
	return ticket.Ticket(), nil
}
