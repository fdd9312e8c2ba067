package tickets

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&TicketRecord{}, &RoomRecord{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(setupTestDB(t)))
}

func TestService_CreateTicket(t *testing.T) {
	service := newTestService(t)

	tests := []struct {
		name       string
		customerID string
		subject    string
		wantErr    error
	}{
		{
			name:       "valid ticket",
			customerID: "cust-1",
			subject:    "Cannot log in",
		},
		{
			name:    "missing customer",
			subject: "Cannot log in",
			wantErr: ErrCustomerEmpty,
		},
		{
			name:       "missing subject",
			customerID: "cust-1",
			wantErr:    ErrSubjectEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, room, err := service.CreateTicket(tt.customerID, tt.subject)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateTicket() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("CreateTicket() unexpected error: %v", err)
			}
			if ticket.Status != support.TicketOpen {
				t.Errorf("ticket.Status = %q, want %q", ticket.Status, support.TicketOpen)
			}
			if room.TicketID != ticket.ID {
				t.Errorf("room.TicketID = %q, want %q", room.TicketID, ticket.ID)
			}
			if !room.Active {
				t.Error("room.Active = false, want true for a fresh ticket")
			}
		})
	}
}

func TestService_GetTicketAndRoom(t *testing.T) {
	service := newTestService(t)

	ticket, room, err := service.CreateTicket("cust-1", "Billing question")
	if err != nil {
		t.Fatalf("CreateTicket() error: %v", err)
	}

	gotTicket, err := service.GetTicket(ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket() error: %v", err)
	}
	if gotTicket.Subject != "Billing question" {
		t.Errorf("GetTicket() subject = %q, want %q", gotTicket.Subject, "Billing question")
	}

	gotRoom, err := service.GetRoom(room.ID)
	if err != nil {
		t.Fatalf("GetRoom() error: %v", err)
	}
	if gotRoom.TicketID != ticket.ID {
		t.Errorf("GetRoom() ticketID = %q, want %q", gotRoom.TicketID, ticket.ID)
	}

	if _, err := service.GetTicket("no-such-ticket"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("GetTicket() error = %v, want ErrTicketNotFound", err)
	}
	if _, err := service.GetRoom("no-such-room"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetRoom() error = %v, want ErrRoomNotFound", err)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	service := newTestService(t)

	ticket, room, err := service.CreateTicket("cust-1", "Broken feature")
	if err != nil {
		t.Fatalf("CreateTicket() error: %v", err)
	}

	// Closing deactivates the room.
	updated, err := service.UpdateStatus(ticket.ID, support.TicketClosed)
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Status != support.TicketClosed {
		t.Errorf("ticket.Status = %q, want %q", updated.Status, support.TicketClosed)
	}
	gotRoom, err := service.GetRoom(room.ID)
	if err != nil {
		t.Fatalf("GetRoom() error: %v", err)
	}
	if gotRoom.Active {
		t.Error("room.Active = true after close, want false")
	}

	// Reopening reactivates it.
	if _, err := service.UpdateStatus(ticket.ID, support.TicketOpen); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	gotRoom, err = service.GetRoom(room.ID)
	if err != nil {
		t.Fatalf("GetRoom() error: %v", err)
	}
	if !gotRoom.Active {
		t.Error("room.Active = false after reopen, want true")
	}

	if _, err := service.UpdateStatus(ticket.ID, support.TicketStatus("archived")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateStatus() error = %v, want ErrInvalidStatus", err)
	}
	if _, err := service.UpdateStatus("no-such-ticket", support.TicketOpen); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrTicketNotFound", err)
	}
}

func TestService_Assign(t *testing.T) {
	service := newTestService(t)

	ticket, _, err := service.CreateTicket("cust-1", "Slow dashboard")
	if err != nil {
		t.Fatalf("CreateTicket() error: %v", err)
	}

	assigned, err := service.Assign(ticket.ID, "agent-7")
	if err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
	if assigned.AgentID != "agent-7" {
		t.Errorf("ticket.AgentID = %q, want %q", assigned.AgentID, "agent-7")
	}
	if assigned.Status != support.TicketInProgress {
		t.Errorf("ticket.Status = %q, want %q", assigned.Status, support.TicketInProgress)
	}

	// Reassignment of a resolved ticket keeps its status.
	if _, err := service.UpdateStatus(ticket.ID, support.TicketResolved); err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	reassigned, err := service.Assign(ticket.ID, "agent-8")
	if err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
	if reassigned.Status != support.TicketResolved {
		t.Errorf("ticket.Status = %q, want %q after reassignment", reassigned.Status, support.TicketResolved)
	}

	if _, err := service.Assign("no-such-ticket", "agent-7"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Assign() error = %v, want ErrTicketNotFound", err)
	}
}

func TestRepository_CountUnassigned(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	service := NewService(repo)

	for i := 0; i < 3; i++ {
		if _, _, err := service.CreateTicket("cust-1", "Queue item"); err != nil {
			t.Fatalf("CreateTicket() error: %v", err)
		}
	}
	ticket, _, err := service.CreateTicket("cust-2", "Assigned item")
	if err != nil {
		t.Fatalf("CreateTicket() error: %v", err)
	}
	if _, err := service.Assign(ticket.ID, "agent-1"); err != nil {
		t.Fatalf("Assign() error: %v", err)
	}

	count, err := repo.CountUnassigned()
	if err != nil {
		t.Fatalf("CountUnassigned() error: %v", err)
	}
	if count != 3 {
		t.Errorf("CountUnassigned() = %d, want 3", count)
	}
}
