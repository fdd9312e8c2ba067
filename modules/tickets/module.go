package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
	"github.com/lethien999/my-live-support-2025-sub002/events"
)

// Module provides ticket and room lookups to the gateway and emits
// ticket/queue change events on the bus.
type Module struct {
	db       *gorm.DB
	service  *Service
	dbPath   string
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new tickets module.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("TICKETS_DB_PATH")
	if dbPath == "" {
		dbPath = "support_tickets.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "tickets"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TicketUpdatedV1.ToBase(),
		events.QueueUpdatedV1.ToBase(),
	}
}

// Start opens the database and migrates the ticket and room schemas.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&TicketRecord{}, &RoomRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewService(NewRepository(db))

	m.logger.Info("Tickets module started", "database", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Tickets module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.dbPath},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		return nil
	}

	if err := register(ServiceGetRoom, helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.handleGetRoom)); err != nil {
		return err
	}
	if err := register(ServiceGetTicket, helper.RegisterTypedRequestReplyService(
		container, ServiceGetTicket, json.Unmarshal, json.Marshal, m.handleGetTicket)); err != nil {
		return err
	}
	if err := register(ServiceCreateTicket, helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTicket, json.Unmarshal, json.Marshal, m.handleCreateTicket)); err != nil {
		return err
	}
	if err := register(ServiceUpdateStatus, helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateStatus, json.Unmarshal, json.Marshal, m.handleUpdateStatus)); err != nil {
		return err
	}
	if err := register(ServiceAssignTicket, helper.RegisterTypedRequestReplyService(
		container, ServiceAssignTicket, json.Unmarshal, json.Marshal, m.handleAssignTicket)); err != nil {
		return err
	}

	m.logger.Info("Registered ticket services",
		"services", []string{ServiceGetRoom, ServiceGetTicket, ServiceCreateTicket, ServiceUpdateStatus, ServiceAssignTicket})
	return nil
}

// Service exposes the ticket service for tests.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) handleGetRoom(_ context.Context, req GetRoomRequest, _ *mono.Msg) (GetRoomResponse, error) {
	room, err := m.service.GetRoom(req.RoomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return GetRoomResponse{Found: false}, nil
		}
		return GetRoomResponse{}, err
	}
	return GetRoomResponse{Found: true, Room: room}, nil
}

func (m *Module) handleGetTicket(_ context.Context, req GetTicketRequest, _ *mono.Msg) (GetTicketResponse, error) {
	ticket, err := m.service.GetTicket(req.TicketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return GetTicketResponse{Found: false}, nil
		}
		return GetTicketResponse{}, err
	}
	return GetTicketResponse{Found: true, Ticket: ticket}, nil
}

func (m *Module) handleCreateTicket(_ context.Context, req CreateTicketRequest, _ *mono.Msg) (CreateTicketResponse, error) {
	ticket, room, err := m.service.CreateTicket(req.CustomerID, req.Subject)
	if err != nil {
		return CreateTicketResponse{}, err
	}

	// A new ticket enters the unassigned queue.
	m.publishQueueUpdated()

	return CreateTicketResponse{Ticket: ticket, Room: room}, nil
}

func (m *Module) handleUpdateStatus(_ context.Context, req UpdateStatusRequest, _ *mono.Msg) (UpdateStatusResponse, error) {
	ticket, err := m.service.UpdateStatus(req.TicketID, req.Status)
	if err != nil {
		return UpdateStatusResponse{}, err
	}

	m.publishTicketUpdated(ticket)
	if ticket.AgentID == "" {
		m.publishQueueUpdated()
	}

	return UpdateStatusResponse{Ticket: ticket}, nil
}

func (m *Module) handleAssignTicket(_ context.Context, req AssignTicketRequest, _ *mono.Msg) (AssignTicketResponse, error) {
	ticket, err := m.service.Assign(req.TicketID, req.AgentID)
	if err != nil {
		return AssignTicketResponse{}, err
	}

	m.publishTicketUpdated(ticket)
	// The ticket left the unassigned queue.
	m.publishQueueUpdated()

	return AssignTicketResponse{Ticket: ticket}, nil
}

func (m *Module) publishTicketUpdated(ticket support.Ticket) {
	event := events.TicketUpdatedEvent{
		TicketID:  ticket.ID,
		Ticket:    ticket,
		Timestamp: time.Now(),
	}
	if err := events.TicketUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish TicketUpdated event", "ticketID", ticket.ID, "error", err)
	}
}

func (m *Module) publishQueueUpdated() {
	event := events.QueueUpdatedEvent{Timestamp: time.Now()}
	if err := events.QueueUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish QueueUpdated event", "error", err)
	}
}
