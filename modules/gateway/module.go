package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lethien999/my-live-support-2025-sub002/events"
)

// Module is the real-time gateway: it terminates WebSocket connections,
// enforces room access, and fans messages out to room members.
type Module struct {
	app      *fiber.App
	handlers *Handlers
	registry *Registry
	addr     string
	logger   types.Logger

	authContainer    mono.ServiceContainer
	ticketContainer  mono.ServiceContainer
	historyContainer mono.ServiceContainer
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the gateway module. The listen address comes from
// GATEWAY_ADDR, defaulting to :8080.
func NewModule(moduleLogger types.Logger) *Module {
	addr := os.Getenv("GATEWAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return &Module{
		addr:     addr,
		registry: NewRegistry(),
		logger:   moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies declares the modules whose services the gateway calls.
func (m *Module) Dependencies() []string {
	return []string{"auth", "tickets", "history"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
	case "tickets":
		m.ticketContainer = container
	case "history":
		m.historyContainer = container
	}
}

// RegisterEventConsumers subscribes to the global notification events and
// relays them to every connected client.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TicketUpdatedV1, m.handleTicketUpdated, m); err != nil {
		return fmt.Errorf("failed to register TicketUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.QueueUpdatedV1, m.handleQueueUpdated, m); err != nil {
		return fmt.Errorf("failed to register QueueUpdated consumer: %w", err)
	}
	return nil
}

// Start initializes and starts the gateway server.
func (m *Module) Start(_ context.Context) error {
	if m.authContainer == nil || m.ticketContainer == nil || m.historyContainer == nil {
		return fmt.Errorf("gateway requires auth, tickets and history service containers")
	}

	m.handlers = NewHandlers(
		NewAuthAdapter(m.authContainer),
		NewTicketAdapter(m.ticketContainer),
		NewHistoryAdapter(m.historyContainer),
		m.registry,
	)

	m.app = fiber.New(fiber.Config{
		AppName:               "Live Support Gateway",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.registerRoutes()

	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("gateway started", "addr", m.addr)
	return nil
}

// Stop gracefully shuts down the gateway server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown gateway: %w", err)
		}
	}
	m.logger.Info("gateway stopped")
	return nil
}

// Health reports connection and room counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	conns, rooms := m.registry.Counts()
	return mono.HealthStatus{
		Healthy: true,
		Message: "gateway is operational",
		Details: map[string]any{
			"connections":  conns,
			"active_rooms": rooms,
		},
	}
}

// registerRoutes sets up all HTTP and WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", m.handlers.HealthCheck)

	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))

	api := m.app.Group("/api/v1")
	api.Get("/rooms/:id/history", m.handlers.GetRoomHistory)
}

// handleTicketUpdated relays a ticket change to every connection. Delivery
// is best effort; slow clients miss the notification and refetch later.
func (m *Module) handleTicketUpdated(_ context.Context, event events.TicketUpdatedEvent, _ *mono.Msg) error {
	frame, err := marshalFrame(FrameTicketUpdated, TicketUpdatedPayload{
		TicketID:  event.TicketID,
		Ticket:    event.Ticket,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ticket notification: %w", err)
	}
	m.registry.BroadcastAll(frame)
	return nil
}

// handleQueueUpdated relays a queue change to every connection.
func (m *Module) handleQueueUpdated(_ context.Context, _ events.QueueUpdatedEvent, _ *mono.Msg) error {
	frame, err := marshalFrame(FrameQueueUpdated, struct{}{})
	if err != nil {
		return fmt.Errorf("failed to marshal queue notification: %w", err)
	}
	m.registry.BroadcastAll(frame)
	return nil
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	m.logger.Error("HTTP error", "code", code, "message", message, "error", err)

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
