package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// authTimeout bounds how long a fresh connection may take to authenticate
// before it is dropped.
const authTimeout = 5 * time.Second

// Handlers contains the HTTP and WebSocket handlers of the gateway.
type Handlers struct {
	auth     AuthPort
	tickets  TicketPort
	history  HistoryPort
	guard    *Guard
	registry *Registry
	tracker  *TypingTracker
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewHandlers wires the gateway components for one server instance.
func NewHandlers(authPort AuthPort, ticketPort TicketPort, historyPort HistoryPort, registry *Registry) *Handlers {
	return &Handlers{
		auth:     authPort,
		tickets:  ticketPort,
		history:  historyPort,
		guard:    NewGuard(ticketPort),
		registry: registry,
		tracker:  NewTypingTracker(registry),
		pipeline: NewPipeline(historyPort, registry),
		logger:   slog.Default(),
	}
}

// Registry exposes the connection registry for the module's event consumers
// and health checks.
func (h *Handlers) Registry() *Registry {
	return h.registry
}

// HandleWebSocket drives one connection through its lifecycle:
// authenticate, register, serve the read loop, tear down.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	token := bearerToken(c)

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	identity, ok, reason, err := h.auth.Authenticate(ctx, token)
	cancel()
	if err != nil {
		h.logger.Error("authentication transport failure", "error", err)
		c.Close()
		return
	}
	if !ok {
		c.WriteMessage(websocket.TextMessage, marshalError(reason))
		c.Close()
		return
	}

	client := NewClient(uuid.New().String(), identity, c)
	h.registry.Register(client)
	go client.WritePump()

	defer func() {
		h.dropConnection(client)
		client.Close()
		h.logger.Info("connection closed", "connID", client.ID(), "userID", identity.ID)
	}()

	h.logger.Info("connection authenticated",
		"connID", client.ID(), "userID", identity.ID, "role", identity.Role)

	c.SetReadLimit(maxFrameSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("read error", "connID", client.ID(), "error", err)
			}
			return
		}

		var frame Envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			client.Enqueue(marshalError(ReasonInvalidPayload))
			continue
		}

		if !client.limiter.allow() {
			client.Enqueue(marshalError(ReasonRateLimited))
			continue
		}

		h.dispatch(client, frame)
	}
}

// dropConnection removes the connection from every room it was a member of
// and clears typing state wherever it was the identity's last connection.
func (h *Handlers) dropConnection(client *Client) {
	for _, dep := range h.registry.DropConn(client) {
		if dep.LastOfIdentity {
			h.tracker.ClearAllFor(client.Identity().ID, dep.RoomID)
		}
	}
}

// dispatch routes one inbound frame to its handler.
func (h *Handlers) dispatch(client *Client, frame Envelope) {
	switch frame.Type {
	case FrameJoin:
		h.handleJoin(client, frame.Payload)
	case FrameLeave:
		h.handleLeave(client, frame.Payload)
	case FrameMessage:
		h.handleSend(client, frame.Payload)
	case FrameTyping:
		h.handleTyping(client, frame.Payload)
	default:
		client.Enqueue(marshalError(ReasonInvalidPayload))
	}
}

// handleJoin authorizes, registers membership, and replays recent history.
func (h *Handlers) handleJoin(client *Client, payload json.RawMessage) {
	var req JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		client.Enqueue(marshalError(ReasonInvalidPayload))
		return
	}

	ctx := context.Background()
	allowed, err := h.guard.CanAccess(ctx, client.Identity(), req.RoomID)
	if err != nil {
		h.logger.Error("access check failed", "roomID", req.RoomID, "error", err)
		client.Enqueue(marshalError(ReasonAccessDenied))
		return
	}
	if !allowed {
		client.Enqueue(marshalError(ReasonAccessDenied))
		return
	}

	messages, err := h.pipeline.JoinAndReplay(ctx, client, req.RoomID)
	if err != nil {
		h.logger.Error("history replay failed", "roomID", req.RoomID, "error", err)
		messages = nil
	}
	if messages == nil {
		messages = []support.Message{}
	}

	ticket := h.ticketSummary(ctx, req.RoomID)

	frame, err := marshalFrame(FrameJoined, JoinedPayload{
		RoomID:   req.RoomID,
		Messages: messages,
		Ticket:   ticket,
	})
	if err != nil {
		h.logger.Error("failed to marshal joined frame", "roomID", req.RoomID, "error", err)
		return
	}
	client.Enqueue(frame)

	h.logger.Info("joined room", "connID", client.ID(), "roomID", req.RoomID)
}

// handleLeave removes membership and clears any typing state the identity
// leaves behind.
func (h *Handlers) handleLeave(client *Client, payload json.RawMessage) {
	var req LeavePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		client.Enqueue(marshalError(ReasonInvalidPayload))
		return
	}

	left, lastOfIdentity := h.registry.Leave(client, req.RoomID)
	if !left {
		// Leaving a never-joined room is harmless; acknowledge idempotently.
		h.sendLeft(client, req.RoomID)
		return
	}
	if lastOfIdentity {
		h.tracker.ClearAllFor(client.Identity().ID, req.RoomID)
	}
	h.sendLeft(client, req.RoomID)
}

func (h *Handlers) sendLeft(client *Client, roomID string) {
	frame, err := marshalFrame(FrameLeft, LeftPayload{RoomID: roomID})
	if err != nil {
		return
	}
	client.Enqueue(frame)
}

// handleSend runs the message pipeline and maps failures onto the error
// taxonomy surfaced to the sender.
func (h *Handlers) handleSend(client *Client, payload json.RawMessage) {
	var req SendPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		client.Enqueue(marshalError(ReasonInvalidPayload))
		return
	}
	if req.Type == "" {
		req.Type = support.MessageText
	}

	_, err := h.pipeline.Send(context.Background(), client, req.RoomID, req.Type, req.Content, req.FileID)
	switch {
	case err == nil:
		// The sender receives the message through the room fan-out.
	case errors.Is(err, ErrNotMember):
		// Either a client bug or a forged request; worth a log line.
		h.logger.Warn("send to non-member room",
			"connID", client.ID(), "userID", client.Identity().ID, "roomID", req.RoomID)
		client.Enqueue(marshalError(ReasonAccessDenied))
	case IsValidationError(err):
		client.Enqueue(marshalError(ReasonValidationError))
	default:
		h.logger.Error("message persistence failed", "roomID", req.RoomID, "error", err)
		client.Enqueue(marshalError(ReasonPersistenceError))
	}
}

// handleTyping updates the typing set; the tracker broadcasts the change.
func (h *Handlers) handleTyping(client *Client, payload json.RawMessage) {
	var req TypingPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		client.Enqueue(marshalError(ReasonInvalidPayload))
		return
	}

	if !h.registry.IsMember(client, req.RoomID) {
		client.Enqueue(marshalError(ReasonAccessDenied))
		return
	}

	h.tracker.SetTyping(client.Identity(), req.RoomID, req.IsTyping)
}

// ticketSummary resolves the ticket behind a room, best effort. A zero
// ticket in the joined frame just means the client fetches it later.
func (h *Handlers) ticketSummary(ctx context.Context, roomID string) support.Ticket {
	room, found, err := h.tickets.GetRoom(ctx, roomID)
	if err != nil || !found {
		return support.Ticket{}
	}
	ticket, found, err := h.tickets.GetTicket(ctx, room.TicketID)
	if err != nil || !found {
		return support.Ticket{}
	}
	return ticket
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	conns, rooms := h.registry.Counts()
	return c.JSON(fiber.Map{
		"status": "healthy",
		"details": fiber.Map{
			"connections":  conns,
			"active_rooms": rooms,
		},
	})
}

// GetRoomHistory handles GET /api/v1/rooms/:id/history. The same credential
// and access rules apply as on the WebSocket join path.
func (h *Handlers) GetRoomHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")

	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	ctx, cancel := context.WithTimeout(c.UserContext(), authTimeout)
	defer cancel()

	identity, ok, reason, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "auth_unavailable"})
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": reason})
	}

	allowed, err := h.guard.CanAccess(ctx, identity, roomID)
	if err != nil || !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ReasonAccessDenied})
	}

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	messages, err := h.history.Recent(ctx, roomID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history_unavailable"})
	}
	if messages == nil {
		messages = []support.Message{}
	}

	return c.JSON(fiber.Map{"room_id": roomID, "messages": messages})
}

// bearerToken extracts the credential from the handshake: the token query
// parameter, or the Authorization header.
func bearerToken(c *websocket.Conn) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	auth := c.Headers("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
