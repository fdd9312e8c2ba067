package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
	"github.com/lethien999/my-live-support-2025-sub002/modules/auth"
	"github.com/lethien999/my-live-support-2025-sub002/modules/history"
	"github.com/lethien999/my-live-support-2025-sub002/modules/tickets"
)

// AuthAdapter implements AuthPort over the auth module's service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("gateway: auth ServiceContainer is nil")
	}
	return &AuthAdapter{container: container}
}

// Authenticate verifies a credential through the authenticate service.
func (a *AuthAdapter) Authenticate(ctx context.Context, token string) (support.Identity, bool, string, error) {
	req := auth.AuthenticateRequest{Token: token}
	var resp auth.AuthenticateResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		auth.ServiceAuthenticate,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return support.Identity{}, false, "", fmt.Errorf("failed to authenticate: %w", err)
	}
	return resp.Identity, resp.OK, resp.Reason, nil
}

// TicketAdapter implements TicketPort over the tickets module's service
// container.
type TicketAdapter struct {
	container mono.ServiceContainer
}

// NewTicketAdapter creates a new TicketAdapter.
func NewTicketAdapter(container mono.ServiceContainer) *TicketAdapter {
	if container == nil {
		panic("gateway: tickets ServiceContainer is nil")
	}
	return &TicketAdapter{container: container}
}

// GetRoom resolves a room through the get-room service.
func (a *TicketAdapter) GetRoom(ctx context.Context, roomID string) (support.Room, bool, error) {
	req := tickets.GetRoomRequest{RoomID: roomID}
	var resp tickets.GetRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		tickets.ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return support.Room{}, false, fmt.Errorf("failed to get room: %w", err)
	}
	return resp.Room, resp.Found, nil
}

// GetTicket resolves a ticket through the get-ticket service.
func (a *TicketAdapter) GetTicket(ctx context.Context, ticketID string) (support.Ticket, bool, error) {
	req := tickets.GetTicketRequest{TicketID: ticketID}
	var resp tickets.GetTicketResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		tickets.ServiceGetTicket,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return support.Ticket{}, false, fmt.Errorf("failed to get ticket: %w", err)
	}
	return resp.Ticket, resp.Found, nil
}

// HistoryAdapter implements HistoryPort over the history module's service
// container.
type HistoryAdapter struct {
	container mono.ServiceContainer
}

// NewHistoryAdapter creates a new HistoryAdapter.
func NewHistoryAdapter(container mono.ServiceContainer) *HistoryAdapter {
	if container == nil {
		panic("gateway: history ServiceContainer is nil")
	}
	return &HistoryAdapter{container: container}
}

// Persist stores a message through the persist-message service.
func (a *HistoryAdapter) Persist(ctx context.Context, roomID, senderID, senderName string, msgType support.MessageType, content, fileID string) (support.Message, error) {
	req := history.PersistMessageRequest{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       msgType,
		Content:    content,
		FileID:     fileID,
	}
	var resp history.PersistMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		history.ServicePersistMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return support.Message{}, fmt.Errorf("failed to persist message: %w", err)
	}
	return resp.Message, nil
}

// Recent fetches the recent-history window through the recent-messages
// service.
func (a *HistoryAdapter) Recent(ctx context.Context, roomID string, limit int) ([]support.Message, error) {
	req := history.RecentMessagesRequest{RoomID: roomID, Limit: limit}
	var resp history.RecentMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		history.ServiceRecentMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	return resp.Messages, nil
}
