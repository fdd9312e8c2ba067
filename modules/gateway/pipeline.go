package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// defaultHistoryLimit bounds the history replay sent on join. Tunable; 50
// keeps the joined frame small while covering a typical conversation.
const defaultHistoryLimit = 50

// maxContentLength bounds inbound message content before any persistence
// attempt.
const maxContentLength = 5000

var (
	// ErrNotMember is returned when a connection posts to a room it never
	// joined. Treated as a protocol violation by the caller.
	ErrNotMember = errors.New("not a member of room")
	// ErrEmptyContent is returned when a text message is empty after
	// trimming.
	ErrEmptyContent = errors.New("message content cannot be empty")
	// ErrContentTooLong is returned when content exceeds maxContentLength.
	ErrContentTooLong = errors.New("message content exceeds maximum length")
	// ErrMissingFileRef is returned when a file message carries no file
	// reference.
	ErrMissingFileRef = errors.New("file message requires a file reference")
	// ErrBadMessageType is returned on an unknown message type.
	ErrBadMessageType = errors.New("invalid message type")
)

// Pipeline validates, persists, and fans out messages. A message is durable
// before any peer sees it; within one room, persistence order is delivery
// order, guaranteed by the per-room send lock.
type Pipeline struct {
	store    HistoryPort
	registry *Registry

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// NewPipeline creates a new message pipeline.
func NewPipeline(store HistoryPort, registry *Registry) *Pipeline {
	return &Pipeline{
		store:     store,
		registry:  registry,
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// Send runs the full pipeline for one inbound message. Validation failures
// happen before any persistence attempt; a persistence failure is returned
// to the sender and nothing is broadcast.
func (p *Pipeline) Send(ctx context.Context, conn Conn, roomID string, msgType support.MessageType, content, fileID string) (support.Message, error) {
	// Membership is the authorization proof: the guard approved the join,
	// and membership survives until leave or disconnect.
	if !p.registry.IsMember(conn, roomID) {
		return support.Message{}, ErrNotMember
	}

	if err := validateContent(msgType, content, fileID); err != nil {
		return support.Message{}, err
	}

	lock := p.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	identity := conn.Identity()
	msg, err := p.store.Persist(ctx, roomID, identity.ID, identity.DisplayName, msgType, content, fileID)
	if err != nil {
		return support.Message{}, fmt.Errorf("persist failed: %w", err)
	}

	frame, err := marshalFrame(FrameMessage, msg)
	if err != nil {
		// The message is durable; only this fan-out is lost. Peers recover
		// it from history on reload.
		slog.Error("failed to marshal message frame", "messageID", msg.ID, "error", err)
		return msg, nil
	}
	p.registry.BroadcastRoom(roomID, frame)

	return msg, nil
}

// JoinAndReplay registers room membership and snapshots the recent-history
// window under the room's send lock. No send can interleave, so every
// message lands exactly once: in the snapshot if persisted before the join,
// in the fan-out if after.
func (p *Pipeline) JoinAndReplay(ctx context.Context, conn Conn, roomID string) ([]support.Message, error) {
	lock := p.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	p.registry.Join(conn, roomID)
	return p.store.Recent(ctx, roomID, defaultHistoryLimit)
}

// IsValidationError reports whether the error is a content validation
// failure, as opposed to a membership or persistence failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrMissingFileRef) ||
		errors.Is(err, ErrBadMessageType)
}

func validateContent(msgType support.MessageType, content, fileID string) error {
	switch msgType {
	case support.MessageText, support.MessageSystem:
		if strings.TrimSpace(content) == "" {
			return ErrEmptyContent
		}
	case support.MessageFile:
		if fileID == "" {
			return ErrMissingFileRef
		}
	default:
		return ErrBadMessageType
	}
	if len(content) > maxContentLength {
		return ErrContentTooLong
	}
	return nil
}

func (p *Pipeline) roomLock(roomID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		p.roomLocks[roomID] = lock
	}
	return lock
}
