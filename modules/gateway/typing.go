package gateway

import (
	"log/slog"
	"sync"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// TypingTracker maintains the ephemeral per-room set of identities currently
// composing a message. Every mutation is immediately fanned out to the
// room's membership; peers reconstruct typing state from the event stream,
// there is no snapshot API.
type TypingTracker struct {
	mu       sync.Mutex
	typing   map[string]map[string]string // room ID -> identity ID -> display name
	registry *Registry
}

// NewTypingTracker creates a tracker fanning out through the registry.
func NewTypingTracker(registry *Registry) *TypingTracker {
	return &TypingTracker{
		typing:   make(map[string]map[string]string),
		registry: registry,
	}
}

// SetTyping records the identity's typing state in a room and broadcasts
// the change. Redundant signals (typing=true while already typing) are
// re-broadcast; clients treat the stream as idempotent.
func (t *TypingTracker) SetTyping(identity support.Identity, roomID string, isTyping bool) {
	t.mu.Lock()
	set := t.typing[roomID]
	if isTyping {
		if set == nil {
			set = make(map[string]string)
			t.typing[roomID] = set
		}
		set[identity.ID] = identity.DisplayName
	} else if set != nil {
		delete(set, identity.ID)
		if len(set) == 0 {
			delete(t.typing, roomID)
		}
	}
	t.mu.Unlock()

	t.broadcast(roomID, identity.ID, identity.DisplayName, isTyping)
}

// ClearAllFor removes the identity's typing entry for a room, broadcasting
// typing=false if it was set. Invoked from the disconnect and leave paths so
// a vanished connection cannot leave a ghost typing indicator.
func (t *TypingTracker) ClearAllFor(identityID, roomID string) {
	t.mu.Lock()
	set := t.typing[roomID]
	displayName, wasTyping := "", false
	if name, ok := set[identityID]; ok {
		displayName, wasTyping = name, true
		delete(set, identityID)
		if len(set) == 0 {
			delete(t.typing, roomID)
		}
	}
	t.mu.Unlock()

	if wasTyping {
		t.broadcast(roomID, identityID, displayName, false)
	}
}

// TypingIn returns the identity IDs currently typing in a room. Used by
// tests; clients only ever see the event stream.
func (t *TypingTracker) TypingIn(roomID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.typing[roomID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (t *TypingTracker) broadcast(roomID, identityID, displayName string, isTyping bool) {
	frame, err := marshalFrame(FrameTyping, TypingEvent{
		RoomID:      roomID,
		UserID:      identityID,
		DisplayName: displayName,
		IsTyping:    isTyping,
	})
	if err != nil {
		slog.Error("failed to marshal typing event", "roomID", roomID, "error", err)
		return
	}
	t.registry.BroadcastRoom(roomID, frame)
}
