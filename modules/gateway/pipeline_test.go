package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// fakeHistoryPort records persisted messages in memory. persistErr forces a
// storage failure.
type fakeHistoryPort struct {
	mu         sync.Mutex
	persisted  []support.Message
	persistErr error
}

func (f *fakeHistoryPort) Persist(_ context.Context, roomID, senderID, senderName string, msgType support.MessageType, content, fileID string) (support.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.persistErr != nil {
		return support.Message{}, f.persistErr
	}
	msg := support.Message{
		ID:         fmt.Sprintf("msg-%d", len(f.persisted)+1),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       msgType,
		Content:    content,
		FileID:     fileID,
		CreatedAt:  time.Now().UTC(),
	}
	f.persisted = append(f.persisted, msg)
	return msg, nil
}

func (f *fakeHistoryPort) Recent(_ context.Context, roomID string, limit int) ([]support.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []support.Message
	for _, msg := range f.persisted {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeHistoryPort) persistedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.persisted)
}

func newTestPipeline(store HistoryPort) (*Pipeline, *Registry) {
	registry := NewRegistry()
	return NewPipeline(store, registry), registry
}

func TestPipeline_SendBroadcastsToRoomMembers(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	peer := newFakeConn("c2", "u2", support.RoleAgent)
	outsider := newFakeConn("c3", "u3", support.RoleCustomer)
	for _, c := range []*fakeConn{sender, peer, outsider} {
		registry.Register(c)
	}
	registry.Join(sender, "room-1")
	registry.Join(peer, "room-1")
	registry.Join(outsider, "room-2")

	msg, err := pipeline.Send(context.Background(), sender, "room-1", support.MessageText, "hello", "")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if msg.ID == "" {
		t.Error("Send() returned message without ID")
	}
	if msg.SenderID != "u1" {
		t.Errorf("Send() message.SenderID = %q, want %q", msg.SenderID, "u1")
	}

	// Sender and peer both see the message; the outsider does not.
	if sender.frameCount() != 1 {
		t.Errorf("sender frames = %d, want 1", sender.frameCount())
	}
	if peer.frameCount() != 1 {
		t.Errorf("peer frames = %d, want 1", peer.frameCount())
	}
	if outsider.frameCount() != 0 {
		t.Errorf("outsider frames = %d, want 0", outsider.frameCount())
	}

	var env Envelope
	if err := json.Unmarshal(peer.lastFrame(), &env); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if env.Type != FrameMessage {
		t.Errorf("frame type = %q, want %q", env.Type, FrameMessage)
	}
	var got support.Message
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("failed to decode message payload: %v", err)
	}
	if got.ID != msg.ID || got.Content != "hello" {
		t.Errorf("broadcast message = %+v, want persisted message %+v", got, msg)
	}
}

func TestPipeline_SendRejectsNonMember(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	registry.Register(sender)

	_, err := pipeline.Send(context.Background(), sender, "room-1", support.MessageText, "hello", "")
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("Send() error = %v, want ErrNotMember", err)
	}
	if store.persistedCount() != 0 {
		t.Error("Send() persisted a message for a non-member")
	}
}

func TestPipeline_SendValidation(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	registry.Register(sender)
	registry.Join(sender, "room-1")

	longContent := make([]byte, maxContentLength+1)
	for i := range longContent {
		longContent[i] = 'a'
	}

	tests := []struct {
		name    string
		msgType support.MessageType
		content string
		fileID  string
		wantErr error
	}{
		{
			name:    "empty text",
			msgType: support.MessageText,
			content: "",
			wantErr: ErrEmptyContent,
		},
		{
			name:    "whitespace only text",
			msgType: support.MessageText,
			content: "   \t\n",
			wantErr: ErrEmptyContent,
		},
		{
			name:    "oversized content",
			msgType: support.MessageText,
			content: string(longContent),
			wantErr: ErrContentTooLong,
		},
		{
			name:    "file without reference",
			msgType: support.MessageFile,
			content: "report.pdf",
			wantErr: ErrMissingFileRef,
		},
		{
			name:    "unknown type",
			msgType: support.MessageType("video"),
			content: "x",
			wantErr: ErrBadMessageType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.Send(context.Background(), sender, "room-1", tt.msgType, tt.content, tt.fileID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false, want true", err)
			}
		})
	}

	if store.persistedCount() != 0 {
		t.Errorf("store persisted %d messages, want 0 after validation failures", store.persistedCount())
	}
	if sender.frameCount() != 0 {
		t.Errorf("sender received %d frames, want 0 after validation failures", sender.frameCount())
	}
}

func TestPipeline_SendPersistFailureSuppressesBroadcast(t *testing.T) {
	store := &fakeHistoryPort{persistErr: errors.New("disk full")}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	peer := newFakeConn("c2", "u2", support.RoleAgent)
	registry.Register(sender)
	registry.Register(peer)
	registry.Join(sender, "room-1")
	registry.Join(peer, "room-1")

	_, err := pipeline.Send(context.Background(), sender, "room-1", support.MessageText, "hello", "")
	if err == nil {
		t.Fatal("Send() expected error, got nil")
	}
	if IsValidationError(err) || errors.Is(err, ErrNotMember) {
		t.Errorf("Send() error = %v, want a persistence failure", err)
	}
	if peer.frameCount() != 0 {
		t.Errorf("peer frames = %d, want 0 when persistence fails", peer.frameCount())
	}
}

func TestPipeline_SendFileMessage(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	registry.Register(sender)
	registry.Join(sender, "room-1")

	msg, err := pipeline.Send(context.Background(), sender, "room-1", support.MessageFile, "screenshot.png", "file-123")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if msg.FileID != "file-123" {
		t.Errorf("Send() message.FileID = %q, want %q", msg.FileID, "file-123")
	}
}

func TestPipeline_SendOrderingWithinRoom(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	receiver := newFakeConn("c0", "agent", support.RoleAgent)
	registry.Register(receiver)
	registry.Join(receiver, "room-1")

	const senders = 4
	const perSender = 10

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		conn := newFakeConn(fmt.Sprintf("c%d", i+1), fmt.Sprintf("u%d", i+1), support.RoleCustomer)
		registry.Register(conn)
		registry.Join(conn, "room-1")
		wg.Add(1)
		go func(conn *fakeConn) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				_, _ = pipeline.Send(context.Background(), conn, "room-1", support.MessageText, "m", "")
			}
		}(conn)
	}
	wg.Wait()

	if got := store.persistedCount(); got != senders*perSender {
		t.Fatalf("persisted = %d, want %d", got, senders*perSender)
	}
	if got := receiver.frameCount(); got != senders*perSender {
		t.Fatalf("receiver frames = %d, want %d", got, senders*perSender)
	}

	// Delivery order must match persistence order: the fake store assigns
	// sequential IDs, and the per-room lock holds persist and fan-out
	// together.
	receiver.mu.Lock()
	defer receiver.mu.Unlock()
	for i, frame := range receiver.frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("failed to decode frame %d: %v", i, err)
		}
		var msg support.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			t.Fatalf("failed to decode message %d: %v", i, err)
		}
		want := fmt.Sprintf("msg-%d", i+1)
		if msg.ID != want {
			t.Fatalf("frame %d message.ID = %q, want %q (out of order)", i, msg.ID, want)
		}
	}
}

func TestPipeline_JoinAndReplay(t *testing.T) {
	store := &fakeHistoryPort{}
	pipeline, registry := newTestPipeline(store)

	sender := newFakeConn("c1", "u1", support.RoleCustomer)
	registry.Register(sender)
	registry.Join(sender, "room-1")

	for i := 0; i < 3; i++ {
		_, _ = pipeline.Send(context.Background(), sender, "room-1", support.MessageText, fmt.Sprintf("msg %d", i), "")
	}

	joiner := newFakeConn("c2", "u2", support.RoleAgent)
	registry.Register(joiner)

	messages, err := pipeline.JoinAndReplay(context.Background(), joiner, "room-1")
	if err != nil {
		t.Fatalf("JoinAndReplay() unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("JoinAndReplay() count = %d, want 3", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Error("JoinAndReplay() messages not in chronological order")
		}
	}
	if !registry.IsMember(joiner, "room-1") {
		t.Error("IsMember() = false after JoinAndReplay")
	}
}

func TestPipeline_JoinAndReplayDeliversEachMessageOnce(t *testing.T) {
	// With the snapshot taken under the room's send lock, a message racing
	// the join lands either in the replayed history or in the fan-out, never
	// both and never neither.
	for i := 0; i < 200; i++ {
		store := &fakeHistoryPort{}
		pipeline, registry := newTestPipeline(store)

		sender := newFakeConn("c1", "u1", support.RoleCustomer)
		registry.Register(sender)
		registry.Join(sender, "room-1")

		joiner := newFakeConn("c2", "u2", support.RoleAgent)
		registry.Register(joiner)

		const sends = 5
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < sends; j++ {
				_, _ = pipeline.Send(context.Background(), sender, "room-1", support.MessageText, "m", "")
			}
		}()

		history, err := pipeline.JoinAndReplay(context.Background(), joiner, "room-1")
		wg.Wait()
		if err != nil {
			t.Fatalf("iteration %d: JoinAndReplay() unexpected error: %v", i, err)
		}

		seen := make(map[string]bool, sends)
		for _, msg := range history {
			seen[msg.ID] = true
		}
		joiner.mu.Lock()
		frames := joiner.frames
		joiner.mu.Unlock()
		for _, frame := range frames {
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("iteration %d: failed to decode frame: %v", i, err)
			}
			var msg support.Message
			if err := json.Unmarshal(env.Payload, &msg); err != nil {
				t.Fatalf("iteration %d: failed to decode message: %v", i, err)
			}
			if seen[msg.ID] {
				t.Fatalf("iteration %d: message %s delivered in both history and fan-out", i, msg.ID)
			}
			seen[msg.ID] = true
		}
		if len(seen) != sends {
			t.Fatalf("iteration %d: joiner saw %d distinct messages, want %d", i, len(seen), sends)
		}
	}
}
