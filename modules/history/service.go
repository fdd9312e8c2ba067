package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// MaxContentLength bounds stored message content.
const MaxContentLength = 5000

var (
	// ErrContentEmpty is returned when a text message has no content.
	ErrContentEmpty = errors.New("message content cannot be empty")
	// ErrContentTooLong is returned when content exceeds MaxContentLength.
	ErrContentTooLong = errors.New("message content exceeds maximum length")
	// ErrFileRefMissing is returned when a file message has no file reference.
	ErrFileRefMissing = errors.New("file message requires a file reference")
	// ErrInvalidType is returned on an unknown message type.
	ErrInvalidType = errors.New("invalid message type")
)

// Service persists messages and serves recent history. The cache is optional;
// with a nil cache every read goes to the database.
type Service struct {
	repo  *Repository
	cache *Cache
	group singleflight.Group
}

// NewService creates a new history service.
func NewService(repo *Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Persist validates and stores a message, returning the stored record.
// Validation failures happen before any write; a returned message is
// guaranteed durable.
func (s *Service) Persist(ctx context.Context, roomID, senderID, senderName string, msgType support.MessageType, content, fileID string) (support.Message, error) {
	switch msgType {
	case support.MessageText, support.MessageSystem:
		if strings.TrimSpace(content) == "" {
			return support.Message{}, ErrContentEmpty
		}
	case support.MessageFile:
		if fileID == "" {
			return support.Message{}, ErrFileRefMissing
		}
	default:
		return support.Message{}, ErrInvalidType
	}
	if len(content) > MaxContentLength {
		return support.Message{}, ErrContentTooLong
	}

	record := &MessageRecord{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Type:       msgType,
		Content:    content,
		FileID:     fileID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(record); err != nil {
		return support.Message{}, fmt.Errorf("failed to persist message: %w", err)
	}

	// Stored history changed; drop the cached window for this room. A failed
	// invalidation self-heals via TTL and must not fail the send.
	if s.cache != nil {
		_ = s.cache.Delete(ctx, roomID)
	}

	return record.Message(), nil
}

// Recent returns the most recent messages for a room in chronological order.
// Concurrent reads for the same room collapse into one database query.
func (s *Service) Recent(ctx context.Context, roomID string, limit int) ([]support.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if s.cache != nil && limit <= 50 {
		var cached []support.Message
		hit, err := s.cache.Get(ctx, roomID, &cached)
		if err == nil && hit {
			if len(cached) > limit {
				cached = cached[len(cached)-limit:]
			}
			return cached, nil
		}
	}

	key := fmt.Sprintf("%s:%d", roomID, limit)
	v, err, _ := s.group.Do(key, func() (any, error) {
		messages, err := s.repo.Recent(roomID, limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && limit == 50 {
			_ = s.cache.Set(ctx, roomID, messages)
		}
		return messages, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return v.([]support.Message), nil
}

// CacheStats returns cache counters, or a zero snapshot without a cache.
func (s *Service) CacheStats() StatsSnapshot {
	if s.cache == nil {
		return StatsSnapshot{}
	}
	return s.cache.Stats()
}
