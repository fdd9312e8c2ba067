package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const cacheTTL = 5 * time.Minute

// Module provides message persistence and recent-history reads to the
// gateway.
type Module struct {
	db      *gorm.DB
	rdb     *redis.Client
	service *Service
	dbPath  string
	logger  types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new history module.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("HISTORY_DB_PATH")
	if dbPath == "" {
		dbPath = "support_messages.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// Start opens the database, migrates the message schema, and connects to
// Redis. Redis is optional: without it the service reads straight from the
// database.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&MessageRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var cache *Cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr != "" {
		m.rdb = redis.NewClient(&redis.Options{
			Addr:         redisAddr,
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := m.rdb.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cache = NewCache(m.rdb, "history:", cacheTTL)
		m.logger.Info("History cache connected", "addr", redisAddr, "ttl", cacheTTL.String())
	} else {
		m.logger.Info("REDIS_ADDR not set, history cache disabled")
	}

	m.service = NewService(NewRepository(db), cache)

	m.logger.Info("History module started", "database", m.dbPath)
	return nil
}

// Stop closes the database and Redis connections.
func (m *Module) Stop(_ context.Context) error {
	if m.rdb != nil {
		m.rdb.Close()
	}
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("History module stopped")
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

	details := map[string]any{"database": m.dbPath}
	if m.rdb != nil {
		stats := m.service.CacheStats()
		details["cache"] = map[string]any{
			"hits":     stats.Hits,
			"misses":   stats.Misses,
			"hit_rate": stats.HitRate,
		}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServicePersistMessage,
		json.Unmarshal,
		json.Marshal,
		m.handlePersistMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServicePersistMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRecentMessages,
		json.Unmarshal,
		json.Marshal,
		m.handleRecentMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecentMessages, err)
	}

	m.logger.Info("Registered history services",
		"services", []string{ServicePersistMessage, ServiceRecentMessages})
	return nil
}

// Service exposes the history service for tests.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) handlePersistMessage(ctx context.Context, req PersistMessageRequest, _ *mono.Msg) (PersistMessageResponse, error) {
	msg, err := m.service.Persist(ctx, req.RoomID, req.SenderID, req.SenderName, req.Type, req.Content, req.FileID)
	if err != nil {
		return PersistMessageResponse{}, err
	}
	return PersistMessageResponse{Message: msg}, nil
}

func (m *Module) handleRecentMessages(ctx context.Context, req RecentMessagesRequest, _ *mono.Msg) (RecentMessagesResponse, error) {
	messages, err := m.service.Recent(ctx, req.RoomID, req.Limit)
	if err != nil {
		return RecentMessagesResponse{}, err
	}
	return RecentMessagesResponse{Messages: messages}, nil
}
