package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Module provides the user directory consumed by the auth module.
type Module struct {
	db     *gorm.DB
	repo   *UserRepository
	dbPath string
	logger types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new directory module.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("DIRECTORY_DB_PATH")
	if dbPath == "" {
		dbPath = "support_users.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "directory"
}

// Start opens the database and migrates the user schema.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&UserRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewUserRepository(db)

	if err := m.seedDefaultAdmin(); err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	m.logger.Info("Directory module started", "database", m.dbPath)
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
	m.logger.Info("Directory module stopped")
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
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetUser,
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered directory services", "services", ServiceGetUser)
	return nil
}

// handleGetUser resolves a user snapshot by ID. An unknown user is a normal
// response, not a service error, so callers can distinguish lookup failures
// from transport failures.
func (m *Module) handleGetUser(_ context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.repo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return GetUserResponse{Found: false}, nil
		}
		return GetUserResponse{}, err
	}
	return GetUserResponse{Found: true, User: user.Snapshot()}, nil
}

// Repository exposes the user repository for seed tooling and tests.
func (m *Module) Repository() *UserRepository {
	return m.repo
}

// seedDefaultAdmin creates a bootstrap admin account on an empty directory.
func (m *Module) seedDefaultAdmin() error {
	var count int64
	if err := m.db.Model(&UserRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("DIRECTORY_ADMIN_PASSWORD")
	if password == "" {
		password = "change-me"
	}
	hash, err := NewPasswordHasher().Hash(password)
	if err != nil {
		return err
	}

	admin := &UserRecord{
		ID:           uuid.New().String(),
		Email:        "admin@localhost",
		DisplayName:  "Administrator",
		Role:         support.RoleAdmin,
		Status:       support.UserActive,
		PasswordHash: hash,
	}
	if err := m.repo.Create(admin); err != nil {
		return err
	}

	m.logger.Info("Seeded default admin account", "email", admin.Email)
	return nil
}
