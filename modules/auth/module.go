package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module provides the authenticate request-reply service used by the gateway
// on every new connection.
type Module struct {
	authenticator *Authenticator
	jwtManager    *JWTManager
	users         UserLookup
	logger        types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
)

// NewModule creates a new auth module.
func NewModule(moduleLogger types.Logger) *Module {
	return &Module{
		jwtManager: NewJWTManager(LoadJWTConfig()),
		logger:     moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"directory"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "directory" {
		m.users = NewDirectoryAdapter(container)
	}
}

// Start wires the authenticator.
func (m *Module) Start(_ context.Context) error {
	if m.users == nil {
		return fmt.Errorf("directory dependency not set")
	}
	m.authenticator = NewAuthenticator(m.jwtManager, m.users)
	m.logger.Info("Auth module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Auth module stopped")
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceAuthenticate,
		json.Unmarshal,
		json.Marshal,
		m.handleAuthenticate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAuthenticate, err)
	}

	m.logger.Info("Registered auth services", "services", ServiceAuthenticate)
	return nil
}

// JWTManager exposes the token manager for seed tooling and tests.
func (m *Module) JWTManager() *JWTManager {
	return m.jwtManager
}

// handleAuthenticate verifies a credential. Rejections are normal responses
// carrying a reason; only transport or storage failures become errors.
func (m *Module) handleAuthenticate(ctx context.Context, req AuthenticateRequest, _ *mono.Msg) (AuthenticateResponse, error) {
	identity, err := m.authenticator.Authenticate(ctx, req.Token)
	if err != nil {
		if reason := RejectionReason(err); reason != "" {
			return AuthenticateResponse{OK: false, Reason: reason}, nil
		}
		return AuthenticateResponse{}, err
	}
	return AuthenticateResponse{OK: true, Identity: identity}, nil
}
