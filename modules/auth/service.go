package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// UserLookup resolves a user snapshot by ID. Implemented by the directory
// adapter; tests supply fakes.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (support.User, bool, error)
}

// AuthError is a connection-fatal authentication failure with a
// machine-readable reason for the rejection frame.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

// Authenticator resolves bearer credentials to identities. A valid signature
// alone is not enough: the user record is re-checked so a token issued to a
// since-suspended account is rejected.
type Authenticator struct {
	jwt   *JWTManager
	users UserLookup
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(jwtManager *JWTManager, users UserLookup) *Authenticator {
	return &Authenticator{jwt: jwtManager, users: users}
}

// Authenticate verifies the credential and returns the connection identity.
// Failures carry one of the Reason* constants via *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (support.Identity, error) {
	if token == "" {
		return support.Identity{}, &AuthError{Reason: ReasonNoToken}
	}

	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return support.Identity{}, &AuthError{Reason: ReasonInvalidToken}
	}

	user, found, err := a.users.GetUser(ctx, claims.UserID)
	if err != nil {
		return support.Identity{}, fmt.Errorf("user lookup failed: %w", err)
	}
	if !found {
		return support.Identity{}, &AuthError{Reason: ReasonInvalidToken}
	}
	if user.Status != support.UserActive {
		return support.Identity{}, &AuthError{Reason: ReasonInactiveUser}
	}

	return user.Identity(), nil
}

// RejectionReason extracts the machine-readable reason from an
// authentication error, or empty for transport-level failures.
func RejectionReason(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}
