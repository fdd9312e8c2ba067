package auth

import (
	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Service names registered in the service container.
const (
	ServiceAuthenticate = "authenticate"
)

// Rejection reasons surfaced to the connecting client.
const (
	ReasonNoToken      = "no_token"
	ReasonInvalidToken = "invalid_token"
	ReasonInactiveUser = "inactive_user"
)

// AuthenticateRequest verifies a bearer credential.
type AuthenticateRequest struct {
	Token string `json:"token"`
}

// AuthenticateResponse carries the resolved identity, or a machine-readable
// rejection reason. A rejection is a normal response, not a service error.
type AuthenticateResponse struct {
	OK       bool             `json:"ok"`
	Identity support.Identity `json:"identity,omitempty"`
	Reason   string           `json:"reason,omitempty"`
}
