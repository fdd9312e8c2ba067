package directory

import (
	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// Service names registered in the service container.
const (
	ServiceGetUser = "get-user"
)

// GetUserRequest asks for a user snapshot by ID.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse carries the user snapshot, or Found=false when the user
// does not exist.
type GetUserResponse struct {
	Found bool         `json:"found"`
	User  support.User `json:"user,omitempty"`
}
