package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
	"github.com/lethien999/my-live-support-2025-sub002/modules/directory"
)

// DirectoryAdapter implements UserLookup over the directory module's
// service container.
type DirectoryAdapter struct {
	container mono.ServiceContainer
}

// NewDirectoryAdapter creates a new DirectoryAdapter.
func NewDirectoryAdapter(container mono.ServiceContainer) *DirectoryAdapter {
	if container == nil {
		panic("auth: directory ServiceContainer is nil")
	}
	return &DirectoryAdapter{container: container}
}

// GetUser resolves a user snapshot through the directory's get-user service.
func (a *DirectoryAdapter) GetUser(ctx context.Context, userID string) (support.User, bool, error) {
	req := directory.GetUserRequest{UserID: userID}
	var resp directory.GetUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		directory.ServiceGetUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return support.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	return resp.User, resp.Found, nil
}
