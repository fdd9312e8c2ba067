package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// fakeUserLookup serves user snapshots from a map.
type fakeUserLookup struct {
	users map[string]support.User
	err   error
}

func (f *fakeUserLookup) GetUser(_ context.Context, userID string) (support.User, bool, error) {
	if f.err != nil {
		return support.User{}, false, f.err
	}
	user, ok := f.users[userID]
	return user, ok, nil
}

func newTestAuthenticator(users *fakeUserLookup) (*Authenticator, *JWTManager) {
	manager := NewJWTManager(JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "live-support",
	})
	return NewAuthenticator(manager, users), manager
}

func TestAuthenticator_Authenticate(t *testing.T) {
	users := &fakeUserLookup{
		users: map[string]support.User{
			"u-active": {
				ID:          "u-active",
				DisplayName: "Alice",
				Role:        support.RoleCustomer,
				Status:      support.UserActive,
			},
			"u-suspended": {
				ID:          "u-suspended",
				DisplayName: "Mallory",
				Role:        support.RoleCustomer,
				Status:      support.UserSuspended,
			},
			"u-disabled": {
				ID:          "u-disabled",
				DisplayName: "Trent",
				Role:        support.RoleAgent,
				Status:      support.UserDisabled,
			},
		},
	}
	authenticator, manager := newTestAuthenticator(users)
	ctx := context.Background()

	token := func(userID string, role support.Role) string {
		t.Helper()
		signed, err := manager.GenerateToken(userID, role)
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		return signed
	}

	tests := []struct {
		name       string
		token      string
		wantID     string
		wantReason string
	}{
		{
			name:   "active user",
			token:  token("u-active", support.RoleCustomer),
			wantID: "u-active",
		},
		{
			name:       "missing token",
			token:      "",
			wantReason: ReasonNoToken,
		},
		{
			name:       "malformed token",
			token:      "garbage",
			wantReason: ReasonInvalidToken,
		},
		{
			name:       "token for unknown user",
			token:      token("u-gone", support.RoleCustomer),
			wantReason: ReasonInvalidToken,
		},
		{
			name:       "suspended user",
			token:      token("u-suspended", support.RoleCustomer),
			wantReason: ReasonInactiveUser,
		},
		{
			name:       "disabled user",
			token:      token("u-disabled", support.RoleAgent),
			wantReason: ReasonInactiveUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := authenticator.Authenticate(ctx, tt.token)

			if tt.wantReason != "" {
				if err == nil {
					t.Fatal("Authenticate() expected error, got nil")
				}
				if got := RejectionReason(err); got != tt.wantReason {
					t.Errorf("RejectionReason() = %q, want %q", got, tt.wantReason)
				}
				return
			}

			if err != nil {
				t.Fatalf("Authenticate() unexpected error: %v", err)
			}
			if identity.ID != tt.wantID {
				t.Errorf("identity.ID = %q, want %q", identity.ID, tt.wantID)
			}
			if identity.DisplayName == "" {
				t.Error("identity.DisplayName should not be empty")
			}
		})
	}
}

func TestAuthenticator_Authenticate_LookupFailure(t *testing.T) {
	users := &fakeUserLookup{err: errors.New("directory unavailable")}
	authenticator, manager := newTestAuthenticator(users)

	signed, err := manager.GenerateToken("u-active", support.RoleCustomer)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	_, err = authenticator.Authenticate(context.Background(), signed)
	if err == nil {
		t.Fatal("Authenticate() expected error, got nil")
	}
	// Transport failures are not credential rejections.
	if reason := RejectionReason(err); reason != "" {
		t.Errorf("RejectionReason() = %q, want empty for transport failure", reason)
	}
}
