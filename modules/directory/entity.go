package directory

import (
	"time"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

// UserRecord is the persisted user entity backing the directory.
type UserRecord struct {
	ID           string             `gorm:"primaryKey;type:text"`
	Email        string             `gorm:"uniqueIndex;not null;type:text"`
	DisplayName  string             `gorm:"not null;type:text"`
	Role         support.Role       `gorm:"not null;type:text"`
	Status       support.UserStatus `gorm:"not null;type:text;default:active"`
	PasswordHash string             `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the UserRecord entity.
func (UserRecord) TableName() string {
	return "users"
}

// Snapshot converts the record into the read-only view handed to callers.
func (u UserRecord) Snapshot() support.User {
	return support.User{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Status:      u.Status,
	}
}
