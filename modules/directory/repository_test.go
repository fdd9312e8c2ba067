package directory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lethien999/my-live-support-2025-sub002/domain/support"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&UserRecord{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func testUser(email string) *UserRecord {
	return &UserRecord{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  "Test User",
		Role:         support.RoleCustomer,
		Status:       support.UserActive,
		PasswordHash: "not-a-real-hash",
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user := testUser("alice@example.com")
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	byID, err := repo.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID() error: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("FindByID() email = %q, want %q", byID.Email, "alice@example.com")
	}

	byEmail, err := repo.FindByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("FindByEmail() ID = %q, want %q", byEmail.ID, user.ID)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if _, err := repo.FindByID("no-such-user"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.FindByEmail("nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	if err := repo.Create(testUser("bob@example.com")); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Create(testUser("bob@example.com")); !errors.Is(err, ErrUserExists) {
		t.Errorf("Create() error = %v, want ErrUserExists", err)
	}
}

func TestUserRecord_Snapshot(t *testing.T) {
	record := UserRecord{
		ID:           "u1",
		Email:        "carol@example.com",
		DisplayName:  "Carol",
		Role:         support.RoleAgent,
		Status:       support.UserActive,
		PasswordHash: "secret-hash",
	}

	snapshot := record.Snapshot()
	if snapshot.ID != "u1" || snapshot.DisplayName != "Carol" || snapshot.Role != support.RoleAgent {
		t.Errorf("Snapshot() = %+v, want fields copied from record", snapshot)
	}

	identity := snapshot.Identity()
	if !identity.IsStaff() {
		t.Error("Identity().IsStaff() = false, want true for agent")
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Error("Hash() returned the plaintext password")
	}

	if !hasher.Verify("correct horse battery staple", hash) {
		t.Error("Verify() = false for the correct password")
	}
	if hasher.Verify("wrong password", hash) {
		t.Error("Verify() = true for a wrong password")
	}
}
