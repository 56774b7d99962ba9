//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/authgate/authgate/internal/testutil"
)

func newUserTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetUsersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("failed to reset schema: %v", err)
	}

	return ctx, repo
}

func TestIntegrationUser_CreateAndGet(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUserWithCompany(t, testutil.UniqueEmail("create"), "acme", "Acme Inc")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if user.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != user.Email || byID.PasswordHash != user.PasswordHash {
		t.Errorf("unexpected user: %+v", byID)
	}
	if byID.CompanyID == nil || *byID.CompanyID != "acme" {
		t.Errorf("expected company_id acme, got %v", byID.CompanyID)
	}

	byEmail, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %d, want %d", byEmail.ID, user.ID)
	}
}

func TestIntegrationUser_DuplicateEmail(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	email := testutil.UniqueEmail("dup")
	if err := repo.CreateUser(ctx, testutil.NewTestUser(t, email)); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}

	err := repo.CreateUser(ctx, testutil.NewTestUser(t, email))
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestIntegrationUser_NotFound(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	if _, err := repo.GetUserByID(ctx, 999999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if exists, err := repo.UserExists(ctx, 999999); err != nil || exists {
		t.Errorf("UserExists(999999) = %v, %v; want false, nil", exists, err)
	}
}

func TestIntegrationUser_Exists(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("exists"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	exists, err := repo.UserExists(ctx, user.ID)
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if !exists {
		t.Error("expected stored user to exist")
	}
}

func TestIntegrationUser_NullCompany(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("nocompany"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.CompanyID != nil || got.CompanyName != nil {
		t.Errorf("expected NULL company fields, got %v / %v", got.CompanyID, got.CompanyName)
	}
	if got.ToContext().Company != nil {
		t.Error("expected no company in user context")
	}
}

func TestIntegrationMigrate_Idempotent(t *testing.T) {
	ctx, repo := newUserTestEnv(t)

	for i := 0; i < 2; i++ {
		if err := repo.Migrate(ctx); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i+1, err)
		}
	}
}
