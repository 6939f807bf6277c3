package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

func newUser(email string) *repository.User {
	now := time.Now().UTC()
	return &repository.User{
		ID:        uuid.NewString(),
		Email:     email,
		Nickname:  "nick",
		Status:    repository.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserCRUD(t *testing.T) {
	t.Parallel()

	repo := New().Users()
	ctx := context.Background()

	u := newUser("a@example.com")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "A@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail case-insensitive: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id = %q, want %q", got.ID, u.ID)
	}

	got.Nickname = "updated"
	got.Status = repository.StatusPendingOnboarding
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.Nickname != "updated" || again.Status != repository.StatusPendingOnboarding {
		t.Fatalf("update lost: %+v", again)
	}
}

func TestUserDelete(t *testing.T) {
	t.Parallel()

	repo := New().Users()
	ctx := context.Background()

	u := newUser("gone@example.com")
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, u.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// El email queda libre para un registro nuevo.
	if err := repo.Create(ctx, newUser("gone@example.com")); err != nil {
		t.Fatalf("Create after delete: %v", err)
	}

	// Idempotente.
	if err := repo.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestUserEmailConflict(t *testing.T) {
	t.Parallel()

	repo := New().Users()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("dup@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newUser("DUP@example.com"))
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUserNotFound(t *testing.T) {
	t.Parallel()

	repo := New().Users()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, newUser("x@example.com")); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update err = %v, want ErrNotFound", err)
	}
}

func TestIdentityRepo(t *testing.T) {
	t.Parallel()

	s := New()
	repo := s.Identities()
	ctx := context.Background()

	id := &repository.Identity{
		ID:             uuid.NewString(),
		UserID:         "u1",
		Provider:       "kakao",
		ProviderUserID: "12345",
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(ctx, id); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByProvider(ctx, "kakao", "12345")
	if err != nil {
		t.Fatalf("GetByProvider: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("user = %q, want u1", got.UserID)
	}

	dup := &repository.Identity{
		ID:             uuid.NewString(),
		UserID:         "u2",
		Provider:       "kakao",
		ProviderUserID: "12345",
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	list, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}

	if _, err := repo.GetByProvider(ctx, "google", "12345"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
