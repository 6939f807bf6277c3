package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

func newToken(userID, hash string, ttl time.Duration) *repository.RefreshToken {
	now := time.Now().UTC()
	return &repository.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestTokenCreateAndGet(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	tok := newToken("u1", "hash-1", time.Hour)
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.ID != tok.ID || got.UserID != "u1" || got.Used {
		t.Fatalf("unexpected token: %+v", got)
	}

	if _, err := repo.GetByHash(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRotateHappyPath(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	old := newToken("u1", "hash-old", time.Hour)
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}

	next := newToken("u1", "hash-new", time.Hour)
	res, err := repo.Rotate(ctx, "hash-old", next, time.Now())
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !res.Old.Used {
		t.Fatal("old token not marked used")
	}
	if res.Old.ReplacedBy == nil || *res.Old.ReplacedBy != next.ID {
		t.Fatal("old token not linked to successor")
	}

	// El sucesor es utilizable.
	got, err := repo.GetByHash(ctx, "hash-new")
	if err != nil {
		t.Fatalf("GetByHash(new): %v", err)
	}
	if got.Used || got.RevokedAt != nil {
		t.Fatalf("successor not fresh: %+v", got)
	}
}

func TestRotateErrorOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown hash", func(t *testing.T) {
		repo := New().Tokens()
		_, err := repo.Rotate(ctx, "nope", newToken("u1", "n1", time.Hour), time.Now())
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		repo := New().Tokens()
		old := newToken("u1", "hash-exp", -time.Minute)
		if err := repo.Create(ctx, old); err != nil {
			t.Fatalf("Create: %v", err)
		}
		_, err := repo.Rotate(ctx, "hash-exp", newToken("u1", "n2", time.Hour), time.Now())
		if !errors.Is(err, repository.ErrTokenExpired) {
			t.Fatalf("err = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("expired wins over used", func(t *testing.T) {
		// Un token consumido Y vencido debe reportar expiración, no reuse.
		repo := New().Tokens()
		old := newToken("u1", "hash-both", time.Minute)
		if err := repo.Create(ctx, old); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := repo.Rotate(ctx, "hash-both", newToken("u1", "n3", time.Hour), time.Now()); err != nil {
			t.Fatalf("first rotate: %v", err)
		}
		_, err := repo.Rotate(ctx, "hash-both", newToken("u1", "n4", time.Hour), time.Now().Add(2*time.Minute))
		if !errors.Is(err, repository.ErrTokenExpired) {
			t.Fatalf("err = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("reused", func(t *testing.T) {
		repo := New().Tokens()
		old := newToken("u1", "hash-used", time.Hour)
		if err := repo.Create(ctx, old); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := repo.Rotate(ctx, "hash-used", newToken("u1", "n5", time.Hour), time.Now()); err != nil {
			t.Fatalf("first rotate: %v", err)
		}
		_, err := repo.Rotate(ctx, "hash-used", newToken("u1", "n6", time.Hour), time.Now())
		if !errors.Is(err, repository.ErrTokenReused) {
			t.Fatalf("err = %v, want ErrTokenReused", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		repo := New().Tokens()
		old := newToken("u1", "hash-rev", time.Hour)
		if err := repo.Create(ctx, old); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.Revoke(ctx, old.ID); err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		_, err := repo.Rotate(ctx, "hash-rev", newToken("u1", "n7", time.Hour), time.Now())
		if !errors.Is(err, repository.ErrTokenReused) {
			t.Fatalf("err = %v, want ErrTokenReused", err)
		}
	})
}

func TestRotateConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	old := newToken("u1", "hash-race", time.Hour)
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 32
	var wins, reuses atomic.Int32
	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		next := newToken("u1", fmt.Sprintf("hash-next-%d", i), time.Hour)
		g.Go(func() error {
			_, err := repo.Rotate(ctx, "hash-race", next, time.Now())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, repository.ErrTokenReused):
				reuses.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected rotate error: %v", err)
	}
	if wins.Load() != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins.Load())
	}
	if reuses.Load() != n-1 {
		t.Fatalf("reuse errors = %d, want %d", reuses.Load(), n-1)
	}
}

func TestRotateReplayRevokesLineage(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	// Cadena t1 -> t2 -> t3 vía rotaciones.
	t1 := newToken("u1", "h1", time.Hour)
	if err := repo.Create(ctx, t1); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t2 := newToken("u1", "h2", time.Hour)
	if _, err := repo.Rotate(ctx, "h1", t2, time.Now()); err != nil {
		t.Fatalf("rotate 1: %v", err)
	}
	t3 := newToken("u1", "h3", time.Hour)
	if _, err := repo.Rotate(ctx, "h2", t3, time.Now()); err != nil {
		t.Fatalf("rotate 2: %v", err)
	}

	// El replay de t1 reporta reuse y deja revocada toda la cadena en la
	// misma sección crítica, no como un paso posterior del caller.
	if _, err := repo.Rotate(ctx, "h1", newToken("u1", "hx", time.Hour), time.Now()); !errors.Is(err, repository.ErrTokenReused) {
		t.Fatalf("replay err = %v, want ErrTokenReused", err)
	}
	for _, hash := range []string{"h1", "h2", "h3"} {
		got, err := repo.GetByHash(ctx, hash)
		if err != nil {
			t.Fatalf("GetByHash(%s): %v", hash, err)
		}
		if got.RevokedAt == nil {
			t.Fatalf("%s not revoked after replay", hash)
		}
	}

	// El portador de la punta viva tampoco puede rotar ya.
	if _, err := repo.Rotate(ctx, "h3", newToken("u1", "hy", time.Hour), time.Now()); !errors.Is(err, repository.ErrTokenReused) {
		t.Fatalf("tip err = %v, want ErrTokenReused", err)
	}
}

func TestRevokeAllByUser(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, newToken("u1", fmt.Sprintf("a%d", i), time.Hour)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, newToken("u2", "b0", time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	count, err := repo.RevokeAllByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("RevokeAllByUser: %v", err)
	}
	if count != 3 {
		t.Fatalf("revoked = %d, want 3", count)
	}

	// Los tokens de otros usuarios no se tocan.
	other, err := repo.GetByHash(ctx, "b0")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if other.RevokedAt != nil {
		t.Fatal("token of other user revoked")
	}

	// Idempotente.
	count, err = repo.RevokeAllByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("RevokeAllByUser: %v", err)
	}
	if count != 0 {
		t.Fatalf("second revoke count = %d, want 0", count)
	}
}

func TestDeleteExpired(t *testing.T) {
	t.Parallel()

	repo := New().Tokens()
	ctx := context.Background()

	if err := repo.Create(ctx, newToken("u1", "live", time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newToken("u1", "dead", -48*time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	count, err := repo.DeleteExpired(ctx, time.Now(), 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if count != 1 {
		t.Fatalf("deleted = %d, want 1", count)
	}
	if _, err := repo.GetByHash(ctx, "live"); err != nil {
		t.Fatalf("live token gone: %v", err)
	}
	if _, err := repo.GetByHash(ctx, "dead"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("dead token still present: %v", err)
	}
}
