package memory

import (
	"context"
	"time"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

type tokenRepo struct {
	s *Store
}

func (r *tokenRepo) Create(_ context.Context, t *repository.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byHash[t.TokenHash]; exists {
		return repository.ErrConflict
	}
	cp := *t
	r.s.tokens[t.ID] = &cp
	r.s.byHash[t.TokenHash] = t.ID
	return nil
}

func (r *tokenRepo) GetByHash(_ context.Context, hash string) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.tokens[id]
	return &cp, nil
}

// Rotate mantiene la misma semántica que el adapter de postgres: bajo el
// mutex del store, el chequeo, el flip de used y la revocación de linaje
// ante reuse son una sola sección crítica, así entre N rotaciones
// concurrentes gana exactamente una.
func (r *tokenRepo) Rotate(_ context.Context, oldHash string, next *repository.RefreshToken, now time.Time) (*repository.RotateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byHash[oldHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	old := r.s.tokens[id]

	if !now.Before(old.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	if old.Used || old.RevokedAt != nil {
		r.revokeLineageLocked(old.ID, now)
		return nil, repository.ErrTokenReused
	}

	old.Used = true
	nextID := next.ID
	old.ReplacedBy = &nextID

	cp := *next
	r.s.tokens[next.ID] = &cp
	r.s.byHash[next.TokenHash] = next.ID

	oldCp := *old
	newCp := cp
	return &repository.RotateResult{Old: &oldCp, New: &newCp}, nil
}

func (r *tokenRepo) Revoke(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[id]
	if !ok {
		return nil
	}
	if t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

// revokeLineageLocked revoca startID y todos sus sucesores siguiendo
// ReplacedBy. El caller debe tener el mutex tomado.
func (r *tokenRepo) revokeLineageLocked(startID string, now time.Time) {
	id := startID
	for id != "" {
		t, ok := r.s.tokens[id]
		if !ok {
			return
		}
		if t.RevokedAt == nil {
			ts := now
			t.RevokedAt = &ts
		}
		if t.ReplacedBy == nil {
			return
		}
		id = *t.ReplacedBy
	}
}

func (r *tokenRepo) RevokeAllByUser(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	now := time.Now().UTC()
	for _, t := range r.s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			count++
		}
	}
	return count, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context, now time.Time, retain time.Duration) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := now.Add(-retain)
	count := 0
	for id, t := range r.s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.s.byHash, t.TokenHash)
			delete(r.s.tokens, id)
			count++
		}
	}
	return count, nil
}
