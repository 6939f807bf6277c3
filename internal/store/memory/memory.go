// Package memory implementa los repositorios en memoria.
//
// Pensado para desarrollo local y tests de services. Un solo mutex por
// store serializa las operaciones; Rotate conserva la misma semántica
// de un-solo-ganador que el adapter de postgres.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/moguapp/moguauth/internal/domain/repository"
)

// Store agrupa los repositorios en memoria sobre un estado compartido.
type Store struct {
	mu         sync.Mutex
	users      map[string]*repository.User         // por id
	emails     map[string]string                   // email -> id
	identities map[string]*repository.Identity     // por id
	byProvider map[string]string                   // provider|puid -> identity id
	tokens     map[string]*repository.RefreshToken // por id
	byHash     map[string]string                   // token_hash -> token id
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		users:      make(map[string]*repository.User),
		emails:     make(map[string]string),
		identities: make(map[string]*repository.Identity),
		byProvider: make(map[string]string),
		tokens:     make(map[string]*repository.RefreshToken),
		byHash:     make(map[string]string),
	}
}

// Users retorna el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Identities retorna el repositorio de identidades.
func (s *Store) Identities() repository.IdentityRepository { return &identityRepo{s: s} }

// Tokens retorna el repositorio de refresh tokens.
func (s *Store) Tokens() repository.TokenRepository { return &tokenRepo{s: s} }

func providerKey(provider, puid string) string {
	return provider + "|" + puid
}

// ===== users =====

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, u *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.s.emails[key]; exists {
		return repository.ErrConflict
	}
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.emails[key] = u.ID
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *userRepo) Update(_ context.Context, u *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !strings.EqualFold(old.Email, u.Email) {
		key := strings.ToLower(u.Email)
		if _, exists := r.s.emails[key]; exists {
			return repository.ErrConflict
		}
		delete(r.s.emails, strings.ToLower(old.Email))
		r.s.emails[key] = u.ID
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	delete(r.s.emails, strings.ToLower(u.Email))
	delete(r.s.users, id)
	return nil
}

// ===== identities =====

type identityRepo struct {
	s *Store
}

func (r *identityRepo) Create(_ context.Context, id *repository.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := providerKey(id.Provider, id.ProviderUserID)
	if _, exists := r.s.byProvider[key]; exists {
		return repository.ErrConflict
	}
	cp := *id
	r.s.identities[id.ID] = &cp
	r.s.byProvider[key] = id.ID
	return nil
}

func (r *identityRepo) GetByProvider(_ context.Context, provider, providerUserID string) (*repository.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byProvider[providerKey(provider, providerUserID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.identities[id]
	return &cp, nil
}

func (r *identityRepo) ListByUser(_ context.Context, userID string) ([]*repository.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*repository.Identity
	for _, id := range r.s.identities {
		if id.UserID == userID {
			cp := *id
			out = append(out, &cp)
		}
	}
	return out, nil
}
