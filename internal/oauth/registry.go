package oauth

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider indica un provider no registrado. Los callers lo
// distinguen de fallos internos: un nombre desconocido es un 404 del
// cliente, no una degradación del servicio.
var ErrUnknownProvider = errors.New("oauth: unknown provider")

// Registry mantiene los providers habilitados por nombre.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register agrega un provider. Pisa cualquier registro previo del mismo nombre.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retorna el provider o un error si no está habilitado.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names retorna los nombres registrados, ordenados.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
