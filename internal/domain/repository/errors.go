package repository

import "errors"

// Errores sentinela compartidos por todos los adapters de persistencia.
// Los services los traducen a errores de dominio; nunca llegan al cliente.
var (
	// ErrNotFound indica que la entidad no existe.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict indica violación de unicidad (email o identidad duplicada).
	ErrConflict = errors.New("repository: conflict")

	// ErrTokenExpired indica un refresh token vencido al intentar rotarlo.
	ErrTokenExpired = errors.New("repository: token expired")

	// ErrTokenReused indica un refresh token ya consumido o revocado.
	// El service lo trata como señal de replay y revoca el linaje completo.
	ErrTokenReused = errors.New("repository: token reused")
)
