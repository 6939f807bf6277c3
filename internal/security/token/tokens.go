// Package token genera tokens opacos aleatorios y sus digests.
//
// Los refresh tokens nunca se persisten en claro: el cliente recibe el
// valor opaco y la base solo guarda su SHA-256.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateOpaque genera un token opaco de nBytes de entropía,
// codificado en base64url sin padding.
func GenerateOpaque(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: rand: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SHA256Hex retorna el digest SHA-256 de s en hexadecimal.
// Es el formato en que se persisten los refresh tokens.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SHA256Base64URL retorna el digest SHA-256 de s en base64url sin padding.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
