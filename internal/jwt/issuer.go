// Package jwt emite y valida access tokens firmados con HS256.
//
// El access token es stateless: la validación no consulta almacenamiento,
// solo la firma y las claims temporales. El mismo secreto que firma debe
// validar, por lo que todas las instancias comparten JWT_SECRET.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired indica un token con exp en el pasado.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenInvalid indica firma inválida, claims malformadas o un
	// token que aún no es válido (nbf futuro).
	ErrTokenInvalid = errors.New("jwt: token invalid")
)

// Issuer emite access tokens de vida corta.
type Issuer struct {
	Secret    []byte
	Iss       string
	Aud       string
	AccessTTL time.Duration

	// now permite inyectar el reloj en tests.
	now func() time.Time
}

// NewIssuer construye un Issuer con el reloj del sistema.
func NewIssuer(secret []byte, iss, aud string, accessTTL time.Duration) *Issuer {
	return &Issuer{
		Secret:    secret,
		Iss:       iss,
		Aud:       aud,
		AccessTTL: accessTTL,
		now:       time.Now,
	}
}

// IssueAccess emite un access token para userID.
// Retorna el token firmado y su instante de expiración.
func (i *Issuer) IssueAccess(userID string) (string, time.Time, error) {
	now := i.clock().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwt.MapClaims{
		"iss":       i.Iss,
		"sub":       userID,
		"aud":       i.Aud,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       exp.Unix(),
		"jti":       uuid.NewString(),
		"token_use": "access",
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["typ"] = "JWT"

	signed, err := tok.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, exp, nil
}

// ValidateAccess valida un access token y retorna el user ID (claim sub).
//
// Distingue dos fallos: ErrTokenExpired para tokens vencidos y
// ErrTokenInvalid para todo lo demás (firma, issuer, audience, token_use).
func (i *Issuer) ValidateAccess(raw string) (string, error) {
	parsed, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.Secret, nil
		},
		jwt.WithIssuer(i.Iss),
		jwt.WithAudience(i.Aud),
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if use, _ := claims["token_use"].(string); use != "access" {
		return "", ErrTokenInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}

func (i *Issuer) clock() time.Time {
	if i.now != nil {
		return i.now()
	}
	return time.Now()
}
