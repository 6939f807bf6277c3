// Package errors define el error HTTP de la API y su serialización.
//
// Todos los handlers responden errores con el mismo shape:
//
//	{"error": {"code": "invalid_credentials", "message": "..."}}
//
// El campo Err interno nunca se serializa; solo se loggea.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/moguapp/moguauth/internal/observability/logger"
)

// AppError es un error de API con código estable y status HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithErr adjunta la causa interna sin alterar la respuesta al cliente.
func (e *AppError) WithErr(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Constructores de los errores estándar de la API.

func BadRequest(message string) *AppError {
	return &AppError{Code: "bad_request", Message: message, HTTPStatus: http.StatusBadRequest}
}

func InvalidCredentials() *AppError {
	// Mensaje único para email inexistente y password incorrecto:
	// no filtrar cuál de los dos falló.
	return &AppError{Code: "invalid_credentials", Message: "invalid email or password", HTTPStatus: http.StatusUnauthorized}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: "unauthorized", Message: message, HTTPStatus: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: "forbidden", Message: message, HTTPStatus: http.StatusForbidden}
}

func NotFound(message string) *AppError {
	return &AppError{Code: "not_found", Message: message, HTTPStatus: http.StatusNotFound}
}

func Conflict(message string) *AppError {
	return &AppError{Code: "conflict", Message: message, HTTPStatus: http.StatusConflict}
}

func TooManyRequests() *AppError {
	return &AppError{Code: "rate_limited", Message: "too many requests", HTTPStatus: http.StatusTooManyRequests}
}

func Internal() *AppError {
	return &AppError{Code: "internal_error", Message: "internal server error", HTTPStatus: http.StatusInternalServerError}
}

func BadGateway(message string) *AppError {
	return &AppError{Code: "provider_error", Message: message, HTTPStatus: http.StatusBadGateway}
}

// envelope es el shape externo de todos los errores.
type envelope struct {
	Error *AppError `json:"error"`
}

// Write serializa el error al ResponseWriter.
// Errores 5xx se loggean con la causa; 4xx solo a nivel debug.
func Write(w http.ResponseWriter, r *http.Request, e *AppError) {
	log := logger.From(r.Context())
	if e.HTTPStatus >= 500 {
		log.Error("request failed",
			logger.Status(e.HTTPStatus),
			logger.String("code", e.Code),
			logger.Err(e.Err),
		)
	} else {
		log.Debug("request rejected",
			logger.Status(e.HTTPStatus),
			logger.String("code", e.Code),
		)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.HTTPStatus)
	_ = json.NewEncoder(w).Encode(envelope{Error: e})
}
