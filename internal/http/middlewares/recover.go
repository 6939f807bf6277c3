package middlewares

import (
	"net/http"
	"runtime/debug"

	httperrors "github.com/moguapp/moguauth/internal/http/errors"
	"github.com/moguapp/moguauth/internal/observability/logger"
)

// Recover captura panics de los handlers y responde 500.
// Debe ser el middleware más externo.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Any("panic", rec),
					logger.String("stack", string(debug.Stack())),
				)
				httperrors.Write(w, r, httperrors.Internal())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
