package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/moguapp/moguauth/internal/http/errors"
	"github.com/moguapp/moguauth/internal/jwt"
	"github.com/moguapp/moguauth/internal/observability/logger"
)

// RequireAuth valida el access token Bearer y deja el user ID en el
// contexto. Sin token o con token inválido responde 401.
func RequireAuth(issuer *jwt.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httperrors.Write(w, r, httperrors.Unauthorized("missing bearer token"))
				return
			}

			userID, err := issuer.ValidateAccess(raw)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httperrors.Write(w, r, httperrors.Unauthorized("token expired"))
					return
				}
				httperrors.Write(w, r, httperrors.Unauthorized("invalid token"))
				return
			}

			r = withUserID(r, userID)
			ctx := logger.ToContext(r.Context(),
				logger.From(r.Context()).With(logger.UserID(userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
