// Package router arma el chi.Router del servicio con su cadena de
// middlewares y las rutas públicas y autenticadas.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moguapp/moguauth/internal/config"
	authctrl "github.com/moguapp/moguauth/internal/http/controllers/auth"
	"github.com/moguapp/moguauth/internal/http/helpers"
	"github.com/moguapp/moguauth/internal/http/middlewares"
	authsvc "github.com/moguapp/moguauth/internal/http/services/auth"
	"github.com/moguapp/moguauth/internal/jwt"
	"github.com/moguapp/moguauth/internal/rate"
)

// Options agrupa las dependencias del router.
type Options struct {
	Deps    authsvc.Deps
	Issuer  *jwt.Issuer
	Limiter *rate.Limiter
	Rate    config.RateConfig

	// Ready reporta si las dependencias (DB, cache) responden.
	// Nil equivale a siempre listo.
	Ready func(ctx context.Context) error
}

// New construye el router completo.
func New(opts Options) http.Handler {
	ctrl := authctrl.New(opts.Deps)

	r := chi.NewRouter()
	r.Use(middlewares.Recover)
	r.Use(middlewares.RequestID)
	r.Use(middlewares.SecurityHeaders)
	r.Use(middlewares.Metrics)
	r.Use(middlewares.Logging)

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(opts.Ready))
	r.Handle("/metrics", promhttp.Handler())

	loginLimit, socialLimit := 0, 0
	if opts.Rate.Enabled {
		loginLimit = opts.Rate.LoginLimit
		socialLimit = opts.Rate.SocialLimit
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middlewares.NoStore)

			r.Group(func(r chi.Router) {
				r.Use(middlewares.RateLimit(opts.Limiter, "login", loginLimit))
				r.Post("/register", ctrl.HandleRegister)
				r.Post("/login", ctrl.HandleLogin)
			})

			r.Post("/refresh", ctrl.HandleRefresh)
			r.Post("/logout", ctrl.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireAuth(opts.Issuer))
				r.Post("/logout-all", ctrl.HandleLogoutAll)
				r.Post("/password", ctrl.HandleChangePassword)
			})

			r.Route("/social/{provider}", func(r chi.Router) {
				r.Use(middlewares.RateLimit(opts.Limiter, "social", socialLimit))
				r.Get("/login", ctrl.HandleSocialLogin)
				r.Get("/callback", ctrl.HandleSocialCallback)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth(opts.Issuer))
			r.Get("/me", ctrl.HandleMe)
		})
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReadyz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
				})
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
