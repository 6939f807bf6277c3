// Package metrics registra los collectors Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal cuenta requests por método, ruta y status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moguauth",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration mide la latencia por método y ruta.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moguauth",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// HTTPInflight cuenta requests en vuelo.
	HTTPInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moguauth",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "HTTP requests currently being served.",
	})

	// LoginTotal cuenta intentos de login por resultado.
	// result: ok | invalid_credentials | rate_limited | error
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moguauth",
		Subsystem: "auth",
		Name:      "login_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	// RefreshTotal cuenta rotaciones por resultado.
	// result: ok | not_found | expired | reuse_detected | error
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moguauth",
		Subsystem: "auth",
		Name:      "refresh_total",
		Help:      "Refresh token rotations by result.",
	}, []string{"result"})

	// ReuseDetectedTotal cuenta detecciones de replay de refresh tokens.
	// Un incremento sostenido amerita alerta: indica robo de tokens.
	ReuseDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "moguauth",
		Subsystem: "auth",
		Name:      "reuse_detected_total",
		Help:      "Refresh token replay detections.",
	})

	// SocialLoginTotal cuenta callbacks sociales por provider y resultado.
	SocialLoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moguauth",
		Subsystem: "auth",
		Name:      "social_login_total",
		Help:      "Social login callbacks by provider and result.",
	}, []string{"provider", "result"})
)
