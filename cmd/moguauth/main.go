// moguauth es el servicio de autenticación de la plataforma.
//
// Arranque:
//
//	moguauth -config config.yaml
//
// Las variables de entorno (o un archivo .env) pisan cualquier clave
// del YAML. Ver internal/config para la lista completa.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/moguapp/moguauth/internal/cache"
	cachemem "github.com/moguapp/moguauth/internal/cache/memory"
	cacheredis "github.com/moguapp/moguauth/internal/cache/redis"
	"github.com/moguapp/moguauth/internal/config"
	"github.com/moguapp/moguauth/internal/http/router"
	authsvc "github.com/moguapp/moguauth/internal/http/services/auth"
	"github.com/moguapp/moguauth/internal/jwt"
	"github.com/moguapp/moguauth/internal/oauth"
	"github.com/moguapp/moguauth/internal/oauth/google"
	"github.com/moguapp/moguauth/internal/oauth/kakao"
	"github.com/moguapp/moguauth/internal/observability/logger"
	"github.com/moguapp/moguauth/internal/rate"
	"github.com/moguapp/moguauth/internal/security/password"
	"github.com/moguapp/moguauth/internal/store"
	"github.com/moguapp/moguauth/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "moguauth:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// .env es opcional; en producción las vars vienen del entorno real.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "moguauth",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Storage.Driver == "postgres" && cfg.Storage.Migrate {
		if err := migrations.Apply(ctx, st.Pool); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	cacheClient, closeCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	issuer := jwt.NewIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL)

	registry := oauth.NewRegistry()
	if p := cfg.Providers.Kakao; p.Enabled {
		registry.Register(kakao.New(p.ClientID, p.ClientSecret, p.RedirectURL))
	}
	if p := cfg.Providers.Google; p.Enabled {
		registry.Register(google.New(p.ClientID, p.ClientSecret, p.RedirectURL, p.Scopes))
	}
	log.Info("social providers registered", logger.Any("providers", registry.Names()))

	deps := authsvc.Deps{
		Users:      st.Users,
		Identities: st.Identities,
		Tokens:     st.Tokens,
		Issuer:     issuer,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Argon2: password.Params{
			Memory:      cfg.Argon2.Memory,
			Time:        cfg.Argon2.Time,
			Parallelism: cfg.Argon2.Parallelism,
			SaltLen:     16,
			KeyLen:      cfg.Argon2.KeyLen,
		},
		Providers: registry,
		Cache:     cacheClient,
		DeepLink:  cfg.App.DeepLink,
	}

	handler := router.New(router.Options{
		Deps:    deps,
		Issuer:  issuer,
		Limiter: rate.NewLimiter(cacheClient, cfg.Rate.Window),
		Rate:    cfg.Rate,
		Ready:   st.Ping,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return cleanupLoop(gctx, st, cfg.JWT.RefreshTTL)
	})

	return g.Wait()
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, func(), error) {
	switch cfg.Kind {
	case "redis":
		c, err := cacheredis.New(ctx, cacheredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	default:
		return cachemem.New(), func() {}, nil
	}
}

// cleanupLoop purga refresh tokens vencidos una vez por hora.
// Los registros se retienen un TTL extra para poder auditar replays.
func cleanupLoop(ctx context.Context, st *store.Store, retain time.Duration) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := st.Tokens.DeleteExpired(ctx, time.Now(), retain)
			if err != nil {
				logger.L().Warn("token cleanup failed", logger.Err(err))
				continue
			}
			if n > 0 {
				logger.L().Info("expired tokens purged", logger.Count(n))
			}
		}
	}
}
