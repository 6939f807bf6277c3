// Package config carga la configuración del servicio desde un archivo YAML
// con overrides por variables de entorno. Toda clave tiene un default sano
// para poder arrancar en dev sin archivo de configuración.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración raíz del servicio.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	JWT       JWTConfig       `yaml:"jwt"`
	Argon2    Argon2Config    `yaml:"argon2"`
	Providers ProvidersConfig `yaml:"providers"`
	Rate      RateConfig      `yaml:"rate"`
}

// AppConfig agrupa parámetros generales de la aplicación.
type AppConfig struct {
	Env      string `yaml:"env"`       // "dev" | "prod"
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
	// DeepLink es el esquema de redirección de la app móvil tras el
	// callback social, p.ej. "moguapp://oauth".
	DeepLink string `yaml:"deep_link"`
}

// ServerConfig agrupa parámetros del servidor HTTP.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selecciona el backend de persistencia.
type StorageConfig struct {
	Driver   string        `yaml:"driver"` // "postgres" | "memory"
	DSN      string        `yaml:"dsn"`
	MaxConns int32         `yaml:"max_conns"`
	Timeout  time.Duration `yaml:"timeout"`
	Migrate  bool          `yaml:"migrate"` // aplica migraciones embebidas al arrancar
}

// CacheConfig selecciona el backend de cache (estado OAuth, rate limiting).
type CacheConfig struct {
	Kind   string      `yaml:"kind"` // "memory" | "redis"
	Prefix string      `yaml:"prefix"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig agrupa parámetros de conexión a Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig agrupa parámetros de emisión de tokens.
type JWTConfig struct {
	// Secret es la clave HMAC para firmar access tokens. Obligatoria en prod.
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

// Argon2Config agrupa parámetros de hashing de contraseñas.
type Argon2Config struct {
	Memory      uint32 `yaml:"memory"` // KiB
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	KeyLen      uint32 `yaml:"key_len"`
}

// ProvidersConfig agrupa los providers sociales habilitados.
type ProvidersConfig struct {
	Kakao  ProviderConfig `yaml:"kakao"`
	Google ProviderConfig `yaml:"google"`
}

// ProviderConfig agrupa credenciales OAuth de un provider.
type ProviderConfig struct {
	Enabled      bool     `yaml:"enabled"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// RateConfig agrupa límites de rate limiting por ventana fija.
type RateConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Window      time.Duration `yaml:"window"`
	LoginLimit  int           `yaml:"login_limit"`
	SocialLimit int           `yaml:"social_limit"`
}

// Load lee la configuración desde path (si existe) y aplica overrides de
// entorno. Un path vacío carga solo defaults + entorno.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Env:      "dev",
			LogLevel: "info",
			DeepLink: "moguapp://oauth",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:   "memory",
			MaxConns: 10,
			Timeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			Kind:   "memory",
			Prefix: "moguauth",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		JWT: JWTConfig{
			Issuer:     "moguauth",
			Audience:   "moguapp",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 14 * 24 * time.Hour,
		},
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 1,
			KeyLen:      32,
		},
		Rate: RateConfig{
			Enabled:     true,
			Window:      time.Minute,
			LoginLimit:  20,
			SocialLimit: 60,
		},
	}
}

// applyEnv aplica overrides de variables de entorno sobre cfg.
func applyEnv(cfg *Config) {
	cfg.App.Env = getEnvStr("APP_ENV", cfg.App.Env)
	cfg.App.LogLevel = getEnvStr("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.DeepLink = getEnvStr("APP_DEEP_LINK", cfg.App.DeepLink)

	cfg.Server.Addr = getEnvStr("SERVER_ADDR", cfg.Server.Addr)

	cfg.Storage.Driver = getEnvStr("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnvStr("DATABASE_URL", cfg.Storage.DSN)
	cfg.Storage.MaxConns = int32(getEnvInt("STORAGE_MAX_CONNS", int(cfg.Storage.MaxConns)))
	cfg.Storage.Migrate = getEnvBool("STORAGE_MIGRATE", cfg.Storage.Migrate)

	cfg.Cache.Kind = getEnvStr("CACHE_KIND", cfg.Cache.Kind)
	cfg.Cache.Prefix = getEnvStr("CACHE_PREFIX", cfg.Cache.Prefix)
	cfg.Cache.Redis.Addr = getEnvStr("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = getEnvStr("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = getEnvInt("REDIS_DB", cfg.Cache.Redis.DB)

	cfg.JWT.Secret = getEnvStr("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.Issuer = getEnvStr("JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.Audience = getEnvStr("JWT_AUDIENCE", cfg.JWT.Audience)
	cfg.JWT.AccessTTL = getEnvDur("JWT_ACCESS_TTL", cfg.JWT.AccessTTL)
	cfg.JWT.RefreshTTL = getEnvDur("JWT_REFRESH_TTL", cfg.JWT.RefreshTTL)

	cfg.Providers.Kakao.ClientID = getEnvStr("KAKAO_CLIENT_ID", cfg.Providers.Kakao.ClientID)
	cfg.Providers.Kakao.ClientSecret = getEnvStr("KAKAO_CLIENT_SECRET", cfg.Providers.Kakao.ClientSecret)
	cfg.Providers.Kakao.RedirectURL = getEnvStr("KAKAO_REDIRECT_URL", cfg.Providers.Kakao.RedirectURL)
	if cfg.Providers.Kakao.ClientID != "" {
		cfg.Providers.Kakao.Enabled = true
	}

	cfg.Providers.Google.ClientID = getEnvStr("GOOGLE_CLIENT_ID", cfg.Providers.Google.ClientID)
	cfg.Providers.Google.ClientSecret = getEnvStr("GOOGLE_CLIENT_SECRET", cfg.Providers.Google.ClientSecret)
	cfg.Providers.Google.RedirectURL = getEnvStr("GOOGLE_REDIRECT_URL", cfg.Providers.Google.RedirectURL)
	cfg.Providers.Google.Scopes = getEnvCSV("GOOGLE_SCOPES", cfg.Providers.Google.Scopes)
	if cfg.Providers.Google.ClientID != "" {
		cfg.Providers.Google.Enabled = true
	}

	cfg.Rate.Enabled = getEnvBool("RATE_ENABLED", cfg.Rate.Enabled)
	cfg.Rate.Window = getEnvDur("RATE_WINDOW", cfg.Rate.Window)
	cfg.Rate.LoginLimit = getEnvInt("RATE_LOGIN_LIMIT", cfg.Rate.LoginLimit)
	cfg.Rate.SocialLimit = getEnvInt("RATE_SOCIAL_LIMIT", cfg.Rate.SocialLimit)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.driver=postgres requires DATABASE_URL")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}

	if c.App.Env == "prod" && c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required in prod")
	}
	if c.JWT.Secret == "" {
		// Solo aceptable en dev: permite arrancar sin .env.
		c.JWT.Secret = "dev-insecure-secret-do-not-use"
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("config: jwt TTLs must be positive")
	}
	return nil
}

// ===== helpers de entorno =====

func getEnvStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getEnvDur(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getEnvCSV(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return def
}
