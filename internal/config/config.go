// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const minSessionSecretLength = 32

type Config struct {
	App        AppConfig        `koanf:"app"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Session    SessionConfig    `koanf:"session"`
	Tenant     TenantConfig     `koanf:"tenant"`
	SuperAdmin SuperAdminConfig `koanf:"super_admin"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Login      LoginConfig      `koanf:"login"`
	CORS       CORSConfig       `koanf:"cors"`
	Log        LogConfig        `koanf:"log"`
	Otel       OtelConfig       `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type SessionConfig struct {
	Secret           string        `koanf:"secret"`
	Issuer           string        `koanf:"issuer"`
	Audience         string        `koanf:"audience"`
	TTL              time.Duration `koanf:"ttl"`
	SuperAdminTTL    time.Duration `koanf:"super_admin_ttl"`
	CookieName       string        `koanf:"cookie_name"`
	TenantSlugCookie string        `koanf:"tenant_slug_cookie"`
}

type TenantConfig struct {
	DefaultSlug string   `koanf:"default_slug"`
	BaseDomain  string   `koanf:"base_domain"`
	Locales     []string `koanf:"locales"`
}

type SuperAdminConfig struct {
	Email        string `koanf:"email"`
	PasswordHash string `koanf:"password_hash"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type LoginConfig struct {
	MaxAttempts   int           `koanf:"max_attempts"`
	LockoutWindow time.Duration `koanf:"lockout_window"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		k := koanf.New(".")

		if err := loadDefaults(k); err != nil {
			loadErr = fmt.Errorf("load defaults: %w", err)
			return
		}

		if configPath != "" {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				loadErr = fmt.Errorf("load config file: %w", err)
				return
			}
		}

		if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
			loadErr = fmt.Errorf("load env vars: %w", err)
			return
		}

		cfg = &Config{}
		if err := k.Unmarshal("", cfg); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		if err := validate(cfg); err != nil {
			loadErr = fmt.Errorf("validate config: %w", err)
			return
		}
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "ClinicHub Platform",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"session.issuer":             "clinichub",
		"session.audience":           "clinichub-api",
		"session.ttl":                "12h",
		"session.super_admin_ttl":    "2h",
		"session.cookie_name":        "ch_session",
		"session.tenant_slug_cookie": "tenant-slug",

		"tenant.default_slug": "demo",
		"tenant.base_domain":  "clinichub.app",
		"tenant.locales":      []string{"en", "fr", "ar"},

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"login.max_attempts":   5,
		"login.lockout_window": "15m",

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "clinichub-platform",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":              "database.url",
	"REDIS_URL":                 "redis.url",
	"ENVIRONMENT":               "app.environment",
	"HOST":                      "server.host",
	"PORT":                      "server.port",
	"LOG_LEVEL":                 "log.level",
	"LOG_FORMAT":                "log.format",
	"SESSION_SECRET":            "session.secret",
	"SESSION_TTL":               "session.ttl",
	"SESSION_ISSUER":            "session.issuer",
	"SESSION_AUDIENCE":          "session.audience",
	"SUPER_ADMIN_EMAIL":         "super_admin.email",
	"SUPER_ADMIN_PASSWORD_HASH": "super_admin.password_hash",
	"DEFAULT_TENANT_SLUG":       "tenant.default_slug",
	"TENANT_BASE_DOMAIN":        "tenant.base_domain",
	"RATE_LIMIT_REQUESTS":       "rate_limit.requests",
	"RATE_LIMIT_WINDOW":         "rate_limit.window",
	"RATE_LIMIT_BURST":          "rate_limit.burst",
	"LOGIN_MAX_ATTEMPTS":        "login.max_attempts",
	"LOGIN_LOCKOUT_WINDOW":      "login.lockout_window",
	"OTEL_ENDPOINT":             "otel.endpoint",
	"OTEL_SERVICE_NAME":         "otel.service_name",
	"OTEL_ENABLED":              "otel.enabled",
	"OTEL_INSECURE":             "otel.insecure",
	"OTEL_SAMPLE_RATE":          "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if err := c.Session.Validate(); err != nil {
		return err
	}

	if c.Tenant.DefaultSlug == "" {
		return fmt.Errorf("DEFAULT_TENANT_SLUG is required")
	}

	if len(c.Tenant.Locales) == 0 {
		return fmt.Errorf("tenant.locales must not be empty")
	}

	if c.Login.MaxAttempts < 1 {
		return fmt.Errorf("login.max_attempts must be positive")
	}

	if c.Login.LockoutWindow <= 0 {
		return fmt.Errorf("login.lockout_window must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (s *SessionConfig) Validate() error {
	if s.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if len(s.Secret) < minSessionSecretLength {
		return fmt.Errorf(
			"SESSION_SECRET must be at least %d characters",
			minSessionSecretLength,
		)
	}

	return nil
}

// SetupComplete reports whether the deployment carries the configuration
// the auth core cannot run without. Readiness probes surface this.
func (c *Config) SetupComplete() bool {
	return c.Session.Validate() == nil &&
		c.Tenant.DefaultSlug != "" &&
		c.Database.URL != "" &&
		c.Redis.URL != ""
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
