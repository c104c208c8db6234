// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Cache     CacheConfig     `koanf:"cache"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	PublicURL   string `koanf:"public_url"`
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
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	KeyPrefix    string `koanf:"key_prefix"`
}

// SessionConfig controls the signed session cookie. Secret signs the cookie
// value; the session row in the database remains the source of truth.
type SessionConfig struct {
	Secret     string        `koanf:"secret"`
	TTL        time.Duration `koanf:"ttl"`
	CookieName string        `koanf:"cookie_name"`
	Secure     bool          `koanf:"secure"`
	Issuer     string        `koanf:"issuer"`
}

type LedgerConfig struct {
	MinWithdrawal        int64 `koanf:"min_withdrawal"`
	MaxActiveInvestments int   `koanf:"max_active_investments"`
	DailyGuard           bool  `koanf:"daily_guard"`
}

type CacheConfig struct {
	DashboardTTL time.Duration `koanf:"dashboard_ttl"`
}

type KafkaConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
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

const minSessionSecretLen = 32

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "VIP Ledger",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.public_url":  "http://localhost:3000",

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
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.key_prefix":     "vipledger:",

		"session.ttl":         "720h",
		"session.cookie_name": "session",
		"session.secure":      false,
		"session.issuer":      "vipledger",

		"ledger.min_withdrawal":         2000,
		"ledger.max_active_investments": 10,
		"ledger.daily_guard":            false,

		"cache.dashboard_ttl": "5m",

		"kafka.enabled":   false,
		"kafka.brokers":   []string{"localhost:9092"},
		"kafka.topic":     "ledger-events",
		"kafka.client_id": "vipledger",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
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
		"otel.service_name": "vipledger",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                  "database.url",
	"DATABASE_AUTO_MIGRATE":         "database.auto_migrate",
	"REDIS_URL":                     "redis.url",
	"REDIS_KEY_PREFIX":              "redis.key_prefix",
	"ENVIRONMENT":                   "app.environment",
	"PUBLIC_APP_URL":                "app.public_url",
	"HOST":                          "server.host",
	"PORT":                          "server.port",
	"LOG_LEVEL":                     "log.level",
	"LOG_FORMAT":                    "log.format",
	"SESSION_SECRET":                "session.secret",
	"SESSION_TTL":                   "session.ttl",
	"SESSION_COOKIE_NAME":           "session.cookie_name",
	"SESSION_SECURE":                "session.secure",
	"LEDGER_MIN_WITHDRAWAL":         "ledger.min_withdrawal",
	"LEDGER_MAX_ACTIVE_INVESTMENTS": "ledger.max_active_investments",
	"LEDGER_DAILY_GUARD":            "ledger.daily_guard",
	"CACHE_DASHBOARD_TTL":           "cache.dashboard_ttl",
	"KAFKA_ENABLED":                 "kafka.enabled",
	"KAFKA_TOPIC":                   "kafka.topic",
	"KAFKA_CLIENT_ID":               "kafka.client_id",
	"RATE_LIMIT_REQUESTS":           "rate_limit.requests",
	"RATE_LIMIT_WINDOW":             "rate_limit.window",
	"RATE_LIMIT_BURST":              "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":      "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":         "rate_limit.auth_burst",
	"OTEL_ENDPOINT":                 "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":   "otel.endpoint",
	"OTEL_SERVICE_NAME":             "otel.service_name",
	"OTEL_ENABLED":                  "otel.enabled",
	"OTEL_INSECURE":                 "otel.insecure",
	"OTEL_SAMPLE_RATE":              "otel.sample_rate",
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

	if len(c.Session.Secret) < minSessionSecretLen {
		return fmt.Errorf(
			"SESSION_SECRET must be at least %d characters",
			minSessionSecretLen,
		)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if c.Ledger.MinWithdrawal <= 0 {
		return fmt.Errorf("ledger.min_withdrawal must be positive")
	}

	if c.Ledger.MaxActiveInvestments <= 0 {
		return fmt.Errorf("ledger.max_active_investments must be positive")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
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
		if !c.Session.Secure {
			return fmt.Errorf("SESSION_SECURE must be true in production")
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

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReferralLink builds the public registration URL carrying a referral code.
func (a *AppConfig) ReferralLink(code string) string {
	return strings.TrimRight(a.PublicURL, "/") + "/register?ref=" + code
}
