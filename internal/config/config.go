package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Engine       EngineConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig configures event delivery.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	Workers    int
	QueueSize  int
}

// EngineConfig holds lifecycle policy knobs.
type EngineConfig struct {
	// CountUnvalidatedTime includes unvalidated time entries in actual time.
	CountUnvalidatedTime     bool
	StatusOverridePermission string
	LockBackend              string
	LockTTLSeconds           int
	LockWaitMillis           int
	// CatalogFile is an optional TOML file seeding SLA rules and the directory.
	CatalogFile string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-lifecycle"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Workers:    getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize:  getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		Engine: EngineConfig{
			CountUnvalidatedTime:     getEnvAsBool("ENGINE_COUNT_UNVALIDATED_TIME", true),
			StatusOverridePermission: getEnv("ENGINE_STATUS_OVERRIDE_PERMISSION", "tickets.override_status"),
			LockBackend:              strings.ToLower(getEnv("ENGINE_LOCK_BACKEND", LockBackendLocal)),
			LockTTLSeconds:           getEnvAsInt("ENGINE_LOCK_TTL_SECONDS", 10),
			LockWaitMillis:           getEnvAsInt("ENGINE_LOCK_WAIT_MILLIS", 2000),
			CatalogFile:              os.Getenv("ENGINE_CATALOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.Engine.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("ENGINE_LOCK_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid ENGINE_LOCK_BACKEND %q", c.Engine.LockBackend)
	}
	if strings.TrimSpace(c.Engine.StatusOverridePermission) == "" {
		return fmt.Errorf("ENGINE_STATUS_OVERRIDE_PERMISSION must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LockTTL returns how long a distributed lock is held before it expires.
func (e EngineConfig) LockTTL() time.Duration {
	return time.Duration(e.LockTTLSeconds) * time.Second
}

// LockWait returns how long a mutation waits for a ticket lock.
func (e EngineConfig) LockWait() time.Duration {
	return time.Duration(e.LockWaitMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
