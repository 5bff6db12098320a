package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. WINDOWCALC_PORT.
const EnvPrefix = "WINDOWCALC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Storage backends for history and live configuration records.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv         string        `envconfig:"APP_ENV" default:"dev"`
	Port           string        `envconfig:"PORT" default:"8080"`
	DBPath         string        `envconfig:"DB_PATH" default:"./dev.db"`
	StorageBackend string        `envconfig:"STORAGE_BACKEND" default:"sqlite"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	HistoryKey     string        `envconfig:"HISTORY_KEY" default:"uws-calculator-history"`
	ConfigKey      string        `envconfig:"CONFIG_KEY" default:"uws-calculator"`
	SessionSecret  string        `envconfig:"SESSION_SECRET"`
	SessionIdle    time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads a local .env file if present, then the process environment.
func Load() (Config, error) {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, AppEnvDev)
}

func (c Config) validate() error {
	switch c.StorageBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%s_REDIS_URL is required for the redis backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("%s_SESSION_IDLE_TIMEOUT must be positive", EnvPrefix)
	}
	if !c.IsDev() && c.SessionSecret == "" {
		return fmt.Errorf("%s_SESSION_SECRET is required outside dev", EnvPrefix)
	}
	return nil
}
