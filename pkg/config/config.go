package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	API          APIConfig
	Ingest       IngestConfig
	Redis        RedisConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite && cfg.DB.Driver != "sqlite" {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags on every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"FLOWZZ_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"FLOWZZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLOWZZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLOWZZ_DB_DSN"`
	Driver string `envconfig:"FLOWZZ_DB_DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`

	LegacyHost     string `envconfig:"FLOWZZ_DB_HOST"`
	LegacyPort     int    `envconfig:"FLOWZZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLOWZZ_DB_USER"`
	LegacyPassword string `envconfig:"FLOWZZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLOWZZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLOWZZ_DB_SSLMODE" default:"disable"`

	// The ingest run is single-threaded; one connection is enough.
	MaxOpenConns    int           `envconfig:"FLOWZZ_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"FLOWZZ_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"FLOWZZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLOWZZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite  bool   `envconfig:"FLOWZZ_USE_SQLITE" default:"false"`
	SQLitePath string `envconfig:"FLOWZZ_SQLITE_PATH" default:"flowzz.db"`
}

// APIConfig describes the upstream flowzz API and the session capability bundle
// attached to vendor requests.
type APIConfig struct {
	BaseURL        string            `envconfig:"FLOWZZ_API_BASE_URL" default:"https://flowzz.com/api" validate:"required,url"`
	UserAgent      string            `envconfig:"FLOWZZ_API_USER_AGENT" default:"Mozilla/5.0 (compatible; FlowzzScraper/1.0)"`
	Timeout        time.Duration     `envconfig:"FLOWZZ_API_TIMEOUT" default:"10s" validate:"gt=0"`
	SessionCookies map[string]string `envconfig:"FLOWZZ_API_SESSION_COOKIES"`
}

// IngestConfig holds the pipeline knobs: page size, vendor insert throttle,
// circuit-breaker threshold, per-item retry budget and rate-limit cooldown.
type IngestConfig struct {
	PageSize                 int           `envconfig:"FLOWZZ_INGEST_PAGE_SIZE" default:"25" validate:"gt=0,lte=100"`
	PerItemDelay             time.Duration `envconfig:"FLOWZZ_INGEST_PER_ITEM_DELAY" default:"1s" validate:"gte=0"`
	MaxConsecutiveRateLimits int           `envconfig:"FLOWZZ_INGEST_MAX_CONSECUTIVE_RATE_LIMITS" default:"5" validate:"gt=0"`
	MaxRetriesPerItem        int           `envconfig:"FLOWZZ_INGEST_MAX_RETRIES_PER_ITEM" default:"3" validate:"gt=0"`
	RateLimitCooldown        time.Duration `envconfig:"FLOWZZ_INGEST_RATE_LIMIT_COOLDOWN" default:"10s" validate:"gte=0"`
	Categories               []string      `envconfig:"FLOWZZ_INGEST_CATEGORIES" default:"flowers,extracts" validate:"min=1,dive,oneof=flowers extracts"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLOWZZ_REDIS_URL"`
	DB           int           `envconfig:"FLOWZZ_REDIS_DB" default:"0"`
	DialTimeout  time.Duration `envconfig:"FLOWZZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLOWZZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLOWZZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"FLOWZZ_REDIS_LOCK_TTL" default:"6h"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type MetricsConfig struct {
	Addr string `envconfig:"FLOWZZ_METRICS_ADDR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
