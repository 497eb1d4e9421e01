package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so
// the prefix only matters for fields without one.
const EnvPrefix = "FLOWZZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FLOWZZ_APP_ENV"
	EnvLogLevel = "FLOWZZ_LOG_LEVEL"

	EnvDBDSN    = "FLOWZZ_DB_DSN"
	EnvDBDriver = "FLOWZZ_DB_DRIVER"
	EnvDBHost   = "FLOWZZ_DB_HOST"
	EnvDBUser   = "FLOWZZ_DB_USER"
	EnvDBName   = "FLOWZZ_DB_NAME"

	EnvUseSQLite = "FLOWZZ_USE_SQLITE"

	EnvAPIBaseURL        = "FLOWZZ_API_BASE_URL"
	EnvAPISessionCookies = "FLOWZZ_API_SESSION_COOKIES"

	EnvIngestPageSize                 = "FLOWZZ_INGEST_PAGE_SIZE"
	EnvIngestPerItemDelay             = "FLOWZZ_INGEST_PER_ITEM_DELAY"
	EnvIngestMaxConsecutiveRateLimits = "FLOWZZ_INGEST_MAX_CONSECUTIVE_RATE_LIMITS"
	EnvIngestMaxRetriesPerItem        = "FLOWZZ_INGEST_MAX_RETRIES_PER_ITEM"
	EnvIngestRateLimitCooldown        = "FLOWZZ_INGEST_RATE_LIMIT_COOLDOWN"
	EnvIngestCategories               = "FLOWZZ_INGEST_CATEGORIES"

	EnvRedisURL    = "FLOWZZ_REDIS_URL"
	EnvMetricsAddr = "FLOWZZ_METRICS_ADDR"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
