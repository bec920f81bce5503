package config

const (
	EnvPrefix = "TUBESHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DefaultSQLiteDSN = "file:tubeshop.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv          = "TUBESHOP_APP_ENV"
	EnvPort            = "TUBESHOP_APP_PORT"
	EnvLogLevel        = "TUBESHOP_LOG_LEVEL"
	EnvDBDSN           = "TUBESHOP_DB_DSN"
	EnvDBHost          = "TUBESHOP_DB_HOST"
	EnvDBUser          = "TUBESHOP_DB_USER"
	EnvDBName          = "TUBESHOP_DB_NAME"
	EnvDBPassword      = "TUBESHOP_DB_PASSWORD"
	EnvRedisURL        = "TUBESHOP_REDIS_URL"
	EnvUseSQLite       = "TUBESHOP_USE_SQLITE"
	EnvTelegramToken   = "TUBESHOP_TELEGRAM_BOT_TOKEN"
	EnvRateLimitLimit  = "TUBESHOP_RATE_LIMIT_LIMIT"
	EnvCORSOrigins     = "TUBESHOP_CORS_ALLOWED_ORIGINS"
	EnvSyncUpdatesDir  = "TUBESHOP_SYNC_UPDATES_DIR"
	EnvCheckoutGuard   = "TUBESHOP_CHECKOUT_GUARD_STOCK"
	EnvNotifyQueueSize = "TUBESHOP_NOTIFICATIONS_QUEUE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
