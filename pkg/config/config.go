package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	Telegram      TelegramConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Sync          SyncConfig
	Notifications NotificationsConfig
	Checkout      CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = DefaultSQLiteDSN
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TUBESHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"TUBESHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TUBESHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TUBESHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"TUBESHOP_DB_DSN"`
	Driver string `envconfig:"TUBESHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TUBESHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"TUBESHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TUBESHOP_DB_USER"`
	LegacyPassword string `envconfig:"TUBESHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"TUBESHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"TUBESHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TUBESHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TUBESHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TUBESHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TUBESHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables every Redis-backed feature.
type RedisConfig struct {
	URL          string        `envconfig:"TUBESHOP_REDIS_URL"`
	Address      string        `envconfig:"TUBESHOP_REDIS_ADDR"`
	Password     string        `envconfig:"TUBESHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"TUBESHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TUBESHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TUBESHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TUBESHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TUBESHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TUBESHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite       bool `envconfig:"TUBESHOP_USE_SQLITE" default:"false"`
	AutoMigrate     bool `envconfig:"TUBESHOP_AUTO_MIGRATE" default:"false"`
	SeedDemoData    bool `envconfig:"TUBESHOP_SEED_DEMO_DATA" default:"false"`
	ImportOnStartup bool `envconfig:"TUBESHOP_IMPORT_ON_STARTUP" default:"false"`
}

type TelegramConfig struct {
	BotToken       string        `envconfig:"TUBESHOP_TELEGRAM_BOT_TOKEN"`
	APIBaseURL     string        `envconfig:"TUBESHOP_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
	RequestTimeout time.Duration `envconfig:"TUBESHOP_TELEGRAM_REQUEST_TIMEOUT" default:"10s"`
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"TUBESHOP_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"TUBESHOP_RATE_LIMIT_LIMIT" default:"100"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TUBESHOP_CORS_ALLOWED_ORIGINS" default:"*"`
}

type SyncConfig struct {
	DataDir    string        `envconfig:"TUBESHOP_SYNC_DATA_DIR" default:"testData"`
	UpdatesDir string        `envconfig:"TUBESHOP_SYNC_UPDATES_DIR" default:"testData/updates"`
	LockTTL    time.Duration `envconfig:"TUBESHOP_SYNC_LOCK_TTL" default:"10m"`
}

type NotificationsConfig struct {
	Workers   int `envconfig:"TUBESHOP_NOTIFICATIONS_WORKERS" default:"4"`
	QueueSize int `envconfig:"TUBESHOP_NOTIFICATIONS_QUEUE_SIZE" default:"64"`
}

type CheckoutConfig struct {
	// GuardStock makes the stock decrement conditional on the remaining quantity.
	GuardStock bool `envconfig:"TUBESHOP_CHECKOUT_GUARD_STOCK" default:"false"`
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
