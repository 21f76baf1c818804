package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Cleanup      CleanupConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPYARD_DB_DSN"`
	Driver string `envconfig:"SHOPYARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPYARD_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPYARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPYARD_DB_USER"`
	LegacyPassword string `envconfig:"SHOPYARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPYARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPYARD_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig tunes the anonymous cart identity and caching behavior.
type CartConfig struct {
	CookieName       string        `envconfig:"SHOPYARD_CART_COOKIE_NAME" default:"cart_id"`
	CookieMaxAgeDays int           `envconfig:"SHOPYARD_CART_COOKIE_MAX_AGE_DAYS" default:"30"`
	TTLDays          int           `envconfig:"SHOPYARD_CART_TTL_DAYS" default:"30"`
	SnapshotTTL      time.Duration `envconfig:"SHOPYARD_CART_SNAPSHOT_TTL" default:"30m"`
	TokenAttempts    int           `envconfig:"SHOPYARD_CART_TOKEN_ATTEMPTS" default:"3"`

	WishlistCookieName string `envconfig:"SHOPYARD_WISHLIST_COOKIE_NAME" default:"wishlist_id"`
}

// CookieMaxAge returns the cart cookie lifetime as a duration.
func (c CartConfig) CookieMaxAge() time.Duration {
	if c.CookieMaxAgeDays <= 0 {
		return 0
	}
	return time.Duration(c.CookieMaxAgeDays) * 24 * time.Hour
}

// TTL returns the cart expiration window as a duration.
func (c CartConfig) TTL() time.Duration {
	if c.TTLDays <= 0 {
		return 0
	}
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// CleanupConfig tunes the periodic sweep that physically removes stale rows.
type CleanupConfig struct {
	RetentionDays int           `envconfig:"SHOPYARD_CLEANUP_RETENTION_DAYS" default:"60"`
	Interval      time.Duration `envconfig:"SHOPYARD_CLEANUP_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPYARD_AUTO_MIGRATE" default:"false"`
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
