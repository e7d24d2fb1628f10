package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Idempotency    IdempotencyConfig
	ShareRateLimit ShareRateLimitConfig
	Shopping       ShoppingConfig
	FeatureFlags   FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Shopping.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"LARDER_APP_ENV" required:"true"`
	Port            string        `envconfig:"LARDER_APP_PORT" required:"true"`
	LogLevel        string        `envconfig:"LARDER_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"LARDER_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"LARDER_LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"LARDER_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LARDER_DB_DSN"`
	Driver string `envconfig:"LARDER_DB_DRIVER" default:"postgres"`

	// Discrete Postgres settings, assembled into DSN when it is unset.
	Host     string `envconfig:"LARDER_DB_HOST"`
	Port     int    `envconfig:"LARDER_DB_PORT" default:"5432"`
	User     string `envconfig:"LARDER_DB_USER"`
	Password string `envconfig:"LARDER_DB_PASSWORD"`
	Name     string `envconfig:"LARDER_DB_NAME"`
	SSLMode  string `envconfig:"LARDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LARDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LARDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LARDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LARDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"LARDER_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LARDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LARDER_REDIS_ADDR"`
	Password     string        `envconfig:"LARDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LARDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LARDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LARDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LARDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LARDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LARDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how access tokens minted by the identity provider are verified.
type JWTConfig struct {
	Secret            string `envconfig:"LARDER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LARDER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LARDER_JWT_EXPIRATION_MINUTES" default:"60"`
	LeewaySeconds     int    `envconfig:"LARDER_JWT_LEEWAY_SECONDS" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LARDER_CORS_ALLOWED_ORIGINS" default:"*"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"LARDER_IDEMPOTENCY_TTL" default:"24h"`
}

// ShareRateLimitConfig bounds how many invitations one grantor may send per window.
type ShareRateLimitConfig struct {
	Window time.Duration `envconfig:"LARDER_SHARE_RATE_LIMIT_WINDOW" default:"1h"`
	Limit  int           `envconfig:"LARDER_SHARE_RATE_LIMIT_LIMIT" default:"30"`
}

type ShoppingConfig struct {
	DefaultPageSize   int    `envconfig:"LARDER_SHOPPING_DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize       int    `envconfig:"LARDER_SHOPPING_MAX_PAGE_SIZE" default:"100"`
	MaxLinesPerList   int    `envconfig:"LARDER_SHOPPING_MAX_LINES" default:"500"`
	CategoryRulesFile string `envconfig:"LARDER_SHOPPING_CATEGORY_RULES_FILE"`
}

func (s ShoppingConfig) validate() error {
	if s.DefaultPageSize <= 0 || s.MaxPageSize <= 0 {
		return fmt.Errorf("shopping page sizes must be positive")
	}
	if s.DefaultPageSize > s.MaxPageSize {
		return fmt.Errorf("default page size %d exceeds max %d", s.DefaultPageSize, s.MaxPageSize)
	}
	if s.MaxLinesPerList <= 0 {
		return fmt.Errorf("max lines per list must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LARDER_AUTO_MIGRATE" default:"false"`
}

// ensureDSN fills DSN from the discrete Postgres settings. sqlite has no
// such settings and must be given a DSN.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	user := url.User(db.User)
	if db.Password != "" {
		user = url.UserPassword(db.User, db.Password)
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
