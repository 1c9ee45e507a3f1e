package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZM_APP_ENV" required:"true"`
	Port         string `envconfig:"ZM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZM_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma-separated allow list for browser clients.
	CORSOrigins []string `envconfig:"ZM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZM_DB_DSN"`
	Driver string `envconfig:"ZM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZM_DB_HOST"`
	LegacyPort     int    `envconfig:"ZM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZM_DB_USER"`
	LegacyPassword string `envconfig:"ZM_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZM_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZM_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"ZM_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZM_REDIS_URL"`
	Address      string        `envconfig:"ZM_REDIS_ADDR"`
	Password     string        `envconfig:"ZM_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ZM_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ZM_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ZM_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ZM_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ZM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ZM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ZM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ZM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ZM_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ZM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ZM_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig carries checkout pricing and the buyer return window.
type OrdersConfig struct {
	ReturnWindowDays      int    `envconfig:"ZM_ORDERS_RETURN_WINDOW_DAYS" default:"7"`
	TaxRate               string `envconfig:"ZM_ORDERS_TAX_RATE" default:"0.18"`
	FlatShipping          string `envconfig:"ZM_ORDERS_FLAT_SHIPPING" default:"50.00"`
	FreeShippingThreshold string `envconfig:"ZM_ORDERS_FREE_SHIPPING_THRESHOLD" default:"999.00"`
	MaxItemsPerOrder      int    `envconfig:"ZM_ORDERS_MAX_ITEMS" default:"50"`
}

// ReturnWindow returns the configured return window as a duration.
func (o OrdersConfig) ReturnWindow() time.Duration {
	if o.ReturnWindowDays <= 0 {
		return 0
	}
	return time.Duration(o.ReturnWindowDays) * 24 * time.Hour
}

// Pricing parses the decimal pricing knobs used at checkout.
func (o OrdersConfig) Pricing() (taxRate, flatShipping, freeShippingFrom decimal.Decimal, err error) {
	if taxRate, err = parseAmount(EnvOrdersTaxRate, o.TaxRate); err != nil {
		return
	}
	if flatShipping, err = parseAmount(EnvOrdersFlatShipping, o.FlatShipping); err != nil {
		return
	}
	freeShippingFrom, err = parseAmount(EnvOrdersFreeShippingFrom, o.FreeShippingThreshold)
	return
}

func (o OrdersConfig) validate() error {
	_, _, _, err := o.Pricing()
	return err
}

func parseAmount(env, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", env, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", env)
	}
	return value, nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZM_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"ZM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic     string `envconfig:"ZM_PUBSUB_ORDERS_TOPIC" default:"zm-order-events"`
	CatalogTopic    string `envconfig:"ZM_PUBSUB_CATALOG_TOPIC" default:"zm-catalog-events"`
	ModerationTopic string `envconfig:"ZM_PUBSUB_MODERATION_TOPIC" default:"zm-moderation-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ZM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ZM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ZM_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"ZM_OUTBOX_RETENTION_DAYS" default:"30"`

	MetricsAddr string `envconfig:"ZM_OUTBOX_METRICS_ADDR" default:":9102"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ZM_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"ZM_CRON_LOCK_TTL" default:"55m"`

	MetricsAddr string `envconfig:"ZM_CRON_METRICS_ADDR" default:":9103"`
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
