package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "reseller"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "RESELLER_DB_DSN"
	EnvDBHost = "RESELLER_DB_HOST"
	EnvDBUser = "RESELLER_DB_USER"
	EnvDBName = "RESELLER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Provider     ProviderConfig
	MercadoPago  MercadoPagoConfig
	Pricing      PricingConfig
	Webhook      WebhookConfig
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
	Env          string `envconfig:"RESELLER_APP_ENV" required:"true"`
	Port         string `envconfig:"RESELLER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RESELLER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RESELLER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RESELLER_DB_DSN"`
	Driver string `envconfig:"RESELLER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RESELLER_DB_HOST"`
	LegacyPort     int    `envconfig:"RESELLER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RESELLER_DB_USER"`
	LegacyPassword string `envconfig:"RESELLER_DB_PASSWORD"`
	LegacyName     string `envconfig:"RESELLER_DB_NAME"`
	LegacySSLMode  string `envconfig:"RESELLER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RESELLER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RESELLER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RESELLER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RESELLER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RESELLER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RESELLER_REDIS_ADDR"`
	Password     string        `envconfig:"RESELLER_REDIS_PASSWORD"`
	DB           int           `envconfig:"RESELLER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RESELLER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RESELLER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RESELLER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RESELLER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RESELLER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RESELLER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RESELLER_JWT_ISSUER" default:"reseller-backend"`
	ExpirationMinutes int    `envconfig:"RESELLER_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RESELLER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RESELLER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RESELLER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RESELLER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RESELLER_ARGON_KEY_LEN" default:"32"`
}

// ProviderConfig points at the upstream fulfillment panel API.
type ProviderConfig struct {
	APIKey  string        `envconfig:"RESELLER_PROVIDER_API_KEY" required:"true"`
	BaseURL string        `envconfig:"RESELLER_PROVIDER_BASE_URL" default:"https://baratosociais.com/api/v2"`
	Timeout time.Duration `envconfig:"RESELLER_PROVIDER_TIMEOUT" default:"30s"`
}

// MercadoPagoConfig carries the payment gateway credentials and checkout URLs.
type MercadoPagoConfig struct {
	AccessToken     string        `envconfig:"RESELLER_MP_ACCESS_TOKEN" required:"true"`
	Timeout         time.Duration `envconfig:"RESELLER_MP_TIMEOUT" default:"30s"`
	CurrencyID      string        `envconfig:"RESELLER_MP_CURRENCY_ID" default:"BRL"`
	SuccessURL      string        `envconfig:"RESELLER_MP_SUCCESS_URL"`
	FailureURL      string        `envconfig:"RESELLER_MP_FAILURE_URL"`
	PendingURL      string        `envconfig:"RESELLER_MP_PENDING_URL"`
	NotificationURL string        `envconfig:"RESELLER_MP_NOTIFICATION_URL"`
}

type PricingConfig struct {
	DefaultProfitMargin float64 `envconfig:"RESELLER_DEFAULT_PROFIT_MARGIN" default:"0.20"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"RESELLER_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RESELLER_AUTO_MIGRATE" default:"false"`
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
