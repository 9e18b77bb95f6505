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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Escrow       EscrowConfig
	Worker       WorkerConfig
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
	Env          string `envconfig:"LEXORA_APP_ENV" required:"true"`
	Port         string `envconfig:"LEXORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEXORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEXORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEXORA_DB_DSN"`
	Driver string `envconfig:"LEXORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEXORA_DB_HOST"`
	LegacyPort     int    `envconfig:"LEXORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEXORA_DB_USER"`
	LegacyPassword string `envconfig:"LEXORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEXORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEXORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEXORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEXORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEXORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEXORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEXORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEXORA_REDIS_ADDR"`
	Password     string        `envconfig:"LEXORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEXORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEXORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEXORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEXORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEXORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEXORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEXORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEXORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEXORA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEXORA_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"LEXORA_STRIPE_API_KEY"`
	Secret     string `envconfig:"LEXORA_STRIPE_SECRET"`
	Env        string `envconfig:"LEXORA_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"LEXORA_STRIPE_SUCCESS_URL" default:"https://app.lexora.legal/payments/success"`
	CancelURL  string `envconfig:"LEXORA_STRIPE_CANCEL_URL" default:"https://app.lexora.legal/payments/cancel"`
}

func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey            string `envconfig:"LEXORA_SENDGRID_API_KEY"`
	DefaultFrom       string `envconfig:"LEXORA_SENDGRID_FROM_EMAIL"`
	FundsTemplateID   string `envconfig:"LEXORA_SENDGRID_FUNDS_TEMPLATE_ID" default:"escrow-funds-released"`
	ReceiptTemplateID string `envconfig:"LEXORA_SENDGRID_RECEIPT_TEMPLATE_ID" default:"escrow-payment-receipt"`
}

// EscrowConfig controls the hold-and-release behavior of the payment core.
type EscrowConfig struct {
	HoldingPeriod time.Duration `envconfig:"LEXORA_ESCROW_HOLDING_PERIOD" default:"168h"`
	Currency      string        `envconfig:"LEXORA_ESCROW_CURRENCY" default:"usd"`
}

// WorkerConfig tunes the release worker loop.
type WorkerConfig struct {
	PollInterval time.Duration `envconfig:"LEXORA_WORKER_POLL_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"LEXORA_WORKER_LOCK_TTL" default:"5m"`
	BatchSize    int           `envconfig:"LEXORA_WORKER_BATCH_SIZE" default:"100"`
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
