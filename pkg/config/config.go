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
	Auth         AuthConfig
	Stripe       StripeConfig
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
	Env          string `envconfig:"GATEPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"GATEPASS_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"GATEPASS_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"GATEPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GATEPASS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GATEPASS_DB_DSN"`
	Driver string `envconfig:"GATEPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GATEPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"GATEPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GATEPASS_DB_USER"`
	LegacyPassword string `envconfig:"GATEPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GATEPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GATEPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GATEPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GATEPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GATEPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GATEPASS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GATEPASS_REDIS_ADDR"`
	Password     string        `envconfig:"GATEPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GATEPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GATEPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GATEPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GATEPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GATEPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GATEPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig describes the identity provider's bearer tokens. Gatepass does not
// issue tokens itself; it verifies tokens minted by the external provider with
// a shared HS256 secret.
type AuthConfig struct {
	JWTSecret string `envconfig:"GATEPASS_AUTH_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"GATEPASS_AUTH_ISSUER" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GATEPASS_STRIPE_API_KEY"`
	Secret string `envconfig:"GATEPASS_STRIPE_SECRET"`
	Env    string `envconfig:"GATEPASS_STRIPE_ENV" default:"test"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"GATEPASS_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GATEPASS_AUTO_MIGRATE" default:"false"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
