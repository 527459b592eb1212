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
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Password   PasswordConfig
	Pricing    PricingConfig
	Settlement SettlementConfig
	Wallet     WalletConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
	GCP        GCPConfig
	RateLimit  RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PETVERSE_APP_ENV" required:"true"`
	Port         string `envconfig:"PETVERSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PETVERSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PETVERSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PETVERSE_DB_DSN"`
	Driver string `envconfig:"PETVERSE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PETVERSE_DB_HOST"`
	Port     int    `envconfig:"PETVERSE_DB_PORT" default:"5432"`
	User     string `envconfig:"PETVERSE_DB_USER"`
	Password string `envconfig:"PETVERSE_DB_PASSWORD"`
	Name     string `envconfig:"PETVERSE_DB_NAME"`
	SSLMode  string `envconfig:"PETVERSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PETVERSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PETVERSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PETVERSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PETVERSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PETVERSE_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PETVERSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PETVERSE_REDIS_ADDR"`
	Password     string        `envconfig:"PETVERSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PETVERSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PETVERSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PETVERSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PETVERSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PETVERSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PETVERSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PETVERSE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PETVERSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PETVERSE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PETVERSE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PETVERSE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PETVERSE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PETVERSE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PETVERSE_ARGON_KEY_LEN" default:"32"`
}

// PricingConfig carries the checkout policy constants. The tax rate is
// applied uniformly to every checkout path.
type PricingConfig struct {
	TaxRate               decimal.Decimal `envconfig:"PETVERSE_PRICING_TAX_RATE" default:"0.10"`
	FreeShippingThreshold decimal.Decimal `envconfig:"PETVERSE_PRICING_FREE_SHIPPING_THRESHOLD" default:"500"`
	FlatShippingFee       decimal.Decimal `envconfig:"PETVERSE_PRICING_FLAT_SHIPPING_FEE" default:"50"`
}

func (p PricingConfig) validate() error {
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be within [0,1], got %s", p.TaxRate)
	}
	if p.FlatShippingFee.IsNegative() {
		return fmt.Errorf("flat shipping fee must be non-negative, got %s", p.FlatShippingFee)
	}
	return nil
}

// SettlementConfig carries the commission split for fund distribution.
type SettlementConfig struct {
	CommissionRate decimal.Decimal `envconfig:"PETVERSE_SETTLEMENT_COMMISSION_RATE" default:"0.05"`
}

func (s SettlementConfig) validate() error {
	if s.CommissionRate.IsNegative() || s.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission rate must be within [0,1], got %s", s.CommissionRate)
	}
	return nil
}

// SellerRate is the share of a line subtotal credited to the seller.
func (s SettlementConfig) SellerRate() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(s.CommissionRate)
}

type WalletConfig struct {
	StartingBalance decimal.Decimal `envconfig:"PETVERSE_WALLET_STARTING_BALANCE" default:"0"`
	PlatformUserID  string          `envconfig:"PETVERSE_WALLET_PLATFORM_USER_ID" required:"true"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PETVERSE_PUBSUB_ORDERS_TOPIC" default:"pv-order-events"`
	OrdersSubscription string `envconfig:"PETVERSE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

// RateLimitConfig throttles credential attempts; a zero limit or
// window disables the middleware.
type RateLimitConfig struct {
	LoginLimit  int64         `envconfig:"PETVERSE_RATE_LIMIT_LOGIN_LIMIT" default:"10"`
	LoginWindow time.Duration `envconfig:"PETVERSE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PETVERSE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PETVERSE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PETVERSE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PETVERSE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PETVERSE_GCP_CREDENTIALS_JSON"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
