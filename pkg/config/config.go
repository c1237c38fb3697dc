package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App       AppConfig
	API       APIConfig
	Gateway   GatewayConfig
	Redis     RedisConfig
	Reconcile ReconcileConfig
	Checkout  CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote commerce authority.
type APIConfig struct {
	BaseURL     string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	Timeout     time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
	AccessToken string        `envconfig:"STOREFRONT_API_ACCESS_TOKEN"`
	UserID      string        `envconfig:"STOREFRONT_API_USER_ID"`
}

type GatewayConfig struct {
	// PublicBaseURL is where the hosted payment page sends the shopper back to.
	PublicBaseURL  string        `envconfig:"STOREFRONT_GATEWAY_PUBLIC_BASE_URL" default:"http://localhost:8090"`
	CheckoutURL    string        `envconfig:"STOREFRONT_GATEWAY_CHECKOUT_URL" default:"https://checkout.razorpay.com/v1/hosted"`
	HandoffTimeout time.Duration `envconfig:"STOREFRONT_GATEWAY_HANDOFF_TIMEOUT" default:"0s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type ReconcileConfig struct {
	Enabled  bool          `envconfig:"STOREFRONT_RECONCILE_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"STOREFRONT_RECONCILE_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"STOREFRONT_RECONCILE_LOCK_TTL" default:"4m"`
}

type CheckoutConfig struct {
	Country  string `envconfig:"STOREFRONT_CHECKOUT_COUNTRY" default:"India"`
	Currency string `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"INR"`
}

func (c *Config) validate() error {
	var err error
	if parsed, parseErr := url.Parse(strings.TrimSpace(c.API.BaseURL)); parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		err = multierr.Append(err, fmt.Errorf("%s must be an absolute URL", EnvAPIBaseURL))
	}
	if c.API.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvAPITimeout))
	}
	if c.Gateway.HandoffTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvGatewayHandoffTimeout))
	}
	if c.Reconcile.Enabled && c.Reconcile.Interval <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive when reconciliation is enabled", EnvReconcileInterval))
	}
	return err
}
