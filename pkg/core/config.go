package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultConfigEnvironment = "development"
	defaultConfigPort        = 8000

	defaultOtelDisable          = false
	defaultOTLPExporterEndpoint = "localhost:4317"
	defaultOTLPInsecure         = true

	defaultRedisAddr     = "localhost:6379"
	defaultRedisPassword = ""
	defaultRedisDB       = 0

	defaultRedisPoolSize     = 32
	defaultRedisMinIdleConns = 4
	defaultRedisTimeout      = 500 * time.Millisecond

	defaultSessionIdleTimeout = 5 * time.Minute
	defaultSessionCookieName  = "quote_session"

	defaultQuoteRateTable = "kes"
	defaultQuoteAgeMin    = 1
	defaultQuoteAgeMax    = 120

	defaultPaymentDelay   = 2 * time.Second
	defaultPaymentTimeout = 10 * time.Second

	defaultBreakerFailureThreshold = 5
	defaultBreakerFailWindow       = 10 * time.Second
	defaultBreakerOpenCoolDown     = 30 * time.Second
	defaultBreakerPrefix           = "cb:"
)

func DefaultConfig() Config {
	return Config{
		Environment: defaultConfigEnvironment,
		Port:        defaultConfigPort,
		Otel: OtelConfig{
			Disable: defaultOtelDisable,
			OtlpExporter: OtlpConfig{
				Endpoint: defaultOTLPExporterEndpoint,
				Insecure: defaultOTLPInsecure,
			},
		},
		Redis: RedisConfig{
			Addr:     defaultRedisAddr,
			Password: defaultRedisPassword,
			DB:       defaultRedisDB,

			PoolSize:     defaultRedisPoolSize,
			MinIdleConns: defaultRedisMinIdleConns,
			Timeout:      defaultRedisTimeout,
		},
		Session: SessionConfig{
			IdleTimeout: defaultSessionIdleTimeout,
			CookieName:  defaultSessionCookieName,
		},
		Quote: QuoteConfig{
			RateTable: defaultQuoteRateTable,
			AgeMin:    defaultQuoteAgeMin,
			AgeMax:    defaultQuoteAgeMax,
		},
		Payment: PaymentConfig{
			Delay:   defaultPaymentDelay,
			Timeout: defaultPaymentTimeout,
		},
		Breaker: BreakerConfig{
			FailureThreshold: defaultBreakerFailureThreshold,
			FailWindow:       defaultBreakerFailWindow,
			OpenCoolDown:     defaultBreakerOpenCoolDown,
			Prefix:           defaultBreakerPrefix,
		},
	}
}

func NewConfig(options ...func(*Config)) Config {
	config := DefaultConfig()
	for _, opt := range options {
		opt(&config)
	}
	return config
}

// NewConfigFromEnv overlays environment variables on top of DefaultConfig.
// Unset variables keep their default value.
func NewConfigFromEnv(options ...func(*Config)) (Config, error) {
	config := DefaultConfig()

	var errs error
	err := env.Parse(&config)
	if err != nil {
		errs = errors.Join(errs, fmt.Errorf("error parsing env: %w", err))
	}

	for _, opt := range options {
		opt(&config)
	}

	return config, errors.Join(errs, config.Validate())
}

func (c *Config) Validate() error {
	var errs error

	if c.Port <= 0 || c.Port > 65535 {
		errs = errors.Join(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.Quote.AgeMin > c.Quote.AgeMax {
		errs = errors.Join(errs, fmt.Errorf("QUOTE_AGE_MIN (%d) is greater than QUOTE_AGE_MAX (%d)", c.Quote.AgeMin, c.Quote.AgeMax))
	}
	if c.Redis.PoolSize < 0 || c.Redis.MinIdleConns < 0 {
		errs = errors.Join(errs, errors.New("REDIS_POOL_SIZE and REDIS_MIN_IDLE_CONNS must not be negative"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = errors.Join(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	if c.Payment.Delay < 0 {
		errs = errors.Join(errs, errors.New("PAYMENT_DELAY must not be negative"))
	}

	return errs
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func LoadEnv(environment ...string) error {
	filenames := []string{
		".env.local",
		".env",
	}

	name := getEnv("ENVIRONMENT", DefaultConfig().Environment)
	if len(environment) > 0 {
		name = environment[0]
	}

	if name != "" {
		file := ".env." + name + ".local"
		filenames = append([]string{file}, filenames...)
	}

	var errs error

	for _, filename := range filenames {
		err := loadEnvFile(filename)
		if err != nil {
			errs = errors.Join(
				errs,
				fmt.Errorf("error loading %s: %w", filename, err),
			)
		}
	}

	return errs
}
