package core

import "time"

type Config struct {
	Environment string        `env:"ENVIRONMENT"`
	Port        int           `env:"PORT"`
	Otel        OtelConfig    `envPrefix:"OTEL_"`
	Redis       RedisConfig   `envPrefix:"REDIS_"`
	Session     SessionConfig `envPrefix:"SESSION_"`
	Quote       QuoteConfig   `envPrefix:"QUOTE_"`
	Payment     PaymentConfig `envPrefix:"PAYMENT_"`
	Breaker     BreakerConfig `envPrefix:"BREAKER_"`
}

type OtlpConfig struct {
	Endpoint string `env:"ENDPOINT"`
	Insecure bool   `env:"INSECURE"`
}

type OtelConfig struct {
	OtlpExporter OtlpConfig `envPrefix:"OTLP_EXPORTER_"`
	Disable      bool       `env:"DISABLE"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"`
	// Every screen request touches its session, so the pool is sized for
	// concurrent visitors rather than background jobs.
	PoolSize     int           `env:"POOL_SIZE"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS"`
	Timeout      time.Duration `env:"TIMEOUT"`
}

type SessionConfig struct {
	// How long a session survives without a request before it is discarded
	// and the visitor is sent back to the start screen.
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT"`
	CookieName   string        `env:"COOKIE_NAME"`
	CookieSecure bool          `env:"COOKIE_SECURE"`
}

type QuoteConfig struct {
	// "kes" (fixed shilling amounts) or "multiplier" (legacy scheme).
	RateTable string `env:"RATE_TABLE"`
	AgeMin    int    `env:"AGE_MIN"`
	AgeMax    int    `env:"AGE_MAX"`
}

type PaymentConfig struct {
	// Simulated network latency of the mock gateway.
	Delay time.Duration `env:"DELAY"`
	// When set, the mock gateway reports a failure with this reason.
	FailWith string        `env:"FAIL_WITH"`
	Timeout  time.Duration `env:"TIMEOUT"`
}

type BreakerConfig struct {
	FailureThreshold int           `env:"FAILURE_THRESHOLD"`
	FailWindow       time.Duration `env:"FAIL_WINDOW"`
	OpenCoolDown     time.Duration `env:"OPEN_COOLDOWN"`
	Prefix           string        `env:"PREFIX"`
}
