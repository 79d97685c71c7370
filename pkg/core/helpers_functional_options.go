package core

import "time"

func WithRedisAddr(addr string) func(*Config) {
	return func(c *Config) {
		c.Redis.Addr = addr
	}
}

func WithRedisPassword(pw string) func(*Config) {
	return func(c *Config) {
		c.Redis.Password = pw
	}
}

func WithRedisDB(db int) func(*Config) {
	return func(c *Config) {
		c.Redis.DB = db
	}
}

func WithRedisPool(size, minIdle int) func(*Config) {
	return func(c *Config) {
		c.Redis.PoolSize = size
		c.Redis.MinIdleConns = minIdle
	}
}

func WithEnvironment(environment string) func(*Config) {
	return func(c *Config) {
		c.Environment = environment
	}
}

func WithPort(port int) func(*Config) {
	return func(c *Config) {
		c.Port = port
	}
}

func WithOtlpEndpoint(endpoint string) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Endpoint = endpoint
	}
}

func WithOtlpInsecure(insecure bool) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Insecure = insecure
	}
}

func WithOtelDisable(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.Otel.Disable = val
	}
}

func WithSessionIdleTimeout(timeout time.Duration) func(*Config) {
	return func(c *Config) {
		c.Session.IdleTimeout = timeout
	}
}

func WithRateTable(name string) func(*Config) {
	return func(c *Config) {
		c.Quote.RateTable = name
	}
}

func WithAgeBounds(minAge, maxAge int) func(*Config) {
	return func(c *Config) {
		c.Quote.AgeMin = minAge
		c.Quote.AgeMax = maxAge
	}
}

func WithPaymentDelay(delay time.Duration) func(*Config) {
	return func(c *Config) {
		c.Payment.Delay = delay
	}
}

func WithPaymentFailure(reason string) func(*Config) {
	return func(c *Config) {
		c.Payment.FailWith = reason
	}
}

func WithBreakerThreshold(threshold int) func(*Config) {
	return func(c *Config) {
		c.Breaker.FailureThreshold = threshold
	}
}
