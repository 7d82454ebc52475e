package config

import (
	"errors"
	"strings"
	"time"
)

// Config defines the powerpay service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"POWERPAY_HTTP_PORT"`
	} `yaml:"http"`
	JWT struct {
		Secret     string `yaml:"secret" env:"POWERPAY_JWT_SECRET"`
		TTLMinutes int    `yaml:"ttlMinutes" env:"POWERPAY_JWT_TTL_MINUTES"`
	} `yaml:"jwt"`
	Postgres struct {
		DSN string `yaml:"dsn" env:"POWERPAY_POSTGRES_DSN"`
	} `yaml:"postgres"`
	Redis struct {
		Addr            string `yaml:"addr" env:"POWERPAY_REDIS_ADDR"`
		Password        string `yaml:"password" env:"POWERPAY_REDIS_PASSWORD"`
		CacheTTLSeconds int    `yaml:"cacheTtlSeconds" env:"POWERPAY_REDIS_CACHE_TTL"`
	} `yaml:"redis"`
	Gateway struct {
		BaseURL        string `yaml:"baseUrl" env:"APPLIAPAY_BASE_URL"`
		Username       string `yaml:"username" env:"APPLIAPAY_USERNAME"`
		Password       string `yaml:"password" env:"APPLIAPAY_PASSWORD"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"APPLIAPAY_HTTP_TIMEOUT"`
	} `yaml:"gateway"`
	Energy struct {
		GapThresholdMinutes int     `yaml:"gapThresholdMinutes" env:"POWERPAY_GAP_THRESHOLD_MINUTES"`
		SentinelDevice      string  `yaml:"sentinelDevice" env:"POWERPAY_SENTINEL_DEVICE"`
		EmissionFactor      float64 `yaml:"emissionFactor" env:"POWERPAY_EMISSION_FACTOR"`
		TariffRate          float64 `yaml:"tariffRate" env:"POWERPAY_TARIFF_RATE"`
	} `yaml:"energy"`
	Payments struct {
		EvictAfterMinutes      int `yaml:"evictAfterMinutes" env:"POWERPAY_PAYMENTS_EVICT_AFTER"`
		JanitorIntervalMinutes int `yaml:"janitorIntervalMinutes" env:"POWERPAY_PAYMENTS_JANITOR_INTERVAL"`
	} `yaml:"payments"`
	Dashboard struct {
		DefaultRangeHours int `yaml:"defaultRangeHours" env:"POWERPAY_DEFAULT_RANGE_HOURS"`
	} `yaml:"dashboard"`
}

// Load reads configuration and validates required values.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.JWT.TTLMinutes = 60
	cfg.Gateway.TimeoutSeconds = 10
	cfg.Redis.CacheTTLSeconds = 60
	cfg.Payments.EvictAfterMinutes = 15
	cfg.Payments.JanitorIntervalMinutes = 5
	cfg.Dashboard.DefaultRangeHours = 9999999

	if err := hydrate(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if strings.TrimSpace(cfg.Gateway.BaseURL) == "" {
		return nil, errors.New("config: gateway base url required")
	}
	if strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return nil, errors.New("config: postgres dsn required")
	}
	return cfg, nil
}

// HTTPAddress returns the :port listen address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// GatewayTimeout returns the outbound HTTP client timeout.
func (c *Config) GatewayTimeout() time.Duration {
	if c.Gateway.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// JWTTTL returns the token lifetime.
func (c *Config) JWTTTL() time.Duration {
	if c.JWT.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

// CacheTTL returns the telemetry cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// PaymentEvictAfter returns the tracker TTL for stale requests.
func (c *Config) PaymentEvictAfter() time.Duration {
	if c.Payments.EvictAfterMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Payments.EvictAfterMinutes) * time.Minute
}

// PaymentJanitorInterval returns how often stale requests are swept.
func (c *Config) PaymentJanitorInterval() time.Duration {
	if c.Payments.JanitorIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Payments.JanitorIntervalMinutes) * time.Minute
}

// GapThreshold returns the episode gap threshold.
func (c *Config) GapThreshold() time.Duration {
	if c.Energy.GapThresholdMinutes <= 0 {
		return 0 // aggregator falls back to its default
	}
	return time.Duration(c.Energy.GapThresholdMinutes) * time.Minute
}
