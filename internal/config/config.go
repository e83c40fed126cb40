package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type AppConfig struct {
	// Upstream provider. The key is required; the process must not start without it.
	WeatherAPIKey string `env:"WEATHER_API_KEY,required,notEmpty"`
	WeatherAPIURL string `env:"WEATHER_API_URL" envDefault:"http://api.weatherapi.com/v1/history.json"`

	// Outbound HTTP behaviour.
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	UpstreamMaxRetries int           `env:"UPSTREAM_MAX_RETRIES" envDefault:"2"`
	UpstreamBackoff    time.Duration `env:"UPSTREAM_BACKOFF" envDefault:"500ms"`

	// Record store.
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"./weather.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cache warming: cities fetched for yesterday on every interval.
	WarmCities   []string      `env:"WARM_CITIES" envSeparator:","`
	WarmInterval time.Duration `env:"WARM_INTERVAL" envDefault:"1h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	Port string `env:"PORT" envDefault:"8080"`
}

// Load reads configuration from .env (if present) and the environment.
// A missing WEATHER_API_KEY is an error.
func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if strings.TrimSpace(cfg.WeatherAPIKey) == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY is missing; set it in the environment")
	}

	switch cfg.StoreDriver {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s, %s or %s", cfg.StoreDriver, StoreSQLite, StoreRedis, StoreMemory)
	}

	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}
	if cfg.UpstreamMaxRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: must not be negative")
	}
	if cfg.UpstreamBackoff <= 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_BACKOFF: must be positive")
	}

	cfg.WarmCities = cleanCities(cfg.WarmCities)
	if len(cfg.WarmCities) > 0 && cfg.WarmInterval <= 0 {
		return nil, fmt.Errorf("invalid WARM_INTERVAL: must be positive")
	}

	return cfg, nil
}

func cleanCities(in []string) []string {
	var out []string
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
