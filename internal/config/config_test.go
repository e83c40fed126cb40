package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WEATHER_API_KEY", "test-key")
	for _, k := range []string{
		"WEATHER_API_URL", "HTTP_TIMEOUT", "UPSTREAM_MAX_RETRIES", "UPSTREAM_BACKOFF",
		"STORE_DRIVER", "DATABASE_PATH", "WARM_CITIES", "WARM_INTERVAL", "PORT",
	} {
		// t.Setenv restores the original value on cleanup.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	setRequired(t)
	t.Setenv("WEATHER_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing WEATHER_API_KEY")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WeatherAPIKey != "test-key" {
		t.Fatalf("unexpected key %q", cfg.WeatherAPIKey)
	}
	if cfg.WeatherAPIURL != "http://api.weatherapi.com/v1/history.json" {
		t.Fatalf("unexpected url %q", cfg.WeatherAPIURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.StoreDriver != StoreSQLite || cfg.DatabasePath != "./weather.db" {
		t.Fatalf("unexpected store config %q %q", cfg.StoreDriver, cfg.DatabasePath)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if len(cfg.WarmCities) != 0 {
		t.Fatalf("expected no warm cities, got %v", cfg.WarmCities)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WEATHER_API_URL", "http://localhost:9999/history.json")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("WARM_CITIES", "London, Seattle,,Paris ")
	t.Setenv("WARM_INTERVAL", "30m")
	t.Setenv("UPSTREAM_MAX_RETRIES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != StoreRedis {
		t.Fatalf("unexpected driver %q", cfg.StoreDriver)
	}
	if want := []string{"London", "Seattle", "Paris"}; !reflect.DeepEqual(cfg.WarmCities, want) {
		t.Fatalf("expected %v, got %v", want, cfg.WarmCities)
	}
	if cfg.WarmInterval != 30*time.Minute {
		t.Fatalf("unexpected interval %s", cfg.WarmInterval)
	}
	if cfg.UpstreamMaxRetries != 0 {
		t.Fatalf("unexpected retries %d", cfg.UpstreamMaxRetries)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"STORE_DRIVER":         "postgres",
		"HTTP_TIMEOUT":         "soon",
		"UPSTREAM_MAX_RETRIES": "-1",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			setRequired(t)
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", k, v)
			}
		})
	}
}
