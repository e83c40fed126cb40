package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/weather-history-cache/internal/api/http"
	"github.com/i474232898/weather-history-cache/internal/config"
	"github.com/i474232898/weather-history-cache/internal/logging"
	"github.com/i474232898/weather-history-cache/internal/scheduler"
	"github.com/i474232898/weather-history-cache/internal/store"
	"github.com/i474232898/weather-history-cache/internal/store/redisstore"
	"github.com/i474232898/weather-history-cache/internal/store/sqlite"
	"github.com/i474232898/weather-history-cache/internal/weather"
	"github.com/i474232898/weather-history-cache/internal/weather/providers"
)

const serviceName = "weather-history-cache"

func main() {
	// Load configuration. A missing API key stops the process here.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	mainLog := logging.NewLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recordStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		mainLog.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			mainLog.Error().Err(err).Msg("error closing store")
		}
	}()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider, err := providers.NewWeatherAPIProvider(httpClient, providers.WeatherAPIConfig{
		BaseURL: cfg.WeatherAPIURL,
		APIKey:  cfg.WeatherAPIKey,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.UpstreamMaxRetries,
			InitialInterval: cfg.UpstreamBackoff,
			MaxInterval:     5 * time.Second,
		},
	}, logging.NewLogger("weatherapi"))
	if err != nil {
		mainLog.Fatal().Err(err).Msg("failed to configure weather provider")
	}

	service := weather.NewService(recordStore, provider, logging.NewLogger("resolver"))

	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, service, logging.NewLogger("scheduler"))
	if err := sched.Start(); err != nil {
		mainLog.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := httpapi.NewApp(serviceName)
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
			"store":   cfg.StoreDriver,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service, logging.NewLogger("http"))

	go func() {
		mainLog.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			mainLog.Error().Err(err).Msg("fiber server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("error during shutdown")
	}
}

// openStore opens the record store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.AppConfig) (weather.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreRedis:
		s, err := redisstore.Open(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return store.NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
