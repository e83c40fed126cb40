package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com history endpoint.
const DefaultWeatherAPIURL = "http://api.weatherapi.com/v1/history.json"

// WeatherAPIConfig configures the WeatherAPI.com history provider.
type WeatherAPIConfig struct {
	BaseURL string
	APIKey  string
	Backoff BackoffConfig
}

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

var _ weather.Provider = (*WeatherAPIProvider)(nil)

func NewWeatherAPIProvider(client *http.Client, cfg WeatherAPIConfig, logger zerolog.Logger) (*WeatherAPIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("weatherapi api key is not configured")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid weatherapi base url: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// 4xx answers mean the request was wrong, not that the provider is down.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || errors.As(err, &se)
		},
	})

	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: cfg.Backoff,
		},
		circuit: cb,
		logger:  logger,
	}, nil
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// FetchHistory calls GET <base>?key=..&q=<city>&dt=<YYYY-MM-DD>.
func (p *WeatherAPIProvider) FetchHistory(ctx context.Context, city string, date time.Time) (weather.UpstreamObservation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", city)
		values.Set("dt", date.Format(weather.DateLayout))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, p.logger, buildRequest)
	if err != nil {
		return weather.UpstreamObservation{}, err
	}
	defer resp.Body.Close()

	var payload weather.UpstreamObservation
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.UpstreamObservation{}, &weather.UpstreamSchemaError{
			Provider: p.name,
			Reason:   "invalid json body",
			Err:      err,
		}
	}

	return payload, nil
}
