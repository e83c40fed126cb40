package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

const londonBody = `{"forecast":{"forecastday":[{"day":{"mintemp_c":15.2,"maxtemp_c":25.4,"avgtemp_c":20.3,"avghumidity":60}}]}}`

func newTestProvider(t *testing.T, srv *httptest.Server, retries int) *WeatherAPIProvider {
	t.Helper()

	p, err := NewWeatherAPIProvider(srv.Client(), WeatherAPIConfig{
		BaseURL: srv.URL + "/v1/history.json",
		APIKey:  "secret",
		Backoff: BackoffConfig{
			MaxRetries:      retries,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewWeatherAPIProviderRequiresKey(t *testing.T) {
	if _, err := NewWeatherAPIProvider(http.DefaultClient, WeatherAPIConfig{APIKey: " "}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestFetchHistorySendsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/history.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "secret" || q.Get("q") != "New York" || q.Get("dt") != "2024-08-09" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(londonBody))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, 0)
	obs, err := p.FetchHistory(context.Background(), "New York", time.Date(2024, time.August, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.Forecast == nil || obs.Forecast.ForecastDay == nil || len(*obs.Forecast.ForecastDay) != 1 {
		t.Fatalf("unexpected payload: %+v", obs)
	}
	day := (*obs.Forecast.ForecastDay)[0].Day
	if day == nil || *day.MinTempC != 15.2 || *day.MaxTempC != 25.4 || *day.AvgTempC != 20.3 || *day.AvgHumidity != 60 {
		t.Fatalf("unexpected day: %+v", day)
	}
}

func TestFetchHistoryMissingForecastDecodesAsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"location":{"name":"London"}}`))
	}))
	defer srv.Close()

	obs, err := newTestProvider(t, srv, 0).FetchHistory(context.Background(), "London", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Forecast != nil {
		t.Fatalf("expected nil forecast, got %+v", obs.Forecast)
	}
}

func TestFetchHistoryInvalidJSONIsSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, 0).FetchHistory(context.Background(), "London", time.Now())
	var schemaErr *weather.UpstreamSchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected UpstreamSchemaError, got %v", err)
	}
}

func TestFetchHistoryClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, 3).FetchHistory(context.Background(), "Atlantis", time.Now())
	var transportErr *weather.UpstreamTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected UpstreamTransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", transportErr.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestFetchHistoryServerErrorIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(londonBody))
	}))
	defer srv.Close()

	if _, err := newTestProvider(t, srv, 2).FetchHistory(context.Background(), "London", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestFetchHistoryServerErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, 1).FetchHistory(context.Background(), "London", time.Now())
	var transportErr *weather.UpstreamTransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 UpstreamTransportError, got %v", err)
	}
}

func TestFetchHistoryConnectionFailureHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	p := newTestProvider(t, srv, 0)
	srv.Close()

	_, err := p.FetchHistory(context.Background(), "London", time.Now())
	var transportErr *weather.UpstreamTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected UpstreamTransportError, got %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}
