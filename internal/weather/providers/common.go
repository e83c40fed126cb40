package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError is a non-2xx response that is not worth retrying.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status code %d", e.code)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.code, e.body)
}

// retryableStatusError is a 429 or 5xx response.
type retryableStatusError struct {
	code int
	err  error
}

func (e *retryableStatusError) Error() string { return e.err.Error() }
func (e *retryableStatusError) Unwrap() error { return e.err }

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker. Connection failures, 429 and 5xx are retried; other
// non-2xx responses fail immediately. Every failure is returned as
// *weather.UpstreamTransportError.
func doRequestWithResilience(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	logger zerolog.Logger,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &weather.UpstreamTransportError{Provider: provider, Err: errNoHTTPClient}
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, &weather.UpstreamTransportError{Provider: provider, Err: errInvalidConfig}
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, &weather.UpstreamTransportError{Provider: provider, Err: ctx.Err()}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, &weather.UpstreamTransportError{Provider: provider, Err: err}
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, redactURL(execErr)
			}
			weather.UpstreamRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			body := drain(resp)
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, &retryableStatusError{code: resp.StatusCode, err: errRateLimited}
			case resp.StatusCode >= 500:
				return nil, &retryableStatusError{code: resp.StatusCode, err: fmt.Errorf("%w: %d", errServerError, resp.StatusCode)}
			default:
				return nil, &statusError{code: resp.StatusCode, body: body}
			}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, &weather.UpstreamTransportError{Provider: provider, Err: fmt.Errorf("unexpected result type from circuit breaker")}
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.UpstreamTransportError{Provider: provider, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}

		var se *statusError
		if errors.As(err, &se) {
			return nil, &weather.UpstreamTransportError{Provider: provider, StatusCode: se.code, Err: err}
		}

		if attempt >= cfg.Backoff.MaxRetries {
			return nil, transportError(provider, err)
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Msg("upstream request failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &weather.UpstreamTransportError{Provider: provider, Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}

func transportError(provider string, err error) *weather.UpstreamTransportError {
	var rs *retryableStatusError
	if errors.As(err, &rs) {
		return &weather.UpstreamTransportError{Provider: provider, StatusCode: rs.code, Err: err}
	}
	return &weather.UpstreamTransportError{Provider: provider, Err: err}
}

// redactURL strips the query string (which carries the api key) from
// *url.Error so it never reaches logs.
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
		}
	}
	return err
}

// drain reads a short prefix of the body for error context and closes it.
func drain(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return string(b)
}
