package weather

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service is the read-through cache: it answers from the store and only
// calls the provider on a miss, persisting what it fetched.
//
// There is no per-key locking. Concurrent misses for the same city and
// date each go upstream and may leave duplicate rows in the store.
type Service struct {
	store    Store
	provider Provider
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// GetOrFetch returns the stored record for city and date, fetching and
// storing it first if the store has none.
//
// Errors: *InvalidInputError for an empty city or a future date (checked
// before any I/O), ErrNotFound when the provider has no data for the day,
// *UpstreamTransportError, *UpstreamSchemaError and *StoreError otherwise.
func (s *Service) GetOrFetch(ctx context.Context, city string, date time.Time) (Record, error) {
	if strings.TrimSpace(city) == "" {
		return Record{}, &InvalidInputError{Field: "city", Reason: "must not be empty"}
	}
	date = Day(date)
	if date.After(Day(s.now().UTC())) {
		return Record{}, &InvalidInputError{Field: "date", Reason: "must not be in the future"}
	}

	key := Key(city, date)

	rec, ok, err := s.store.Lookup(ctx, city, date)
	if err != nil {
		StoreErrors.WithLabelValues("lookup").Inc()
		return Record{}, err
	}
	if ok {
		CacheHits.Inc()
		s.logger.Debug().Str("key", key).Int64("id", rec.ID).Msg("cache hit")
		return rec, nil
	}

	CacheMisses.Inc()
	s.logger.Debug().Str("key", key).Str("provider", s.provider.Name()).Msg("cache miss, fetching upstream")

	obs, err := s.provider.FetchHistory(ctx, city, date)
	if err != nil {
		return Record{}, s.upstreamFailure(key, err)
	}

	in, err := Normalize(s.provider.Name(), city, date, obs)
	if err != nil {
		return Record{}, s.upstreamFailure(key, err)
	}

	rec, err = s.store.Store(ctx, in)
	if err != nil {
		StoreErrors.WithLabelValues("store").Inc()
		s.logger.Error().Err(err).Str("key", key).Msg("failed to store weather record")
		return Record{}, err
	}

	s.logger.Info().Str("key", key).Int64("id", rec.ID).Msg("stored weather record")
	return rec, nil
}

// upstreamFailure classifies err for metrics and logs. Anything the provider
// returns without a known kind is treated as a transport failure.
func (s *Service) upstreamFailure(key string, err error) error {
	var (
		transportErr *UpstreamTransportError
		schemaErr    *UpstreamSchemaError
	)

	switch {
	case errors.Is(err, ErrNotFound):
		UpstreamErrors.WithLabelValues("not_found").Inc()
		s.logger.Info().Str("key", key).Msg("upstream has no data for day")
		return err
	case errors.As(err, &schemaErr):
		UpstreamErrors.WithLabelValues("schema").Inc()
	case errors.As(err, &transportErr):
		UpstreamErrors.WithLabelValues("transport").Inc()
	default:
		UpstreamErrors.WithLabelValues("transport").Inc()
		err = &UpstreamTransportError{Provider: s.provider.Name(), Err: err}
	}

	s.logger.Error().Err(err).Str("key", key).Msg("upstream fetch failed")
	return err
}
