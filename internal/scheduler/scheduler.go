package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

// Resolver is the part of weather.Service the scheduler needs.
type Resolver interface {
	GetOrFetch(ctx context.Context, city string, date time.Time) (weather.Record, error)
}

// Scheduler periodically warms the cache with yesterday's records for the
// configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  Resolver
	cities    []string
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, resolver Resolver, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		cities:    cities,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the warm job and starts the underlying scheduler. The job
// also runs once immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info().Msg("no warm cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.warm(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// warm resolves yesterday's record for every city. Failures are logged and
// do not affect the other cities. It returns the number of cities warmed.
func (s *Scheduler) warm(ctx context.Context) int {
	date := weather.Day(s.now().UTC()).AddDate(0, 0, -1)
	s.logger.Info().Str("date", date.Format(weather.DateLayout)).Int("cities", len(s.cities)).Msg("running cache warm job")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, city := range s.cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()

			if _, err := s.resolver.GetOrFetch(ctx, city, date); err != nil {
				s.logger.Warn().Err(err).Str("key", weather.Key(city, date)).Msg("cache warm failed")
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}(city)
	}
	wg.Wait()

	s.logger.Info().Int("warmed", ok).Msg("completed cache warm job")
	return ok
}
