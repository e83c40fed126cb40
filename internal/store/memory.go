package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

var _ weather.Store = (*MemoryStore)(nil)

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
// Records are kept in insertion order; duplicates are allowed.
type MemoryStore struct {
	mu sync.RWMutex

	records []weather.Record
	lastID  int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Lookup returns the first record stored for city and date.
func (s *MemoryStore) Lookup(ctx context.Context, city string, date time.Time) (weather.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: err}
	}
	date = weather.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.City == city && r.Date.Equal(date) {
			return r, true, nil
		}
	}
	return weather.Record{}, false, nil
}

// Store appends a new record with the next ID.
func (s *MemoryStore) Store(ctx context.Context, in weather.RecordInput) (weather.Record, error) {
	if err := ctx.Err(); err != nil {
		return weather.Record{}, &weather.StoreError{Op: "store", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	r := weather.Record{
		ID:       s.lastID,
		City:     in.City,
		Date:     weather.Day(in.Date),
		MinTemp:  in.MinTemp,
		MaxTemp:  in.MaxTemp,
		AvgTemp:  in.AvgTemp,
		Humidity: in.Humidity,
	}
	s.records = append(s.records, r)
	return r, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
