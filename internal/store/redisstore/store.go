// Package redisstore provides a Redis-backed weather record store.
//
// Layout:
//
//	weather:seq                   INCR counter for record ids
//	weather:record:<id>           JSON-encoded record
//	weather:idx:<date>:<city>     list of record ids for the key, insertion order
//
// The record and its index entry are written in one MULTI/EXEC, so a failed
// write never leaves an index entry pointing at a missing record. Ids come
// from INCR and are never reused, even when the write that claimed one fails.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

const (
	seqKey       = "weather:seq"
	recordPrefix = "weather:record:"
	indexPrefix  = "weather:idx:"
)

var _ weather.Store = (*Store)(nil)

// Store persists weather records in Redis.
type Store struct {
	redis *redis.Client
}

// New creates a Store on top of an existing client.
func New(client *redis.Client) *Store {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Store{redis: client}
}

// Open connects with opts and verifies the connection.
func Open(ctx context.Context, opts *redis.Options) (*Store, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.redis.Close()
}

type storedRecord struct {
	ID       int64   `json:"id"`
	City     string  `json:"city"`
	Date     string  `json:"date"`
	MinTemp  float64 `json:"min_temp"`
	MaxTemp  float64 `json:"max_temp"`
	AvgTemp  float64 `json:"avg_temp"`
	Humidity float64 `json:"humidity"`
}

func indexKey(city string, date time.Time) string {
	return indexPrefix + weather.Day(date).Format(weather.DateLayout) + ":" + city
}

func recordKey(id int64) string {
	return recordPrefix + strconv.FormatInt(id, 10)
}

// Lookup returns the first record indexed under city and date.
func (s *Store) Lookup(ctx context.Context, city string, date time.Time) (weather.Record, bool, error) {
	idStr, err := s.redis.LIndex(ctx, indexKey(city, date), 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return weather.Record{}, false, nil
		}
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: fmt.Errorf("redis lindex: %w", err)}
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: fmt.Errorf("invalid record id %q: %w", idStr, err)}
	}

	data, err := s.redis.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: fmt.Errorf("redis get record %d: %w", id, err)}
	}

	rec, err := decode(data)
	if err != nil {
		return weather.Record{}, false, &weather.StoreError{Op: "lookup", Err: err}
	}
	return rec, true, nil
}

// Store claims a new id and writes the record and its index entry atomically.
func (s *Store) Store(ctx context.Context, in weather.RecordInput) (weather.Record, error) {
	id, err := s.redis.Incr(ctx, seqKey).Result()
	if err != nil {
		return weather.Record{}, &weather.StoreError{Op: "store", Err: fmt.Errorf("redis incr: %w", err)}
	}

	rec := weather.Record{
		ID:       id,
		City:     in.City,
		Date:     weather.Day(in.Date),
		MinTemp:  in.MinTemp,
		MaxTemp:  in.MaxTemp,
		AvgTemp:  in.AvgTemp,
		Humidity: in.Humidity,
	}
	data, err := encode(rec)
	if err != nil {
		return weather.Record{}, &weather.StoreError{Op: "store", Err: err}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(id), data, 0)
		pipe.RPush(ctx, indexKey(rec.City, rec.Date), id)
		return nil
	})
	if err != nil {
		return weather.Record{}, &weather.StoreError{Op: "store", Err: fmt.Errorf("redis multi/exec: %w", err)}
	}
	return rec, nil
}

func encode(rec weather.Record) ([]byte, error) {
	data, err := json.Marshal(storedRecord{
		ID:       rec.ID,
		City:     rec.City,
		Date:     rec.Date.Format(weather.DateLayout),
		MinTemp:  rec.MinTemp,
		MaxTemp:  rec.MaxTemp,
		AvgTemp:  rec.AvgTemp,
		Humidity: rec.Humidity,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

func decode(data []byte) (weather.Record, error) {
	var sr storedRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return weather.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	date, err := time.Parse(weather.DateLayout, sr.Date)
	if err != nil {
		return weather.Record{}, fmt.Errorf("parse stored date %q: %w", sr.Date, err)
	}
	return weather.Record{
		ID:       sr.ID,
		City:     sr.City,
		Date:     date,
		MinTemp:  sr.MinTemp,
		MaxTemp:  sr.MaxTemp,
		AvgTemp:  sr.AvgTemp,
		Humidity: sr.Humidity,
	}, nil
}
