package weather

import (
	"context"
	"time"
)

// Provider abstracts the upstream history source (e.g. WeatherAPI.com).
//
// FetchHistory returns *UpstreamTransportError for connection or non-2xx
// failures and *UpstreamSchemaError for an undecodable body. Structural
// checks of the decoded payload are left to the Service.
type Provider interface {
	Name() string
	FetchHistory(ctx context.Context, city string, date time.Time) (UpstreamObservation, error)
}

// Store is the contract every record store (sqlite, redis, memory) must satisfy.
//
// Contract:
//   - Lookup returns the first record matching city and date exactly, or
//     ok=false when there is none. Absence is never an error.
//   - Store assigns a fresh ID and returns the persisted record. A failed
//     Store leaves nothing visible to later lookups.
//   - Faults are reported as *StoreError.
//   - Implementations must be safe for concurrent use.
type Store interface {
	Lookup(ctx context.Context, city string, date time.Time) (Record, bool, error)
	Store(ctx context.Context, in RecordInput) (Record, error)
}
