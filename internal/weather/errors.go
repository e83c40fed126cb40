package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every *InvalidInputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the provider has no data for the requested day.
	ErrNotFound = errors.New("weather data not found")
)

// InvalidInputError reports a malformed or out-of-range request argument.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UpstreamTransportError is returned when the provider call fails at the
// connection or HTTP level. StatusCode is zero for connection failures.
type UpstreamTransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Provider, e.Err)
}

func (e *UpstreamTransportError) Unwrap() error {
	return e.Err
}

// UpstreamSchemaError is returned when the provider answered successfully
// but the payload lacks the expected forecast structure.
type UpstreamSchemaError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *UpstreamSchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: unexpected response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("upstream %s: unexpected response: %s", e.Provider, e.Reason)
}

func (e *UpstreamSchemaError) Unwrap() error {
	return e.Err
}

// StoreError wraps any storage fault. Op is "lookup" or "store".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
