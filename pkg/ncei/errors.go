package ncei

import (
	"errors"
	"fmt"
)

// Sentinel errors for the locator and accessor.
var (
	// ErrNoStationFound is returned when the widening search exhausts its
	// attempt cap without finding a qualifying station.
	ErrNoStationFound = errors.New("no qualifying station found")

	// ErrStationNotFound is returned when a lookup by station id matches
	// nothing.
	ErrStationNotFound = errors.New("station not found")

	// ErrNoData is returned when a single most-recent value was requested
	// but the underlying series came back empty.
	ErrNoData = errors.New("no data in requested window")

	// ErrNoAccessor is returned by station operations that need a follow-up
	// query when the station was constructed without an accessor.
	ErrNoAccessor = errors.New("station is not attached to an accessor")
)

// TransportError indicates the remote service could not be reached: network
// error, DNS failure, or timeout. Never retried by the adapter.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the response body could not be
// interpreted as the expected JSON shape.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RemoteServiceError indicates the service answered with a status outside
// the success range.
type RemoteServiceError struct {
	StatusCode int
	Reason     string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote service error: %d %s", e.StatusCode, e.Reason)
}

// ValidationError indicates a caller-supplied value, typically a date
// string, could not be parsed.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
