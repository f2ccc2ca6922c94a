package resilience

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// EndpointHealth describes the observed health of one remote endpoint.
type EndpointHealth struct {
	// Endpoint is the logical endpoint path.
	Endpoint string

	// CircuitState is the current circuit breaker state.
	CircuitState gobreaker.State

	// Counts contains circuit breaker statistics.
	Counts gobreaker.Counts

	// LastSuccessAt is the timestamp of the last successful call.
	LastSuccessAt *time.Time

	// LastFailureAt is the timestamp of the last failed call.
	LastFailureAt *time.Time

	// LastError is the most recent error message, if any.
	LastError string
}

// Healthy reports whether the endpoint's circuit is closed.
func (h *EndpointHealth) Healthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// Registry tracks the per-endpoint clients of one remote service and the
// outcome of their most recent calls.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[string]*trackedEndpoint
}

type trackedEndpoint struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty endpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[string]*trackedEndpoint),
	}
}

// Register adds an endpoint client to the registry.
func (r *Registry) Register(endpoint string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[endpoint] = &trackedEndpoint{client: client}
}

// RecordSuccess records a successful call against an endpoint.
func (r *Registry) RecordSuccess(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[endpoint]; ok {
		now := time.Now()
		e.lastSuccessAt = &now
	}
}

// RecordFailure records a failed call against an endpoint.
func (r *Registry) RecordFailure(endpoint string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[endpoint]; ok {
		now := time.Now()
		e.lastFailureAt = &now
		if err != nil {
			e.lastError = err.Error()
		}
	}
}

// Health returns the health of a single endpoint, or nil if unknown.
func (r *Registry) Health(endpoint string) *EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.endpoints[endpoint]
	if !ok {
		return nil
	}
	return &EndpointHealth{
		Endpoint:      endpoint,
		CircuitState:  e.client.State(),
		Counts:        e.client.Counts(),
		LastSuccessAt: e.lastSuccessAt,
		LastFailureAt: e.lastFailureAt,
		LastError:     e.lastError,
	}
}

// AllHealth returns the health of every registered endpoint.
func (r *Registry) AllHealth() []*EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*EndpointHealth, 0, len(r.endpoints))
	for endpoint, e := range r.endpoints {
		health = append(health, &EndpointHealth{
			Endpoint:      endpoint,
			CircuitState:  e.client.State(),
			Counts:        e.client.Counts(),
			LastSuccessAt: e.lastSuccessAt,
			LastFailureAt: e.lastFailureAt,
			LastError:     e.lastError,
		})
	}
	return health
}
