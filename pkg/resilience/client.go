// Package resilience wraps outbound HTTP calls with a circuit breaker,
// a bounded per-request timeout, and optional exponential-backoff retry.
// Retry is off unless explicitly configured: the access layer built on top
// of this package treats a failed call as final and leaves any retrying to
// its own bounded search loop.
package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker refuses a request.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// RetryConfig enables retry on transient failures (network errors, 5xx).
type RetryConfig struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries uint64

	// InitialInterval is the first backoff interval. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval. Default: 5 seconds.
	MaxInterval time.Duration
}

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming.
	Name string

	// Timeout bounds each individual HTTP call. Default: 10 seconds.
	Timeout time.Duration

	// Retry, when non-nil, retries transient failures with exponential
	// backoff. When nil every request is attempted exactly once.
	Retry *RetryConfig

	// CircuitBreaker overrides the default breaker settings.
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultClientConfig returns a single-attempt client configuration with a
// 10 second timeout and the default circuit breaker.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:           name,
		Timeout:        10 * time.Second,
		CircuitBreaker: &cb,
	}
}

// Client is an HTTP client guarded by a circuit breaker.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewClient creates a resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Retry != nil {
		if cfg.Retry.InitialInterval == 0 {
			cfg.Retry.InitialInterval = 100 * time.Millisecond
		}
		if cfg.Retry.MaxInterval == 0 {
			cfg.Retry.MaxInterval = 5 * time.Second
		}
	}

	cbCfg := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbCfg = *cfg.CircuitBreaker
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker[*http.Response](cbCfg), //nolint:bodyclose // type param, not a response
		config:         cfg,
	}
}

// Do executes an HTTP request through the circuit breaker. A 5xx response
// counts as a breaker failure but is still returned to the caller, which is
// responsible for closing the body and classifying the status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.config.Retry == nil {
		resp, err := c.attempt(ctx, req)
		if err != nil && resp == nil {
			return nil, err
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.Retry.InitialInterval
	bo.MaxInterval = c.config.Retry.MaxInterval
	bo.MaxElapsedTime = 0 // attempts are capped via WithMaxRetries

	var lastResp *http.Response
	operation := func() error {
		resp, err := c.attempt(ctx, req)
		if resp != nil {
			lastResp = resp
		}
		if err != nil {
			if errors.Is(err, ErrCircuitOpen) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(bo, c.config.Retry.MaxRetries), ctx))
	if err != nil {
		if lastResp != nil {
			// Exhausted retries on 5xx: hand the final response back.
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

// attempt runs one request through the breaker. A 5xx response is returned
// alongside a *ServerError so the breaker records it as a failure.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
		r, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, &ServerError{StatusCode: r.StatusCode}
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		var srvErr *ServerError
		if errors.As(err, &srvErr) {
			return resp, err
		}
		return nil, err
	}
	return resp, nil
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// State returns the current circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.circuitBreaker.State()
}

// Counts returns the current circuit breaker statistics.
func (c *Client) Counts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}
