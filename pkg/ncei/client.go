package ncei

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nceiaccess/nceiaccess/pkg/resilience"
)

// Endpoint is a logical resource path of the NCEI Access service.
type Endpoint string

const (
	// EndpointData returns observational time series. The service only
	// answers JSON here when format=json is requested explicitly.
	EndpointData Endpoint = "data/v1"

	// EndpointSearch returns station and data-type search hits, nested
	// under a "results" key.
	EndpointSearch Endpoint = "search/v1/data"

	// EndpointDatasets returns dataset metadata.
	EndpointDatasets Endpoint = "support/v3/datasets"

	// EndpointOrders returns information about previous orders.
	EndpointOrders Endpoint = "orders/v1"
)

// DefaultBaseURL is the production NCEI Access service base URL.
const DefaultBaseURL = "https://www.ncei.noaa.gov/access/services"

// ClientConfig holds configuration for the low-level NCEI client.
type ClientConfig struct {
	// BaseURL is the service base URL (optional, defaults to NCEI).
	BaseURL string

	// Timeout bounds each outbound call. Default: 10 seconds. Ignored when
	// HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the per-endpoint transports with a single
	// shared client. If nil, one circuit-breaker-guarded client is created
	// per known endpoint.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is the single point of contact with the remote service. It applies
// endpoint-specific request defaults, absorbs response-shape quirks, and
// classifies outcomes into a Result or a typed error.
type Client struct {
	baseURL    string
	shared     *resilience.Client
	transports map[Endpoint]*resilience.Client
	registry   *resilience.Registry
	logger     zerolog.Logger
}

// NewClient creates a new NCEI Access client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:  baseURL,
		shared:   cfg.HTTPClient,
		registry: resilience.NewRegistry(),
		logger:   cfg.Logger,
	}

	if c.shared == nil {
		c.transports = make(map[Endpoint]*resilience.Client)
		for _, ep := range []Endpoint{EndpointData, EndpointSearch, EndpointDatasets, EndpointOrders} {
			tcfg := resilience.DefaultClientConfig(string(ep))
			if cfg.Timeout > 0 {
				tcfg.Timeout = cfg.Timeout
			}
			t := resilience.NewClient(tcfg)
			c.transports[ep] = t
			c.registry.Register(string(ep), t)
		}
	}

	return c
}

// Get issues one GET against the given endpoint and normalizes the outcome.
// params may be mutated to inject endpoint-specific defaults. Failures are
// reported as *TransportError, *MalformedResponseError, or
// *RemoteServiceError; no Result is produced on failure.
func (c *Client) Get(ctx context.Context, endpoint Endpoint, params url.Values) (*Result, error) {
	if params == nil {
		params = url.Values{}
	}

	// API quirk: the data endpoint answers CSV unless JSON is requested.
	// An explicit caller-supplied format wins.
	if endpoint == EndpointData && params.Get("format") == "" {
		params.Set("format", "json")
	}

	fullURL := c.baseURL + "/" + string(endpoint)
	log := c.logger.With().
		Str("request_id", "out_"+uuid.NewString()[:8]).
		Str("url", fullURL).
		Str("params", params.Encode()).
		Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, &TransportError{URL: fullURL, Err: err}
	}
	req.URL.RawQuery = params.Encode()

	log.Debug().Msg("issuing request")

	resp, err := c.transportFor(endpoint).Do(req)
	if err != nil {
		c.registry.RecordFailure(string(endpoint), err)
		log.Error().Err(err).Msg("request failed")
		return nil, &TransportError{URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.registry.RecordFailure(string(endpoint), err)
		log.Error().Err(err).Msg("reading response body failed")
		return nil, &TransportError{URL: fullURL, Err: err}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.registry.RecordFailure(string(endpoint), err)
		log.Error().Err(err).Msg("response body is not valid JSON")
		return nil, &MalformedResponseError{URL: fullURL, Err: err}
	}

	// API quirk: search hits are nested under "results". Fall back to the
	// raw body when the key is absent.
	if endpoint == EndpointSearch {
		if m, ok := payload.(map[string]any); ok {
			if results, ok := m["results"]; ok {
				payload = results
			}
		}
	}

	data, err := coerceRecords(payload)
	if err != nil {
		c.registry.RecordFailure(string(endpoint), err)
		log.Error().Err(err).Msg("unexpected payload shape")
		return nil, &MalformedResponseError{URL: fullURL, Err: err}
	}

	status := resp.StatusCode
	reason := http.StatusText(status)

	if status < 200 || status > 299 {
		c.registry.RecordFailure(string(endpoint), &RemoteServiceError{StatusCode: status, Reason: reason})
		log.Error().Int("status", status).Str("reason", reason).Msg("request rejected by remote service")
		return nil, &RemoteServiceError{StatusCode: status, Reason: reason}
	}

	c.registry.RecordSuccess(string(endpoint))
	log.Debug().Int("status", status).Int("records", len(data)).Msg("request succeeded")

	return &Result{StatusCode: status, Message: reason, Data: data}, nil
}

// EndpointHealth returns circuit breaker health for one endpoint, or nil
// when a shared HTTP client is in use.
func (c *Client) EndpointHealth(endpoint Endpoint) *resilience.EndpointHealth {
	return c.registry.Health(string(endpoint))
}

func (c *Client) transportFor(endpoint Endpoint) *resilience.Client {
	if c.shared != nil {
		return c.shared
	}
	if t, ok := c.transports[endpoint]; ok {
		return t
	}
	return c.transports[EndpointData]
}

// coerceRecords flattens a parsed JSON payload into the uniform
// slice-of-records shape: an object becomes a one-element slice and an
// absent payload an empty one.
func coerceRecords(payload any) ([]map[string]any, error) {
	switch v := payload.(type) {
	case nil:
		return []map[string]any{}, nil
	case []any:
		records := make([]map[string]any, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("record %d is %T, want object", i, item)
			}
			records = append(records, m)
		}
		return records, nil
	case map[string]any:
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("payload is %T, want object or array", v)
	}
}
