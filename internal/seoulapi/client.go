// Package seoulapi implements a client for the Seoul subway open API.
// Responses are classified into transport failures, vendor application
// errors, and success payloads; the two vendor error shapes are
// order-significant and checked exactly as the upstream documents them.
package seoulapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bluele/gcache"
	"github.com/jusunglee/subway-go/internal/models"
)

// DefaultBaseURL is the real-time subway API domain
const DefaultBaseURL = "http://swopenapi.seoul.go.kr/api/subway"

const (
	endpointArrival  = "realtimeStationArrival"
	endpointPosition = "realtimePosition"

	// default paging window passed to the vendor
	defaultStartIndex = 0
	defaultEndIndex   = 100
)

// FetchFunc fetches a URL and returns the decoded JSON payload.
// Transport errors (connection, timeout, non-2xx) surface as err.
type FetchFunc func(url string) (map[string]any, error)

// Client calls the Seoul subway real-time API. The fetch capability is
// substitutable for tests; the default one uses an http.Client with a
// 10-second timeout. Successful decodes are cached briefly so duplicate
// triggers inside one poll cadence don't double-hit the vendor.
type Client struct {
	baseURL string
	apiKey  string
	fetch   FetchFunc
	cache   gcache.Cache
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL overrides the vendor API domain
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithFetch substitutes the fetch capability, bypassing the network
func WithFetch(fetch FetchFunc) Option {
	return func(c *Client) { c.fetch = fetch }
}

// WithCacheTTL overrides the response cache TTL. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = newResponseCache(ttl)
	}
}

func newResponseCache(ttl time.Duration) gcache.Cache {
	return gcache.New(64).LRU().Expiration(ttl).Build()
}

// NewClient creates a client for the given API credential
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		cache:   newResponseCache(10 * time.Second),
	}
	c.fetch = newHTTPFetch()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPFetch returns the default network fetch capability
func newHTTPFetch() FetchFunc {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return func(url string) (map[string]any, error) {
		resp, err := httpClient.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		var payload map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

// requestURL builds the vendor URL shape:
// {base}/{key}/json/{endpoint}/{start}/{end}/{nameOrLine}
func (c *Client) requestURL(endpoint string, start, end int, nameOrLine string) string {
	return fmt.Sprintf("%s/%s/json/%s/%d/%d/%s",
		c.baseURL, c.apiKey, endpoint, start, end, url.PathEscape(nameOrLine))
}

// get fetches a URL through the cache. Only successful decodes are
// cached; failures always retry the network.
func (c *Client) get(url string) (map[string]any, error) {
	if c.cache != nil {
		if cached, err := c.cache.Get(url); err == nil {
			return cached.(map[string]any), nil
		}
	}

	payload, err := c.fetch(url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.Set(url, payload)
	}
	return payload, nil
}

// RealtimeArrivals fetches the real-time arrival board for a station.
// Transport and vendor errors come back as a not-OK result; only a
// malformed success payload is a Go error.
func (c *Client) RealtimeArrivals(stationName string) (models.ArrivalResult, error) {
	url := c.requestURL(endpointArrival, defaultStartIndex, defaultEndIndex, stationName)

	payload, err := c.get(url)
	if err != nil {
		return models.ArrivalResult{ErrorMessage: fmt.Sprintf("API request failed: %v", err)}, nil
	}

	if msg, failed := classifyError(payload); failed {
		return models.ArrivalResult{ErrorMessage: msg}, nil
	}

	trains, err := normalizeArrivals(payload)
	if err != nil {
		return models.ArrivalResult{}, err
	}

	return models.ArrivalResult{
		OK:          true,
		Count:       len(trains),
		StationName: stationName,
		Trains:      trains,
	}, nil
}

// RealtimePositions fetches live train positions for a line. The line
// is addressed by its name (e.g. "2호선"), not its code.
func (c *Client) RealtimePositions(lineName string) (models.PositionResult, error) {
	url := c.requestURL(endpointPosition, defaultStartIndex, defaultEndIndex, lineName)

	payload, err := c.get(url)
	if err != nil {
		return models.PositionResult{ErrorMessage: fmt.Sprintf("API request failed: %v", err)}, nil
	}

	if msg, failed := classifyError(payload); failed {
		return models.PositionResult{ErrorMessage: msg}, nil
	}

	trains, err := normalizePositions(payload)
	if err != nil {
		return models.PositionResult{}, err
	}

	return models.PositionResult{
		OK:     true,
		Count:  len(trains),
		Trains: trains,
	}, nil
}

// sentinel code the vendor sends inside errorMessage on a normal
// response; documented quirk, must classify as success
const successCode = "INFO-000"

// classifyError inspects a decoded payload for the two vendor error
// shapes, in document order. Shape 1 (top-level status 500) wins when
// both appear.
func classifyError(payload map[string]any) (string, bool) {
	// shape 1: {"status": 500, "code": "ERROR-338", "message": ...}
	if status, ok := numberField(payload, "status"); ok && status == 500 {
		code, _ := payload["code"].(string)
		msg, ok := payload["message"].(string)
		if !ok || msg == "" {
			msg = "알 수 없는 에러"
		}
		return fmt.Sprintf("%s: %s", code, msg), true
	}

	// shape 2: {"errorMessage": {"code": ..., "status": ..., "message": ...}}
	if raw, ok := payload["errorMessage"]; ok {
		info, ok := raw.(map[string]any)
		if !ok {
			return "", false
		}
		code, _ := info["code"].(string)
		status, _ := numberField(info, "status")
		if code != successCode && status != 200 {
			msg, ok := info["message"].(string)
			if !ok || msg == "" {
				msg = "알 수 없는 에러"
			}
			return msg, true
		}
	}

	return "", false
}

// numberField reads an integer-valued field that may decode as float64
// or json.Number
func numberField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
