// Package geocode resolves street addresses to coordinates with the US
// Census Geocoder. It exists to backfill 311 records that carry an
// incident address but no geocode; matches use the same WGS84 datum as
// the rest of the pipeline.
package geocode

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes addresses.
type Client interface {
	// Geocode resolves a single address. An unmatched address is not an
	// error; check Result.Matched.
	Geocode(ctx context.Context, addr Address) (*Result, error)

	// BatchGeocode resolves up to 10,000 addresses in one call. Results
	// are positional: results[i] corresponds to addrs[i].
	BatchGeocode(ctx context.Context, addrs []Address) ([]Result, error)
}

// Address is one address to resolve. City is the borough for NYC 311
// records; State defaults to NY when empty.
type Address struct {
	ID     string
	Street string
	City   string
	State  string
	Zip    string
}

// Result is the resolved coordinate for an address.
type Result struct {
	Latitude  float64
	Longitude float64
	// Quality is "rooftop" for exact matches, "range" for interpolated.
	Quality string
	Matched bool
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets the HTTP client used for Census requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRateLimit caps Census requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithBaseURL overrides the Census Geocoder endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string

	// 311 exports repeat incident addresses heavily, so resolved
	// addresses are cached for the life of the client.
	mu    sync.RWMutex
	cache map[string]Result
}

// NewClient builds a Census Geocoder client. The default rate limit is
// conservative; the service throttles aggressive callers.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 1),
		baseURL:    censusBaseURL,
		cache:      make(map[string]Result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Geocode(ctx context.Context, addr Address) (*Result, error) {
	key := cacheKey(addr)
	if r, ok := c.cached(key); ok {
		return &r, nil
	}
	r, err := c.geocodeOneLine(ctx, addr)
	if err != nil {
		return nil, err
	}
	c.store(key, *r)
	return r, nil
}

func (c *client) BatchGeocode(ctx context.Context, addrs []Address) ([]Result, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	results := make([]Result, len(addrs))
	var misses []Address
	missIdx := make(map[string]int, len(addrs))
	for i := range addrs {
		if addrs[i].ID == "" {
			addrs[i].ID = strconv.Itoa(i)
		}
		if r, ok := c.cached(cacheKey(addrs[i])); ok {
			results[i] = r
			continue
		}
		misses = append(misses, addrs[i])
		missIdx[addrs[i].ID] = i
	}
	if len(misses) == 0 {
		return results, nil
	}

	fetched, err := c.geocodeBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for j, r := range fetched {
		i := missIdx[misses[j].ID]
		results[i] = r
		c.store(cacheKey(addrs[i]), r)
	}
	return results, nil
}

func (c *client) cached(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.cache[key]
	return r, ok
}

func (c *client) store(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = r
}

func cacheKey(addr Address) string {
	return addr.Street + "|" + addr.City + "|" + addr.State + "|" + addr.Zip
}
