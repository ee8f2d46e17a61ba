// Package socrata provides a client for the Socrata Open Data API (SODA),
// used to export NYC 311 service-request records as CSV.
package socrata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the SODA operations used by the ingest stage.
type Client interface {
	// ExportCSV streams one page of a dataset as CSV, filtered by the SoQL
	// where clause. Returns the response body; the caller must close it.
	ExportCSV(ctx context.Context, datasetID, where string, limit, offset int) (io.ReadCloser, error)

	// Count returns the number of rows matching the SoQL where clause.
	Count(ctx context.Context, datasetID, where string) (int64, error)
}

// Option configures the Socrata client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAppToken sets the X-App-Token header, which lifts Socrata's shared
// anonymous throttling pool.
func WithAppToken(token string) Option {
	return func(c *httpClient) {
		c.appToken = token
	}
}

type httpClient struct {
	baseURL  string
	appToken string
	http     *http.Client
}

// New creates a Socrata client for the given portal base URL.
func New(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: create request")
	}
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: request")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, eris.Errorf("socrata: status %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// ExportCSV streams one page of a dataset as CSV.
func (c *httpClient) ExportCSV(ctx context.Context, datasetID, where string, limit, offset int) (io.ReadCloser, error) {
	q := url.Values{}
	if where != "" {
		q.Set("$where", where)
	}
	q.Set("$order", ":id") // stable paging order
	q.Set("$limit", strconv.Itoa(limit))
	q.Set("$offset", strconv.Itoa(offset))

	u := fmt.Sprintf("%s/resource/%s.csv?%s", c.baseURL, datasetID, q.Encode())
	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Count returns the number of rows matching the where clause.
func (c *httpClient) Count(ctx context.Context, datasetID, where string) (int64, error) {
	q := url.Values{}
	q.Set("$select", "count(*) AS count")
	if where != "" {
		q.Set("$where", where)
	}

	u := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, datasetID, q.Encode())
	resp, err := c.do(ctx, u)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var rows []struct {
		Count string `json:"count"`
	}
	if err := decodeJSON(resp.Body, &rows); err != nil {
		return 0, eris.Wrap(err, "socrata: decode count")
	}
	if len(rows) == 0 {
		return 0, eris.New("socrata: empty count response")
	}

	n, err := strconv.ParseInt(rows[0].Count, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "socrata: parse count %q", rows[0].Count)
	}
	return n, nil
}

// YearWhere builds the SoQL predicate for created_date within a year.
func YearWhere(year int) string {
	return fmt.Sprintf("created_date >= '%d-01-01T00:00:00' AND created_date < '%d-01-01T00:00:00'", year, year+1)
}
