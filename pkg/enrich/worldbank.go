// Package enrich integrates external reference statistics (the World Bank
// open data API) that callers can merge into data product records. Nothing in
// the record store depends on this package; enrichment results are plain
// values.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the World Bank v2 API root.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Country describes a World Bank country entry.
type Country struct {
	ID        string `json:"id"`
	ISO2Code  string `json:"iso2Code"`
	Name      string `json:"name"`
	Region    ref    `json:"region"`
	IncomeLvl ref    `json:"incomeLevel"`
	Capital   string `json:"capitalCity"`
}

// Indicator describes a World Bank indicator entry.
type Indicator struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceNote string `json:"sourceNote"`
}

// DataPoint holds one observation of an indicator for a country and year.
type DataPoint struct {
	Indicator ref      `json:"indicator"`
	Country   ref      `json:"country"`
	Date      string   `json:"date"`
	Value     *float64 `json:"value"`
}

type ref struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Client talks to the World Bank v2 JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithBaseURL points the client at an alternative API root. Intended for
// tests against a local server.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient constructs an API client with a 30s request timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Countries lists countries, up to perPage entries (default 100).
func (c *Client) Countries(ctx context.Context, perPage int) ([]Country, error) {
	if perPage <= 0 {
		perPage = 100
	}
	query := url.Values{"format": {"json"}, "per_page": {strconv.Itoa(perPage)}}
	var out []Country
	if err := c.get(ctx, "/country", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indicators lists indicators, optionally filtered by a search term applied
// server-side, up to perPage entries (default 50).
func (c *Client) Indicators(ctx context.Context, search string, perPage int) ([]Indicator, error) {
	if perPage <= 0 {
		perPage = 50
	}
	query := url.Values{"format": {"json"}, "per_page": {strconv.Itoa(perPage)}}
	if search != "" {
		query.Set("search", search)
	}
	var out []Indicator
	if err := c.get(ctx, "/indicator", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountryData fetches yearly observations of an indicator for a country over
// the inclusive year range.
func (c *Client) CountryData(ctx context.Context, country, indicator string, startYear, endYear int) ([]DataPoint, error) {
	if country == "" || indicator == "" {
		return nil, fmt.Errorf("country and indicator required")
	}
	query := url.Values{
		"format":   {"json"},
		"date":     {fmt.Sprintf("%d:%d", startYear, endYear)},
		"per_page": {"1000"},
	}
	var out []DataPoint
	path := fmt.Sprintf("/country/%s/indicator/%s", url.PathEscape(country), url.PathEscape(indicator))
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get decodes the World Bank envelope: a two-element array of paging metadata
// followed by the result items.
func (c *Client) get(ctx context.Context, path string, query url.Values, items any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %s", path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if len(envelope) < 2 {
		return fmt.Errorf("decode %s: envelope has %d elements", path, len(envelope))
	}
	if string(envelope[1]) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope[1], items); err != nil {
		return fmt.Errorf("decode %s items: %w", path, err)
	}
	return nil
}
