// Package statapi implements the remote-fetcher contract against the
// upstream statistics API (JSON over HTTP).
package statapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// Config holds API connection configuration.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client is a JSON-over-HTTP statistics API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a statistics API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Meta describes a remote dataset.
type Meta struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Total      int                 `json:"total"`
	Dimensions map[string][]string `json:"dimensions"`
}

type recordsResponse struct {
	Records []domain.RawRecord `json:"records"`
}

// Meta fetches a dataset's title, record count and dimensions.
func (c *Client) Meta(ctx context.Context, datasetID string) (Meta, error) {
	var meta Meta
	if err := c.getJSON(ctx, fmt.Sprintf("%s/datasets/%s/meta", c.baseURL, url.PathEscape(datasetID)), &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// ProbeTotal returns the total record count available for a dataset.
func (c *Client) ProbeTotal(ctx context.Context, datasetID string) (int, error) {
	meta, err := c.Meta(ctx, datasetID)
	if err != nil {
		return 0, err
	}
	return meta.Total, nil
}

// FetchPage retrieves one fixed-size page starting at offset.
func (c *Client) FetchPage(ctx context.Context, datasetID string, offset, limit int) ([]domain.RawRecord, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var resp recordsResponse
	endpoint := fmt.Sprintf("%s/datasets/%s/records?%s", c.baseURL, url.PathEscape(datasetID), q.Encode())
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// FetchFiltered retrieves all records matching the given dimension filters.
func (c *Client) FetchFiltered(ctx context.Context, datasetID string, filters map[string][]string) ([]domain.RawRecord, error) {
	q := url.Values{}
	for dim, values := range filters {
		for _, v := range values {
			q.Add(dim, v)
		}
	}

	var resp recordsResponse
	endpoint := fmt.Sprintf("%s/datasets/%s/records?%s", c.baseURL, url.PathEscape(datasetID), q.Encode())
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("api rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid json response: %w", err)
	}
	return nil
}
