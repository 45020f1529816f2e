// Package jupiter wraps the swap aggregator's Ultra and Price APIs in thin
// validated clients. Responses are checked at the boundary; nothing
// half-parsed escapes into the intent flow.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Default endpoints and timeouts.
const (
	DefaultUltraBaseURL = "https://lite-api.jup.ag/ultra/v1"
	DefaultPriceBaseURL = "https://lite-api.jup.ag/price/v2"
	DefaultTimeout      = 15 * time.Second

	apiKeyHeader = "x-api-key"
)

// clientConfig is shared between the Ultra and Price clients.
type clientConfig struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option configures a client.
type Option func(*clientConfig)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithAPIKey sets the API key header on every request.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.client.Timeout = d }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.client = client }
}

func newClientConfig(defaultBase string, opts ...Option) clientConfig {
	cfg := clientConfig{
		baseURL: defaultBase,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// getJSON performs a GET with query params and decodes the response.
func (c *clientConfig) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

// postJSON performs a POST with a JSON body and decodes the response.
func (c *clientConfig) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *clientConfig) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
