// Package rugcheck fetches token risk reports from the RugCheck API.
package rugcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solana-swap-guard/internal/domain"
)

// Defaults.
const (
	DefaultBaseURL = "https://api.rugcheck.xyz/v1"
	DefaultTimeout = 10 * time.Second
)

// Risk names that map to the authority flags.
const (
	riskMintAuthority   = "mint authority"
	riskFreezeAuthority = "freeze authority"
)

// Client queries token report summaries.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.client = client }
}

// New creates a RugCheck client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type summaryResponse struct {
	Score *int `json:"score"`
	Risks []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"risks"`
}

// Score fetches the report summary for a mint and maps it to a RiskReport.
// A malformed payload is a boundary error; partial reports never propagate
// into a policy decision.
func (c *Client) Score(ctx context.Context, mint string) (*domain.RiskReport, error) {
	u := fmt.Sprintf("%s/tokens/%s/report/summary", c.baseURL, url.PathEscape(mint))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no report for mint %s", mint)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var summary summaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if summary.Score == nil {
		return nil, fmt.Errorf("summary for mint %s carries no score", mint)
	}

	report := &domain.RiskReport{Score: *summary.Score}
	for _, risk := range summary.Risks {
		name := strings.ToLower(risk.Name)
		switch {
		case strings.Contains(name, riskMintAuthority):
			report.MintAuthorityActive = true
		case strings.Contains(name, riskFreezeAuthority):
			report.FreezeAuthorityActive = true
		}
	}
	return report, nil
}
