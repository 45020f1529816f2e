package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PriceClient fetches USD prices from the price API.
type PriceClient struct {
	cfg clientConfig
}

// NewPriceClient creates a price API client.
func NewPriceClient(opts ...Option) *PriceClient {
	return &PriceClient{cfg: newClientConfig(DefaultPriceBaseURL, opts...)}
}

type priceResponse struct {
	Data map[string]*struct {
		Price string `json:"price"`
	} `json:"data"`
}

// GetPriceUSD returns the USD price of one whole token of the given mint.
func (c *PriceClient) GetPriceUSD(ctx context.Context, mint string) (float64, error) {
	query := url.Values{}
	query.Set("ids", mint)

	var resp priceResponse
	if err := c.cfg.getJSON(ctx, "", query, &resp); err != nil {
		return 0, fmt.Errorf("price request: %w", err)
	}

	entry, ok := resp.Data[mint]
	if !ok || entry == nil {
		return 0, fmt.Errorf("no price for mint %s", mint)
	}
	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed price %q for mint %s", entry.Price, mint)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %f for mint %s", price, mint)
	}
	return price, nil
}
