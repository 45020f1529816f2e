package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"solana-swap-guard/internal/domain"
)

// UltraClient talks to the Ultra order/execute API.
type UltraClient struct {
	cfg clientConfig
}

// NewUltraClient creates an Ultra API client.
func NewUltraClient(opts ...Option) *UltraClient {
	return &UltraClient{cfg: newClientConfig(DefaultUltraBaseURL, opts...)}
}

type orderResponse struct {
	RequestID      string `json:"requestId"`
	Transaction    string `json:"transaction"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	ErrorMessage   string `json:"errorMessage"`
	Error          string `json:"error"`
}

// GetOrder fetches a quote plus the unsigned transaction for a swap. An
// order without a transaction is useless to the intent flow and is
// rejected here rather than surfacing later at signing time.
func (c *UltraClient) GetOrder(ctx context.Context, req domain.OrderRequest) (*domain.Quote, error) {
	query := url.Values{}
	query.Set("inputMint", req.InputMint)
	query.Set("outputMint", req.OutputMint)
	query.Set("amount", strconv.FormatUint(req.AmountRaw, 10))
	query.Set("taker", req.Taker)
	if req.SlippageBps > 0 {
		query.Set("slippageBps", strconv.Itoa(req.SlippageBps))
	}

	var resp orderResponse
	if err := c.cfg.getJSON(ctx, "/order", query, &resp); err != nil {
		return nil, fmt.Errorf("order request: %w", err)
	}

	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("order rejected: %s", resp.ErrorMessage)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("order rejected: %s", resp.Error)
	}
	if resp.Transaction == "" {
		return nil, fmt.Errorf("order response carries no transaction")
	}
	if resp.RequestID == "" {
		return nil, fmt.Errorf("order response carries no request id")
	}
	if resp.OutAmount == "" {
		return nil, fmt.Errorf("order response carries no out amount")
	}

	quote := &domain.Quote{
		OutAmountEst: resp.OutAmount,
		UnsignedTx:   resp.Transaction,
		RequestID:    resp.RequestID,
	}
	if resp.PriceImpactPct != "" {
		impact, err := strconv.ParseFloat(resp.PriceImpactPct, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed price impact %q", resp.PriceImpactPct)
		}
		quote.PriceImpactPct = impact
	}
	return quote, nil
}

type executeRequest struct {
	SignedTransaction string `json:"signedTransaction"`
	RequestID         string `json:"requestId"`
}

type executeResponse struct {
	Status             string `json:"status"`
	Signature          string `json:"signature"`
	Slot               string `json:"slot"`
	OutputAmountResult string `json:"outputAmountResult"`
	Error              string `json:"error"`
	Code               int    `json:"code"`
}

// Execute submits a signed transaction through the aggregator and reports
// the terminal outcome. A "Failed" status is a result, not an error: the
// intent is consumed either way.
func (c *UltraClient) Execute(ctx context.Context, signedTxBase64, requestID string) (*domain.SubmitResult, error) {
	req := executeRequest{
		SignedTransaction: signedTxBase64,
		RequestID:         requestID,
	}

	var resp executeResponse
	if err := c.cfg.postJSON(ctx, "/execute", req, &resp); err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.Status == "" {
		return nil, fmt.Errorf("execute response carries no status")
	}

	result := &domain.SubmitResult{
		Signature: resp.Signature,
		Landed:    resp.Status == "Success",
		ActualOut: resp.OutputAmountResult,
	}
	if !result.Landed {
		result.FailureReason = resp.Error
		if result.FailureReason == "" {
			result.FailureReason = fmt.Sprintf("execute status %s (code %d)", resp.Status, resp.Code)
		}
	}
	return result, nil
}

// Submit adapts Execute to the chain-submitter shape used by the intent
// manager.
func (c *UltraClient) Submit(ctx context.Context, signedTxBase64, requestID string) (*domain.SubmitResult, error) {
	return c.Execute(ctx, signedTxBase64, requestID)
}
