package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-guard/internal/domain"
)

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("inputMint") != domain.WrappedSOLMint {
			t.Errorf("inputMint = %s", q.Get("inputMint"))
		}
		if q.Get("amount") != "250000000" {
			t.Errorf("amount = %s", q.Get("amount"))
		}
		if q.Get("slippageBps") != "50" {
			t.Errorf("slippageBps = %s", q.Get("slippageBps"))
		}
		json.NewEncoder(w).Encode(map[string]string{
			"requestId":      "req-1",
			"transaction":    "dW5zaWduZWQ=",
			"inAmount":       "250000000",
			"outAmount":      "35100000",
			"priceImpactPct": "0.01",
		})
	}))
	defer server.Close()

	client := NewUltraClient(WithBaseURL(server.URL))
	quote, err := client.GetOrder(context.Background(), domain.OrderRequest{
		InputMint:   domain.WrappedSOLMint,
		OutputMint:  domain.USDCMint,
		AmountRaw:   250000000,
		Taker:       "taker-address",
		SlippageBps: 50,
	})
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if quote.RequestID != "req-1" || quote.UnsignedTx != "dW5zaWduZWQ=" || quote.OutAmountEst != "35100000" {
		t.Errorf("unexpected quote %+v", quote)
	}
}

func TestGetOrder_BoundaryValidation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]string
	}{
		{"error message", map[string]string{"errorMessage": "insufficient liquidity"}},
		{"error field", map[string]string{"error": "no route"}},
		{"no transaction", map[string]string{"requestId": "r", "outAmount": "1"}},
		{"no request id", map[string]string{"transaction": "dHg=", "outAmount": "1"}},
		{"no out amount", map[string]string{"transaction": "dHg=", "requestId": "r"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			client := NewUltraClient(WithBaseURL(server.URL))
			if _, err := client.GetOrder(context.Background(), domain.OrderRequest{}); err == nil {
				t.Error("expected boundary error")
			}
		})
	}
}

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req executeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.RequestID != "req-1" || req.SignedTransaction != "c2lnbmVk" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":             "Success",
			"signature":          "sig-xyz",
			"outputAmountResult": "35050000",
		})
	}))
	defer server.Close()

	client := NewUltraClient(WithBaseURL(server.URL))
	result, err := client.Execute(context.Background(), "c2lnbmVk", "req-1")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Landed || result.Signature != "sig-xyz" || result.ActualOut != "35050000" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestExecute_FailedIsResultNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "Failed",
			"signature": "sig-fail",
			"error":     "slippage tolerance exceeded",
			"code":      -1,
		})
	}))
	defer server.Close()

	client := NewUltraClient(WithBaseURL(server.URL))
	result, err := client.Execute(context.Background(), "c2lnbmVk", "req-1")
	if err != nil {
		t.Fatalf("a failed execution is a result, got error %v", err)
	}
	if result.Landed {
		t.Error("expected not landed")
	}
	if result.FailureReason != "slippage tolerance exceeded" {
		t.Errorf("failure reason = %q", result.FailureReason)
	}
}

func TestExecute_MissingStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"signature": "sig"})
	}))
	defer server.Close()

	client := NewUltraClient(WithBaseURL(server.URL))
	if _, err := client.Execute(context.Background(), "c2lnbmVk", "req-1"); err == nil {
		t.Error("expected boundary error on missing status")
	}
}

func TestAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiKeyHeader) != "secret" {
			t.Errorf("missing api key header")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"requestId": "r", "transaction": "dHg=", "outAmount": "1",
		})
	}))
	defer server.Close()

	client := NewUltraClient(WithBaseURL(server.URL), WithAPIKey("secret"))
	if _, err := client.GetOrder(context.Background(), domain.OrderRequest{}); err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
}
