package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-guard/internal/domain"
)

func TestGetPriceUSD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != domain.WrappedSOLMint {
			t.Errorf("ids = %s", r.URL.Query().Get("ids"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				domain.WrappedSOLMint: map[string]string{"price": "142.57"},
			},
		})
	}))
	defer server.Close()

	client := NewPriceClient(WithBaseURL(server.URL))
	price, err := client.GetPriceUSD(context.Background(), domain.WrappedSOLMint)
	if err != nil {
		t.Fatalf("GetPriceUSD failed: %v", err)
	}
	if price != 142.57 {
		t.Errorf("price = %f, want 142.57", price)
	}
}

func TestGetPriceUSD_Malformed(t *testing.T) {
	cases := []struct {
		name string
		body interface{}
	}{
		{"unknown mint", map[string]interface{}{"data": map[string]interface{}{}}},
		{"null entry", map[string]interface{}{"data": map[string]interface{}{domain.USDCMint: nil}}},
		{"bad number", map[string]interface{}{"data": map[string]interface{}{
			domain.USDCMint: map[string]string{"price": "NaN-ish"},
		}}},
		{"zero price", map[string]interface{}{"data": map[string]interface{}{
			domain.USDCMint: map[string]string{"price": "0"},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			client := NewPriceClient(WithBaseURL(server.URL))
			if _, err := client.GetPriceUSD(context.Background(), domain.USDCMint); err == nil {
				t.Error("expected error")
			}
		})
	}
}
