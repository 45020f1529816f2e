package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Confirmation timeouts.
const (
	DefaultConfirmTimeout = 60 * time.Second
	wsHandshakeTimeout    = 10 * time.Second
	wsWriteTimeout        = 10 * time.Second
)

// WSConfirmer waits for transaction confirmation over a WebSocket
// signatureSubscribe. One connection per confirmation; a swap submits at
// most one transaction, so there is nothing to multiplex.
type WSConfirmer struct {
	endpoint string
	timeout  time.Duration
}

// NewWSConfirmer creates a confirmer against a ws:// or wss:// endpoint.
func NewWSConfirmer(endpoint string, timeout time.Duration) *WSConfirmer {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	return &WSConfirmer{endpoint: endpoint, timeout: timeout}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSignatureNotification struct {
	Method string `json:"method"`
	Params *struct {
		Result struct {
			Value struct {
				Err interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// Confirm blocks until the signature is confirmed, fails, or the timeout
// elapses. Returns landed=true when the transaction confirmed without a
// chain error. A timeout is not a failure verdict; the transaction may
// still land, so the caller must treat it as unknown.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string) (landed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, w.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return false, fmt.Errorf("write subscribe: %w", err)
	}

	deadline, _ := ctx.Deadline()
	for {
		conn.SetReadDeadline(deadline)
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return false, fmt.Errorf("confirmation timed out after %s: %w", w.timeout, ctx.Err())
			}
			return false, fmt.Errorf("read message: %w", err)
		}

		var notif wsSignatureNotification
		if err := json.Unmarshal(message, &notif); err != nil {
			continue
		}
		if notif.Method != "signatureNotification" || notif.Params == nil {
			// Subscription confirmation or unrelated frame.
			continue
		}
		return notif.Params.Result.Value.Err == nil, nil
	}
}
