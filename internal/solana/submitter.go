package solana

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"solana-swap-guard/internal/domain"
)

// statusPollInterval paces the HTTP fallback when no WS endpoint is set.
const statusPollInterval = 2 * time.Second

// RPCSubmitter broadcasts signed transactions through a Solana RPC node
// and waits for confirmation. It is the submit path for deployments that
// bypass the aggregator's execute endpoint in favor of their own RPC.
type RPCSubmitter struct {
	rpc       *HTTPClient
	confirmer *WSConfirmer
	timeout   time.Duration
	pollEvery time.Duration
	logger    *log.Logger
}

// SubmitterOption configures RPCSubmitter.
type SubmitterOption func(*RPCSubmitter)

// WithWSConfirmer enables WebSocket confirmation instead of status polling.
func WithWSConfirmer(c *WSConfirmer) SubmitterOption {
	return func(s *RPCSubmitter) { s.confirmer = c }
}

// WithConfirmTimeout bounds how long Submit waits for confirmation.
func WithConfirmTimeout(d time.Duration) SubmitterOption {
	return func(s *RPCSubmitter) { s.timeout = d }
}

// WithPollInterval sets the status polling cadence.
func WithPollInterval(d time.Duration) SubmitterOption {
	return func(s *RPCSubmitter) { s.pollEvery = d }
}

// WithSubmitterLogger sets the submitter logger.
func WithSubmitterLogger(l *log.Logger) SubmitterOption {
	return func(s *RPCSubmitter) { s.logger = l }
}

// NewRPCSubmitter creates a submitter over the given RPC client.
func NewRPCSubmitter(rpc *HTTPClient, opts ...SubmitterOption) *RPCSubmitter {
	s := &RPCSubmitter{
		rpc:       rpc,
		timeout:   DefaultConfirmTimeout,
		pollEvery: statusPollInterval,
		logger:    log.New(os.Stdout, "[solana] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit broadcasts the signed transaction and waits for a confirmation
// verdict. The requestID parameter exists for submitters that execute
// through the aggregator; the RPC path ignores it.
//
// Once the transaction is broadcast the outcome is reported, never
// retried: a second broadcast could double-spend.
func (s *RPCSubmitter) Submit(ctx context.Context, signedTxBase64, _ string) (*domain.SubmitResult, error) {
	signature, err := s.rpc.SendTransaction(ctx, signedTxBase64)
	if err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	s.logger.Printf("submitted transaction %s", signature)

	landed, confirmErr := s.awaitConfirmation(ctx, signature)

	result := &domain.SubmitResult{
		Signature: signature,
		Landed:    landed,
	}
	if confirmErr != nil {
		result.FailureReason = confirmErr.Error()
	} else if !landed {
		result.FailureReason = "transaction failed on chain"
	}
	return result, nil
}

func (s *RPCSubmitter) awaitConfirmation(ctx context.Context, signature string) (bool, error) {
	if s.confirmer != nil {
		return s.confirmer.Confirm(ctx, signature)
	}
	return s.pollStatus(ctx, signature)
}

// pollStatus polls getSignatureStatuses until the transaction reaches
// confirmed commitment or the timeout elapses.
func (s *RPCSubmitter) pollStatus(ctx context.Context, signature string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("confirmation timed out after %s", s.timeout)
		case <-ticker.C:
			status, err := s.rpc.GetSignatureStatus(ctx, signature)
			if err != nil {
				s.logger.Printf("status poll for %s failed: %v", signature, err)
				continue
			}
			if status == nil {
				continue
			}
			if status.Err != nil {
				return false, nil
			}
			if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
				return true, nil
			}
		}
	}
}
