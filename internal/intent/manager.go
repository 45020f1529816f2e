// Package intent implements the gated swap lifecycle: a proposal is
// validated, priced, risk-checked, and policy-evaluated before an intent
// is ever persisted; confirmation claims the intent exactly once and
// reports a terminal outcome.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/observability"
	"solana-swap-guard/internal/policy"
	"solana-swap-guard/internal/solana"
	"solana-swap-guard/internal/storage"
)

// Collaborator interfaces. Defined here, implemented by the jupiter,
// rugcheck, solana, and vault packages.

// QuoteProvider fetches an order: quote plus unsigned transaction.
type QuoteProvider interface {
	GetOrder(ctx context.Context, req domain.OrderRequest) (*domain.Quote, error)
}

// RiskScorer fetches a risk report for a mint.
type RiskScorer interface {
	Score(ctx context.Context, mint string) (*domain.RiskReport, error)
}

// ChainSubmitter broadcasts a signed transaction and reports the terminal
// outcome.
type ChainSubmitter interface {
	Submit(ctx context.Context, signedTxBase64, requestID string) (*domain.SubmitResult, error)
}

// PriceSource returns the USD price of one whole token.
type PriceSource interface {
	GetPriceUSD(ctx context.Context, mint string) (float64, error)
}

// Signer signs an unsigned transaction with the active wallet.
type Signer interface {
	Sign(unsignedTxBase64 string) (signedTxBase64, signature string, err error)
}

// Options for creating a Manager.
type Options struct {
	// Required
	Store     storage.IntentStore
	Quotes    QuoteProvider
	Submitter ChainSubmitter
	Signer    Signer
	Wallet    string // taker address for quotes

	// Policy inputs
	Policy domain.PolicyConfig
	Risk   RiskScorer
	Prices PriceSource

	// Optional
	Journal storage.ExecutionJournal
	Metrics *observability.Metrics
	TTL     time.Duration
	Logger  *log.Logger
	Verbose bool
	Now     func() time.Time
}

// Manager owns the intent lifecycle.
type Manager struct {
	store     storage.IntentStore
	quotes    QuoteProvider
	submitter ChainSubmitter
	signer    Signer
	wallet    string

	policyCfg domain.PolicyConfig
	engine    *policy.Engine
	risk      RiskScorer
	prices    PriceSource

	journal storage.ExecutionJournal
	metrics *observability.Metrics
	ttl     time.Duration
	logger  *log.Logger
	verbose bool
	now     func() time.Time
}

// New creates a Manager, validating the required collaborators.
func New(opts Options) (*Manager, error) {
	switch {
	case opts.Store == nil:
		return nil, fmt.Errorf("intent: Store is required")
	case opts.Quotes == nil:
		return nil, fmt.Errorf("intent: Quotes is required")
	case opts.Submitter == nil:
		return nil, fmt.Errorf("intent: Submitter is required")
	case opts.Signer == nil:
		return nil, fmt.Errorf("intent: Signer is required")
	case opts.Wallet == "":
		return nil, fmt.Errorf("intent: Wallet is required")
	}

	// The taker signs the transaction, so unlike mints it must be an
	// on-curve keypair address, not a PDA.
	if err := solana.ValidateWalletAddress(opts.Wallet); err != nil {
		return nil, fmt.Errorf("intent: wallet is not a signing address: %w", err)
	}

	m := &Manager{
		store:     opts.Store,
		quotes:    opts.Quotes,
		submitter: opts.Submitter,
		signer:    opts.Signer,
		wallet:    opts.Wallet,
		policyCfg: opts.Policy,
		engine:    policy.NewEngine(),
		risk:      opts.Risk,
		prices:    opts.Prices,
		journal:   opts.Journal,
		metrics:   opts.Metrics,
		ttl:       opts.TTL,
		logger:    opts.Logger,
		verbose:   opts.Verbose,
		now:       opts.Now,
	}
	if m.ttl <= 0 {
		m.ttl = domain.DefaultIntentTTL
	}
	if m.logger == nil {
		m.logger = log.New(os.Stdout, "[intent] ", log.LstdFlags)
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m, nil
}

// CreateIntent validates a swap proposal, runs it through policy, fetches
// an order for it, and persists the resulting intent. A denied proposal
// persists nothing.
func (m *Manager) CreateIntent(ctx context.Context, fromMint, toMint, amount string, slippageBps int) (*domain.SwapIntent, error) {
	if err := solana.ValidateAddress(fromMint); err != nil {
		return nil, fmt.Errorf("%w: from mint: %v", ErrInvalidInput, err)
	}
	if err := solana.ValidateAddress(toMint); err != nil {
		return nil, fmt.Errorf("%w: to mint: %v", ErrInvalidInput, err)
	}
	if slippageBps <= 0 {
		return nil, fmt.Errorf("%w: slippage must be positive, got %d bps", ErrInvalidInput, slippageBps)
	}
	amountRaw, err := toRawAmount(amount, domain.TokenDecimals(fromMint))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	input := policy.TradeInput{
		FromMint:    fromMint,
		ToMint:      toMint,
		AmountUSD:   m.usdNotional(ctx, fromMint, amount),
		SlippageBps: slippageBps,
		Risk:        m.riskReport(ctx, toMint),
	}

	verdict := m.engine.Evaluate(input, m.policyCfg)
	if !verdict.Allowed {
		m.logger.Printf("blocked %s -> %s: %s", fromMint, toMint, verdict.Reason)
		if m.metrics != nil {
			m.metrics.IntentsBlocked.WithLabelValues(verdict.ChecksFailed[0]).Inc()
			for _, check := range verdict.ChecksFailed {
				m.metrics.PolicyChecksFailed.WithLabelValues(check).Inc()
			}
		}
		return nil, &PolicyBlockedError{Result: verdict}
	}

	quoteStart := m.now()
	quote, err := m.quotes.GetOrder(ctx, domain.OrderRequest{
		InputMint:   fromMint,
		OutputMint:  toMint,
		AmountRaw:   amountRaw,
		Taker:       m.wallet,
		SlippageBps: slippageBps,
	})
	if err != nil {
		m.upstreamError("quote")
		return nil, fmt.Errorf("get order: %w", err)
	}
	if m.metrics != nil {
		m.metrics.QuoteLatency.Observe(m.now().Sub(quoteStart).Seconds())
	}

	now := m.now()
	it := &domain.SwapIntent{
		IntentID:     uuid.NewString(),
		FromMint:     fromMint,
		ToMint:       toMint,
		Amount:       amount,
		SlippageBps:  slippageBps,
		OutAmountEst: quote.OutAmountEst,
		UnsignedTx:   quote.UnsignedTx,
		RequestID:    quote.RequestID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, it); err != nil {
		return nil, fmt.Errorf("persist intent: %w", err)
	}

	if m.metrics != nil {
		m.metrics.IntentsCreated.Inc()
	}
	m.logger.Printf("created intent %s: %s %s -> %s (est out %s, expires %s)",
		it.IntentID, amount, fromMint, toMint, it.OutAmountEst, it.ExpiresAt.Format(time.RFC3339))
	return it, nil
}

// usdNotional converts the trade amount to USD. An unavailable price maps
// to zero notional so the trade-size check passes open; the risk checks
// still gate unknown tokens.
func (m *Manager) usdNotional(ctx context.Context, fromMint, amount string) float64 {
	if m.prices == nil {
		return 0
	}
	price, err := m.prices.GetPriceUSD(ctx, fromMint)
	if err != nil {
		m.logger.Printf("warning: no USD price for %s: %v", fromMint, err)
		m.upstreamError("price")
		return 0
	}
	whole, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return whole * price
}

// riskReport fetches the destination's risk report. Known-safe mints skip
// the fetch; a fetch failure yields nil, which policy treats as a failed
// risk_report check.
func (m *Manager) riskReport(ctx context.Context, toMint string) *domain.RiskReport {
	if m.risk == nil || domain.IsKnownSafeMint(toMint) {
		return nil
	}
	report, err := m.risk.Score(ctx, toMint)
	if err != nil {
		m.logger.Printf("warning: no risk report for %s: %v", toMint, err)
		m.upstreamError("rugcheck")
		return nil
	}
	return report
}

// ConfirmIntent claims the intent and executes it. Exactly one concurrent
// confirmation can win the claim; everyone else gets a terminal storage
// error. After a successful claim the intent is consumed no matter what:
// a signing or submission failure is recorded, never retried.
func (m *Manager) ConfirmIntent(ctx context.Context, intentID string) (*domain.ExecutionResult, error) {
	claimedAt := m.now()
	snapshot, err := m.store.TryClaim(ctx, intentID, claimedAt)
	if err != nil {
		m.rejectMetric(err)
		return nil, err
	}
	if m.verbose {
		m.logger.Printf("claimed intent %s (%ds remaining)", intentID, snapshot.TimeRemaining(claimedAt))
	}

	signedTx, _, err := m.signer.Sign(snapshot.UnsignedTx)
	if err != nil {
		execErr := &ExecutionError{IntentID: intentID, Stage: "sign", Err: err}
		m.recordFailure(ctx, snapshot, claimedAt, "", execErr.Error())
		return nil, execErr
	}

	submit, err := m.submitter.Submit(ctx, signedTx, snapshot.RequestID)
	if err != nil {
		m.upstreamError("submit")
		execErr := &ExecutionError{IntentID: intentID, Stage: "submit", Err: err}
		m.recordFailure(ctx, snapshot, claimedAt, "", execErr.Error())
		return nil, execErr
	}

	result := &domain.ExecutionResult{
		Signature:     submit.Signature,
		Landed:        submit.Landed,
		ActualOut:     submit.ActualOut,
		FailureReason: submit.FailureReason,
		CompletedAt:   m.now(),
	}
	m.finalize(ctx, snapshot, claimedAt, result)

	if result.Landed {
		m.logger.Printf("intent %s landed: %s (out %s)", intentID, result.Signature, result.ActualOut)
	} else {
		m.logger.Printf("intent %s failed on chain: %s", intentID, result.FailureReason)
	}
	return result, nil
}

// GetIntent is the read-only status lookup.
func (m *Manager) GetIntent(ctx context.Context, intentID string) (*domain.SwapIntent, error) {
	return m.store.GetByID(ctx, intentID)
}

// ListPending returns the live, unexecuted intents.
func (m *Manager) ListPending(ctx context.Context) ([]*domain.SwapIntent, error) {
	pending, err := m.store.ListPending(ctx, m.now())
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.PendingIntents.Set(float64(len(pending)))
	}
	return pending, nil
}

// SweepExpired prunes expired unexecuted intents.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		m.logger.Printf("swept %d expired intents", deleted)
		if m.metrics != nil {
			m.metrics.IntentsSwept.Add(float64(deleted))
		}
	}
	return deleted, nil
}

// recordFailure writes a failure result for a claimed intent.
func (m *Manager) recordFailure(ctx context.Context, snapshot *domain.SwapIntent, claimedAt time.Time, signature, reason string) {
	m.finalize(ctx, snapshot, claimedAt, &domain.ExecutionResult{
		Signature:     signature,
		FailureReason: reason,
		CompletedAt:   m.now(),
	})
}

// finalize persists the result, journals it, and records metrics. The
// claim already happened; nothing here may fail the confirmation.
func (m *Manager) finalize(ctx context.Context, snapshot *domain.SwapIntent, claimedAt time.Time, result *domain.ExecutionResult) {
	if err := m.store.RecordResult(ctx, snapshot.IntentID, result); err != nil {
		m.logger.Printf("warning: failed to record result for %s: %v", snapshot.IntentID, err)
	}

	if m.journal != nil {
		record := &storage.ExecutionRecord{
			IntentID:      snapshot.IntentID,
			FromMint:      snapshot.FromMint,
			ToMint:        snapshot.ToMint,
			Amount:        snapshot.Amount,
			OutAmountEst:  snapshot.OutAmountEst,
			ActualOut:     result.ActualOut,
			Signature:     result.Signature,
			Landed:        result.Landed,
			FailureReason: result.FailureReason,
			ClaimedAt:     claimedAt,
			CompletedAt:   result.CompletedAt,
		}
		if err := m.journal.Append(ctx, record); err != nil {
			// Best-effort: the journal never blocks a trade.
			m.logger.Printf("warning: journal append failed for %s: %v", snapshot.IntentID, err)
		}
	}

	if m.metrics != nil {
		outcome := "landed"
		if !result.Landed {
			outcome = "failed"
		}
		m.metrics.IntentsExecuted.WithLabelValues(outcome).Inc()
		m.metrics.ExecutionLatency.Observe(result.CompletedAt.Sub(claimedAt).Seconds())
	}
}

func (m *Manager) rejectMetric(err error) {
	if m.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, storage.ErrIntentExpired):
		m.metrics.IntentsRejected.WithLabelValues("expired").Inc()
	case errors.Is(err, storage.ErrIntentAlreadyExecuted):
		m.metrics.IntentsRejected.WithLabelValues("already_executed").Inc()
	case errors.Is(err, storage.ErrNotFound):
		m.metrics.IntentsRejected.WithLabelValues("not_found").Inc()
	default:
		m.metrics.IntentsRejected.WithLabelValues("storage_error").Inc()
	}
}

func (m *Manager) upstreamError(service string) {
	if m.metrics != nil {
		m.metrics.UpstreamErrors.WithLabelValues(service).Inc()
	}
}
