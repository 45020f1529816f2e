package intent

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/solana"
	"solana-swap-guard/internal/storage"
	"solana-swap-guard/internal/storage/memory"
)

// riskyMint is a syntactically valid mint that is not on the known-safe list.
var riskyMint = base58.Encode(bytes.Repeat([]byte{7}, 32))

// testWallet is a real keypair address; the taker must be on-curve.
var testWallet = base58.Encode(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{1}, 32)).Public().(ed25519.PublicKey))

type stubQuotes struct {
	quote   *domain.Quote
	err     error
	calls   int
	lastReq domain.OrderRequest
}

func (s *stubQuotes) GetOrder(_ context.Context, req domain.OrderRequest) (*domain.Quote, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubRisk struct {
	report *domain.RiskReport
	err    error
}

func (s *stubRisk) Score(context.Context, string) (*domain.RiskReport, error) {
	return s.report, s.err
}

type stubSubmitter struct {
	mu     sync.Mutex
	result *domain.SubmitResult
	err    error
	calls  int
}

func (s *stubSubmitter) Submit(context.Context, string, string) (*domain.SubmitResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubPrices struct {
	price float64
	err   error
}

func (s *stubPrices) GetPriceUSD(context.Context, string) (float64, error) {
	return s.price, s.err
}

type stubSigner struct {
	err error
}

func (s *stubSigner) Sign(string) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return "c2lnbmVk", "sig58", nil
}

type stubJournal struct {
	mu      sync.Mutex
	records []*storage.ExecutionRecord
}

func (s *stubJournal) Append(_ context.Context, rec *storage.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *stubJournal) RecentFailures(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failures []string
	for i := len(s.records) - 1; i >= 0 && len(failures) < limit; i-- {
		if !s.records[i].Landed {
			failures = append(failures, s.records[i].FailureReason)
		}
	}
	return failures, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testHarness struct {
	manager   *Manager
	store     *memory.IntentStore
	quotes    *stubQuotes
	submitter *stubSubmitter
	journal   *stubJournal
	clock     *fakeClock
}

func newHarness(t *testing.T, mutate func(*Options)) *testHarness {
	t.Helper()

	h := &testHarness{
		store: memory.NewIntentStore(),
		quotes: &stubQuotes{quote: &domain.Quote{
			OutAmountEst: "35100000",
			UnsignedTx:   "dW5zaWduZWQ=",
			RequestID:    "req-1",
		}},
		submitter: &stubSubmitter{result: &domain.SubmitResult{
			Signature: "sig-ok",
			Landed:    true,
			ActualOut: "35050000",
		}},
		journal: &stubJournal{},
		clock:   &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)},
	}

	opts := Options{
		Store:     h.store,
		Quotes:    h.quotes,
		Submitter: h.submitter,
		Signer:    &stubSigner{},
		Wallet:    testWallet,
		Policy:    domain.DefaultPolicyConfig(),
		Risk:      &stubRisk{report: &domain.RiskReport{Score: 100}},
		Prices:    &stubPrices{price: 142.57},
		Journal:   h.journal,
		Logger:    log.New(io.Discard, "", 0),
		Now:       h.clock.now,
	}
	if mutate != nil {
		mutate(&opts)
	}

	manager, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.manager = manager
	return h
}

// offCurveAddress returns a syntactically valid 32-byte address that is not
// an ed25519 point, like a PDA. Roughly half of all values qualify.
func offCurveAddress(t *testing.T) string {
	t.Helper()
	for b := byte(0); b < 255; b++ {
		addr := base58.Encode(bytes.Repeat([]byte{b}, 32))
		if solana.ValidateAddress(addr) == nil && solana.ValidateWalletAddress(addr) != nil {
			return addr
		}
	}
	t.Fatal("no off-curve address found")
	return ""
}

func TestNew_RejectsNonSigningWallet(t *testing.T) {
	base := Options{
		Store:     memory.NewIntentStore(),
		Quotes:    &stubQuotes{},
		Submitter: &stubSubmitter{},
		Signer:    &stubSigner{},
		Logger:    log.New(io.Discard, "", 0),
	}

	cases := []struct {
		name   string
		wallet string
	}{
		{"not base58", "WalletAddr111"},
		{"wrong length", base58.Encode([]byte{1, 2, 3})},
		{"off curve", offCurveAddress(t)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := base
			opts.Wallet = tc.wallet
			if _, err := New(opts); err == nil {
				t.Errorf("New accepted wallet %q", tc.wallet)
			}
		})
	}

	opts := base
	opts.Wallet = testWallet
	if _, err := New(opts); err != nil {
		t.Errorf("New rejected keypair wallet: %v", err)
	}
}

func TestCreateIntent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	if it.IntentID == "" {
		t.Error("expected a generated intent id")
	}
	if it.ExpiresAt.Sub(it.CreatedAt) != domain.DefaultIntentTTL {
		t.Errorf("expiry = %s after creation, want %s", it.ExpiresAt.Sub(it.CreatedAt), domain.DefaultIntentTTL)
	}
	if it.UnsignedTx != "dW5zaWduZWQ=" || it.RequestID != "req-1" {
		t.Error("intent must hold the quote's transaction and request id verbatim")
	}

	if h.quotes.lastReq.AmountRaw != 250000000 {
		t.Errorf("amount raw = %d, want 250000000", h.quotes.lastReq.AmountRaw)
	}
	if h.quotes.lastReq.Taker != testWallet {
		t.Errorf("taker = %s", h.quotes.lastReq.Taker)
	}

	stored, err := h.store.GetByID(ctx, it.IntentID)
	if err != nil {
		t.Fatalf("intent not persisted: %v", err)
	}
	if stored.Executed {
		t.Error("fresh intent must not be executed")
	}
}

func TestCreateIntent_InvalidInput(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		from, to string
		amount   string
		slippage int
	}{
		{"symbol instead of address", "SOL", domain.USDCMint, "0.25", 50},
		{"bad destination", domain.WrappedSOLMint, "not-a-mint", "0.25", 50},
		{"zero amount", domain.WrappedSOLMint, domain.USDCMint, "0", 50},
		{"negative-ish amount", domain.WrappedSOLMint, domain.USDCMint, "-1", 50},
		{"non-numeric amount", domain.WrappedSOLMint, domain.USDCMint, "all", 50},
		{"zero slippage", domain.WrappedSOLMint, domain.USDCMint, "0.25", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.manager.CreateIntent(ctx, tc.from, tc.to, tc.amount, tc.slippage)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if h.quotes.calls != 0 {
		t.Errorf("invalid input must be rejected before any quote call, got %d calls", h.quotes.calls)
	}
}

func TestCreateIntent_PolicyBlocked(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.manager.CreateIntent(context.Background(), domain.WrappedSOLMint, domain.USDCMint, "0.25", 150)

	var blocked *PolicyBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected PolicyBlockedError, got %v", err)
	}
	if len(blocked.Result.ChecksFailed) != 1 || blocked.Result.ChecksFailed[0] != "slippage" {
		t.Errorf("failed checks = %v, want [slippage]", blocked.Result.ChecksFailed)
	}
	found := false
	for _, label := range blocked.Result.ChecksPassed {
		if label == "trade_size" {
			found = true
		}
	}
	if !found {
		t.Errorf("passed checks %v must include trade_size", blocked.Result.ChecksPassed)
	}

	if h.quotes.calls != 0 {
		t.Error("blocked proposals must never reach the quote provider")
	}
	if pending, _ := h.store.ListPending(context.Background(), h.clock.now()); len(pending) != 0 {
		t.Error("blocked proposals must persist nothing")
	}
}

func TestCreateIntent_RiskGating(t *testing.T) {
	ctx := context.Background()

	// Unknown token with a clean report passes.
	h := newHarness(t, nil)
	if _, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, riskyMint, "0.25", 50); err != nil {
		t.Fatalf("clean report must pass, got %v", err)
	}

	// Unknown token whose report cannot be fetched is blocked.
	h = newHarness(t, func(o *Options) {
		o.Risk = &stubRisk{err: errors.New("rugcheck down")}
	})
	_, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, riskyMint, "0.25", 50)
	var blocked *PolicyBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected PolicyBlockedError, got %v", err)
	}

	// Known-safe destination skips the risk fetch entirely.
	h = newHarness(t, func(o *Options) {
		o.Risk = &stubRisk{err: errors.New("rugcheck down")}
	})
	if _, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50); err != nil {
		t.Fatalf("known-safe destination must not need a risk report, got %v", err)
	}
}

func TestCreateIntent_PriceUnavailablePassesOpen(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Prices = &stubPrices{err: errors.New("price api down")}
	})

	// 10 SOL would blow the $50 limit at any real price; with no price the
	// notional is zero and the size check passes open.
	if _, err := h.manager.CreateIntent(context.Background(), domain.WrappedSOLMint, domain.USDCMint, "10", 50); err != nil {
		t.Fatalf("expected pass-open on missing price, got %v", err)
	}
}

func TestConfirmIntent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	h.clock.advance(30 * time.Second)
	result, err := h.manager.ConfirmIntent(ctx, it.IntentID)
	if err != nil {
		t.Fatalf("ConfirmIntent failed: %v", err)
	}
	if !result.Landed || result.Signature != "sig-ok" || result.ActualOut != "35050000" {
		t.Errorf("unexpected result %+v", result)
	}

	stored, _ := h.store.GetByID(ctx, it.IntentID)
	if !stored.Executed || stored.Result == nil || !stored.Result.Landed {
		t.Error("confirmation must persist the executed flag and result")
	}

	if _, err := h.manager.ConfirmIntent(ctx, it.IntentID); !errors.Is(err, storage.ErrIntentAlreadyExecuted) {
		t.Errorf("second confirm must fail with ErrIntentAlreadyExecuted, got %v", err)
	}
	if h.submitter.calls != 1 {
		t.Errorf("expected exactly one submission, got %d", h.submitter.calls)
	}

	if len(h.journal.records) != 1 {
		t.Fatalf("expected one journal record, got %d", len(h.journal.records))
	}
	rec := h.journal.records[0]
	if rec.IntentID != it.IntentID || !rec.Landed || rec.ActualOut != "35050000" {
		t.Errorf("unexpected journal record %+v", rec)
	}
}

func TestConfirmIntent_Expired(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	h.clock.advance(121 * time.Second)
	if _, err := h.manager.ConfirmIntent(ctx, it.IntentID); !errors.Is(err, storage.ErrIntentExpired) {
		t.Errorf("expected ErrIntentExpired, got %v", err)
	}
	if h.submitter.calls != 0 {
		t.Error("expired intents must never be submitted")
	}
}

func TestConfirmIntent_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	if _, err := h.manager.ConfirmIntent(context.Background(), "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfirmIntent_SubmitErrorConsumesIntent(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Submitter = &stubSubmitter{err: errors.New("rpc unreachable")}
	})
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	_, err = h.manager.ConfirmIntent(ctx, it.IntentID)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if execErr.Stage != "submit" {
		t.Errorf("stage = %s, want submit", execErr.Stage)
	}

	// The claim is spent: no retry is possible.
	stored, _ := h.store.GetByID(ctx, it.IntentID)
	if !stored.Executed {
		t.Error("a failed submission must still consume the intent")
	}
	if stored.Result == nil || stored.Result.FailureReason == "" {
		t.Error("the failure must be recorded")
	}
	if _, err := h.manager.ConfirmIntent(ctx, it.IntentID); !errors.Is(err, storage.ErrIntentAlreadyExecuted) {
		t.Errorf("retry must fail with ErrIntentAlreadyExecuted, got %v", err)
	}
}

func TestConfirmIntent_SignErrorConsumesIntent(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Signer = &stubSigner{err: errors.New("wallet locked")}
	})
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	_, err = h.manager.ConfirmIntent(ctx, it.IntentID)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if execErr.Stage != "sign" {
		t.Errorf("stage = %s, want sign", execErr.Stage)
	}
	if h.submitter.calls != 0 {
		t.Error("nothing may be submitted when signing fails")
	}

	stored, _ := h.store.GetByID(ctx, it.IntentID)
	if !stored.Executed {
		t.Error("a signing failure after the claim still consumes the intent")
	}
}

func TestConfirmIntent_OnChainFailureIsResult(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Submitter = &stubSubmitter{result: &domain.SubmitResult{
			Signature:     "sig-fail",
			Landed:        false,
			FailureReason: "slippage tolerance exceeded",
		}}
	})
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	result, err := h.manager.ConfirmIntent(ctx, it.IntentID)
	if err != nil {
		t.Fatalf("an on-chain failure is a result, got error %v", err)
	}
	if result.Landed {
		t.Error("expected not landed")
	}
	if result.FailureReason != "slippage tolerance exceeded" {
		t.Errorf("failure reason = %q", result.FailureReason)
	}
}

func TestConfirmIntent_Concurrent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	it, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50)
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.manager.ConfirmIntent(ctx, it.IntentID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, storage.ErrIntentAlreadyExecuted):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("exactly one confirmation must win, got %d", won)
	}
	if lost != n-1 {
		t.Errorf("expected %d losers, got %d", n-1, lost)
	}
	if h.submitter.calls != 1 {
		t.Errorf("expected exactly one submission, got %d", h.submitter.calls)
	}
}

func TestSweepExpired(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.manager.CreateIntent(ctx, domain.WrappedSOLMint, domain.USDCMint, "0.25", 50); err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}

	h.clock.advance(121 * time.Second)
	deleted, err := h.manager.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	pending, err := h.manager.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending intents, got %d", len(pending))
	}
}
