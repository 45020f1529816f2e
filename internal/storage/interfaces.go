package storage

import (
	"context"
	"time"

	"solana-swap-guard/internal/domain"
)

// IntentStore provides access to swap intent storage.
//
// TryClaim is the single synchronization point for confirmation: it must
// check the TTL and the executed flag and flip the flag as one atomic unit,
// so that at most one of several concurrent confirmations for the same id
// proceeds to signing.
type IntentStore interface {
	// Put adds a new intent. Returns ErrDuplicateKey if intent_id exists.
	Put(ctx context.Context, intent *domain.SwapIntent) error

	// TryClaim atomically marks an intent executed and returns its pre-claim
	// snapshot. Returns ErrNotFound if no such intent, ErrIntentExpired if
	// now is at or past ExpiresAt, ErrIntentAlreadyExecuted if the flag was
	// already set. Exactly one of N concurrent claims for one id succeeds.
	TryClaim(ctx context.Context, intentID string, now time.Time) (*domain.SwapIntent, error)

	// RecordResult attaches the execution outcome to a claimed intent.
	// It never alters the executed flag. Returns ErrNotFound if no such intent.
	RecordResult(ctx context.Context, intentID string, result *domain.ExecutionResult) error

	// GetByID retrieves an intent by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, intentID string) (*domain.SwapIntent, error)

	// ListPending retrieves non-expired, non-executed intents, newest first.
	ListPending(ctx context.Context, now time.Time) ([]*domain.SwapIntent, error)

	// DeleteExpired prunes unexecuted intents whose expiry is at or before
	// cutoff. Executed intents are history and are never removed here.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExecutionJournal records terminal confirmation outcomes for audit and
// analytics. Best-effort: callers must not fail a trade on journal errors.
type ExecutionJournal interface {
	// Append writes one execution record. Duplicate intent ids are allowed
	// only in the sense that the journal is append-only; the manager writes
	// each intent at most once.
	Append(ctx context.Context, rec *ExecutionRecord) error

	// RecentFailures returns the failure reasons of the most recent
	// non-landed executions, newest first. Diagnostic surface only.
	RecentFailures(ctx context.Context, limit int) ([]string, error)
}

// ExecutionRecord is one journaled confirmation outcome.
type ExecutionRecord struct {
	IntentID      string
	FromMint      string
	ToMint        string
	Amount        string
	OutAmountEst  string
	ActualOut     string
	Signature     string
	Landed        bool
	FailureReason string
	ClaimedAt     time.Time
	CompletedAt   time.Time
}
