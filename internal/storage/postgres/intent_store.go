package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/storage"
)

// IntentStore implements storage.IntentStore using PostgreSQL.
// The claim relies on a single conditional UPDATE so the TTL check, the
// executed check, and the flag flip are one atomic statement.
type IntentStore struct {
	pool *Pool
}

// NewIntentStore creates a new IntentStore.
func NewIntentStore(pool *Pool) *IntentStore {
	return &IntentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)

const intentColumns = `
	intent_id, from_mint, to_mint, amount, slippage_bps, out_amount_est,
	unsigned_tx, request_id, created_at, expires_at, executed,
	result_signature, result_landed, result_actual_out, result_failure, result_completed_at
`

// Put adds a new intent. Returns ErrDuplicateKey if intent_id exists.
func (s *IntentStore) Put(ctx context.Context, intent *domain.SwapIntent) error {
	if intent == nil || intent.IntentID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO intents (
			intent_id, from_mint, to_mint, amount, slippage_bps, out_amount_est,
			unsigned_tx, request_id, created_at, expires_at, executed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
	`

	_, err := s.pool.Exec(ctx, query,
		intent.IntentID,
		intent.FromMint,
		intent.ToMint,
		intent.Amount,
		intent.SlippageBps,
		intent.OutAmountEst,
		intent.UnsignedTx,
		intent.RequestID,
		intent.CreatedAt,
		intent.ExpiresAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert intent: %w", err)
	}
	return nil
}

// TryClaim atomically marks an intent executed and returns its pre-claim
// snapshot. A missed update is classified with a follow-up read: the flag
// never reverts and expiry never moves, so the classification is stable.
func (s *IntentStore) TryClaim(ctx context.Context, intentID string, now time.Time) (*domain.SwapIntent, error) {
	query := `
		UPDATE intents
		SET executed = TRUE
		WHERE intent_id = $1 AND executed = FALSE AND expires_at > $2
		RETURNING intent_id, from_mint, to_mint, amount, slippage_bps, out_amount_est,
			unsigned_tx, request_id, created_at, expires_at
	`

	var intent domain.SwapIntent
	err := s.pool.QueryRow(ctx, query, intentID, now).Scan(
		&intent.IntentID,
		&intent.FromMint,
		&intent.ToMint,
		&intent.Amount,
		&intent.SlippageBps,
		&intent.OutAmountEst,
		&intent.UnsignedTx,
		&intent.RequestID,
		&intent.CreatedAt,
		&intent.ExpiresAt,
	)
	if err == nil {
		// Snapshot reflects the pre-claim state.
		intent.Executed = false
		return &intent, nil
	}
	if !isNotFoundError(err) {
		return nil, fmt.Errorf("claim intent: %w", err)
	}

	// The update matched nothing: missing, expired, or already executed.
	var executed bool
	var expiresAt time.Time
	err = s.pool.QueryRow(ctx,
		`SELECT executed, expires_at FROM intents WHERE intent_id = $1`,
		intentID,
	).Scan(&executed, &expiresAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("classify claim miss: %w", err)
	}

	if !now.Before(expiresAt) {
		return nil, storage.ErrIntentExpired
	}
	if executed {
		return nil, storage.ErrIntentAlreadyExecuted
	}
	return nil, fmt.Errorf("claim intent %s: update matched no rows", intentID)
}

// RecordResult attaches the execution outcome. Never alters the executed flag.
func (s *IntentStore) RecordResult(ctx context.Context, intentID string, result *domain.ExecutionResult) error {
	if result == nil {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE intents
		SET result_signature = $2, result_landed = $3, result_actual_out = $4,
			result_failure = $5, result_completed_at = $6
		WHERE intent_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		intentID,
		result.Signature,
		result.Landed,
		result.ActualOut,
		result.FailureReason,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves an intent by id. Returns ErrNotFound if not exists.
func (s *IntentStore) GetByID(ctx context.Context, intentID string) (*domain.SwapIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM intents WHERE intent_id = $1`

	intent, err := scanIntent(s.pool.QueryRow(ctx, query, intentID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get intent by id: %w", err)
	}
	return intent, nil
}

// ListPending retrieves non-expired, non-executed intents, newest first.
func (s *IntentStore) ListPending(ctx context.Context, now time.Time) ([]*domain.SwapIntent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM intents
		WHERE executed = FALSE AND expires_at > $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list pending intents: %w", err)
	}
	defer rows.Close()

	var intents []*domain.SwapIntent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intent row: %w", err)
		}
		intents = append(intents, intent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intent rows: %w", err)
	}

	return intents, nil
}

// DeleteExpired prunes expired unexecuted intents. Executed rows are history.
func (s *IntentStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM intents WHERE executed = FALSE AND expires_at <= $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired intents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanIntent scans one full intent row including nullable result columns.
func scanIntent(row pgx.Row) (*domain.SwapIntent, error) {
	var intent domain.SwapIntent
	var sig, actualOut, failure *string
	var landed *bool
	var completedAt *time.Time

	err := row.Scan(
		&intent.IntentID,
		&intent.FromMint,
		&intent.ToMint,
		&intent.Amount,
		&intent.SlippageBps,
		&intent.OutAmountEst,
		&intent.UnsignedTx,
		&intent.RequestID,
		&intent.CreatedAt,
		&intent.ExpiresAt,
		&intent.Executed,
		&sig,
		&landed,
		&actualOut,
		&failure,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt != nil {
		result := &domain.ExecutionResult{CompletedAt: *completedAt}
		if sig != nil {
			result.Signature = *sig
		}
		if landed != nil {
			result.Landed = *landed
		}
		if actualOut != nil {
			result.ActualOut = *actualOut
		}
		if failure != nil {
			result.FailureReason = *failure
		}
		intent.Result = result
	}

	return &intent, nil
}
