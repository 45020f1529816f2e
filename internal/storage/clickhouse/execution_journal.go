package clickhouse

import (
	"context"
	"fmt"

	"solana-swap-guard/internal/storage"
)

// ExecutionJournal implements storage.ExecutionJournal using ClickHouse.
// Append-only audit trail of confirmation outcomes; never on the trade path's
// critical section.
type ExecutionJournal struct {
	conn *Conn
}

// NewExecutionJournal creates a new ExecutionJournal.
func NewExecutionJournal(conn *Conn) *ExecutionJournal {
	return &ExecutionJournal{conn: conn}
}

// Compile-time interface check.
var _ storage.ExecutionJournal = (*ExecutionJournal)(nil)

// Append writes one execution record.
func (j *ExecutionJournal) Append(ctx context.Context, rec *storage.ExecutionRecord) error {
	if rec == nil || rec.IntentID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO intent_executions (
			intent_id, from_mint, to_mint, amount, out_amount_est, actual_out,
			signature, landed, failure_reason, claimed_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := j.conn.Exec(ctx, query,
		rec.IntentID,
		rec.FromMint,
		rec.ToMint,
		rec.Amount,
		rec.OutAmountEst,
		rec.ActualOut,
		rec.Signature,
		rec.Landed,
		rec.FailureReason,
		rec.ClaimedAt,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("append execution record: %w", err)
	}
	return nil
}

// RecentFailures returns the failure reasons of the most recent non-landed
// executions, newest first. Diagnostic surface only.
func (j *ExecutionJournal) RecentFailures(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT failure_reason
		FROM intent_executions
		WHERE landed = false AND failure_reason != ''
		ORDER BY completed_at DESC
		LIMIT ?
	`

	rows, err := j.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent failures: %w", err)
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason string
		if err := rows.Scan(&reason); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		reasons = append(reasons, reason)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure rows: %w", err)
	}

	return reasons, nil
}
