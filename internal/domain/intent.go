package domain

import "time"

// DefaultIntentTTL bounds how long a quoted intent stays confirmable.
// Crypto prices move fast; a stale quote must not execute.
const DefaultIntentTTL = 120 * time.Second

// SwapIntent is one proposed, policy-approved swap.
// Corresponds to intents table in PostgreSQL.
type SwapIntent struct {
	IntentID     string    // UUID primary key
	FromMint     string    // mint address of token sold
	ToMint       string    // mint address of token bought
	Amount       string    // exact decimal string in token units, never float
	SlippageBps  int       // slippage tolerance in basis points
	OutAmountEst string    // estimated output amount in token units
	UnsignedTx   string    // base64 unsigned transaction, held verbatim from the quote
	RequestID    string    // aggregator request id required for execution
	CreatedAt    time.Time
	ExpiresAt    time.Time // CreatedAt + TTL, fixed at creation, never extended
	Executed     bool      // transitions false -> true exactly once

	// Result is attached after the claimed intent was signed and submitted.
	// Nil until then. An intent with Executed=true is terminal regardless of
	// Result.Landed.
	Result *ExecutionResult
}

// ExecutionResult records the terminal outcome of a confirmed intent.
type ExecutionResult struct {
	Signature     string // transaction signature, may be empty on pre-submit failure
	Landed        bool   // true if the transaction landed successfully on chain
	ActualOut     string // realized output amount in token units, empty unless landed
	FailureReason string // empty unless the execution failed
	CompletedAt   time.Time
}

// TimeRemaining returns seconds until expiry, zero if already expired.
func (i *SwapIntent) TimeRemaining(now time.Time) int {
	remaining := i.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}
