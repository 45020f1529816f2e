package intent

import (
	"errors"
	"fmt"

	"solana-swap-guard/internal/domain"
)

// ErrInvalidInput indicates a proposal that was rejected before any
// external call: a token symbol where an address is required, a malformed
// amount, or a non-positive slippage.
var ErrInvalidInput = errors.New("intent: invalid input")

// PolicyBlockedError carries the itemized policy verdict for a denied
// proposal. Nothing is persisted when this is returned.
type PolicyBlockedError struct {
	Result *domain.PolicyResult
}

func (e *PolicyBlockedError) Error() string {
	return fmt.Sprintf("intent: blocked by policy: %s", e.Result.Reason)
}

// ExecutionError reports a failure after an intent was claimed. The intent
// stays consumed; the failure is recorded, never retried.
type ExecutionError struct {
	IntentID string
	Stage    string // "sign" or "submit"
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("intent %s: %s failed: %v", e.IntentID, e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
