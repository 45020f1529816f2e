package domain

// PolicyConfig holds the trade limits every proposed swap is checked against.
// It is always passed explicitly; nothing reads process-wide state.
type PolicyConfig struct {
	MaxSlippageBps        int      // reject above this slippage tolerance
	MaxTradeUSD           float64  // reject above this USD notional
	MinAcceptableScore    int      // reject risk scores above this (lower = safer)
	RequireMintDisabled   bool     // reject if mint authority still active
	RequireFreezeDisabled bool     // reject if freeze authority still active
	DenyMints             []string // blocked mints, either side
	AllowMints            []string // if non-empty, destination whitelist
}

// DefaultPolicyConfig returns the safe defaults: 1% slippage, $50 per trade,
// risk score 2000, both authority checks on, no mint lists.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MaxSlippageBps:        100,
		MaxTradeUSD:           50.0,
		MinAcceptableScore:    2000,
		RequireMintDisabled:   true,
		RequireFreezeDisabled: true,
	}
}

// PolicyResult is the complete verdict of a policy evaluation.
// Every check is always evaluated; the lists itemize the full report.
type PolicyResult struct {
	Allowed      bool
	Reason       string   // primary failure detail, empty when allowed
	ChecksPassed []string // ordered check labels
	ChecksFailed []string // ordered check labels
}

// RiskReport is the validated shape of a safety-analysis response for a mint.
// Score direction follows the scoring service convention: lower is safer.
type RiskReport struct {
	Score                 int
	MintAuthorityActive   bool
	FreezeAuthorityActive bool
}
