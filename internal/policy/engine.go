// Package policy evaluates proposed swaps against configured trade limits.
// Evaluation is pure: no I/O, no process-global state, config passed in.
package policy

import (
	"fmt"
	"strings"

	"solana-swap-guard/internal/domain"
)

// Check labels, in evaluation order.
const (
	CheckSlippage        = "slippage"
	CheckTradeSize       = "trade_size"
	CheckDenyList        = "deny_list"
	CheckAllowList       = "allow_list"
	CheckRiskReport      = "risk_report"
	CheckRiskScore       = "risk_score"
	CheckMintAuthority   = "mint_authority"
	CheckFreezeAuthority = "freeze_authority"
)

// TradeInput is everything a policy decision needs about one proposed swap.
// Risk is nil when no risk report was fetched for the destination mint.
type TradeInput struct {
	FromMint    string
	ToMint      string
	AmountUSD   float64
	SlippageBps int
	Risk        *domain.RiskReport
}

// checkResult is one evaluated check.
type checkResult struct {
	label  string
	pass   bool
	detail string
}

// Engine evaluates trade inputs against a policy config.
type Engine struct{}

// NewEngine creates a policy engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs every check and returns the full verdict. All checks are
// always evaluated; nothing short-circuits, so the caller sees the complete
// pass/fail report even for a rejected trade.
func (e *Engine) Evaluate(in TradeInput, cfg domain.PolicyConfig) *domain.PolicyResult {
	checks := []checkResult{
		e.checkSlippage(in, cfg),
		e.checkTradeSize(in, cfg),
		e.checkDenyList(in, cfg),
		e.checkAllowList(in, cfg),
	}

	// Well-known mints skip the risk checks entirely. Everything else needs
	// a risk report and must clear score and authority limits.
	if !domain.IsKnownSafeMint(in.ToMint) {
		checks = append(checks,
			e.checkRiskReport(in),
			e.checkRiskScore(in, cfg),
			e.checkMintAuthority(in, cfg),
			e.checkFreezeAuthority(in, cfg),
		)
	}

	result := &domain.PolicyResult{Allowed: true}
	var reasons []string
	for _, c := range checks {
		if c.pass {
			result.ChecksPassed = append(result.ChecksPassed, c.label)
			continue
		}
		result.Allowed = false
		result.ChecksFailed = append(result.ChecksFailed, c.label)
		reasons = append(reasons, c.detail)
	}
	result.Reason = strings.Join(reasons, "; ")
	return result
}

func (e *Engine) checkSlippage(in TradeInput, cfg domain.PolicyConfig) checkResult {
	return checkResult{
		label:  CheckSlippage,
		pass:   in.SlippageBps <= cfg.MaxSlippageBps,
		detail: fmt.Sprintf("slippage %d bps exceeds limit %d bps", in.SlippageBps, cfg.MaxSlippageBps),
	}
}

func (e *Engine) checkTradeSize(in TradeInput, cfg domain.PolicyConfig) checkResult {
	return checkResult{
		label:  CheckTradeSize,
		pass:   in.AmountUSD <= cfg.MaxTradeUSD,
		detail: fmt.Sprintf("trade size $%.2f exceeds limit $%.2f", in.AmountUSD, cfg.MaxTradeUSD),
	}
}

func (e *Engine) checkDenyList(in TradeInput, cfg domain.PolicyConfig) checkResult {
	for _, mint := range cfg.DenyMints {
		if mint == in.FromMint || mint == in.ToMint {
			return checkResult{
				label:  CheckDenyList,
				pass:   false,
				detail: fmt.Sprintf("mint %s is deny-listed", mint),
			}
		}
	}
	return checkResult{label: CheckDenyList, pass: true}
}

// checkAllowList restricts the destination mint when an allow list is set.
// The source mint is not restricted; selling out of a position must always
// be possible. Known-safe mints satisfy the list implicitly.
func (e *Engine) checkAllowList(in TradeInput, cfg domain.PolicyConfig) checkResult {
	if len(cfg.AllowMints) == 0 {
		return checkResult{label: CheckAllowList, pass: true}
	}
	if domain.IsKnownSafeMint(in.ToMint) {
		return checkResult{label: CheckAllowList, pass: true}
	}
	for _, mint := range cfg.AllowMints {
		if mint == in.ToMint {
			return checkResult{label: CheckAllowList, pass: true}
		}
	}
	return checkResult{
		label:  CheckAllowList,
		pass:   false,
		detail: fmt.Sprintf("mint %s is not on the allow list", in.ToMint),
	}
}

func (e *Engine) checkRiskReport(in TradeInput) checkResult {
	return checkResult{
		label:  CheckRiskReport,
		pass:   in.Risk != nil,
		detail: fmt.Sprintf("no risk report available for mint %s", in.ToMint),
	}
}

func (e *Engine) checkRiskScore(in TradeInput, cfg domain.PolicyConfig) checkResult {
	if in.Risk == nil {
		return checkResult{
			label:  CheckRiskScore,
			pass:   false,
			detail: "risk score unknown",
		}
	}
	return checkResult{
		label:  CheckRiskScore,
		pass:   in.Risk.Score <= cfg.MinAcceptableScore,
		detail: fmt.Sprintf("risk score %d exceeds limit %d", in.Risk.Score, cfg.MinAcceptableScore),
	}
}

func (e *Engine) checkMintAuthority(in TradeInput, cfg domain.PolicyConfig) checkResult {
	if !cfg.RequireMintDisabled {
		return checkResult{label: CheckMintAuthority, pass: true}
	}
	if in.Risk == nil {
		return checkResult{
			label:  CheckMintAuthority,
			pass:   false,
			detail: "mint authority state unknown",
		}
	}
	return checkResult{
		label:  CheckMintAuthority,
		pass:   !in.Risk.MintAuthorityActive,
		detail: fmt.Sprintf("mint authority still active on %s", in.ToMint),
	}
}

func (e *Engine) checkFreezeAuthority(in TradeInput, cfg domain.PolicyConfig) checkResult {
	if !cfg.RequireFreezeDisabled {
		return checkResult{label: CheckFreezeAuthority, pass: true}
	}
	if in.Risk == nil {
		return checkResult{
			label:  CheckFreezeAuthority,
			pass:   false,
			detail: "freeze authority state unknown",
		}
	}
	return checkResult{
		label:  CheckFreezeAuthority,
		pass:   !in.Risk.FreezeAuthorityActive,
		detail: fmt.Sprintf("freeze authority still active on %s", in.ToMint),
	}
}
