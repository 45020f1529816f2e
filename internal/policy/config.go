package policy

import (
	"os"
	"strconv"
	"strings"

	"solana-swap-guard/internal/domain"
)

// ConfigFromEnv builds a PolicyConfig from POLICY_* environment variables,
// falling back to the defaults for anything unset or unparseable.
//
//	POLICY_MAX_SLIPPAGE_BPS        int
//	POLICY_MAX_TRADE_USD           float
//	POLICY_MIN_RISK_SCORE          int
//	POLICY_REQUIRE_MINT_DISABLED   bool
//	POLICY_REQUIRE_FREEZE_DISABLED bool
//	POLICY_DENY_MINTS              comma-separated mint addresses
//	POLICY_ALLOW_MINTS             comma-separated mint addresses
func ConfigFromEnv() domain.PolicyConfig {
	cfg := domain.DefaultPolicyConfig()

	cfg.MaxSlippageBps = envInt("POLICY_MAX_SLIPPAGE_BPS", cfg.MaxSlippageBps)
	cfg.MaxTradeUSD = envFloat("POLICY_MAX_TRADE_USD", cfg.MaxTradeUSD)
	cfg.MinAcceptableScore = envInt("POLICY_MIN_RISK_SCORE", cfg.MinAcceptableScore)
	cfg.RequireMintDisabled = envBool("POLICY_REQUIRE_MINT_DISABLED", cfg.RequireMintDisabled)
	cfg.RequireFreezeDisabled = envBool("POLICY_REQUIRE_FREEZE_DISABLED", cfg.RequireFreezeDisabled)
	cfg.DenyMints = envMintList("POLICY_DENY_MINTS")
	cfg.AllowMints = envMintList("POLICY_ALLOW_MINTS")

	return cfg
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envMintList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var mints []string
	for _, part := range strings.Split(v, ",") {
		if mint := strings.TrimSpace(part); mint != "" {
			mints = append(mints, mint)
		}
	}
	return mints
}
