package domain

// Well-known mint addresses.
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// KnownSafeMints is the hand-maintained set of pre-vetted tokens that skip
// the risk check and auto-satisfy the allowlist. An explicit trust escape
// hatch, not derived from any external service.
var KnownSafeMints = map[string]struct{}{
	WrappedSOLMint: {}, // SOL (wrapped)
	USDCMint:       {}, // USDC
	USDTMint:       {}, // USDT
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  {}, // mSOL
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj": {}, // stSOL
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {}, // BONK
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {}, // JUP
}

// IsKnownSafeMint reports whether a mint is in the known safe set.
func IsKnownSafeMint(mint string) bool {
	_, ok := KnownSafeMints[mint]
	return ok
}

// tokenDecimals maps common mints to their decimal places.
var tokenDecimals = map[string]int{
	WrappedSOLMint: 9,
	USDCMint:       6,
	USDTMint:       6,
}

// DefaultDecimals is assumed for mints not in the table.
const DefaultDecimals = 9

// TokenDecimals returns the decimal places for a mint, DefaultDecimals if unknown.
func TokenDecimals(mint string) int {
	if d, ok := tokenDecimals[mint]; ok {
		return d
	}
	return DefaultDecimals
}
