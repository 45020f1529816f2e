package intent

import (
	"fmt"
	"strings"
)

// toRawAmount converts an exact decimal string to atomic units without
// going through floating point. "0.25" with 9 decimals is 250000000.
func toRawAmount(amount string, decimals int) (uint64, error) {
	intPart, fracPart, _ := strings.Cut(amount, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, fmt.Errorf("amount %q is not a decimal number", amount)
	}
	if len(fracPart) > decimals {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	fracPart += strings.Repeat("0", decimals-len(fracPart))

	var raw uint64
	for _, digit := range intPart + fracPart {
		d := uint64(digit - '0')
		if raw > (^uint64(0)-d)/10 {
			return 0, fmt.Errorf("amount %q overflows", amount)
		}
		raw = raw*10 + d
	}
	if raw == 0 {
		return 0, fmt.Errorf("amount %q is not positive", amount)
	}
	return raw, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
