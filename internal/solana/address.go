// Package solana holds the chain-facing primitives: address validation,
// transaction signing, JSON-RPC submission, and WebSocket confirmation.
package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the raw byte length of a Solana public key.
const AddressLength = 32

// ValidateAddress checks that addr is a base58 32-byte value. Token
// symbols, truncated addresses, and arbitrary strings all fail here.
// Program-derived addresses pass; use ValidateWalletAddress when the
// address must correspond to a signing keypair.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("address %q is not base58: %w", addr, err)
	}
	if len(raw) != AddressLength {
		return fmt.Errorf("address %q decodes to %d bytes, want %d", addr, len(raw), AddressLength)
	}
	return nil
}

// ValidateWalletAddress additionally requires the bytes to decode to a
// point on the ed25519 curve. Keypair public keys are always on-curve;
// program-derived addresses never are, and cannot sign.
func ValidateWalletAddress(addr string) error {
	if err := ValidateAddress(addr); err != nil {
		return err
	}
	raw, _ := base58.Decode(addr)
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("address %q is not on the ed25519 curve", addr)
	}
	return nil
}

// IsValidAddress reports whether addr passes ValidateAddress.
func IsValidAddress(addr string) bool {
	return ValidateAddress(addr) == nil
}
