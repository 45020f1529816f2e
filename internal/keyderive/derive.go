// Package keyderive derives the machine-bound symmetric key that protects
// the wallet vault. Same fingerprint + salt always yields the same key; a
// different machine yields a different key, which is what makes encrypted
// wallet files non-portable.
package keyderive

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Derivation parameters.
const (
	// DefaultIterations is the PBKDF2 iteration count. Deliberately slow.
	DefaultIterations = 100_000

	// KeyLength is the derived symmetric key size in bytes.
	KeyLength = 32

	// SaltLength is the per-install random salt size in bytes.
	SaltLength = 32
)

// Derive computes a symmetric key from a machine fingerprint and salt using
// PBKDF2-SHA256.
func Derive(fingerprint string, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(fingerprint), salt, iterations, KeyLength, sha256.New)
}
