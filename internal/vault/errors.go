package vault

import "errors"

// Sentinel errors for vault operations. Callers match with errors.Is.
var (
	// ErrWalletNotFound indicates no encrypted wallet exists in the vault.
	ErrWalletNotFound = errors.New("vault: wallet not found")

	// ErrDecryptionFailed indicates the ciphertext failed authentication.
	// Either the file was moved to a different machine or it is corrupt.
	ErrDecryptionFailed = errors.New("vault: decryption failed")

	// ErrInvalidKey indicates a supplied private key is malformed.
	ErrInvalidKey = errors.New("vault: invalid private key")

	// ErrBackupNotFound indicates no backup exists for the given timestamp.
	ErrBackupNotFound = errors.New("vault: backup not found")
)
