package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"solana-swap-guard/internal/keyderive"
)

// saltRecord is the persisted key-derivation material. The salt is random
// per install; the fingerprint component never touches disk.
type saltRecord struct {
	Salt       string    `json:"salt"` // base64
	Iterations int       `json:"iterations"`
	CreatedAt  time.Time `json:"created_at"`
}

// loadOrCreateSalt reads the persisted salt, generating one on first use.
func (v *Vault) loadOrCreateSalt() ([]byte, error) {
	data, err := os.ReadFile(v.saltPath())
	if err == nil {
		var rec saltRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse salt file: %w", err)
		}
		salt, err := base64.StdEncoding.DecodeString(rec.Salt)
		if err != nil || len(salt) != keyderive.SaltLength {
			return nil, fmt.Errorf("salt file corrupt")
		}
		if rec.Iterations > 0 {
			v.iterations = rec.Iterations
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read salt file: %w", err)
	}

	salt := make([]byte, keyderive.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	rec := saltRecord{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Iterations: v.iterations,
		CreatedAt:  time.Now().UTC(),
	}
	data, err = json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal salt record: %w", err)
	}
	if err := os.MkdirAll(v.dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.WriteFile(v.saltPath(), data, filePerm); err != nil {
		return nil, fmt.Errorf("write salt file: %w", err)
	}
	return salt, nil
}

// derivedKey returns the machine-bound symmetric key.
func (v *Vault) derivedKey() ([]byte, error) {
	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}
	return keyderive.Derive(v.fingerprint, salt, v.iterations), nil
}

// seal encrypts plaintext with ChaCha20-Poly1305, random nonce prefixed.
func (v *Vault) seal(plaintext []byte) ([]byte, error) {
	key, err := v.derivedKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts nonce-prefixed ciphertext. Authentication failure maps to
// ErrDecryptionFailed.
func (v *Vault) open(ciphertext []byte) ([]byte, error) {
	key, err := v.derivedKey()
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	if len(ciphertext) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}
	nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
