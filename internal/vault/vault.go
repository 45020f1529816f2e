// Package vault stores the trading wallet encrypted at rest under a key
// derived from the local machine fingerprint. Moving the files to another
// host makes them undecryptable, which is the intended failure mode.
package vault

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/keyderive"
)

// EnvPrivateKey overrides the vault wallet when set. It takes priority over
// the encrypted file so operators can inject a key without touching disk.
const EnvPrivateKey = "SWAPGUARD_PRIVATE_KEY"

// On-disk layout inside the vault directory.
const (
	walletFile  = "wallet.enc"
	configFile  = "config.enc"
	saltFile    = "machine_key.json"
	backupDir   = "backups"
	dirPerm     = 0o700
	filePerm    = 0o600
	walletFmtV1 = 1
)

// Vault manages the encrypted wallet directory.
type Vault struct {
	dir         string
	fingerprint string
	iterations  int
	retention   int
	logger      *log.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithFingerprint overrides the machine fingerprint. Used in tests to
// simulate a foreign machine.
func WithFingerprint(fp string) Option {
	return func(v *Vault) { v.fingerprint = fp }
}

// WithIterations overrides the key-derivation iteration count.
func WithIterations(n int) Option {
	return func(v *Vault) { v.iterations = n }
}

// WithRetention overrides how many backups are kept.
func WithRetention(n int) Option {
	return func(v *Vault) { v.retention = n }
}

// WithLogger sets the vault logger.
func WithLogger(l *log.Logger) Option {
	return func(v *Vault) { v.logger = l }
}

// New creates a vault rooted at dir. The directory is created on first use.
func New(dir string, opts ...Option) *Vault {
	v := &Vault{
		dir:         dir,
		fingerprint: keyderive.Fingerprint(),
		iterations:  keyderive.DefaultIterations,
		retention:   domain.DefaultBackupRetention,
		logger:      log.New(os.Stderr, "[vault] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DefaultDir returns ~/.swapguard, falling back to a relative directory
// when the home directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".swapguard"
	}
	return filepath.Join(home, ".swapguard")
}

// Dir returns the vault root directory.
func (v *Vault) Dir() string { return v.dir }

func (v *Vault) walletPath() string { return filepath.Join(v.dir, walletFile) }
func (v *Vault) configPath() string { return filepath.Join(v.dir, configFile) }
func (v *Vault) saltPath() string   { return filepath.Join(v.dir, saltFile) }
func (v *Vault) backupPath() string { return filepath.Join(v.dir, backupDir) }

// Create generates a fresh ed25519 wallet and stores it encrypted. The
// returned record carries the plaintext private key; this is the only time
// it leaves the vault, so the caller must show it to the operator for manual
// backup. Any existing wallet is snapshotted to backups/ first.
func (v *Vault) Create() (*domain.WalletRecord, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	record := &domain.WalletRecord{
		PrivateKey: base58.Encode(priv),
		Address:    base58.Encode(pub),
		Version:    walletFmtV1,
	}

	if err := v.installWallet(record); err != nil {
		return nil, err
	}
	v.logger.Printf("created wallet %s", record.Address)
	return record, nil
}

// ImportKey validates an externally supplied base58 private key and installs
// it as the vault wallet, backing up any existing wallet first.
func (v *Vault) ImportKey(privateKey string) (*domain.WalletRecord, error) {
	address, err := addressFromPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	record := &domain.WalletRecord{
		PrivateKey: privateKey,
		Address:    address,
		Version:    walletFmtV1,
	}

	if err := v.installWallet(record); err != nil {
		return nil, err
	}
	v.logger.Printf("imported wallet %s", record.Address)
	return record, nil
}

// installWallet backs up any current wallet, then encrypts and writes the
// new record and stamps CreatedAt in the user config.
func (v *Vault) installWallet(record *domain.WalletRecord) error {
	if err := os.MkdirAll(v.dir, dirPerm); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	if _, err := os.Stat(v.walletPath()); err == nil {
		if _, err := v.BackupBeforeOverwrite(); err != nil {
			return fmt.Errorf("backup existing wallet: %w", err)
		}
	}

	plaintext, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	ciphertext, err := v.seal(plaintext)
	if err != nil {
		return err
	}
	if err := os.WriteFile(v.walletPath(), ciphertext, filePerm); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}

	now := time.Now().UTC()
	if err := v.updateConfig(func(cfg *UserConfig) {
		cfg.WalletCreatedAt = &now
	}); err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return nil
}

// Load decrypts and returns the stored wallet. ErrWalletNotFound when no
// wallet file exists, ErrDecryptionFailed when the ciphertext does not
// authenticate under this machine's key.
func (v *Vault) Load() (*domain.WalletRecord, error) {
	ciphertext, err := os.ReadFile(v.walletPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}

	plaintext, err := v.open(ciphertext)
	if err != nil {
		return nil, err
	}

	var record domain.WalletRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, fmt.Errorf("%w: malformed wallet payload", ErrDecryptionFailed)
	}
	return &record, nil
}

// Export decrypts the wallet for a manual backup and stamps LastExportedAt.
func (v *Vault) Export() (*domain.WalletRecord, error) {
	record, err := v.Load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := v.updateConfig(func(cfg *UserConfig) {
		cfg.LastExportedAt = &now
	}); err != nil {
		v.logger.Printf("warning: failed to record export time: %v", err)
	}
	return record, nil
}

// ActiveWallet resolves the signing wallet: the environment key when set,
// otherwise the encrypted file. A mismatch between the env key and the
// stored wallet is logged as a warning, not an error.
func (v *Vault) ActiveWallet() (*domain.WalletRecord, error) {
	envKey := os.Getenv(EnvPrivateKey)
	if envKey == "" {
		return v.Load()
	}

	address, err := addressFromPrivateKey(envKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvPrivateKey, err)
	}

	if stored, loadErr := v.Load(); loadErr == nil && stored.Address != address {
		v.logger.Printf("warning: %s address %s differs from vault wallet %s",
			EnvPrivateKey, address, stored.Address)
	}

	return &domain.WalletRecord{
		PrivateKey: envKey,
		Address:    address,
		Version:    walletFmtV1,
	}, nil
}

// addressFromPrivateKey validates a base58 64-byte ed25519 key (seed
// followed by public key) and returns the base58 address.
func addressFromPrivateKey(privateKey string) (string, error) {
	raw, err := base58.Decode(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: not base58", ErrInvalidKey)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(raw))
	}

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if subtle.ConstantTimeCompare(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) != 1 {
		return "", fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}
	return base58.Encode(raw[ed25519.SeedSize:]), nil
}
