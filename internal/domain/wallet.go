package domain

import "time"

// WalletRecord is the decrypted form of the vault's active signing key.
// Only the vault ever sees the on-disk representation.
type WalletRecord struct {
	PrivateKey string // base58-encoded 64-byte ed25519 key (seed || pubkey)
	Address    string // base58 public key, stored openly alongside ciphertext
	Version    int
}

// BackupSnapshot describes one immutable timestamped copy of a prior
// wallet record. The vault retains the most recent N, oldest pruned first.
type BackupSnapshot struct {
	Timestamp string // YYYYMMDD_HHMMSS
	Address   string // recorded at snapshot time, empty if sidecar missing
	Path      string
}

// DefaultBackupRetention is how many wallet backups are kept.
const DefaultBackupRetention = 10

// VaultDiagnosis is the read-only health report of the wallet vault.
type VaultDiagnosis struct {
	SaltPresent      bool
	SaltValid        bool
	WalletPresent    bool
	WalletDecrypts   bool
	WalletAddress    string
	BackupCount      int
	RecentBackups    []BackupSnapshot // newest first, capped
	EnvKeyConfigured bool
	EnvKeyAddress    string
	Issues           []string
	Health           string // "ok" | "warning" | "error"
}

// BackupStatus drives the backup-reminder logic.
type BackupStatus struct {
	WalletCreatedAt  *time.Time
	LastExportedAt   *time.Time
	DaysSinceCreated int
	DaysSinceExport  int
	NeedsReminder    bool
}
