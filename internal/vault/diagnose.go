package vault

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"solana-swap-guard/internal/domain"
	"solana-swap-guard/internal/keyderive"
)

// Health levels reported by Diagnose.
const (
	HealthOK      = "ok"
	HealthWarning = "warning"
	HealthError   = "error"
)

// diagnoseRecentBackups caps the backup entries included in a diagnosis.
const diagnoseRecentBackups = 3

// exportReminderDays is how long an unexported wallet may sit before the
// backup reminder fires.
const exportReminderDays = 7

// Diagnose inspects the vault without mutating anything and reports what a
// support operator needs: which files exist, whether they decrypt on this
// machine, and how the env key relates to the stored wallet.
func (v *Vault) Diagnose() *domain.VaultDiagnosis {
	d := &domain.VaultDiagnosis{Health: HealthOK}

	v.diagnoseSalt(d)
	v.diagnoseWallet(d)
	v.diagnoseBackups(d)
	v.diagnoseEnvKey(d)

	return d
}

func (v *Vault) diagnoseSalt(d *domain.VaultDiagnosis) {
	data, err := os.ReadFile(v.saltPath())
	if err != nil {
		if !os.IsNotExist(err) {
			d.Issues = append(d.Issues, fmt.Sprintf("salt file unreadable: %v", err))
			d.Health = HealthError
		}
		return
	}
	d.SaltPresent = true

	var rec saltRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		d.Issues = append(d.Issues, "salt file is not valid JSON")
		d.Health = HealthError
		return
	}
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil || len(salt) != keyderive.SaltLength {
		d.Issues = append(d.Issues, "salt file is corrupt")
		d.Health = HealthError
		return
	}
	d.SaltValid = true
}

func (v *Vault) diagnoseWallet(d *domain.VaultDiagnosis) {
	if _, err := os.Stat(v.walletPath()); err != nil {
		if !os.IsNotExist(err) {
			d.Issues = append(d.Issues, fmt.Sprintf("wallet file unreadable: %v", err))
			d.Health = HealthError
		}
		return
	}
	d.WalletPresent = true

	record, err := v.Load()
	if err != nil {
		if errors.Is(err, ErrDecryptionFailed) {
			d.Issues = append(d.Issues, "wallet does not decrypt on this machine (moved or corrupt)")
		} else {
			d.Issues = append(d.Issues, fmt.Sprintf("wallet load failed: %v", err))
		}
		d.Health = HealthError
		return
	}
	d.WalletDecrypts = true
	d.WalletAddress = record.Address
}

func (v *Vault) diagnoseBackups(d *domain.VaultDiagnosis) {
	snapshots, err := v.ListBackups()
	if err != nil {
		d.Issues = append(d.Issues, fmt.Sprintf("backup inventory failed: %v", err))
		if d.Health == HealthOK {
			d.Health = HealthWarning
		}
		return
	}
	d.BackupCount = len(snapshots)
	if len(snapshots) > diagnoseRecentBackups {
		snapshots = snapshots[:diagnoseRecentBackups]
	}
	d.RecentBackups = snapshots
}

func (v *Vault) diagnoseEnvKey(d *domain.VaultDiagnosis) {
	envKey := os.Getenv(EnvPrivateKey)
	if envKey == "" {
		return
	}
	d.EnvKeyConfigured = true

	address, err := addressFromPrivateKey(envKey)
	if err != nil {
		d.Issues = append(d.Issues, fmt.Sprintf("%s is set but invalid: %v", EnvPrivateKey, err))
		d.Health = HealthError
		return
	}
	d.EnvKeyAddress = address

	// A differing env key is legitimate operator intent; flag, don't fail.
	if d.WalletDecrypts && d.WalletAddress != address {
		d.Issues = append(d.Issues, fmt.Sprintf(
			"%s address %s differs from vault wallet %s (env key takes priority)",
			EnvPrivateKey, address, d.WalletAddress))
		if d.Health == HealthOK {
			d.Health = HealthWarning
		}
	}
}

// BackupStatus reports when the wallet was created and last exported, and
// whether the operator should be reminded to back it up.
func (v *Vault) BackupStatus() (*domain.BackupStatus, error) {
	cfg, err := v.LoadConfig()
	if err != nil {
		return nil, err
	}

	status := &domain.BackupStatus{
		WalletCreatedAt: cfg.WalletCreatedAt,
		LastExportedAt:  cfg.LastExportedAt,
	}

	now := time.Now().UTC()
	if cfg.WalletCreatedAt != nil {
		status.DaysSinceCreated = int(now.Sub(*cfg.WalletCreatedAt).Hours() / 24)
	}
	if cfg.LastExportedAt == nil {
		status.NeedsReminder = cfg.WalletCreatedAt != nil
		return status, nil
	}
	status.DaysSinceExport = int(now.Sub(*cfg.LastExportedAt).Hours() / 24)
	status.NeedsReminder = status.DaysSinceExport > exportReminderDays
	return status, nil
}
