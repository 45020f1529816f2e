package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"solana-swap-guard/internal/domain"
)

// backupTimeLayout is the snapshot filename timestamp.
const backupTimeLayout = "20060102_150405"

// BackupBeforeOverwrite snapshots the current wallet file into backups/ and
// prunes snapshots beyond the retention limit, oldest first. The snapshot is
// the ciphertext as-is plus a plaintext .address sidecar so backups remain
// identifiable without decryption.
func (v *Vault) BackupBeforeOverwrite() (*domain.BackupSnapshot, error) {
	ciphertext, err := os.ReadFile(v.walletPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}

	if err := os.MkdirAll(v.backupPath(), dirPerm); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	// Bump the timestamp forward on collision so rapid successive backups
	// never overwrite each other.
	at := time.Now().UTC()
	var ts, snapPath string
	for {
		ts = at.Format(backupTimeLayout)
		snapPath = filepath.Join(v.backupPath(), walletFile+"."+ts)
		if _, err := os.Stat(snapPath); os.IsNotExist(err) {
			break
		}
		at = at.Add(time.Second)
	}
	if err := os.WriteFile(snapPath, ciphertext, filePerm); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	snapshot := &domain.BackupSnapshot{Timestamp: ts, Path: snapPath}

	// Sidecar is best-effort: a wallet we cannot decrypt still gets backed up.
	if record, err := v.Load(); err == nil {
		snapshot.Address = record.Address
		if err := os.WriteFile(snapPath+".address", []byte(record.Address), filePerm); err != nil {
			v.logger.Printf("warning: failed to write address sidecar: %v", err)
		}
	}

	if err := v.pruneBackups(); err != nil {
		v.logger.Printf("warning: backup pruning failed: %v", err)
	}

	v.logger.Printf("backed up wallet to %s", snapPath)
	return snapshot, nil
}

// ListBackups returns the snapshot inventory, newest first.
func (v *Vault) ListBackups() ([]domain.BackupSnapshot, error) {
	entries, err := os.ReadDir(v.backupPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var snapshots []domain.BackupSnapshot
	prefix := walletFile + "."
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, ".address") {
			continue
		}
		ts := strings.TrimPrefix(name, prefix)
		if _, err := time.Parse(backupTimeLayout, ts); err != nil {
			continue
		}
		snap := domain.BackupSnapshot{
			Timestamp: ts,
			Path:      filepath.Join(v.backupPath(), name),
		}
		if addr, err := os.ReadFile(snap.Path + ".address"); err == nil {
			snap.Address = strings.TrimSpace(string(addr))
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp > snapshots[j].Timestamp
	})
	return snapshots, nil
}

// Restore promotes the snapshot with the given timestamp to the active
// wallet. The current wallet is backed up first so a bad restore is itself
// recoverable. When the snapshot has an address sidecar, the restored wallet
// must decrypt to that address.
func (v *Vault) Restore(timestamp string) (*domain.WalletRecord, error) {
	snapshots, err := v.ListBackups()
	if err != nil {
		return nil, err
	}

	var target *domain.BackupSnapshot
	for i := range snapshots {
		if snapshots[i].Timestamp == timestamp {
			target = &snapshots[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, timestamp)
	}

	ciphertext, err := os.ReadFile(target.Path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	if _, err := os.Stat(v.walletPath()); err == nil {
		if _, err := v.BackupBeforeOverwrite(); err != nil {
			return nil, fmt.Errorf("backup current wallet: %w", err)
		}
	}

	if err := os.WriteFile(v.walletPath(), ciphertext, filePerm); err != nil {
		return nil, fmt.Errorf("write wallet: %w", err)
	}

	record, err := v.Load()
	if err != nil {
		return nil, fmt.Errorf("restored wallet does not decrypt: %w", err)
	}
	if target.Address != "" && record.Address != target.Address {
		return nil, fmt.Errorf("restored address %s does not match snapshot sidecar %s",
			record.Address, target.Address)
	}

	v.logger.Printf("restored wallet %s from backup %s", record.Address, timestamp)
	return record, nil
}

// pruneBackups removes the oldest snapshots beyond the retention limit.
func (v *Vault) pruneBackups() error {
	snapshots, err := v.ListBackups()
	if err != nil {
		return err
	}
	if len(snapshots) <= v.retention {
		return nil
	}
	for _, snap := range snapshots[v.retention:] {
		if err := os.Remove(snap.Path); err != nil {
			return err
		}
		os.Remove(snap.Path + ".address")
	}
	return nil
}
