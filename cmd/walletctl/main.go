// Package main provides walletctl, the wallet vault lifecycle CLI.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"solana-swap-guard/internal/vault"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	sub := os.Args[1]
	switch sub {
	case "create":
		os.Exit(createCmd(os.Args[2:]))
	case "import-key":
		os.Exit(importCmd(os.Args[2:]))
	case "export":
		os.Exit(exportCmd(os.Args[2:]))
	case "backup":
		os.Exit(backupCmd(os.Args[2:]))
	case "restore":
		os.Exit(restoreCmd(os.Args[2:]))
	case "list-backups":
		os.Exit(listBackupsCmd(os.Args[2:]))
	case "diagnose":
		os.Exit(diagnoseCmd(os.Args[2:]))
	case "status":
		os.Exit(statusCmd(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", sub)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `walletctl - encrypted wallet vault for swapguard

Usage:
  walletctl create       [-dir PATH]
  walletctl import-key   [-dir PATH]   (reads base58 key from stdin)
  walletctl export       [-dir PATH]
  walletctl backup       [-dir PATH]
  walletctl restore      [-dir PATH] <timestamp>
  walletctl list-backups [-dir PATH]
  walletctl diagnose     [-dir PATH]
  walletctl status       [-dir PATH]

The vault directory defaults to $SWAPGUARD_DIR, then ~/.swapguard.

Examples:
  walletctl create
  walletctl restore 20260831_142501
  echo "$PRIVATE_KEY" | walletctl import-key`)
}

// openVault parses the shared -dir flag and returns the vault plus the
// remaining positional arguments.
func openVault(name string, args []string) (*vault.Vault, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var dir string
	fs.StringVar(&dir, "dir", defaultDir(), "vault directory")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return vault.New(dir), fs.Args(), nil
}

func defaultDir() string {
	if dir := os.Getenv("SWAPGUARD_DIR"); dir != "" {
		return dir
	}
	return vault.DefaultDir()
}

func createCmd(args []string) int {
	v, _, err := openVault("create", args)
	if err != nil {
		return 2
	}

	wallet, err := v.Create()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create wallet: %v\n", err)
		return 1
	}

	fmt.Printf("Created wallet in %s\n\n", v.Dir())
	fmt.Printf("Address:     %s\n", wallet.Address)
	fmt.Printf("Private key: %s\n\n", wallet.PrivateKey)
	fmt.Println("The private key is shown ONCE. Write it down and store it offline.")
	fmt.Println("Run `walletctl export` later to re-display it from the vault.")
	return 0
}

func importCmd(args []string) int {
	v, _, err := openVault("import-key", args)
	if err != nil {
		return 2
	}

	// Read the key from stdin so it never lands in shell history.
	fmt.Fprintln(os.Stderr, "Paste base58 private key:")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(os.Stderr, "read key: %v\n", err)
		return 1
	}
	key := strings.TrimSpace(line)

	wallet, err := v.ImportKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import key: %v\n", err)
		return 1
	}

	fmt.Printf("Imported wallet %s into %s\n", wallet.Address, v.Dir())
	return 0
}

func exportCmd(args []string) int {
	v, _, err := openVault("export", args)
	if err != nil {
		return 2
	}

	wallet, err := v.Export()
	if err != nil {
		fmt.Fprintf(os.Stderr, "export wallet: %v\n", err)
		return 1
	}

	fmt.Printf("Address:     %s\n", wallet.Address)
	fmt.Printf("Private key: %s\n", wallet.PrivateKey)
	return 0
}

func backupCmd(args []string) int {
	v, _, err := openVault("backup", args)
	if err != nil {
		return 2
	}

	snap, err := v.BackupBeforeOverwrite()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup wallet: %v\n", err)
		return 1
	}

	fmt.Printf("Backup %s written (%s)\n", snap.Timestamp, snap.Path)
	return 0
}

func restoreCmd(args []string) int {
	v, rest, err := openVault("restore", args)
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "restore requires a backup timestamp (see `walletctl list-backups`)")
		return 2
	}

	wallet, err := v.Restore(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore backup %s: %v\n", rest[0], err)
		return 1
	}

	fmt.Printf("Restored wallet %s from backup %s\n", wallet.Address, rest[0])
	fmt.Println("The previous wallet was snapshotted before the restore.")
	return 0
}

func listBackupsCmd(args []string) int {
	v, _, err := openVault("list-backups", args)
	if err != nil {
		return 2
	}

	backups, err := v.ListBackups()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list backups: %v\n", err)
		return 1
	}
	if len(backups) == 0 {
		fmt.Println("No backups.")
		return 0
	}

	fmt.Printf("%-17s  %s\n", "TIMESTAMP", "ADDRESS")
	for _, b := range backups {
		address := b.Address
		if address == "" {
			address = "(unknown)"
		}
		fmt.Printf("%-17s  %s\n", b.Timestamp, address)
	}
	return 0
}

func diagnoseCmd(args []string) int {
	v, _, err := openVault("diagnose", args)
	if err != nil {
		return 2
	}

	d := v.Diagnose()

	fmt.Printf("Vault:  %s\n", v.Dir())
	fmt.Printf("Health: %s\n\n", d.Health)
	fmt.Printf("Salt present:    %v\n", d.SaltPresent)
	fmt.Printf("Salt valid:      %v\n", d.SaltValid)
	fmt.Printf("Wallet present:  %v\n", d.WalletPresent)
	fmt.Printf("Wallet decrypts: %v\n", d.WalletDecrypts)
	if d.WalletAddress != "" {
		fmt.Printf("Wallet address:  %s\n", d.WalletAddress)
	}
	fmt.Printf("Backups:         %d\n", d.BackupCount)
	if d.EnvKeyConfigured {
		fmt.Printf("Env key:         configured (%s)\n", d.EnvKeyAddress)
	}

	if len(d.Issues) > 0 {
		fmt.Println("\nIssues:")
		for _, issue := range d.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}

	if d.Health == vault.HealthError {
		return 1
	}
	return 0
}

func statusCmd(args []string) int {
	v, _, err := openVault("status", args)
	if err != nil {
		return 2
	}

	wallet, err := v.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load wallet: %v\n", err)
		return 1
	}

	status, err := v.BackupStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup status: %v\n", err)
		return 1
	}

	fmt.Printf("Address: %s\n", wallet.Address)
	if status.WalletCreatedAt != nil {
		fmt.Printf("Created: %s (%d days ago)\n", status.WalletCreatedAt.Format("2006-01-02"), status.DaysSinceCreated)
	}
	if status.LastExportedAt != nil {
		fmt.Printf("Last export: %s (%d days ago)\n", status.LastExportedAt.Format("2006-01-02"), status.DaysSinceExport)
	} else {
		fmt.Println("Last export: never")
	}
	if status.NeedsReminder {
		fmt.Println("\nReminder: export and store your private key offline (`walletctl export`).")
	}
	return 0
}
