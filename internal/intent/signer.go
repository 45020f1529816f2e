package intent

import (
	"fmt"

	"solana-swap-guard/internal/solana"
	"solana-swap-guard/internal/vault"
)

// VaultSigner signs transactions with the vault's active wallet. The
// decrypted key exists only inside each Sign call.
type VaultSigner struct {
	Vault *vault.Vault
}

// Sign resolves the active wallet and signs the transaction.
func (s *VaultSigner) Sign(unsignedTxBase64 string) (signedTxBase64, signature string, err error) {
	wallet, err := s.Vault.ActiveWallet()
	if err != nil {
		return "", "", fmt.Errorf("resolve wallet: %w", err)
	}
	return solana.SignTransaction(unsignedTxBase64, wallet.PrivateKey)
}
