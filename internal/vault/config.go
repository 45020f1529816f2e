package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// UserConfig is the encrypted per-install configuration stored alongside
// the wallet. It holds lifecycle stamps and connection settings that should
// not sit in plaintext dotfiles.
type UserConfig struct {
	WalletCreatedAt *time.Time `json:"wallet_created_at,omitempty"`
	LastExportedAt  *time.Time `json:"last_exported_at,omitempty"`
	JupiterAPIKey   string     `json:"jupiter_api_key,omitempty"`
	RPCURL          string     `json:"rpc_url,omitempty"`
	WSURL           string     `json:"ws_url,omitempty"`
}

// LoadConfig decrypts the stored user config. A missing file yields an
// empty config, not an error.
func (v *Vault) LoadConfig() (*UserConfig, error) {
	ciphertext, err := os.ReadFile(v.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	plaintext, err := v.open(ciphertext)
	if err != nil {
		return nil, err
	}

	var cfg UserConfig
	if err := json.Unmarshal(plaintext, &cfg); err != nil {
		return nil, fmt.Errorf("%w: malformed config payload", ErrDecryptionFailed)
	}
	return &cfg, nil
}

// SaveConfig encrypts and writes the full config.
func (v *Vault) SaveConfig(cfg *UserConfig) error {
	plaintext, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	ciphertext, err := v.seal(plaintext)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(v.dir, dirPerm); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	if err := os.WriteFile(v.configPath(), ciphertext, filePerm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// updateConfig applies fn to the current config and writes it back, so
// independent fields merge instead of clobbering each other.
func (v *Vault) updateConfig(fn func(*UserConfig)) error {
	cfg, err := v.LoadConfig()
	if err != nil {
		return err
	}
	fn(cfg)
	return v.SaveConfig(cfg)
}
