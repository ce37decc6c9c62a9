package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	DefaultStalenessSeconds = 24 * 60 * 60
	DefaultReferralBps      = 500
	DefaultFeedDecimals     = 8
)

// DefaultSale returns a 30 day sale at 0.05 USD per unit with a 5M USD cap,
// USDC as the primary instrument and a 2000 USD native price.
func DefaultSale() *Sale {
	const start = 1_767_225_600 // 2026-01-01T00:00:00Z
	return &Sale{
		Owner:            "owner",
		UnitPrice:        "50000000000000000",
		HardCap:          "5000000000000000000000000",
		Start:            start,
		End:              start + 30*24*60*60,
		ReferralBps:      DefaultReferralBps,
		StalenessSeconds: DefaultStalenessSeconds,
		Version:          1,
		Wallets: Wallets{
			WalletA:       "wallet-a",
			WalletB:       "wallet-b",
			Treasury:      "treasury",
			ShareA:        4_000,
			ShareB:        4_000,
			ShareTreasury: 2_000,
		},
		Feed: Feed{
			Decimals: DefaultFeedDecimals,
			Answer:   "200000000000",
		},
		SoldAsset: Asset{
			Symbol:   "PRE",
			Decimals: 18,
			Supply:   "1000000000000000000000000000",
		},
		Instruments: []Instrument{
			{Symbol: "USDC", Decimals: 6, Primary: true},
		},
		Logging: Logging{Service: "sale-sim", Env: "local"},
	}
}

// LoadSale decodes the sale configuration at path on top of DefaultSale and
// validates it. A missing file is created with the defaults.
func LoadSale(path string) (*Sale, error) {
	cfg := DefaultSale()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteSale(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	// array tables would otherwise merge field by field into the defaults
	defaults := cfg.Instruments
	cfg.Instruments = nil
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if !meta.IsDefined("instruments") {
		cfg.Instruments = defaults
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// WriteSale persists cfg as TOML, creating parent directories as needed.
func WriteSale(path string, cfg *Sale) error {
	if cfg == nil {
		return errors.New("config: nil sale config")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// AccountAddress derives a stable address for a named account from the last
// 20 bytes of keccak256(name).
func AccountAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(strings.ToLower(strings.TrimSpace(name)))))
}

// ParseAccount accepts a hex address or an account name.
func ParseAccount(value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return common.Address{}, errors.New("account required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		if !common.IsHexAddress(trimmed) {
			return common.Address{}, fmt.Errorf("invalid hex address %q", value)
		}
		return common.HexToAddress(trimmed), nil
	}
	return AccountAddress(trimmed), nil
}

// ParseAmount parses a non-negative base-10 integer. Underscores may be used
// as digit separators.
func ParseAmount(value string) (*uint256.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), "_", "")
	if trimmed == "" {
		return nil, errors.New("amount required")
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}
