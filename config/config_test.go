package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sale.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSaleCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sale.toml")
	cfg, err := LoadSale(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	if cfg.ReferralBps != DefaultReferralBps || cfg.StalenessSeconds != DefaultStalenessSeconds {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	reloaded, err := LoadSale(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadSaleOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
Owner = "0x00000000000000000000000000000000000000f0"
UnitPrice = "1_000_000_000_000_000_000"
Start = 100
End = 200
ReferralBps = 0

[wallets]
ShareA = 10000
ShareB = 0
ShareTreasury = 0

[[instruments]]
Symbol = "DAI"
Decimals = 18

[[instruments]]
Symbol = "FEE"
Decimals = 6
FeeBps = 300
Primary = true
`)
	cfg, err := LoadSale(path)
	require.NoError(t, err)
	require.Equal(t, uint64(0), cfg.ReferralBps)
	require.Equal(t, uint64(DefaultStalenessSeconds), cfg.StalenessSeconds)
	require.Len(t, cfg.Instruments, 2)
	require.False(t, cfg.Instruments[0].Primary, "defaults must not leak into listed instruments")
	require.True(t, cfg.Instruments[1].Primary)

	params, err := cfg.LedgerParams(common.HexToAddress("0x01"), common.HexToAddress("0x02"), common.Address{})
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xf0"), params.Owner)
	require.Equal(t, "1000000000000000000", params.UnitPrice.Dec())
	require.Equal(t, uint64(10_000), params.Wallets.ShareA)
	require.Equal(t, AccountAddress("wallet-a"), params.Wallets.WalletA)
}

func TestLoadSaleRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "HardCapUSD = \"10\"\n")
	_, err := LoadSale(path)
	if err == nil || !strings.Contains(err.Error(), "HardCapUSD") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(s *Sale){
		"zero price":        func(s *Sale) { s.UnitPrice = "0" },
		"bad cap":           func(s *Sale) { s.HardCap = "12abc" },
		"inverted window":   func(s *Sale) { s.End = s.Start },
		"referral":          func(s *Sale) { s.ReferralBps = 10_001 },
		"staleness zero":    func(s *Sale) { s.StalenessSeconds = 0 },
		"staleness too big": func(s *Sale) { s.StalenessSeconds = 8 * 24 * 60 * 60 },
		"shares":            func(s *Sale) { s.Wallets.ShareTreasury = 1_999 },
		"wallet hex":        func(s *Sale) { s.Wallets.WalletA = "0x1234" },
		"missing owner":     func(s *Sale) { s.Owner = " " },
		"feed answer":       func(s *Sale) { s.Feed.Answer = "0" },
		"instrument fee":    func(s *Sale) { s.Instruments[0].FeeBps = 10_001 },
		"duplicate symbol":  func(s *Sale) { s.Instruments = append(s.Instruments, Instrument{Symbol: "usdc", Decimals: 6}) },
		"sold as payment":   func(s *Sale) { s.Instruments[0].Symbol = "PRE" },
		"two primaries":     func(s *Sale) { s.Instruments = append(s.Instruments, Instrument{Symbol: "DAI", Primary: true}) },
	}
	require.NoError(t, DefaultSale().Validate())
	for name, mutate := range cases {
		cfg := DefaultSale()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseAccount(t *testing.T) {
	addr, err := ParseAccount("0x00000000000000000000000000000000000000AA")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xaa"), addr)

	alice, err := ParseAccount(" Alice ")
	require.NoError(t, err)
	require.Equal(t, AccountAddress("alice"), alice)
	require.NotEqual(t, common.Address{}, alice)
	require.NotEqual(t, AccountAddress("bob"), alice)

	_, err = ParseAccount("")
	require.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1_000")
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), amount.Uint64())

	_, err = ParseAmount("-1")
	require.Error(t, err)
	_, err = ParseAmount("")
	require.Error(t, err)
}
