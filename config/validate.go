package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/native/sale"
)

// Validate checks the configuration without touching any ledger.
func (s *Sale) Validate() error {
	if s == nil {
		return errors.New("sale config missing")
	}
	if _, err := ParseAccount(s.Owner); err != nil {
		return fmt.Errorf("Owner: %w", err)
	}
	price, err := ParseAmount(s.UnitPrice)
	if err != nil {
		return fmt.Errorf("UnitPrice: %w", err)
	}
	if price.IsZero() {
		return errors.New("UnitPrice must be positive")
	}
	hardCap, err := ParseAmount(s.HardCap)
	if err != nil {
		return fmt.Errorf("HardCap: %w", err)
	}
	if hardCap.IsZero() {
		return errors.New("HardCap must be positive")
	}
	if s.Start >= s.End {
		return fmt.Errorf("Start %d must precede End %d", s.Start, s.End)
	}
	if s.ReferralBps > 10_000 {
		return fmt.Errorf("ReferralBps %d exceeds 10000", s.ReferralBps)
	}
	if s.StalenessSeconds == 0 || s.StalenessSeconds > sale.MaxStalenessSeconds {
		return fmt.Errorf("StalenessSeconds %d outside 1..%d", s.StalenessSeconds, sale.MaxStalenessSeconds)
	}
	if _, err := s.Wallets.Policy(); err != nil {
		return fmt.Errorf("wallets: %w", err)
	}
	answer, err := ParseAmount(s.Feed.Answer)
	if err != nil {
		return fmt.Errorf("feed.Answer: %w", err)
	}
	if answer.IsZero() {
		return errors.New("feed.Answer must be positive")
	}
	if strings.TrimSpace(s.SoldAsset.Symbol) == "" {
		return errors.New("sold_asset.Symbol required")
	}
	if _, err := ParseAmount(s.SoldAsset.Supply); err != nil {
		return fmt.Errorf("sold_asset.Supply: %w", err)
	}
	seen := make(map[string]bool, len(s.Instruments))
	primaries := 0
	for i, inst := range s.Instruments {
		symbol := strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if symbol == "" {
			return fmt.Errorf("instruments[%d]: Symbol required", i)
		}
		if seen[symbol] || symbol == strings.ToUpper(strings.TrimSpace(s.SoldAsset.Symbol)) {
			return fmt.Errorf("instruments[%d]: duplicate symbol %s", i, symbol)
		}
		seen[symbol] = true
		if inst.FeeBps > 10_000 {
			return fmt.Errorf("instruments[%d]: FeeBps %d exceeds 10000", i, inst.FeeBps)
		}
		if inst.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return errors.New("at most one instrument may be primary")
	}
	return nil
}

// Policy resolves the configured wallets into a validated routing policy.
func (w Wallets) Policy() (sale.WalletPolicy, error) {
	var policy sale.WalletPolicy
	var err error
	if policy.WalletA, err = ParseAccount(w.WalletA); err != nil {
		return policy, fmt.Errorf("WalletA: %w", err)
	}
	if policy.WalletB, err = ParseAccount(w.WalletB); err != nil {
		return policy, fmt.Errorf("WalletB: %w", err)
	}
	if policy.Treasury, err = ParseAccount(w.Treasury); err != nil {
		return policy, fmt.Errorf("Treasury: %w", err)
	}
	policy.ShareA = w.ShareA
	policy.ShareB = w.ShareB
	policy.ShareTreasury = w.ShareTreasury
	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// LedgerParams converts the configuration into ledger parameters for a sale
// of soldAsset priced by feed.
func (s *Sale) LedgerParams(soldAsset, feed, implementation common.Address) (sale.Params, error) {
	if err := s.Validate(); err != nil {
		return sale.Params{}, err
	}
	owner, _ := ParseAccount(s.Owner)
	wallets, _ := s.Wallets.Policy()
	return sale.Params{
		Owner:          owner,
		SoldAsset:      soldAsset,
		PriceFeed:      feed,
		Implementation: implementation,
		Version:        s.Version,
		UnitPrice:      mustAmount(s.UnitPrice),
		HardCap:        mustAmount(s.HardCap),
		Start:          s.Start,
		End:            s.End,
		ReferralBps:    s.ReferralBps,
		StalenessSecs:  s.StalenessSeconds,
		Wallets:        wallets,
	}, nil
}

// mustAmount is only called on values Validate already accepted.
func mustAmount(value string) *uint256.Int {
	amount, err := ParseAmount(value)
	if err != nil {
		panic(err)
	}
	return amount
}
