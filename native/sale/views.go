package sale

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Totals is a read-only snapshot of the process-wide counters.
type Totals struct {
	Raised         *uint256.Int
	Claimable      *uint256.Int
	Released       *uint256.Int
	ReferralA      *uint256.Int
	ReferralB      *uint256.Int
	ReferralLegacy *uint256.Int
	HardCap        *uint256.Int
	UnitPrice      *uint256.Int
	Round          uint64
	Version        uint64
	Paused         bool
}

// Totals returns the current process-wide counters.
func (e *Engine) Totals() Totals {
	var out Totals
	e.view(func(l *Ledger) {
		out = Totals{
			Raised:         cloneAmount(l.Raise.TotalRaised),
			Claimable:      cloneAmount(l.Raise.TotalClaimable),
			Released:       cloneAmount(l.TotalReleased),
			ReferralA:      cloneAmount(l.Referral.TotalA),
			ReferralB:      cloneAmount(l.Referral.TotalB),
			ReferralLegacy: cloneAmount(l.Referral.TotalLegacy),
			HardCap:        cloneAmount(l.Config.HardCap),
			UnitPrice:      cloneAmount(l.Config.UnitPrice),
			Round:          l.Rounds.Current,
			Version:        l.Upgrade.Version,
			Paused:         l.Paused,
		}
	})
	return out
}

// Account is a read-only view of a single address.
type Account struct {
	Contribution *uint256.Int
	Purchased    *uint256.Int
	Claimable    *uint256.Int
	Released     *uint256.Int
	ReferralA    *uint256.Int
	ReferralB    *uint256.Int
	Referrer     common.Address
}

// Account returns the ledger entries held for addr.
func (e *Engine) Account(addr common.Address) Account {
	var out Account
	e.view(func(l *Ledger) {
		out = Account{
			Contribution: amountOf(l.Raise.Contributions, addr),
			Purchased:    amountOf(l.Raise.Purchased, addr),
			Claimable:    amountOf(l.Raise.Claimable, addr),
			Released:     amountOf(l.Released, addr),
			ReferralA:    amountOf(l.Referral.ClassA, addr),
			ReferralB:    amountOf(l.Referral.ClassB, addr),
			Referrer:     l.Referral.ReferrerOf[addr],
		}
	})
	return out
}

// ReferrerOf returns the referrer recorded for buyer, if any.
func (e *Engine) ReferrerOf(buyer common.Address) (common.Address, bool) {
	var (
		referrer common.Address
		ok       bool
	)
	e.view(func(l *Ledger) {
		referrer, ok = l.Referral.ReferrerOf[buyer]
	})
	return referrer, ok
}

// AcceptedInstruments lists accepted instruments in insertion order.
func (e *Engine) AcceptedInstruments() []common.Address {
	var out []common.Address
	e.view(func(l *Ledger) {
		out = append([]common.Address(nil), l.Payments.Order...)
	})
	return out
}

// PrimaryInstrument returns the class-A payout instrument.
func (e *Engine) PrimaryInstrument() common.Address {
	var out common.Address
	e.view(func(l *Ledger) { out = l.Payments.Primary })
	return out
}

// RewardClassFor resolves the reward class applied to round.
func (e *Engine) RewardClassFor(round uint64) RewardClass {
	out := RewardClassUnset
	e.view(func(l *Ledger) { out = l.Rounds.ClassFor(round) })
	return out
}

// Schedule returns the configured vesting schedule.
func (e *Engine) Schedule() VestingSchedule {
	var out VestingSchedule
	e.view(func(l *Ledger) { out = l.Vesting })
	return out
}

// Wallets returns the current wallet policy.
func (e *Engine) Wallets() WalletPolicy {
	var out WalletPolicy
	e.view(func(l *Ledger) { out = l.Wallets })
	return out
}

// Owner returns the privileged principal.
func (e *Engine) Owner() common.Address {
	var out common.Address
	e.view(func(l *Ledger) { out = l.Owner })
	return out
}

// Implementation returns the installed implementation and its version.
func (e *Engine) Implementation() (common.Address, uint64) {
	var (
		impl    common.Address
		version uint64
	)
	e.view(func(l *Ledger) {
		impl = l.Upgrade.Implementation
		version = l.Upgrade.Version
	})
	return impl, version
}
