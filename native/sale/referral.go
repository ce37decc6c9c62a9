package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
	nativecommon "presale/native/common"
)

// RewardClass selects the payout denomination of referral rewards.
type RewardClass uint8

const (
	// RewardClassUnset marks a round without an explicit override.
	RewardClassUnset RewardClass = iota
	// RewardClassA pays out in the primary payment instrument.
	RewardClassA
	// RewardClassB pays out in sold-asset units.
	RewardClassB
)

func (c RewardClass) String() string {
	switch c {
	case RewardClassA:
		return "A"
	case RewardClassB:
		return "B"
	default:
		return "unset"
	}
}

// ParseRewardClass accepts "A" or "B" in any case.
func ParseRewardClass(s string) (RewardClass, error) {
	switch s {
	case "A", "a":
		return RewardClassA, nil
	case "B", "b":
		return RewardClassB, nil
	default:
		return RewardClassUnset, fmt.Errorf("%w: %q", ErrInvalidRewardClass, s)
	}
}

// RoundPolicy tracks the active sale round and per-round reward overrides.
type RoundPolicy struct {
	Current   uint64
	Overrides map[uint64]RewardClass
}

// NewRoundPolicy starts at round 1 with rounds 1 and 2 paying class A.
func NewRoundPolicy() RoundPolicy {
	return RoundPolicy{
		Current: 1,
		Overrides: map[uint64]RewardClass{
			1: RewardClassA,
			2: RewardClassA,
		},
	}
}

// ClassFor resolves the reward class for round. An explicit override wins;
// otherwise rounds 1 and 2 pay class A and later rounds pay class B.
func (p RoundPolicy) ClassFor(round uint64) RewardClass {
	if class, ok := p.Overrides[round]; ok && class != RewardClassUnset {
		return class
	}
	if round <= 2 {
		return RewardClassA
	}
	return RewardClassB
}

// Clone returns a deep copy of the policy.
func (p RoundPolicy) Clone() RoundPolicy {
	overrides := make(map[uint64]RewardClass, len(p.Overrides))
	for round, class := range p.Overrides {
		overrides[round] = class
	}
	return RoundPolicy{Current: p.Current, Overrides: overrides}
}

// recordReferral links buyer to referrer on first use and accrues the reward
// for usdAmount into the class active for the current round. Later purchases
// always credit the first recorded referrer.
func (e *Engine) recordReferral(l *Ledger, buyer, referrer common.Address, usdAmount *uint256.Int) error {
	if referrer == buyer {
		return ErrSelfReferral
	}
	if stored, ok := l.Referral.ReferrerOf[buyer]; ok {
		referrer = stored
	} else {
		l.Referral.ReferrerOf[buyer] = referrer
	}
	reward, err := ApplyBps(usdAmount, l.ReferralBps)
	if err != nil {
		return err
	}
	if reward.IsZero() {
		return nil
	}
	class := l.Rounds.ClassFor(l.Rounds.Current)
	switch class {
	case RewardClassA:
		if err := credit(l.Referral.ClassA, referrer, reward); err != nil {
			return err
		}
		if l.Referral.TotalA, err = checkedAdd(l.Referral.TotalA, reward); err != nil {
			return err
		}
	default:
		if err := credit(l.Referral.ClassB, referrer, reward); err != nil {
			return err
		}
		if l.Referral.TotalB, err = checkedAdd(l.Referral.TotalB, reward); err != nil {
			return err
		}
	}
	if l.Referral.TotalLegacy, err = checkedAdd(l.Referral.TotalLegacy, reward); err != nil {
		return err
	}
	e.emit(events.ReferralRecorded{Referrer: referrer, Buyer: buyer, Reward: reward.Clone(), Class: class.String()})
	return nil
}

// ClaimReferralA pays the caller's class-A balance in the primary instrument.
func (e *Engine) ClaimReferralA(caller common.Address) (*uint256.Int, error) {
	var payout *uint256.Int
	err := e.execute(func(l *Ledger) error {
		if err := nativecommon.Guard(l, moduleName); err != nil {
			return err
		}
		out, err := e.claimClassA(l, caller)
		payout = out
		return err
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ClaimReferralB pays the caller's class-B balance in sold-asset units.
func (e *Engine) ClaimReferralB(caller common.Address) (*uint256.Int, error) {
	var payout *uint256.Int
	err := e.execute(func(l *Ledger) error {
		if err := nativecommon.Guard(l, moduleName); err != nil {
			return err
		}
		out, err := e.claimClassB(l, caller)
		payout = out
		return err
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// ClaimReferralRewards claims every non-zero class for the caller in one
// operation. It fails with ErrNothingToClaim when both balances are empty.
func (e *Engine) ClaimReferralRewards(caller common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := nativecommon.Guard(l, moduleName); err != nil {
			return err
		}
		hasA := !amountOf(l.Referral.ClassA, caller).IsZero()
		hasB := !amountOf(l.Referral.ClassB, caller).IsZero()
		if !hasA && !hasB {
			return ErrNothingToClaim
		}
		if hasA {
			if _, err := e.claimClassA(l, caller); err != nil {
				return err
			}
		}
		if hasB {
			if _, err := e.claimClassB(l, caller); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) claimClassA(l *Ledger, caller common.Address) (*uint256.Int, error) {
	amount := amountOf(l.Referral.ClassA, caller)
	if amount.IsZero() {
		return nil, ErrNothingToClaim
	}
	primary := l.Payments.Primary
	if primary == (common.Address{}) {
		return nil, ErrNoPrimaryInstrument
	}
	token, err := resolveToken(e.host, primary)
	if err != nil {
		return nil, err
	}
	decimals, err := TokenDecimals(token)
	if err != nil {
		return nil, err
	}
	payout, err := FromInternal(amount, decimals)
	if err != nil {
		return nil, err
	}
	if payout.IsZero() {
		return nil, ErrAmountTooSmall
	}
	delete(l.Referral.ClassA, caller)
	l.Referral.TotalA = saturatingSub(l.Referral.TotalA, amount)
	l.Referral.TotalLegacy = saturatingSub(l.Referral.TotalLegacy, amount)
	if err := token.Transfer(e.host.Self(), caller, payout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	e.emit(events.ReferralClaimed{Referrer: caller, Amount: amount, Class: RewardClassA.String(), Asset: primary, Payout: payout.Clone()})
	return payout, nil
}

func (e *Engine) claimClassB(l *Ledger, caller common.Address) (*uint256.Int, error) {
	amount := amountOf(l.Referral.ClassB, caller)
	if amount.IsZero() {
		return nil, ErrNothingToClaim
	}
	units, err := unitsFor(amount, l.Config.UnitPrice)
	if err != nil {
		return nil, err
	}
	if units.IsZero() {
		return nil, ErrAmountTooSmall
	}
	token, err := resolveToken(e.host, l.Config.SoldAsset)
	if err != nil {
		return nil, err
	}
	delete(l.Referral.ClassB, caller)
	l.Referral.TotalB = saturatingSub(l.Referral.TotalB, amount)
	l.Referral.TotalLegacy = saturatingSub(l.Referral.TotalLegacy, amount)
	if err := token.Transfer(e.host.Self(), caller, units); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	e.emit(events.ReferralClaimed{Referrer: caller, Amount: amount, Class: RewardClassB.String(), Asset: l.Config.SoldAsset, Payout: units.Clone()})
	return units, nil
}
