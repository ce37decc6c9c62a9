package sale

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const moduleName = "sale"

const (
	// DefaultStalenessSeconds is the default maximum price reading age.
	DefaultStalenessSeconds uint64 = 24 * 60 * 60
	// MaxStalenessSeconds bounds the operator-adjustable staleness threshold.
	MaxStalenessSeconds uint64 = 7 * 24 * 60 * 60
	// DefaultFeedDecimals is the precision assumed for price references that
	// do not report one.
	DefaultFeedDecimals uint8 = 8
)

// SaleConfig describes the asset on sale and the commercial terms. UnitPrice
// is the USD price of one whole sold unit and HardCap the maximum total raise,
// both in the 18-decimal internal accounting unit.
type SaleConfig struct {
	SoldAsset common.Address
	UnitPrice *uint256.Int
	HardCap   *uint256.Int
	Start     uint64
	End       uint64
}

// RaiseState tracks contributions. Every field is non-decreasing.
type RaiseState struct {
	TotalRaised    *uint256.Int
	TotalClaimable *uint256.Int
	Contributions  map[common.Address]*uint256.Int
	Purchased      map[common.Address]*uint256.Int
	Claimable      map[common.Address]*uint256.Int
}

// ReferralState tracks referrer relationships and accrued rewards. Rewards are
// denominated in the internal accounting unit until claimed.
type ReferralState struct {
	ReferrerOf  map[common.Address]common.Address
	ClassA      map[common.Address]*uint256.Int
	ClassB      map[common.Address]*uint256.Int
	TotalA      *uint256.Int
	TotalB      *uint256.Int
	TotalLegacy *uint256.Int
}

// VestingSchedule is the single global release schedule. A zero Duration
// means no schedule is configured and everything purchased is releasable.
type VestingSchedule struct {
	Cliff     uint64
	Duration  uint64
	Start     uint64
	Revocable bool
}

// PaymentRegistry lists the secondary payment instruments. Order keeps the
// insertion order of currently accepted instruments for enumeration.
type PaymentRegistry struct {
	Accepted map[common.Address]bool
	Known    map[common.Address]bool
	Order    []common.Address
	Primary  common.Address
}

// WalletPolicy routes collected funds to three destinations by basis points.
type WalletPolicy struct {
	WalletA       common.Address
	WalletB       common.Address
	Treasury      common.Address
	ShareA        uint64
	ShareB        uint64
	ShareTreasury uint64
}

// UpgradeState guards replacement of the ledger implementation.
type UpgradeState struct {
	Implementation    common.Address
	Authorized        map[common.Address]bool
	WhitelistEnforced bool
	Version           uint64
}

// Ledger is the single mutable state shared by every sale component. It is
// owned by an Engine and only mutated inside an engine operation.
type Ledger struct {
	Owner         common.Address
	Paused        bool
	Config        SaleConfig
	Raise         RaiseState
	Referral      ReferralState
	Rounds        RoundPolicy
	Vesting       VestingSchedule
	Released      map[common.Address]*uint256.Int
	TotalReleased *uint256.Int
	Payments      PaymentRegistry
	Wallets       WalletPolicy
	Upgrade       UpgradeState
	PriceFeed     common.Address
	StalenessSecs uint64
	ReferralBps   uint64
}

// IsPaused implements common.PauseView.
func (l *Ledger) IsPaused(module string) bool {
	return l != nil && l.Paused && module == moduleName
}

// Params carries the initial sale configuration.
type Params struct {
	Owner          common.Address
	SoldAsset      common.Address
	PriceFeed      common.Address
	Implementation common.Address
	Version        uint64
	UnitPrice      *uint256.Int
	HardCap        *uint256.Int
	Start          uint64
	End            uint64
	ReferralBps    uint64
	StalenessSecs  uint64
	Wallets        WalletPolicy
}

// NewLedger validates params and returns a fresh ledger. Rounds 1 and 2 are
// initialised to reward class A and the current round is 1.
func NewLedger(p Params) (*Ledger, error) {
	if p.Owner == (common.Address{}) || p.SoldAsset == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if p.UnitPrice == nil || p.UnitPrice.IsZero() {
		return nil, ErrInvalidPrice
	}
	if p.HardCap == nil || p.HardCap.IsZero() {
		return nil, ErrInvalidHardCap
	}
	if p.Start >= p.End {
		return nil, ErrInvalidTiming
	}
	if p.ReferralBps > 10_000 {
		return nil, ErrReferralPercent
	}
	staleness := p.StalenessSecs
	if staleness == 0 {
		staleness = DefaultStalenessSeconds
	}
	if staleness > MaxStalenessSeconds {
		return nil, ErrStalenessRange
	}
	if err := p.Wallets.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{
		Owner: p.Owner,
		Config: SaleConfig{
			SoldAsset: p.SoldAsset,
			UnitPrice: p.UnitPrice.Clone(),
			Start:     p.Start,
			End:       p.End,
			HardCap:   p.HardCap.Clone(),
		},
		Raise: RaiseState{
			TotalRaised:    zero(),
			TotalClaimable: zero(),
			Contributions:  make(map[common.Address]*uint256.Int),
			Purchased:      make(map[common.Address]*uint256.Int),
			Claimable:      make(map[common.Address]*uint256.Int),
		},
		Referral: ReferralState{
			ReferrerOf:  make(map[common.Address]common.Address),
			ClassA:      make(map[common.Address]*uint256.Int),
			ClassB:      make(map[common.Address]*uint256.Int),
			TotalA:      zero(),
			TotalB:      zero(),
			TotalLegacy: zero(),
		},
		Rounds:        NewRoundPolicy(),
		Released:      make(map[common.Address]*uint256.Int),
		TotalReleased: zero(),
		Payments: PaymentRegistry{
			Accepted: make(map[common.Address]bool),
			Known:    make(map[common.Address]bool),
		},
		Wallets: p.Wallets,
		Upgrade: UpgradeState{
			Implementation: p.Implementation,
			Authorized:     make(map[common.Address]bool),
			Version:        p.Version,
		},
		PriceFeed:     p.PriceFeed,
		StalenessSecs: staleness,
		ReferralBps:   p.ReferralBps,
	}, nil
}

// Clone returns a deep copy of the ledger. Engines take a clone before every
// operation and restore it when the operation fails.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Config.UnitPrice = cloneAmount(l.Config.UnitPrice)
	clone.Config.HardCap = cloneAmount(l.Config.HardCap)
	clone.Raise = RaiseState{
		TotalRaised:    cloneAmount(l.Raise.TotalRaised),
		TotalClaimable: cloneAmount(l.Raise.TotalClaimable),
		Contributions:  cloneAmounts(l.Raise.Contributions),
		Purchased:      cloneAmounts(l.Raise.Purchased),
		Claimable:      cloneAmounts(l.Raise.Claimable),
	}
	referrers := make(map[common.Address]common.Address, len(l.Referral.ReferrerOf))
	for buyer, referrer := range l.Referral.ReferrerOf {
		referrers[buyer] = referrer
	}
	clone.Referral = ReferralState{
		ReferrerOf:  referrers,
		ClassA:      cloneAmounts(l.Referral.ClassA),
		ClassB:      cloneAmounts(l.Referral.ClassB),
		TotalA:      cloneAmount(l.Referral.TotalA),
		TotalB:      cloneAmount(l.Referral.TotalB),
		TotalLegacy: cloneAmount(l.Referral.TotalLegacy),
	}
	clone.Rounds = l.Rounds.Clone()
	clone.Released = cloneAmounts(l.Released)
	clone.TotalReleased = cloneAmount(l.TotalReleased)
	clone.Payments = PaymentRegistry{
		Accepted: cloneFlags(l.Payments.Accepted),
		Known:    cloneFlags(l.Payments.Known),
		Order:    append([]common.Address(nil), l.Payments.Order...),
		Primary:  l.Payments.Primary,
	}
	clone.Upgrade.Authorized = cloneFlags(l.Upgrade.Authorized)
	return &clone
}

func cloneAmounts(in map[common.Address]*uint256.Int) map[common.Address]*uint256.Int {
	out := make(map[common.Address]*uint256.Int, len(in))
	for addr, amount := range in {
		out[addr] = cloneAmount(amount)
	}
	return out
}

func cloneFlags(in map[common.Address]bool) map[common.Address]bool {
	out := make(map[common.Address]bool, len(in))
	for addr, flag := range in {
		out[addr] = flag
	}
	return out
}

func amountOf(m map[common.Address]*uint256.Int, addr common.Address) *uint256.Int {
	if v, ok := m[addr]; ok && v != nil {
		return v.Clone()
	}
	return zero()
}

func credit(m map[common.Address]*uint256.Int, addr common.Address, amount *uint256.Int) error {
	next, err := checkedAdd(m[addr], amount)
	if err != nil {
		return err
	}
	m[addr] = next
	return nil
}
