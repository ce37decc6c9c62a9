package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/types"
)

const (
	// TypeReferralRecorded is emitted when a purchase accrues a referral reward.
	TypeReferralRecorded = "sale.referral.recorded"
	// TypeReferralClaimed is emitted when a referrer withdraws an accrued class.
	TypeReferralClaimed = "sale.referral.claimed"
	// TypeRoundChanged is emitted when the active sale round moves.
	TypeRoundChanged = "sale.round.changed"
	// TypeRoundRewardClassSet is emitted when a round override is stored.
	TypeRoundRewardClassSet = "sale.round.reward_class"
)

// ReferralRecorded captures a reward accrued to a referrer for a purchase.
type ReferralRecorded struct {
	Referrer common.Address
	Buyer    common.Address
	Reward   *uint256.Int
	Class    string
}

// EventType implements the Event interface.
func (ReferralRecorded) EventType() string { return TypeReferralRecorded }

// Event renders the accrual as a flat attribute record.
func (e ReferralRecorded) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralRecorded,
		Attributes: map[string]string{
			"referrer":     addressString(e.Referrer),
			"buyer":        addressString(e.Buyer),
			"rewardAmount": amountString(e.Reward),
			"class":        e.Class,
		},
	}
}

// ReferralClaimed captures a referral payout. Amount is denominated in the
// internal accounting unit while Payout is expressed in the payout asset.
type ReferralClaimed struct {
	Referrer common.Address
	Amount   *uint256.Int
	Class    string
	Asset    common.Address
	Payout   *uint256.Int
}

// EventType implements the Event interface.
func (ReferralClaimed) EventType() string { return TypeReferralClaimed }

// Event renders the claim as a flat attribute record.
func (e ReferralClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralClaimed,
		Attributes: map[string]string{
			"referrer": addressString(e.Referrer),
			"amount":   amountString(e.Amount),
			"class":    e.Class,
			"asset":    addressString(e.Asset),
			"payout":   amountString(e.Payout),
		},
	}
}

// RoundChanged captures the active round and its resolved reward class.
type RoundChanged struct {
	Round       uint64
	RewardClass string
}

// EventType implements the Event interface.
func (RoundChanged) EventType() string { return TypeRoundChanged }

// Event renders the round change as a flat attribute record.
func (e RoundChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeRoundChanged,
		Attributes: map[string]string{
			"round":       strconv.FormatUint(e.Round, 10),
			"rewardClass": e.RewardClass,
		},
	}
}

// RoundRewardClassSet captures an explicit per-round override.
type RoundRewardClassSet struct {
	Round       uint64
	RewardClass string
}

// EventType implements the Event interface.
func (RoundRewardClassSet) EventType() string { return TypeRoundRewardClassSet }

// Event renders the override as a flat attribute record.
func (e RoundRewardClassSet) Event() *types.Event {
	return &types.Event{
		Type: TypeRoundRewardClassSet,
		Attributes: map[string]string{
			"round":       strconv.FormatUint(e.Round, 10),
			"rewardClass": e.RewardClass,
		},
	}
}
