package sale

import (
	"testing"

	"github.com/stretchr/testify/require"

	"presale/core/events"
)

func TestRoundPolicyClassFor(t *testing.T) {
	policy := NewRoundPolicy()
	require.Equal(t, RewardClassA, policy.ClassFor(1))
	require.Equal(t, RewardClassA, policy.ClassFor(2))
	require.Equal(t, RewardClassB, policy.ClassFor(3))
	require.Equal(t, RewardClassB, policy.ClassFor(40))

	policy.Overrides[2] = RewardClassB
	policy.Overrides[5] = RewardClassA
	require.Equal(t, RewardClassB, policy.ClassFor(2))
	require.Equal(t, RewardClassA, policy.ClassFor(5))

	clone := policy.Clone()
	clone.Overrides[5] = RewardClassB
	require.Equal(t, RewardClassA, policy.ClassFor(5))
}

func TestParseRewardClass(t *testing.T) {
	class, err := ParseRewardClass("b")
	require.NoError(t, err)
	require.Equal(t, RewardClassB, class)
	_, err = ParseRewardClass("C")
	require.ErrorIs(t, err, ErrInvalidRewardClass)
}

func TestReferralRewardAccruesClassA(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(10))

	_, err := f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)

	account := f.engine.Account(referrer)
	requireAmount(t, units(100), account.ReferralA, "class A reward")
	if !account.ReferralB.IsZero() {
		t.Fatalf("expected no class B reward")
	}
	totals := f.engine.Totals()
	requireAmount(t, units(100), totals.ReferralA, "total A")
	requireAmount(t, units(100), totals.ReferralLegacy, "legacy total")

	recorded := f.recorder.OfType(events.TypeReferralRecorded)
	require.Len(t, recorded, 1)
	require.Equal(t, "A", recorded[0].(events.ReferralRecorded).Class)
}

func TestReferralFirstReferrerWins(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(10))

	_, err := f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)
	_, err = f.engine.BuyWithNative(buyer, units(1), referrer2)
	require.NoError(t, err)

	stored, ok := f.engine.ReferrerOf(buyer)
	require.True(t, ok)
	require.Equal(t, referrer, stored)
	requireAmount(t, units(200), f.engine.Account(referrer).ReferralA, "first referrer reward")
	if !f.engine.Account(referrer2).ReferralA.IsZero() {
		t.Fatalf("expected later referrer to receive nothing")
	}
}

func TestSelfReferralIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(10))

	_, err := f.engine.BuyWithNative(buyer, units(1), buyer)
	require.NoError(t, err)
	if _, ok := f.engine.ReferrerOf(buyer); ok {
		t.Fatalf("expected no referrer for self referral")
	}
	if !f.engine.Totals().ReferralLegacy.IsZero() {
		t.Fatalf("expected no referral reward")
	}
}

func TestReferralClassFollowsRound(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(10))

	require.NoError(t, f.engine.SetCurrentRound(owner, 3))
	_, err := f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)
	requireAmount(t, units(100), f.engine.Account(referrer).ReferralB, "round 3 class B")

	require.NoError(t, f.engine.SetRoundRewardClass(owner, 3, RewardClassA))
	_, err = f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)
	requireAmount(t, units(100), f.engine.Account(referrer).ReferralA, "overridden round 3 class A")

	totals := f.engine.Totals()
	requireAmount(t, units(200), totals.ReferralLegacy, "legacy total across classes")
	require.Equal(t, RewardClassA, f.engine.RewardClassFor(3))
	require.Equal(t, RewardClassB, f.engine.RewardClassFor(4))

	changed := f.recorder.OfType(events.TypeRoundChanged)
	require.Len(t, changed, 1)
	require.Equal(t, "B", changed[0].(events.RoundChanged).RewardClass)
}

func TestClaimReferralA(t *testing.T) {
	f := newFixture(t)
	f.fundToken(f.usdc, buyer, scaled(1_000, 6))

	_, err := f.engine.BuyWithInstrument(buyer, f.usdcAddr, scaled(1_000, 6), referrer)
	require.NoError(t, err)
	requireAmount(t, units(50), f.engine.Account(referrer).ReferralA, "reward")

	payout, err := f.engine.ClaimReferralA(referrer)
	require.NoError(t, err)
	requireAmount(t, scaled(50, 6), payout, "payout")
	requireAmount(t, scaled(50, 6), f.usdc.BalanceOf(referrer), "referrer usdc")
	requireAmount(t, scaled(950, 6), f.usdc.BalanceOf(ledgerAddr), "ledger usdc")

	totals := f.engine.Totals()
	if !totals.ReferralA.IsZero() || !totals.ReferralLegacy.IsZero() {
		t.Fatalf("expected claimed totals to drop to zero, got %+v", totals)
	}
	_, err = f.engine.ClaimReferralA(referrer)
	require.ErrorIs(t, err, ErrNothingToClaim)
}

func TestClaimReferralAFailsWithoutFunds(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(1))
	_, err := f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)

	// native purchases leave no USDC behind to pay class A rewards
	_, err = f.engine.ClaimReferralA(referrer)
	require.ErrorIs(t, err, ErrTransferFailed)
	requireAmount(t, units(100), f.engine.Account(referrer).ReferralA, "reward kept after failed claim")

	require.NoError(t, f.engine.RemoveInstrument(owner, f.usdcAddr))
	_, err = f.engine.ClaimReferralA(referrer)
	require.ErrorIs(t, err, ErrNoPrimaryInstrument)
}

func TestClaimReferralB(t *testing.T) {
	f := newFixture(t)
	f.fundNative(buyer, units(1))
	require.NoError(t, f.engine.SetCurrentRound(owner, 3))
	_, err := f.engine.BuyWithNative(buyer, units(1), referrer)
	require.NoError(t, err)

	paid, err := f.engine.ClaimReferralB(referrer)
	require.NoError(t, err)
	requireAmount(t, units(200), paid, "class B units")
	requireAmount(t, units(200), f.sold.BalanceOf(referrer), "referrer sold units")
	if !f.engine.Totals().ReferralB.IsZero() {
		t.Fatalf("expected class B total to be cleared")
	}
}

func TestClaimReferralRewardsCombined(t *testing.T) {
	f := newFixture(t)
	f.fundToken(f.usdc, buyer, scaled(1_000, 6))

	err := f.engine.ClaimReferralRewards(referrer)
	require.ErrorIs(t, err, ErrNothingToClaim)

	_, err = f.engine.BuyWithInstrument(buyer, f.usdcAddr, scaled(500, 6), referrer)
	require.NoError(t, err)
	require.NoError(t, f.engine.SetCurrentRound(owner, 3))
	_, err = f.engine.BuyWithInstrument(buyer, f.usdcAddr, scaled(500, 6), referrer)
	require.NoError(t, err)

	require.NoError(t, f.engine.ClaimReferralRewards(referrer))
	requireAmount(t, scaled(25, 6), f.usdc.BalanceOf(referrer), "class A payout")
	requireAmount(t, units(50), f.sold.BalanceOf(referrer), "class B payout")
	require.Len(t, f.recorder.OfType(events.TypeReferralClaimed), 2)
}
