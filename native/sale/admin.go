package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
)

// TransferOwnership hands the privileged surface to next.
func (e *Engine) TransferOwnership(caller, next common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if next == (common.Address{}) {
			return ErrZeroAddress
		}
		previous := l.Owner
		l.Owner = next
		e.emit(events.SaleOwnershipTransferred{Old: previous, New: next})
		return nil
	})
}

// Pause blocks purchases and claims until Unpause.
func (e *Engine) Pause(caller common.Address) error {
	return e.setPaused(caller, true)
}

// Unpause lifts a previous Pause.
func (e *Engine) Unpause(caller common.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller common.Address, paused bool) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		l.Paused = paused
		e.emit(events.SalePauseToggled{Paused: paused, Caller: caller})
		return nil
	})
}

// SetUnitPrice revises the USD price of one sold unit.
func (e *Engine) SetUnitPrice(caller common.Address, price *uint256.Int) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if price == nil || price.IsZero() {
			return ErrInvalidPrice
		}
		previous := l.Config.UnitPrice
		l.Config.UnitPrice = price.Clone()
		e.emit(events.SalePriceUpdated{Old: cloneAmount(previous), New: price.Clone()})
		return nil
	})
}

// SetHardCap revises the cap. It can never drop below the amount raised.
func (e *Engine) SetHardCap(caller common.Address, hardCap *uint256.Int) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if hardCap == nil || hardCap.IsZero() || hardCap.Lt(l.Raise.TotalRaised) {
			return ErrInvalidHardCap
		}
		previous := l.Config.HardCap
		l.Config.HardCap = hardCap.Clone()
		e.emit(events.SaleHardCapUpdated{Old: cloneAmount(previous), New: hardCap.Clone()})
		return nil
	})
}

// SetReferralPercent sets the referral reward in basis points of the USD amount.
func (e *Engine) SetReferralPercent(caller common.Address, bps uint64) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if bps > 10_000 {
			return ErrReferralPercent
		}
		previous := l.ReferralBps
		l.ReferralBps = bps
		e.emit(events.SaleReferralPercentChanged{Old: previous, New: bps})
		return nil
	})
}

// AddInstrument accepts a new payment instrument.
func (e *Engine) AddInstrument(caller, instrument common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if instrument == (common.Address{}) {
			return ErrZeroAddress
		}
		if instrument == l.Config.SoldAsset {
			return ErrSoldAssetAsInstrument
		}
		if l.Payments.Accepted[instrument] {
			return ErrInstrumentAccepted
		}
		if _, err := resolveToken(e.host, instrument); err != nil {
			return err
		}
		l.Payments.Accepted[instrument] = true
		l.Payments.Known[instrument] = true
		l.Payments.Order = append(l.Payments.Order, instrument)
		e.emit(events.SaleInstrumentStatus{Instrument: instrument, Accepted: true})
		return nil
	})
}

// RemoveInstrument stops accepting instrument. Balances already collected can
// still be withdrawn. Removing the primary instrument clears it.
func (e *Engine) RemoveInstrument(caller, instrument common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if !l.Payments.Accepted[instrument] {
			return ErrInstrumentNotAccepted
		}
		delete(l.Payments.Accepted, instrument)
		order := l.Payments.Order[:0]
		for _, addr := range l.Payments.Order {
			if addr != instrument {
				order = append(order, addr)
			}
		}
		l.Payments.Order = order
		e.emit(events.SaleInstrumentStatus{Instrument: instrument, Accepted: false})
		if l.Payments.Primary == instrument {
			l.Payments.Primary = common.Address{}
			e.emit(events.SalePrimaryInstrument{Old: instrument})
		}
		return nil
	})
}

// SetPrimaryInstrument selects the accepted instrument used for class-A payouts.
func (e *Engine) SetPrimaryInstrument(caller, instrument common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if !l.Payments.Accepted[instrument] {
			return ErrInstrumentNotAccepted
		}
		previous := l.Payments.Primary
		l.Payments.Primary = instrument
		e.emit(events.SalePrimaryInstrument{Old: previous, New: instrument})
		return nil
	})
}

// SetPriceFeed points the native-asset price at feed.
func (e *Engine) SetPriceFeed(caller, feed common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if _, err := resolveFeed(e.host, feed); err != nil {
			return err
		}
		previous := l.PriceFeed
		l.PriceFeed = feed
		e.emit(events.SalePriceFeedChanged{Old: previous, New: feed})
		return nil
	})
}

// UpdateTiming moves the sale window. Only allowed before the sale starts.
func (e *Engine) UpdateTiming(caller common.Address, start, end uint64) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if e.now() >= l.Config.Start {
			return ErrSaleStarted
		}
		if start >= end {
			return ErrInvalidTiming
		}
		if l.Vesting.Duration > 0 && l.Vesting.Start < end {
			return fmt.Errorf("%w: vesting start %d < end %d", ErrVestingStart, l.Vesting.Start, end)
		}
		l.Config.Start = start
		l.Config.End = end
		e.emit(events.SaleTimingChanged{Start: start, End: end})
		return nil
	})
}

// SetRoundRewardClass stores an explicit reward class for round.
func (e *Engine) SetRoundRewardClass(caller common.Address, round uint64, class RewardClass) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if round == 0 {
			return ErrInvalidRound
		}
		if class != RewardClassA && class != RewardClassB {
			return ErrInvalidRewardClass
		}
		l.Rounds.Overrides[round] = class
		e.emit(events.RoundRewardClassSet{Round: round, RewardClass: class.String()})
		return nil
	})
}

// SetCurrentRound activates round for subsequent referral accruals.
func (e *Engine) SetCurrentRound(caller common.Address, round uint64) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if round == 0 {
			return ErrInvalidRound
		}
		l.Rounds.Current = round
		e.emit(events.RoundChanged{Round: round, RewardClass: l.Rounds.ClassFor(round).String()})
		return nil
	})
}

// SetWallets replaces the three payout destinations.
func (e *Engine) SetWallets(caller, walletA, walletB, treasury common.Address) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if walletA == (common.Address{}) || walletB == (common.Address{}) || treasury == (common.Address{}) {
			return ErrZeroAddress
		}
		l.Wallets.WalletA = walletA
		l.Wallets.WalletB = walletB
		l.Wallets.Treasury = treasury
		e.emit(events.SaleWalletsChanged{WalletA: walletA, WalletB: walletB, Treasury: treasury})
		return nil
	})
}

// SetWalletShares replaces the basis-point split. The shares must sum to 10000.
func (e *Engine) SetWalletShares(caller common.Address, shareA, shareB, shareTreasury uint64) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if err := validateShares(shareA, shareB, shareTreasury); err != nil {
			return err
		}
		l.Wallets.ShareA = shareA
		l.Wallets.ShareB = shareB
		l.Wallets.ShareTreasury = shareTreasury
		e.emit(events.SaleWalletSharesChanged{ShareA: shareA, ShareB: shareB, ShareTreasury: shareTreasury})
		return nil
	})
}

// SetStalenessThreshold bounds the accepted price age to seconds (1s..7d).
func (e *Engine) SetStalenessThreshold(caller common.Address, seconds uint64) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if seconds == 0 || seconds > MaxStalenessSeconds {
			return ErrStalenessRange
		}
		previous := l.StalenessSecs
		l.StalenessSecs = seconds
		e.emit(events.SaleStalenessChanged{Old: previous, New: seconds})
		return nil
	})
}

// RecoverToken sweeps amount of a stray token to the owner. The sold asset and
// accepted instruments are never recoverable.
func (e *Engine) RecoverToken(caller, token common.Address, amount *uint256.Int) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if token == l.Config.SoldAsset || l.Payments.Accepted[token] {
			return ErrProtectedAsset
		}
		if amount == nil || amount.IsZero() {
			return ErrZeroAmount
		}
		stray, err := resolveToken(e.host, token)
		if err != nil {
			return err
		}
		if err := stray.Transfer(e.host.Self(), l.Owner, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		e.emit(events.SaleTokenRecovered{Token: token, To: l.Owner, Amount: amount.Clone()})
		return nil
	})
}
