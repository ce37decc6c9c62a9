package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
	nativecommon "presale/native/common"
)

// Releasable computes how many of claimable units may be released at now
// given the units already counted as released. It never returns more than
// claimable-counted.
func Releasable(schedule VestingSchedule, claimable, counted *uint256.Int, now uint64) (*uint256.Int, error) {
	if claimable == nil || claimable.IsZero() {
		return zero(), nil
	}
	remaining := saturatingSub(claimable, counted)
	if schedule.Duration == 0 {
		return remaining, nil
	}
	if now < saturatingAdd(schedule.Start, schedule.Cliff) {
		return zero(), nil
	}
	if now >= saturatingAdd(schedule.Start, schedule.Duration) {
		return remaining, nil
	}
	elapsed := uint256.NewInt(now - schedule.Start)
	vested, err := MulDiv(claimable, elapsed, uint256.NewInt(schedule.Duration))
	if err != nil {
		return nil, err
	}
	return saturatingSub(vested, counted), nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

// Available returns the units user can release right now.
func (e *Engine) Available(user common.Address) (*uint256.Int, error) {
	var (
		out *uint256.Int
		err error
	)
	e.view(func(l *Ledger) {
		out, err = Releasable(l.Vesting, amountOf(l.Raise.Claimable, user), amountOf(l.Released, user), e.now())
	})
	if out == nil && err == nil {
		return nil, errNilState
	}
	return out, err
}

// ConfigureVesting installs the global release schedule. The owner may
// overwrite it, but the start can never precede the end of the sale.
func (e *Engine) ConfigureVesting(caller common.Address, cliff, duration, start uint64, revocable bool) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if duration == 0 || cliff > duration {
			return ErrInvalidVesting
		}
		if start < l.Config.End {
			return fmt.Errorf("%w: start %d < end %d", ErrVestingStart, start, l.Config.End)
		}
		l.Vesting = VestingSchedule{Cliff: cliff, Duration: duration, Start: start, Revocable: revocable}
		e.emit(events.SaleVestingConfigured{Cliff: cliff, Duration: duration, Start: start, Revocable: revocable})
		return nil
	})
}

// ClaimTokens releases the caller's currently available units once the sale
// has ended and advances the caller's released counter.
func (e *Engine) ClaimTokens(caller common.Address) (*uint256.Int, error) {
	var released *uint256.Int
	err := e.execute(func(l *Ledger) error {
		if err := nativecommon.Guard(l, moduleName); err != nil {
			return err
		}
		if e.now() <= l.Config.End {
			return ErrSaleNotEnded
		}
		amount, err := Releasable(l.Vesting, amountOf(l.Raise.Claimable, caller), amountOf(l.Released, caller), e.now())
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return ErrNothingToClaim
		}
		if err := credit(l.Released, caller, amount); err != nil {
			return err
		}
		if l.TotalReleased, err = checkedAdd(l.TotalReleased, amount); err != nil {
			return err
		}
		token, err := resolveToken(e.host, l.Config.SoldAsset)
		if err != nil {
			return err
		}
		if err := token.Transfer(e.host.Self(), caller, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		e.emit(events.SaleTokensClaimed{Beneficiary: caller, Amount: amount.Clone()})
		released = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}
