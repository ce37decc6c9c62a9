package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
)

// Validate checks that all destinations are set and the shares sum to 10000.
func (w WalletPolicy) Validate() error {
	if w.WalletA == (common.Address{}) || w.WalletB == (common.Address{}) || w.Treasury == (common.Address{}) {
		return ErrZeroAddress
	}
	return validateShares(w.ShareA, w.ShareB, w.ShareTreasury)
}

func validateShares(a, b, treasury uint64) error {
	if a > 10_000 || b > 10_000 || treasury > 10_000 || a+b+treasury != 10_000 {
		return fmt.Errorf("%w: %d+%d+%d", ErrWalletShares, a, b, treasury)
	}
	return nil
}

// Split divides amount by the policy shares using floor division. The
// rounding remainder, at most two base units, is not distributed and stays
// with the ledger.
func (w WalletPolicy) Split(amount *uint256.Int) (toA, toB, toTreasury *uint256.Int, err error) {
	if toA, err = ApplyBps(amount, w.ShareA); err != nil {
		return nil, nil, nil, err
	}
	if toB, err = ApplyBps(amount, w.ShareB); err != nil {
		return nil, nil, nil, err
	}
	if toTreasury, err = ApplyBps(amount, w.ShareTreasury); err != nil {
		return nil, nil, nil, err
	}
	return toA, toB, toTreasury, nil
}

type payout struct {
	to     common.Address
	amount *uint256.Int
}

func (w WalletPolicy) payouts(amount *uint256.Int) ([]payout, *events.SaleFundsDistributed, error) {
	toA, toB, toTreasury, err := w.Split(amount)
	if err != nil {
		return nil, nil, err
	}
	plan := []payout{
		{to: w.WalletA, amount: toA},
		{to: w.WalletB, amount: toB},
		{to: w.Treasury, amount: toTreasury},
	}
	return plan, &events.SaleFundsDistributed{ToA: toA.Clone(), ToB: toB.Clone(), ToTreasury: toTreasury.Clone()}, nil
}

// distributeNative sends amount of native currency held by the ledger to the
// three wallets. Any failed transfer fails the whole distribution.
func (e *Engine) distributeNative(l *Ledger, amount *uint256.Int) error {
	plan, evt, err := l.Wallets.payouts(amount)
	if err != nil {
		return err
	}
	self := e.host.Self()
	for _, p := range plan {
		if p.amount.IsZero() {
			continue
		}
		if err := e.host.TransferNative(self, p.to, p.amount); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrTransferFailed, p.to.Hex(), err)
		}
	}
	e.emit(*evt)
	return nil
}

// WithdrawInstrument routes the ledger's entire balance of a registered
// instrument through the wallet policy.
func (e *Engine) WithdrawInstrument(caller, instrument common.Address) (*uint256.Int, error) {
	var withdrawn *uint256.Int
	err := e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if !l.Payments.Known[instrument] {
			return fmt.Errorf("%w: %s", ErrInstrumentNotAccepted, instrument.Hex())
		}
		token, err := resolveToken(e.host, instrument)
		if err != nil {
			return err
		}
		self := e.host.Self()
		balance := token.BalanceOf(self)
		if balance == nil || balance.IsZero() {
			return ErrNothingToWithdraw
		}
		plan, evt, err := l.Wallets.payouts(balance)
		if err != nil {
			return err
		}
		for _, p := range plan {
			if p.amount.IsZero() {
				continue
			}
			if err := token.Transfer(self, p.to, p.amount); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrTransferFailed, p.to.Hex(), err)
			}
		}
		evt.Asset = instrument
		e.emit(*evt)
		withdrawn = balance.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}
