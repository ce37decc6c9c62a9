package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
)

// Purchase summarises an accepted contribution. Instrument is the zero
// address for native-currency payments and RawAmount is what the ledger
// actually received.
type Purchase struct {
	Buyer      common.Address
	Instrument common.Address
	RawAmount  *uint256.Int
	USDAmount  *uint256.Int
	Units      *uint256.Int
}

// unitsFor converts an internal USD amount into sold-asset units at price.
func unitsFor(usdAmount, unitPrice *uint256.Int) (*uint256.Int, error) {
	if unitPrice == nil || unitPrice.IsZero() {
		return nil, ErrInvalidPrice
	}
	return MulDiv(usdAmount, unitScale, unitPrice)
}

func checkHardCap(l *Ledger, usdAmount *uint256.Int) error {
	next, err := checkedAdd(l.Raise.TotalRaised, usdAmount)
	if err != nil {
		return err
	}
	if next.Gt(l.Config.HardCap) {
		return fmt.Errorf("%w: raised %s + %s > cap %s", ErrHardCapExceeded, l.Raise.TotalRaised.Dec(), usdAmount.Dec(), l.Config.HardCap.Dec())
	}
	return nil
}

// BuyWithNative accepts value of the native currency from buyer, priced with
// the configured feed, and routes it straight to the payout wallets. referrer
// may be the zero address.
func (e *Engine) BuyWithNative(buyer common.Address, value *uint256.Int, referrer common.Address) (*Purchase, error) {
	var purchase *Purchase
	err := e.execute(func(l *Ledger) error {
		if err := e.requireActive(l); err != nil {
			return err
		}
		if buyer == (common.Address{}) {
			return ErrZeroAddress
		}
		if value == nil || value.IsZero() {
			return ErrZeroAmount
		}
		price, err := e.readPrice(l)
		if err != nil {
			return err
		}
		usdAmount, err := MulDiv(value, price, unitScale)
		if err != nil {
			return err
		}
		if usdAmount.IsZero() {
			return ErrAmountTooSmall
		}
		if err := checkHardCap(l, usdAmount); err != nil {
			return err
		}
		if err := e.host.TransferNative(buyer, e.host.Self(), value); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		purchase, err = e.recordPurchase(l, buyer, common.Address{}, value, usdAmount, referrer)
		if err != nil {
			return err
		}
		return e.distributeNative(l, value)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// BuyWithInstrument pulls amount of an accepted instrument from buyer. The
// buyer is credited for the balance the ledger actually gained, which may be
// less than amount for instruments that charge a transfer fee. The funds stay
// with the ledger until WithdrawInstrument.
func (e *Engine) BuyWithInstrument(buyer, instrument common.Address, amount *uint256.Int, referrer common.Address) (*Purchase, error) {
	var purchase *Purchase
	err := e.execute(func(l *Ledger) error {
		if err := e.requireActive(l); err != nil {
			return err
		}
		if buyer == (common.Address{}) {
			return ErrZeroAddress
		}
		if !l.Payments.Accepted[instrument] {
			return fmt.Errorf("%w: %s", ErrInstrumentNotAccepted, instrument.Hex())
		}
		if amount == nil || amount.IsZero() {
			return ErrZeroAmount
		}
		token, err := resolveToken(e.host, instrument)
		if err != nil {
			return err
		}
		decimals, err := TokenDecimals(token)
		if err != nil {
			return err
		}
		requested, err := ToInternal(amount, decimals)
		if err != nil {
			return err
		}
		if err := checkHardCap(l, requested); err != nil {
			return err
		}

		self := e.host.Self()
		before := token.BalanceOf(self)
		if err := token.TransferFrom(self, buyer, self, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		after := token.BalanceOf(self)
		if after == nil || before == nil || !after.Gt(before) {
			return ErrNothingReceived
		}
		received := new(uint256.Int).Sub(after, before)

		usdAmount, err := ToInternal(received, decimals)
		if err != nil {
			return err
		}
		if usdAmount.IsZero() {
			return ErrAmountTooSmall
		}
		if err := checkHardCap(l, usdAmount); err != nil {
			return err
		}
		purchase, err = e.recordPurchase(l, buyer, instrument, received, usdAmount, referrer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (e *Engine) recordPurchase(l *Ledger, buyer, instrument common.Address, raw, usdAmount *uint256.Int, referrer common.Address) (*Purchase, error) {
	units, err := unitsFor(usdAmount, l.Config.UnitPrice)
	if err != nil {
		return nil, err
	}
	if units.IsZero() {
		return nil, ErrAmountTooSmall
	}
	if err := credit(l.Raise.Contributions, buyer, usdAmount); err != nil {
		return nil, err
	}
	if err := credit(l.Raise.Purchased, buyer, units); err != nil {
		return nil, err
	}
	if err := credit(l.Raise.Claimable, buyer, units); err != nil {
		return nil, err
	}
	if l.Raise.TotalRaised, err = checkedAdd(l.Raise.TotalRaised, usdAmount); err != nil {
		return nil, err
	}
	if l.Raise.TotalClaimable, err = checkedAdd(l.Raise.TotalClaimable, units); err != nil {
		return nil, err
	}
	if referrer != (common.Address{}) && referrer != buyer {
		if err := e.recordReferral(l, buyer, referrer, usdAmount); err != nil {
			return nil, err
		}
	}
	e.emit(events.NewSalePurchase(buyer, instrument, usdAmount, units, raw))
	return &Purchase{
		Buyer:      buyer,
		Instrument: instrument,
		RawAmount:  raw.Clone(),
		USDAmount:  usdAmount.Clone(),
		Units:      units,
	}, nil
}
