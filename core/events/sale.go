package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/types"
)

const (
	// TypeSalePurchase is emitted for every accepted contribution.
	TypeSalePurchase = "sale.purchase"
	// TypeSaleFundsDistributed is emitted when collected funds are split
	// across the payout wallets.
	TypeSaleFundsDistributed = "sale.funds.distributed"
	// TypeSaleTokensClaimed is emitted when vested units are released.
	TypeSaleTokensClaimed = "sale.tokens.claimed"
	// TypeSaleVestingConfigured is emitted when the global schedule changes.
	TypeSaleVestingConfigured = "sale.vesting.configured"
	// TypeSaleTokenRecovered is emitted when stray assets are swept to the owner.
	TypeSaleTokenRecovered = "sale.token.recovered"
)

// NativeAsset is the instrument label used for native-currency payments.
const NativeAsset = "native"

// SalePurchase records a single accepted contribution.
type SalePurchase struct {
	Buyer      common.Address
	USDAmount  *uint256.Int
	Units      *uint256.Int
	Instrument common.Address
	RawAmount  *uint256.Int
}

// EventType implements the Event interface.
func (SalePurchase) EventType() string { return TypeSalePurchase }

// Event renders the purchase as a flat attribute record.
func (e SalePurchase) Event() *types.Event {
	instrument := NativeAsset
	if e.Instrument != (common.Address{}) {
		instrument = e.Instrument.Hex()
	}
	return &types.Event{
		Type: TypeSalePurchase,
		Attributes: map[string]string{
			"buyer":      addressString(e.Buyer),
			"usdAmount":  amountString(e.USDAmount),
			"units":      amountString(e.Units),
			"instrument": instrument,
			"rawAmount":  amountString(e.RawAmount),
		},
	}
}

// SaleFundsDistributed captures a wallet split of collected funds. Asset is
// empty for native currency.
type SaleFundsDistributed struct {
	Asset      common.Address
	ToA        *uint256.Int
	ToB        *uint256.Int
	ToTreasury *uint256.Int
}

// EventType implements the Event interface.
func (SaleFundsDistributed) EventType() string { return TypeSaleFundsDistributed }

// Event renders the distribution as a flat attribute record.
func (e SaleFundsDistributed) Event() *types.Event {
	asset := NativeAsset
	if e.Asset != (common.Address{}) {
		asset = e.Asset.Hex()
	}
	return &types.Event{
		Type: TypeSaleFundsDistributed,
		Attributes: map[string]string{
			"asset":      asset,
			"toA":        amountString(e.ToA),
			"toB":        amountString(e.ToB),
			"toTreasury": amountString(e.ToTreasury),
		},
	}
}

// SaleTokensClaimed records a release of vested units.
type SaleTokensClaimed struct {
	Beneficiary common.Address
	Amount      *uint256.Int
}

// EventType implements the Event interface.
func (SaleTokensClaimed) EventType() string { return TypeSaleTokensClaimed }

// Event renders the release as a flat attribute record.
func (e SaleTokensClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleTokensClaimed,
		Attributes: map[string]string{
			"beneficiary": addressString(e.Beneficiary),
			"amount":      amountString(e.Amount),
		},
	}
}

// SaleVestingConfigured captures the active vesting schedule.
type SaleVestingConfigured struct {
	Cliff     uint64
	Duration  uint64
	Start     uint64
	Revocable bool
}

// EventType implements the Event interface.
func (SaleVestingConfigured) EventType() string { return TypeSaleVestingConfigured }

// Event renders the schedule as a flat attribute record.
func (e SaleVestingConfigured) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleVestingConfigured,
		Attributes: map[string]string{
			"cliff":     uintString(e.Cliff),
			"duration":  uintString(e.Duration),
			"start":     uintString(e.Start),
			"revocable": strconv.FormatBool(e.Revocable),
		},
	}
}

// SaleTokenRecovered records an emergency sweep of a stray asset.
type SaleTokenRecovered struct {
	Token  common.Address
	To     common.Address
	Amount *uint256.Int
}

// EventType implements the Event interface.
func (SaleTokenRecovered) EventType() string { return TypeSaleTokenRecovered }

// Event renders the recovery as a flat attribute record.
func (e SaleTokenRecovered) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleTokenRecovered,
		Attributes: map[string]string{
			"token":  addressString(e.Token),
			"to":     addressString(e.To),
			"amount": amountString(e.Amount),
		},
	}
}

// NewSalePurchase copies the supplied amounts so later ledger mutations do not
// alias the emitted record.
func NewSalePurchase(buyer, instrument common.Address, usd, units, raw *uint256.Int) SalePurchase {
	return SalePurchase{
		Buyer:      buyer,
		USDAmount:  cloneAmount(usd),
		Units:      cloneAmount(units),
		Instrument: instrument,
		RawAmount:  cloneAmount(raw),
	}
}
