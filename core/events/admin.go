package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/types"
)

const (
	TypeSalePriceUpdated           = "sale.admin.price_updated"
	TypeSaleHardCapUpdated         = "sale.admin.hard_cap_updated"
	TypeSaleInstrumentStatus       = "sale.admin.instrument_status"
	TypeSalePrimaryInstrument      = "sale.admin.primary_instrument"
	TypeSalePriceFeedChanged       = "sale.admin.price_feed"
	TypeSaleTimingChanged          = "sale.admin.timing"
	TypeSaleWalletsChanged         = "sale.admin.wallets"
	TypeSaleWalletSharesChanged    = "sale.admin.wallet_shares"
	TypeSaleReferralPercentChanged = "sale.admin.referral_percent"
	TypeSaleStalenessChanged       = "sale.admin.staleness"
	TypeSalePaused                 = "sale.admin.paused"
	TypeSaleUnpaused               = "sale.admin.unpaused"
	TypeSaleOwnershipTransferred   = "sale.admin.ownership"
	TypeSaleImplementationAuth     = "sale.upgrade.authorization"
	TypeSaleWhitelistToggled       = "sale.upgrade.whitelist"
	TypeSaleUpgraded               = "sale.upgrade.applied"
)

// SalePriceUpdated captures a unit price revision.
type SalePriceUpdated struct {
	Old *uint256.Int
	New *uint256.Int
}

// EventType implements the Event interface.
func (SalePriceUpdated) EventType() string { return TypeSalePriceUpdated }

// Event renders the revision as a flat attribute record.
func (e SalePriceUpdated) Event() *types.Event {
	return &types.Event{
		Type:       TypeSalePriceUpdated,
		Attributes: map[string]string{"old": amountString(e.Old), "new": amountString(e.New)},
	}
}

// SaleHardCapUpdated captures a hard cap revision.
type SaleHardCapUpdated struct {
	Old *uint256.Int
	New *uint256.Int
}

// EventType implements the Event interface.
func (SaleHardCapUpdated) EventType() string { return TypeSaleHardCapUpdated }

// SaleInstrumentStatus captures a change in the accepted-instrument registry.
type SaleInstrumentStatus struct {
	Instrument common.Address
	Accepted   bool
}

// EventType implements the Event interface.
func (SaleInstrumentStatus) EventType() string { return TypeSaleInstrumentStatus }

// SalePrimaryInstrument captures a change of the reward payout instrument.
type SalePrimaryInstrument struct {
	Old common.Address
	New common.Address
}

// EventType implements the Event interface.
func (SalePrimaryInstrument) EventType() string { return TypeSalePrimaryInstrument }

// SalePriceFeedChanged captures a new native-asset price reference.
type SalePriceFeedChanged struct {
	Old common.Address
	New common.Address
}

// EventType implements the Event interface.
func (SalePriceFeedChanged) EventType() string { return TypeSalePriceFeedChanged }

// Event renders the change as a flat attribute record.
func (e SalePriceFeedChanged) Event() *types.Event {
	return &types.Event{
		Type:       TypeSalePriceFeedChanged,
		Attributes: map[string]string{"old": addressString(e.Old), "new": addressString(e.New)},
	}
}

// SaleTimingChanged captures a revised sale window.
type SaleTimingChanged struct {
	Start uint64
	End   uint64
}

// EventType implements the Event interface.
func (SaleTimingChanged) EventType() string { return TypeSaleTimingChanged }

// Event renders the window as a flat attribute record.
func (e SaleTimingChanged) Event() *types.Event {
	return &types.Event{
		Type:       TypeSaleTimingChanged,
		Attributes: map[string]string{"start": uintString(e.Start), "end": uintString(e.End)},
	}
}

// SaleWalletsChanged captures new payout destinations.
type SaleWalletsChanged struct {
	WalletA  common.Address
	WalletB  common.Address
	Treasury common.Address
}

// EventType implements the Event interface.
func (SaleWalletsChanged) EventType() string { return TypeSaleWalletsChanged }

// SaleWalletSharesChanged captures a new basis-point split.
type SaleWalletSharesChanged struct {
	ShareA        uint64
	ShareB        uint64
	ShareTreasury uint64
}

// EventType implements the Event interface.
func (SaleWalletSharesChanged) EventType() string { return TypeSaleWalletSharesChanged }

// SaleReferralPercentChanged captures a new referral reward rate.
type SaleReferralPercentChanged struct {
	Old uint64
	New uint64
}

// EventType implements the Event interface.
func (SaleReferralPercentChanged) EventType() string { return TypeSaleReferralPercentChanged }

// SaleStalenessChanged captures a new price staleness threshold in seconds.
type SaleStalenessChanged struct {
	Old uint64
	New uint64
}

// EventType implements the Event interface.
func (SaleStalenessChanged) EventType() string { return TypeSaleStalenessChanged }

// SalePauseToggled is emitted on pause and unpause.
type SalePauseToggled struct {
	Paused bool
	Caller common.Address
}

// EventType implements the Event interface.
func (e SalePauseToggled) EventType() string {
	if e.Paused {
		return TypeSalePaused
	}
	return TypeSaleUnpaused
}

// SaleOwnershipTransferred captures a change of the privileged principal.
type SaleOwnershipTransferred struct {
	Old common.Address
	New common.Address
}

// EventType implements the Event interface.
func (SaleOwnershipTransferred) EventType() string { return TypeSaleOwnershipTransferred }

// SaleImplementationAuth captures a whitelist entry change.
type SaleImplementationAuth struct {
	Implementation common.Address
	Authorized     bool
}

// EventType implements the Event interface.
func (SaleImplementationAuth) EventType() string { return TypeSaleImplementationAuth }

// SaleWhitelistToggled captures the whitelist enforcement flag.
type SaleWhitelistToggled struct {
	Enabled bool
}

// EventType implements the Event interface.
func (SaleWhitelistToggled) EventType() string { return TypeSaleWhitelistToggled }

// SaleUpgraded captures an accepted implementation upgrade.
type SaleUpgraded struct {
	Old     common.Address
	New     common.Address
	Version uint64
}

// EventType implements the Event interface.
func (SaleUpgraded) EventType() string { return TypeSaleUpgraded }

// Event renders the upgrade as a flat attribute record.
func (e SaleUpgraded) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleUpgraded,
		Attributes: map[string]string{
			"old":     addressString(e.Old),
			"new":     addressString(e.New),
			"version": uintString(e.Version),
		},
	}
}
