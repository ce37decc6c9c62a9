package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/types"
)

// Host is the execution environment the ledger runs in. It owns native
// balances and resolves the contracts deployed at an address. Snapshot and
// RevertToSnapshot must undo every balance change made through the host or
// any contract it resolves.
type Host interface {
	Self() common.Address
	HasCode(addr common.Address) bool
	Contract(addr common.Address) (any, bool)
	TransferNative(from, to common.Address, amount *uint256.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// Token is a fungible asset: either a payment instrument or the sold asset.
// Transfer moves funds owned by from; TransferFrom moves funds on behalf of
// spender and requires an allowance.
type Token interface {
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

// DecimalsReporter is the optional precision capability of a Token. The bool
// result is false when the contract does not implement the query.
type DecimalsReporter interface {
	Decimals() (uint8, bool)
}

// PriceFeed is a read-only external price reference.
type PriceFeed interface {
	LatestReading() (types.PriceReading, error)
}

// Versioned is the version query an upgrade candidate must expose. The bool
// result is false when the candidate does not implement it.
type Versioned interface {
	Version() (uint64, bool)
}

// Migrator is implemented by upgrade candidates that need to transform the
// ledger when they are installed.
type Migrator interface {
	Migrate(l *Ledger) error
}

func resolveToken(host Host, addr common.Address) (Token, error) {
	contract, ok := host.Contract(addr)
	if !ok {
		return nil, fmt.Errorf("%w: token %s", ErrUnknownContract, addr.Hex())
	}
	token, ok := contract.(Token)
	if !ok {
		return nil, fmt.Errorf("%w: token %s", ErrUnknownContract, addr.Hex())
	}
	return token, nil
}

func resolveFeed(host Host, addr common.Address) (PriceFeed, error) {
	if addr == (common.Address{}) {
		return nil, ErrNoPriceFeed
	}
	contract, ok := host.Contract(addr)
	if !ok {
		return nil, fmt.Errorf("%w: feed %s", ErrUnknownContract, addr.Hex())
	}
	feed, ok := contract.(PriceFeed)
	if !ok {
		return nil, fmt.Errorf("%w: feed %s", ErrUnknownContract, addr.Hex())
	}
	return feed, nil
}

// TokenDecimals negotiates the precision capability of token. A token that
// cannot report its decimals is rejected rather than assigned a default.
func TokenDecimals(token Token) (uint8, error) {
	reporter, ok := token.(DecimalsReporter)
	if !ok {
		return 0, ErrDecimalsUnsupported
	}
	decimals, supported := reporter.Decimals()
	if !supported {
		return 0, ErrDecimalsUnsupported
	}
	return decimals, nil
}

func feedDecimals(feed PriceFeed) uint8 {
	if reporter, ok := feed.(interface{ Decimals() uint8 }); ok {
		return reporter.Decimals()
	}
	return DefaultFeedDecimals
}
