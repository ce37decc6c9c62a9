package sale

import (
	"errors"

	nativecommon "presale/native/common"
)

// Kind classifies a failure so integrators can branch on its cause.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindValidation marks malformed, zero or out-of-range parameters.
	KindValidation
	// KindState marks operations that are not allowed in the current ledger state.
	KindState
	// KindDependency marks failures of an external collaborator.
	KindDependency
	// KindAuthorization marks callers or candidates that are not permitted.
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindDependency:
		return "dependency"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// Error is a categorised ledger failure with a stable reason string.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func newError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// KindOf returns the category of err. Guard failures from the shared pause and
// re-entrancy primitives are state errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var saleErr *Error
	if errors.As(err, &saleErr) {
		return saleErr.Kind
	}
	if errors.Is(err, nativecommon.ErrModulePaused) || errors.Is(err, nativecommon.ErrReentrantCall) {
		return KindState
	}
	return KindUnknown
}

var errNilState = errors.New("sale engine: state not configured")

// Validation errors.
var (
	ErrZeroAmount            = newError(KindValidation, "sale: amount must be positive")
	ErrZeroAddress           = newError(KindValidation, "sale: address must not be zero")
	ErrInvalidPrice          = newError(KindValidation, "sale: unit price must be positive")
	ErrInvalidHardCap        = newError(KindValidation, "sale: hard cap must be positive and cover the amount raised")
	ErrInvalidTiming         = newError(KindValidation, "sale: start must precede end")
	ErrReferralPercent       = newError(KindValidation, "sale: referral percent exceeds 10000 bps")
	ErrWalletShares          = newError(KindValidation, "sale: wallet shares must sum to 10000 bps")
	ErrInvalidRound          = newError(KindValidation, "sale: round must be at least 1")
	ErrInvalidRewardClass    = newError(KindValidation, "sale: unknown reward class")
	ErrInvalidVesting        = newError(KindValidation, "sale: vesting duration must be positive and cover the cliff")
	ErrVestingStart          = newError(KindValidation, "sale: vesting must start at or after sale end")
	ErrStalenessRange        = newError(KindValidation, "sale: staleness threshold must be between 1s and 7d")
	ErrSelfReferral          = newError(KindValidation, "sale: buyer cannot refer themselves")
	ErrAmountTooSmall        = newError(KindValidation, "sale: amount converts to zero")
	ErrOverflow              = newError(KindValidation, "sale: arithmetic overflow")
	ErrInstrumentNotAccepted = newError(KindValidation, "sale: instrument not accepted")
	ErrInstrumentAccepted    = newError(KindValidation, "sale: instrument already accepted")
	ErrSoldAssetAsInstrument = newError(KindValidation, "sale: sold asset cannot be a payment instrument")
	ErrProtectedAsset        = newError(KindValidation, "sale: sold asset and accepted instruments cannot be recovered")
	ErrInvalidImplementation = newError(KindValidation, "sale: implementation must be a new code-bearing address")
)

// State errors.
var (
	ErrSaleNotStarted      = newError(KindState, "sale: not started")
	ErrSaleEnded           = newError(KindState, "sale: ended")
	ErrSaleNotEnded        = newError(KindState, "sale: not ended")
	ErrSaleStarted         = newError(KindState, "sale: timing is locked once the sale starts")
	ErrHardCapExceeded     = newError(KindState, "sale: hard cap exceeded")
	ErrNothingToClaim      = newError(KindState, "sale: nothing to claim")
	ErrNothingToWithdraw   = newError(KindState, "sale: nothing to withdraw")
	ErrNoPrimaryInstrument = newError(KindState, "sale: primary instrument not configured")
	ErrNoPriceFeed         = newError(KindState, "sale: price feed not configured")
)

// Dependency errors.
var (
	ErrPriceNotPositive     = newError(KindDependency, "sale: price must be positive")
	ErrPriceIncompleteRound = newError(KindDependency, "sale: price round incomplete")
	ErrPriceStale           = newError(KindDependency, "sale: price stale")
	ErrPriceUnavailable     = newError(KindDependency, "sale: price reading unavailable")
	ErrDecimalsUnsupported  = newError(KindDependency, "sale: instrument does not report decimals")
	ErrTransferFailed       = newError(KindDependency, "sale: transfer failed")
	ErrNothingReceived      = newError(KindDependency, "sale: no funds received")
	ErrUnknownContract      = newError(KindDependency, "sale: address does not resolve to the expected contract")
)

// Authorization errors.
var (
	ErrUnauthorized         = newError(KindAuthorization, "sale: caller is not the owner")
	ErrImplementationDenied = newError(KindAuthorization, "sale: implementation not authorized")
	ErrVersionNotIncreasing = newError(KindAuthorization, "sale: implementation version must increase")
	ErrVersionUnsupported   = newError(KindAuthorization, "sale: implementation does not report a version")
)
