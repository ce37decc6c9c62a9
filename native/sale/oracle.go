package sale

import (
	"fmt"

	"github.com/holiman/uint256"

	"presale/core/types"
)

// NormalizeReading validates a price reading and rescales it to the internal
// 18-decimal unit. Each rejection reason maps to a distinct error so callers
// can tell a broken feed from a slow one.
func NormalizeReading(reading types.PriceReading, decimals uint8, now, maxAge uint64) (*uint256.Int, error) {
	if reading.Answer == nil || reading.Answer.Sign() <= 0 {
		return nil, ErrPriceNotPositive
	}
	if reading.UpdatedAt == 0 || reading.AnsweredInRound < reading.RoundID {
		return nil, fmt.Errorf("%w: round %d answered in %d", ErrPriceIncompleteRound, reading.RoundID, reading.AnsweredInRound)
	}
	if now > reading.UpdatedAt && now-reading.UpdatedAt > maxAge {
		return nil, fmt.Errorf("%w: age %ds exceeds %ds", ErrPriceStale, now-reading.UpdatedAt, maxAge)
	}
	answer, overflow := uint256.FromBig(reading.Answer)
	if overflow {
		return nil, fmt.Errorf("%w: price answer", ErrOverflow)
	}
	return ToInternal(answer, decimals)
}

// ReadPrice returns the validated native-asset price from the configured
// feed in the internal unit.
func (e *Engine) ReadPrice() (*uint256.Int, error) {
	if e == nil || e.ledger == nil || e.host == nil {
		return nil, errNilState
	}
	return e.readPrice(e.ledger)
}

func (e *Engine) readPrice(l *Ledger) (*uint256.Int, error) {
	feed, err := resolveFeed(e.host, l.PriceFeed)
	if err != nil {
		return nil, err
	}
	reading, err := feed.LatestReading()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPriceUnavailable, err)
	}
	return NormalizeReading(reading, feedDecimals(feed), e.now(), l.StalenessSecs)
}
