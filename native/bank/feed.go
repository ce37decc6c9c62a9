package bank

import (
	"errors"
	"math/big"
	"sync"

	"presale/core/types"
)

// ErrFeedUnset is returned by a ManualFeed that has never been set.
var ErrFeedUnset = errors.New("bank: price feed has no reading")

// ManualFeed is an in-memory price feed for simulations and tests.
type ManualFeed struct {
	mu       sync.RWMutex
	decimals uint8
	reading  types.PriceReading
	set      bool
	err      error
}

// NewManualFeed creates an empty feed reporting answers with the supplied
// precision.
func NewManualFeed(decimals uint8) *ManualFeed {
	return &ManualFeed{decimals: decimals}
}

// Decimals returns the precision of the feed's answers.
func (f *ManualFeed) Decimals() uint8 { return f.decimals }

// Set publishes a new complete round carrying answer, updated at updatedAt.
func (f *ManualFeed) Set(answer *big.Int, updatedAt uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	round := f.reading.RoundID + 1
	f.reading = types.PriceReading{
		RoundID:         round,
		Answer:          new(big.Int).Set(answer),
		StartedAt:       updatedAt,
		UpdatedAt:       updatedAt,
		AnsweredInRound: round,
	}
	f.set = true
	f.err = nil
}

// SetReading publishes a raw reading, including incomplete rounds.
func (f *ManualFeed) SetReading(reading types.PriceReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reading = reading.Clone()
	f.set = true
	f.err = nil
}

// Fail makes every subsequent query return err until the next Set.
func (f *ManualFeed) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// LatestReading returns the most recent reading.
func (f *ManualFeed) LatestReading() (types.PriceReading, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return types.PriceReading{}, f.err
	}
	if !f.set {
		return types.PriceReading{}, ErrFeedUnset
	}
	return f.reading.Clone(), nil
}
