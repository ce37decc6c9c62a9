package types

import "math/big"

// PriceReading mirrors the latest round reported by an external price
// reference. Answer is signed because upstream aggregators may report
// non-positive values when a feed is misbehaving.
type PriceReading struct {
	RoundID         uint64
	Answer          *big.Int
	StartedAt       uint64
	UpdatedAt       uint64
	AnsweredInRound uint64
}

// Clone returns a copy of the reading with an independent answer value.
func (r PriceReading) Clone() PriceReading {
	clone := r
	if r.Answer != nil {
		clone.Answer = new(big.Int).Set(r.Answer)
	}
	return clone
}
