package sale

import (
	"fmt"

	"github.com/holiman/uint256"
)

// InternalDecimals is the precision of the internal accounting unit.
const InternalDecimals = 18

// maxPow10 is the largest exponent whose power of ten fits in 256 bits.
const maxPow10 = 77

var (
	maxUint256  = new(uint256.Int).SetAllOne()
	unitScale   = uint256.NewInt(1_000_000_000_000_000_000)
	basisPoints = uint256.NewInt(10_000)
	pow10Table  = buildPow10Table()
)

func buildPow10Table() [maxPow10 + 1]*uint256.Int {
	var table [maxPow10 + 1]*uint256.Int
	ten := uint256.NewInt(10)
	table[0] = uint256.NewInt(1)
	for i := 1; i <= maxPow10; i++ {
		table[i] = new(uint256.Int).Mul(table[i-1], ten)
	}
	return table
}

func pow10(exp uint) (*uint256.Int, bool) {
	if exp > maxPow10 {
		return nil, false
	}
	return pow10Table[exp], true
}

func zero() *uint256.Int { return new(uint256.Int) }

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

// ToInternal converts amount expressed with sourceDecimals into the internal
// 18-decimal unit. Scaling down truncates toward zero, which favours the
// ledger. Scaling up is a plain multiplication with no divisor that could be
// applied first, so amounts above MaxUint256/10^(18-sourceDecimals) fail with
// ErrOverflow instead of wrapping or losing precision.
func ToInternal(amount *uint256.Int, sourceDecimals uint8) (*uint256.Int, error) {
	return rescale(amount, sourceDecimals, InternalDecimals)
}

// FromInternal converts an internal 18-decimal amount into targetDecimals
// using the same truncation and overflow rules as ToInternal.
func FromInternal(amount *uint256.Int, targetDecimals uint8) (*uint256.Int, error) {
	return rescale(amount, InternalDecimals, targetDecimals)
}

func rescale(amount *uint256.Int, from, to uint8) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() {
		return zero(), nil
	}
	switch {
	case from == to:
		return amount.Clone(), nil
	case from < to:
		scale, ok := pow10(uint(to - from))
		if !ok {
			return nil, fmt.Errorf("%w: scale 10^%d", ErrOverflow, to-from)
		}
		out, overflow := new(uint256.Int).MulOverflow(amount, scale)
		if overflow {
			return nil, fmt.Errorf("%w: %s * 10^%d", ErrOverflow, amount.Dec(), to-from)
		}
		return out, nil
	default:
		scale, ok := pow10(uint(from - to))
		if !ok {
			// Any 256-bit value divided by more than 10^77 truncates to zero.
			return zero(), nil
		}
		return new(uint256.Int).Div(amount, scale), nil
	}
}

// MulDiv computes a*b/d. When a*b would not fit in 256 bits the division is
// applied first, trading precision for range; ErrOverflow is only returned
// when even the reordered computation cannot be represented.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d == nil || d.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", ErrOverflow)
	}
	if a == nil || b == nil || a.IsZero() || b.IsZero() {
		return zero(), nil
	}
	limit := new(uint256.Int).Div(maxUint256, b)
	if a.Gt(limit) {
		quotient := new(uint256.Int).Div(a, d)
		out, overflow := new(uint256.Int).MulOverflow(quotient, b)
		if overflow {
			return nil, fmt.Errorf("%w: %s * %s / %s", ErrOverflow, a.Dec(), b.Dec(), d.Dec())
		}
		return out, nil
	}
	product := new(uint256.Int).Mul(a, b)
	return product.Div(product, d), nil
}

// ApplyBps returns floor(amount*bps/10000).
func ApplyBps(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	return MulDiv(amount, uint256.NewInt(bps), basisPoints)
}

func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(cloneAmount(a), cloneAmount(b))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// saturatingSub returns a-b floored at zero.
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	left := cloneAmount(a)
	right := cloneAmount(b)
	if left.Lt(right) {
		return zero()
	}
	return left.Sub(left, right)
}
