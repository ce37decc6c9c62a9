package bank

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TransferHook runs before a token transfer moves any funds. Returning an
// error aborts the transfer.
type TransferHook func(from, to common.Address, amount *uint256.Int) error

// Token is an in-memory fungible token. A token may withhold its decimals and
// may burn a fee on every transfer so the recipient receives less than the
// amount sent.
type Token struct {
	mu          sync.Mutex
	symbol      string
	decimals    uint8
	hasDecimals bool
	feeBps      uint64
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	supply      *uint256.Int
	hook        TransferHook
}

type tokenSnapshot struct {
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
	supply     *uint256.Int
}

// NewToken creates a token reporting the supplied decimals.
func NewToken(symbol string, decimals uint8) *Token {
	t := NewTokenWithoutDecimals(symbol)
	t.decimals = decimals
	t.hasDecimals = true
	return t
}

// NewTokenWithoutDecimals creates a token that does not implement the
// decimals query.
func NewTokenWithoutDecimals(symbol string) *Token {
	return &Token{
		symbol:     symbol,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
		supply:     new(uint256.Int),
	}
}

// Symbol returns the ticker of the token.
func (t *Token) Symbol() string { return t.symbol }

// Decimals reports the token precision. The bool is false when the token
// does not expose it.
func (t *Token) Decimals() (uint8, bool) {
	return t.decimals, t.hasDecimals
}

// SetTransferFee burns bps basis points of every transfer.
func (t *Token) SetTransferFee(bps uint64) error {
	if bps > 10_000 {
		return fmt.Errorf("bank: transfer fee %d bps exceeds 10000", bps)
	}
	t.mu.Lock()
	t.feeBps = bps
	t.mu.Unlock()
	return nil
}

// OnTransfer installs a hook run at the start of every transfer.
func (t *Token) OnTransfer(hook TransferHook) {
	t.mu.Lock()
	t.hook = hook
	t.mu.Unlock()
}

// Mint credits amount to owner.
func (t *Token) Mint(owner common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[owner] = new(uint256.Int).Add(t.balanceLocked(owner), amount)
	t.supply = new(uint256.Int).Add(t.supply, amount)
}

// TotalSupply returns the outstanding supply after burned fees.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply.Clone()
}

// Approve sets the amount spender may move out of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	perOwner, ok := t.allowances[owner]
	if !ok {
		perOwner = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = perOwner
	}
	perOwner[spender] = amount.Clone()
}

// Allowance returns the remaining amount spender may move for owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowanceLocked(owner, spender)
}

// BalanceOf returns the balance held by owner.
func (t *Token) BalanceOf(owner common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceLocked(owner)
}

// Transfer moves amount out of from's balance.
func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) error {
	if err := t.runHook(from, to, amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(from, to, amount)
}

// TransferFrom moves amount out of from's balance on behalf of spender,
// consuming its allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	if err := t.runHook(from, to, amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	allowance := t.allowanceLocked(from, spender)
	if allowance.Lt(amount) {
		return fmt.Errorf("%w: %s allows %s, needs %s", ErrInsufficientAllowance, spender.Hex(), allowance.Dec(), amount.Dec())
	}
	if err := t.moveLocked(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowance.Sub(allowance, amount)
	return nil
}

func (t *Token) runHook(from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	hook := t.hook
	t.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(from, to, amount.Clone())
}

func (t *Token) moveLocked(from, to common.Address, amount *uint256.Int) error {
	balance := t.balanceLocked(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientBalance, from.Hex(), balance.Dec(), t.symbol, amount.Dec())
	}
	fee := new(uint256.Int)
	if t.feeBps > 0 {
		fee.Mul(amount, uint256.NewInt(t.feeBps))
		fee.Div(fee, uint256.NewInt(10_000))
	}
	received := new(uint256.Int).Sub(amount, fee)
	t.balances[from] = balance.Sub(balance, amount)
	t.balances[to] = new(uint256.Int).Add(t.balanceLocked(to), received)
	t.supply = new(uint256.Int).Sub(t.supply, fee)
	return nil
}

func (t *Token) balanceLocked(owner common.Address) *uint256.Int {
	if v, ok := t.balances[owner]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

func (t *Token) allowanceLocked(owner, spender common.Address) *uint256.Int {
	if perOwner, ok := t.allowances[owner]; ok {
		if v, ok := perOwner[spender]; ok {
			return v.Clone()
		}
	}
	return new(uint256.Int)
}

func (t *Token) snapshot() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := tokenSnapshot{
		balances:   cloneBalances(t.balances),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int, len(t.allowances)),
		supply:     t.supply.Clone(),
	}
	for owner, perOwner := range t.allowances {
		snap.allowances[owner] = cloneBalances(perOwner)
	}
	return snap
}

func (t *Token) restore(state any) {
	snap, ok := state.(tokenSnapshot)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances = cloneBalances(snap.balances)
	t.allowances = make(map[common.Address]map[common.Address]*uint256.Int, len(snap.allowances))
	for owner, perOwner := range snap.allowances {
		t.allowances[owner] = cloneBalances(perOwner)
	}
	t.supply = snap.supply.Clone()
}
