package bank

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("bank: insufficient balance")
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
	ErrRecipientRejected     = errors.New("bank: recipient rejected transfer")
)

// journaled is implemented by contracts whose balances must follow host
// snapshots.
type journaled interface {
	snapshot() any
	restore(any)
}

type hostSnapshot struct {
	native    map[common.Address]*uint256.Int
	contracts map[common.Address]any
}

// Host is an in-memory execution environment: it keeps native balances,
// deploys contracts at deterministic addresses and journals every balance so
// a failed operation can be rolled back.
type Host struct {
	self      common.Address
	deployer  common.Address
	nonce     uint64
	native    map[common.Address]*uint256.Int
	contracts map[common.Address]any
	hooks     map[common.Address]func(amount *uint256.Int) error
	snapshots []hostSnapshot
}

// NewHost creates a host whose ledger account is self.
func NewHost(self common.Address) *Host {
	return &Host{
		self:      self,
		deployer:  crypto.CreateAddress(self, 0),
		native:    make(map[common.Address]*uint256.Int),
		contracts: make(map[common.Address]any),
		hooks:     make(map[common.Address]func(*uint256.Int) error),
	}
}

// Self returns the ledger account.
func (h *Host) Self() common.Address { return h.self }

// Deploy registers contract at the next deterministic address.
func (h *Host) Deploy(contract any) common.Address {
	h.nonce++
	addr := crypto.CreateAddress(h.deployer, h.nonce)
	h.contracts[addr] = contract
	return addr
}

// DeployAt registers contract at a caller-chosen address.
func (h *Host) DeployAt(addr common.Address, contract any) {
	h.contracts[addr] = contract
}

// HasCode reports whether a contract is deployed at addr.
func (h *Host) HasCode(addr common.Address) bool {
	_, ok := h.contracts[addr]
	return ok
}

// Contract returns the contract deployed at addr.
func (h *Host) Contract(addr common.Address) (any, bool) {
	contract, ok := h.contracts[addr]
	return contract, ok
}

// OnReceive installs a hook run before native funds reach addr. A hook error
// rejects the transfer.
func (h *Host) OnReceive(addr common.Address, hook func(amount *uint256.Int) error) {
	if hook == nil {
		delete(h.hooks, addr)
		return
	}
	h.hooks[addr] = hook
}

// Fund credits native currency to addr out of thin air.
func (h *Host) Fund(addr common.Address, amount *uint256.Int) {
	next := new(uint256.Int).Add(h.NativeBalance(addr), amount)
	h.native[addr] = next
}

// NativeBalance returns the native currency held by addr.
func (h *Host) NativeBalance(addr common.Address) *uint256.Int {
	if v, ok := h.native[addr]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

// TransferNative moves native currency between accounts.
func (h *Host) TransferNative(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance := h.NativeBalance(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), balance.Dec(), amount.Dec())
	}
	if hook, ok := h.hooks[to]; ok {
		if err := hook(amount.Clone()); err != nil {
			return fmt.Errorf("%w: %v", ErrRecipientRejected, err)
		}
	}
	h.native[from] = balance.Sub(balance, amount)
	h.native[to] = new(uint256.Int).Add(h.NativeBalance(to), amount)
	return nil
}

// Snapshot records the current balances and returns an identifier usable
// with RevertToSnapshot.
func (h *Host) Snapshot() int {
	snap := hostSnapshot{
		native:    cloneBalances(h.native),
		contracts: make(map[common.Address]any),
	}
	for addr, contract := range h.contracts {
		if j, ok := contract.(journaled); ok {
			snap.contracts[addr] = j.snapshot()
		}
	}
	h.snapshots = append(h.snapshots, snap)
	return len(h.snapshots) - 1
}

// RevertToSnapshot restores the balances recorded by Snapshot(id) and drops
// every later snapshot. Unknown identifiers are ignored.
func (h *Host) RevertToSnapshot(id int) {
	if id < 0 || id >= len(h.snapshots) {
		return
	}
	snap := h.snapshots[id]
	h.native = cloneBalances(snap.native)
	for addr, state := range snap.contracts {
		if j, ok := h.contracts[addr].(journaled); ok {
			j.restore(state)
		}
	}
	h.snapshots = h.snapshots[:id]
}

func cloneBalances(in map[common.Address]*uint256.Int) map[common.Address]*uint256.Int {
	out := make(map[common.Address]*uint256.Int, len(in))
	for addr, v := range in {
		out[addr] = v.Clone()
	}
	return out
}

// DiscardSnapshot forgets Snapshot(id) and every later snapshot while keeping
// the current balances.
func (h *Host) DiscardSnapshot(id int) {
	if id < 0 || id >= len(h.snapshots) {
		return
	}
	h.snapshots = h.snapshots[:id]
}
