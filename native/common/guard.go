package common

import (
	"errors"
	"fmt"
)

var (
	ErrModulePaused = errors.New("module paused")
	// ErrReentrantCall is returned when a mutating entry point is invoked while
	// another mutating operation on the same ledger is still in flight.
	ErrReentrantCall = errors.New("reentrant call")
)

// PauseView reports whether a named module currently rejects mutations.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when module is paused. A nil view or an empty module
// name never blocks. The returned error names the module and matches
// ErrModulePaused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return fmt.Errorf("%w: %s", ErrModulePaused, module)
	}
	return nil
}

// Reentrancy is a scoped lock guarding the mutating entry points of a single
// ledger. It is not a mutex: the hosting environment orders operations, the
// lock only detects nested calls made from within an outbound call.
type Reentrancy struct {
	entered bool
}

// Enter acquires the lock. The returned release function must be called on
// every exit path; deferring it directly after a successful Enter is the
// expected usage.
func (r *Reentrancy) Enter() (func(), error) {
	if r.entered {
		return nil, ErrReentrantCall
	}
	r.entered = true
	released := false
	return func() {
		if released {
			return
		}
		released = true
		r.entered = false
	}, nil
}

// Entered reports whether an operation currently holds the lock.
func (r *Reentrancy) Entered() bool {
	return r.entered
}
