package sale

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"presale/core/events"
	nativecommon "presale/native/common"
)

// Engine runs sale operations against a ledger and its host. Every mutating
// entry point is atomic: on failure the ledger and the host are restored to
// their state before the call and no events are emitted. The engine is not
// safe for concurrent use; the host orders operations.
type Engine struct {
	ledger  *Ledger
	host    Host
	emitter events.Emitter
	nowFn   func() int64
	guard   nativecommon.Reentrancy
	pending []events.Event
	// committed is the ledger as of the start of the operation in flight.
	committed *Ledger
}

// NewEngine creates an engine over the supplied ledger with a no-op emitter.
func NewEngine(host Host, ledger *Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		host:    host,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Address returns the account holding the ledger's funds.
func (e *Engine) Address() common.Address {
	if e == nil || e.host == nil {
		return common.Address{}
	}
	return e.host.Self()
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.pending = append(e.pending, evt)
}

// snapshotDiscarder is implemented by hosts that can release a snapshot once
// the operation it guarded has committed.
type snapshotDiscarder interface {
	DiscardSnapshot(id int)
}

// execute runs fn as one indivisible operation. The re-entrancy lock is held
// for the whole call, and both ledger and host are rolled back when fn fails.
func (e *Engine) execute(fn func(l *Ledger) error) error {
	if e == nil || e.ledger == nil || e.host == nil {
		return errNilState
	}
	release, err := e.guard.Enter()
	if err != nil {
		return err
	}
	defer release()

	snapshot := e.ledger.Clone()
	e.committed = snapshot
	defer func() { e.committed = nil }()
	hostSnapshot := e.host.Snapshot()
	e.pending = nil
	if err := fn(e.ledger); err != nil {
		e.ledger = snapshot
		e.host.RevertToSnapshot(hostSnapshot)
		e.pending = nil
		return err
	}
	if committer, ok := e.host.(snapshotDiscarder); ok {
		committer.DiscardSnapshot(hostSnapshot)
	}
	flushed := e.pending
	e.pending = nil
	for _, evt := range flushed {
		e.emitter.Emit(evt)
	}
	return nil
}

// view runs a read-only function against the committed ledger. Reads made
// from an outbound call while an operation is in flight see the state before
// that operation.
func (e *Engine) view(fn func(l *Ledger)) {
	if e == nil || e.ledger == nil {
		return
	}
	if e.committed != nil {
		fn(e.committed)
		return
	}
	fn(e.ledger)
}

func (e *Engine) requireOwner(l *Ledger, caller common.Address) error {
	if caller == (common.Address{}) || caller != l.Owner {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireActive(l *Ledger) error {
	if err := nativecommon.Guard(l, moduleName); err != nil {
		return err
	}
	now := e.now()
	if now < l.Config.Start {
		return ErrSaleNotStarted
	}
	if now > l.Config.End {
		return ErrSaleEnded
	}
	return nil
}
