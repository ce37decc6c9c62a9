package sale

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"presale/core/events"
)

// MigrationGate admits structural changes only in strictly increasing
// version order. It is the guard behind implementation upgrades and can be
// reused for any schema migration of the ledger.
type MigrationGate struct {
	Current uint64
}

// Apply runs migrate when target is greater than the current version and
// records target once migrate succeeds. A failed migration leaves the gate
// untouched.
func (g *MigrationGate) Apply(target uint64, migrate func() error) error {
	if target <= g.Current {
		return fmt.Errorf("%w: %d <= %d", ErrVersionNotIncreasing, target, g.Current)
	}
	if migrate != nil {
		if err := migrate(); err != nil {
			return err
		}
	}
	g.Current = target
	return nil
}

// AuthorizeImplementation adds or removes candidate from the upgrade whitelist.
func (e *Engine) AuthorizeImplementation(caller, candidate common.Address, authorized bool) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if candidate == (common.Address{}) {
			return ErrZeroAddress
		}
		if authorized {
			l.Upgrade.Authorized[candidate] = true
		} else {
			delete(l.Upgrade.Authorized, candidate)
		}
		e.emit(events.SaleImplementationAuth{Implementation: candidate, Authorized: authorized})
		return nil
	})
}

// SetWhitelistEnforced toggles whether upgrades require prior authorization.
func (e *Engine) SetWhitelistEnforced(caller common.Address, enabled bool) error {
	return e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		l.Upgrade.WhitelistEnforced = enabled
		e.emit(events.SaleWhitelistToggled{Enabled: enabled})
		return nil
	})
}

// Upgrade installs candidate as the ledger implementation. The candidate must
// be a new code-bearing address, pass the whitelist when enforced, and report
// a version strictly above the current one. Candidates implementing Migrator
// transform the ledger as part of the same operation.
func (e *Engine) Upgrade(caller, candidate common.Address) (uint64, error) {
	var installed uint64
	err := e.execute(func(l *Ledger) error {
		if err := e.requireOwner(l, caller); err != nil {
			return err
		}
		if candidate == (common.Address{}) || candidate == l.Upgrade.Implementation || !e.host.HasCode(candidate) {
			return fmt.Errorf("%w: %s", ErrInvalidImplementation, candidate.Hex())
		}
		if l.Upgrade.WhitelistEnforced && !l.Upgrade.Authorized[candidate] {
			return fmt.Errorf("%w: %s", ErrImplementationDenied, candidate.Hex())
		}
		contract, _ := e.host.Contract(candidate)
		versioned, ok := contract.(Versioned)
		if !ok {
			return ErrVersionUnsupported
		}
		version, supported := versioned.Version()
		if !supported {
			return ErrVersionUnsupported
		}
		gate := MigrationGate{Current: l.Upgrade.Version}
		err := gate.Apply(version, func() error {
			if migrator, ok := contract.(Migrator); ok {
				return migrator.Migrate(l)
			}
			return nil
		})
		if err != nil {
			return err
		}
		previous := l.Upgrade.Implementation
		l.Upgrade.Implementation = candidate
		l.Upgrade.Version = gate.Current
		installed = gate.Current
		e.emit(events.SaleUpgraded{Old: previous, New: candidate, Version: gate.Current})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return installed, nil
}
