// Package sale implements a token sale ledger: contributions in native
// currency or accepted payment instruments are normalised to an 18-decimal
// USD accounting unit, checked against a hard cap, credited as sold-asset
// units, and later released under a linear vesting schedule with a cliff.
// Purchases may carry a referrer, which accrues rewards in one of two payout
// classes depending on the active round.
//
// All state lives in a Ledger owned by an Engine. Each mutating Engine method
// is a single atomic operation guarded against re-entrant calls.
package sale
