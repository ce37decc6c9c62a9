package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"presale/config"
	"presale/observability"
	"presale/observability/logging"
)

const lifecycleScenario = `
name: lifecycle
steps:
  - op: fund_native
    account: buyer
    amount: "2_000_000_000_000_000_000"
  - op: buy_native
    caller: buyer
    amount: "1_000_000_000_000_000_000"
    referrer: ref
  - op: mint
    token: usdc
    account: buyer2
    amount: "1_000_000_000"
  - op: buy_token
    caller: buyer2
    token: USDC
    amount: "500_000_000"
  - op: buy_native
    caller: buyer
    amount: "0"
    expect: validation
  - op: pause
    caller: buyer
    expect: authorization
  - op: pause
  - op: buy_native
    caller: buyer
    amount: "1_000_000_000_000_000_000"
    expect: paused
  - op: unpause
  - op: claim_tokens
    caller: buyer
    expect: not ended
  - op: advance
    seconds: 2592001
  - op: claim_tokens
    caller: buyer
  - op: claim_referral
    caller: ref
  - op: buy_native
    caller: buyer
    amount: "1_000_000_000_000_000_000"
    expect: ended
`

func newTestRunner(t *testing.T, out io.Writer, metrics *observability.SaleMetricsRegistry) *Runner {
	t.Helper()
	logger := logging.New(io.Discard, "sale-sim", "test", 0)
	runner, err := NewRunner(config.DefaultSale(), out, logger, metrics)
	require.NoError(t, err)
	return runner
}

func decodeScenario(t *testing.T, body string) *Scenario {
	t.Helper()
	scenario, err := DecodeScenario(strings.NewReader(body))
	require.NoError(t, err)
	return scenario
}

func readEvents(t *testing.T, out *bytes.Buffer) []eventLine {
	t.Helper()
	var lines []eventLine
	dec := json.NewDecoder(out)
	for dec.More() {
		var line eventLine
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func TestRunnerLifecycle(t *testing.T) {
	var out bytes.Buffer
	runner := newTestRunner(t, &out, nil)

	summary, err := runner.Run(context.Background(), decodeScenario(t, lifecycleScenario))
	require.NoError(t, err)

	require.Equal(t, "lifecycle", summary.Scenario)
	require.Equal(t, 14, summary.Steps)
	require.Equal(t, 5, summary.Rejected)
	// 1 ETH at 2000 USD plus 500 USDC
	require.Equal(t, "2500000000000000000000", summary.Raised)
	// 40000 units for the native buy and 10000 for the USDC buy
	require.Equal(t, "50000000000000000000000", summary.Claimable)
	require.Equal(t, "40000000000000000000000", summary.Released)
	// round 1 rewards are class A and paid out of the collected USDC
	require.Equal(t, "0", summary.ReferralA)
	require.Equal(t, "0", summary.ReferralB)
	require.Equal(t, "0", summary.LedgerNative)
	require.False(t, summary.Paused)
	require.Equal(t, uint64(1), summary.Version)

	lines := readEvents(t, &out)
	require.Equal(t, summary.Events, len(lines))
	byStep := make(map[int][]string)
	for _, line := range lines {
		byStep[line.Step] = append(byStep[line.Step], line.Type)
	}
	require.Contains(t, byStep[2], "sale.purchase")
	require.Contains(t, byStep[2], "sale.referral.recorded")
	require.Contains(t, byStep[4], "sale.purchase")
	require.Contains(t, byStep[7], "sale.admin.paused")
	require.Contains(t, byStep[12], "sale.tokens.claimed")
	require.Contains(t, byStep[13], "sale.referral.claimed")
	for _, rejected := range []int{5, 6, 8, 10, 14} {
		require.Empty(t, byStep[rejected], "step %d emitted events", rejected)
	}
}

func TestRunnerStopsOnUnexpectedSuccess(t *testing.T) {
	runner := newTestRunner(t, io.Discard, nil)
	scenario := decodeScenario(t, `
steps:
  - op: pause
    expect: authorization
  - op: unpause
`)
	summary, err := runner.Run(context.Background(), scenario)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected failure")
	require.Equal(t, 1, summary.Steps)
}

func TestRunnerStopsOnUnexpectedFailure(t *testing.T) {
	runner := newTestRunner(t, io.Discard, nil)
	scenario := decodeScenario(t, `
steps:
  - op: claim_tokens
    caller: buyer
  - op: pause
`)
	summary, err := runner.Run(context.Background(), scenario)
	require.Error(t, err)
	require.Contains(t, err.Error(), "step 1 (claim_tokens)")
	require.Contains(t, err.Error(), "not ended")
	// the summary still reports the ledger where the run stopped
	require.Equal(t, 1, summary.Steps)
	require.Equal(t, "0", summary.Raised)
	require.Equal(t, "5000000000000000000000000", summary.HardCap)
	require.Equal(t, int64(config.DefaultSale().Start), summary.Time)
}

func TestRunnerUnknownOp(t *testing.T) {
	runner := newTestRunner(t, io.Discard, nil)
	_, err := runner.Run(context.Background(), decodeScenario(t, "steps:\n  - op: mine_block\n"))
	require.ErrorIs(t, err, errUnknownOp)
}

func TestRunnerHonoursContext(t *testing.T) {
	runner := newTestRunner(t, io.Discard, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := runner.Run(ctx, decodeScenario(t, "steps:\n  - op: pause\n"))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, summary.Steps)
}

func TestRunnerUpgrade(t *testing.T) {
	runner := newTestRunner(t, io.Discard, nil)
	scenario := decodeScenario(t, `
steps:
  - op: whitelist
    enabled: true
  - op: upgrade
    version: 2
    expect: not authorized
  - op: upgrade
    version: 2
    enabled: true
  - op: upgrade
    version: 2
    enabled: true
    expect: must increase
  - op: upgrade
    enabled: true
    expect: does not report a version
`)
	summary, err := runner.Run(context.Background(), scenario)
	require.NoError(t, err)
	require.Equal(t, uint64(2), summary.Version)
	require.Equal(t, 3, summary.Rejected)
}

func TestRunnerInstrumentAdmin(t *testing.T) {
	var out bytes.Buffer
	runner := newTestRunner(t, &out, nil)
	scenario := decodeScenario(t, `
steps:
  - op: add_instrument
    token: FEE
    decimals: 18
    fee_bps: 300
  - op: mint
    token: FEE
    account: buyer
    amount: "1000_000000000000000000"
  - op: buy_token
    caller: buyer
    token: FEE
    amount: "1000_000000000000000000"
  - op: add_instrument
    token: PRE
    expect: sold asset
  - op: remove_instrument
    token: FEE
  - op: buy_token
    caller: buyer
    token: FEE
    amount: "1"
    expect: not accepted
  - op: withdraw
    token: FEE
`)
	summary, err := runner.Run(context.Background(), scenario)
	require.NoError(t, err)
	// the 3% transfer fee is never credited
	require.Equal(t, "970000000000000000000", summary.Raised)
}

func TestRunnerRecordsMetrics(t *testing.T) {
	metrics := observability.SaleMetrics()
	purchases := metrics.Purchases().WithLabelValues("USDC")
	rejected := metrics.Errors().WithLabelValues("buy_native", "validation")
	purchasesBefore := testutil.ToFloat64(purchases)
	rejectedBefore := testutil.ToFloat64(rejected)

	runner := newTestRunner(t, io.Discard, metrics)
	_, err := runner.Run(context.Background(), decodeScenario(t, lifecycleScenario))
	require.NoError(t, err)

	require.Equal(t, purchasesBefore+1, testutil.ToFloat64(purchases))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(rejected))
	require.Equal(t, 2500.0, testutil.ToFloat64(metrics.Raised()))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.Paused()))
}

func TestWriteMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "sale_sim_test_total", Help: "test counter"})
	registry.MustRegister(counter)
	counter.Add(3)

	var out bytes.Buffer
	require.NoError(t, writeMetrics(&out, registry))
	require.Contains(t, out.String(), "sale_sim_test_total 3")
}
