package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/config"
	"presale/native/sale"
	"presale/observability"
)

var errUnknownOp = errors.New("unknown op")

// Runner replays scenarios against a freshly deployed sale.
type Runner struct {
	world   *world
	logger  *slog.Logger
	metrics *observability.SaleMetricsRegistry
}

// Summary reports the state of the sale after a scenario.
type Summary struct {
	Scenario     string `json:"scenario"`
	Steps        int    `json:"steps"`
	Rejected     int    `json:"rejected"`
	Events       int    `json:"events"`
	Raised       string `json:"raised"`
	Claimable    string `json:"claimable"`
	Released     string `json:"released"`
	ReferralA    string `json:"referralA"`
	ReferralB    string `json:"referralB"`
	HardCap      string `json:"hardCap"`
	Round        uint64 `json:"round"`
	Version      uint64 `json:"version"`
	Paused       bool   `json:"paused"`
	Time         int64  `json:"time"`
	LedgerNative string `json:"ledgerNative"`
}

// NewRunner deploys the configured sale. Events are written to out as JSON
// lines. A nil metrics registry disables metrics.
func NewRunner(cfg *config.Sale, out io.Writer, logger *slog.Logger, metrics *observability.SaleMetricsRegistry) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := newWorld(cfg, out)
	if err != nil {
		return nil, err
	}
	return &Runner{world: w, logger: logger, metrics: metrics}, nil
}

// Run applies every step in order. A step whose outcome differs from its
// Expect field stops the run. The summary reflects the ledger at the point the
// run stopped.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) (*Summary, error) {
	summary := &Summary{Scenario: scenario.Name}
	defer r.fill(summary)
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		number := i + 1
		r.world.emitter.step = number
		started := time.Now()
		err := r.apply(step)
		kind := sale.KindOf(err)
		if r.metrics != nil {
			r.metrics.Observe(step.Op, time.Since(started), err != nil, kind.String())
		}
		if r.world.emitter.err != nil {
			return summary, fmt.Errorf("write events: %w", r.world.emitter.err)
		}
		summary.Steps = number
		if err := r.check(number, step, err, kind); err != nil {
			return summary, err
		}
		if err != nil {
			summary.Rejected++
		}
		r.publish()
	}
	return summary, nil
}

func (r *Runner) check(number int, step Step, err error, kind sale.Kind) error {
	logger := r.logger.With("step", number, "op", step.Op)
	expect := strings.TrimSpace(step.Expect)
	switch {
	case err == nil && expect == "":
		logger.Info("step applied")
		return nil
	case err == nil:
		logger.Error("step succeeded unexpectedly", "expect", expect)
		return fmt.Errorf("step %d (%s): expected failure %q", number, step.Op, expect)
	case expect == "":
		logger.Error("step failed", "error", err, "kind", kind.String())
		return fmt.Errorf("step %d (%s): %w", number, step.Op, err)
	case strings.EqualFold(expect, kind.String()) || strings.Contains(err.Error(), expect):
		logger.Info("step rejected as expected", "error", err, "kind", kind.String())
		return nil
	default:
		logger.Error("step failed differently", "error", err, "kind", kind.String(), "expect", expect)
		return fmt.Errorf("step %d (%s): expected %q, got %w", number, step.Op, expect, err)
	}
}

func (r *Runner) publish() {
	if r.metrics == nil {
		return
	}
	totals := r.world.engine.Totals()
	r.metrics.SetRaised(totals.Raised)
	r.metrics.SetPaused(totals.Paused)
}

func (r *Runner) fill(summary *Summary) {
	totals := r.world.engine.Totals()
	summary.Events = r.world.emitter.count
	summary.Raised = totals.Raised.Dec()
	summary.Claimable = totals.Claimable.Dec()
	summary.Released = totals.Released.Dec()
	summary.ReferralA = totals.ReferralA.Dec()
	summary.ReferralB = totals.ReferralB.Dec()
	summary.HardCap = totals.HardCap.Dec()
	summary.Round = totals.Round
	summary.Version = totals.Version
	summary.Paused = totals.Paused
	summary.Time = r.world.now
	summary.LedgerNative = r.world.host.NativeBalance(r.world.host.Self()).Dec()
}

func (r *Runner) apply(step Step) error {
	w := r.world
	switch strings.ToLower(strings.TrimSpace(step.Op)) {
	case "advance":
		if step.Seconds < 0 {
			return fmt.Errorf("advance: negative seconds")
		}
		w.now += step.Seconds
		return nil
	case "set_time":
		w.now = step.At
		return nil
	case "set_price":
		if step.Amount != "" {
			answer, err := config.ParseAmount(step.Amount)
			if err != nil {
				return err
			}
			w.answer = answer.ToBig()
		}
		w.feed.Set(w.answer, uint64(w.now))
		return nil
	case "fund_native":
		account, amount, err := accountAmount(step.Account, step.Amount)
		if err != nil {
			return err
		}
		w.host.Fund(account, amount)
		return nil
	case "mint":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		account, amount, err := accountAmount(step.Account, step.Amount)
		if err != nil {
			return err
		}
		inst.token.Mint(account, amount)
		inst.token.Approve(account, w.host.Self(), inst.token.BalanceOf(account))
		return nil
	case "buy_native":
		caller, amount, err := accountAmount(step.Caller, step.Amount)
		if err != nil {
			return err
		}
		referrer, err := optionalAccount(step.Referrer)
		if err != nil {
			return err
		}
		if _, err := w.engine.BuyWithNative(caller, amount, referrer); err != nil {
			return err
		}
		r.recordPurchase("native")
		return nil
	case "buy_token":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		caller, amount, err := accountAmount(step.Caller, step.Amount)
		if err != nil {
			return err
		}
		referrer, err := optionalAccount(step.Referrer)
		if err != nil {
			return err
		}
		if _, err := w.engine.BuyWithInstrument(caller, inst.addr, amount, referrer); err != nil {
			return err
		}
		r.recordPurchase(step.Token)
		return nil
	case "claim_referral_a":
		return withCaller(step, func(caller common.Address) error {
			_, err := w.engine.ClaimReferralA(caller)
			return err
		})
	case "claim_referral_b":
		return withCaller(step, func(caller common.Address) error {
			_, err := w.engine.ClaimReferralB(caller)
			return err
		})
	case "claim_referral":
		return withCaller(step, w.engine.ClaimReferralRewards)
	case "claim_tokens":
		return withCaller(step, func(caller common.Address) error {
			_, err := w.engine.ClaimTokens(caller)
			return err
		})
	default:
		return r.applyAdmin(step)
	}
}

// applyAdmin handles privileged operations. The caller defaults to the owner.
func (r *Runner) applyAdmin(step Step) error {
	w := r.world
	caller := w.owner
	if step.Caller != "" {
		parsed, err := config.ParseAccount(step.Caller)
		if err != nil {
			return err
		}
		caller = parsed
	}
	switch strings.ToLower(strings.TrimSpace(step.Op)) {
	case "pause":
		return w.engine.Pause(caller)
	case "unpause":
		return w.engine.Unpause(caller)
	case "transfer_ownership":
		next, err := config.ParseAccount(step.Account)
		if err != nil {
			return err
		}
		if err := w.engine.TransferOwnership(caller, next); err != nil {
			return err
		}
		w.owner = next
		return nil
	case "set_unit_price":
		price, err := config.ParseAmount(step.Amount)
		if err != nil {
			return err
		}
		return w.engine.SetUnitPrice(caller, price)
	case "set_hard_cap":
		hardCap, err := config.ParseAmount(step.Amount)
		if err != nil {
			return err
		}
		return w.engine.SetHardCap(caller, hardCap)
	case "set_referral_percent":
		return w.engine.SetReferralPercent(caller, step.Value)
	case "set_staleness":
		return w.engine.SetStalenessThreshold(caller, step.Value)
	case "set_round":
		return w.engine.SetCurrentRound(caller, step.Round)
	case "set_round_class":
		class, err := sale.ParseRewardClass(step.Class)
		if err != nil {
			return err
		}
		return w.engine.SetRoundRewardClass(caller, step.Round, class)
	case "set_timing":
		return w.engine.UpdateTiming(caller, step.Start, step.End)
	case "configure_vesting":
		return w.engine.ConfigureVesting(caller, step.Cliff, step.Duration, step.Start, step.Enabled)
	case "set_wallet_shares":
		shares := strings.Split(step.Amount, "/")
		if len(shares) != 3 {
			return fmt.Errorf("set_wallet_shares: amount must be A/B/treasury bps")
		}
		var bps [3]uint64
		for i, share := range shares {
			v, err := config.ParseAmount(share)
			if err != nil {
				return err
			}
			if !v.IsUint64() {
				return fmt.Errorf("set_wallet_shares: share %s out of range", share)
			}
			bps[i] = v.Uint64()
		}
		return w.engine.SetWalletShares(caller, bps[0], bps[1], bps[2])
	case "add_instrument":
		if inst, err := w.instrument(step.Token); err == nil {
			return w.engine.AddInstrument(caller, inst.addr)
		}
		_, err := w.deployInstrument(caller, step.Token, step.Decimals, step.FeeBps)
		return err
	case "remove_instrument":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		return w.engine.RemoveInstrument(caller, inst.addr)
	case "set_primary":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		return w.engine.SetPrimaryInstrument(caller, inst.addr)
	case "withdraw":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		_, err = w.engine.WithdrawInstrument(caller, inst.addr)
		return err
	case "recover":
		inst, err := w.instrument(step.Token)
		if err != nil {
			return err
		}
		amount, err := config.ParseAmount(step.Amount)
		if err != nil {
			return err
		}
		return w.engine.RecoverToken(caller, inst.addr, amount)
	case "whitelist":
		return w.engine.SetWhitelistEnforced(caller, step.Enabled)
	case "upgrade":
		impl := w.host.Deploy(newCandidate(step))
		if step.Enabled {
			if err := w.engine.AuthorizeImplementation(caller, impl, true); err != nil {
				return err
			}
		}
		_, err := w.engine.Upgrade(caller, impl)
		return err
	default:
		return fmt.Errorf("%w %q", errUnknownOp, step.Op)
	}
}

func (r *Runner) recordPurchase(instrument string) {
	if r.metrics != nil {
		r.metrics.RecordPurchase(instrument)
	}
}

func withCaller(step Step, fn func(caller common.Address) error) error {
	caller, err := config.ParseAccount(step.Caller)
	if err != nil {
		return err
	}
	return fn(caller)
}

func accountAmount(account, amount string) (common.Address, *uint256.Int, error) {
	addr, err := config.ParseAccount(account)
	if err != nil {
		return common.Address{}, nil, err
	}
	value, err := config.ParseAmount(amount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return addr, value, nil
}

func optionalAccount(value string) (common.Address, error) {
	if strings.TrimSpace(value) == "" {
		return common.Address{}, nil
	}
	return config.ParseAccount(value)
}
