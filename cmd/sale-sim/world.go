package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"presale/config"
	"presale/core/events"
	"presale/native/bank"
	"presale/native/sale"
)

// ledgerAccount is the name the ledger's own account is derived from.
const ledgerAccount = "sale-ledger"

type instrument struct {
	token *bank.Token
	addr  common.Address
}

// world is a sale deployed on an in-memory host.
type world struct {
	cfg         *config.Sale
	host        *bank.Host
	engine      *sale.Engine
	owner       common.Address
	now         int64
	sold        *bank.Token
	soldAddr    common.Address
	feed        *bank.ManualFeed
	answer      *big.Int
	instruments map[string]instrument
	emitter     *jsonEmitter
}

// jsonEmitter writes each event as one JSON line tagged with the current
// scenario step.
type jsonEmitter struct {
	enc   *json.Encoder
	step  int
	count int
	err   error
}

type eventLine struct {
	Step       int               `json:"step"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (e *jsonEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil || e.err != nil {
		return
	}
	line := eventLine{Step: e.step, Type: evt.EventType()}
	if typed, ok := evt.(events.Typed); ok {
		if rendered := typed.Event(); rendered != nil {
			line.Attributes = rendered.Attributes
		}
	}
	e.count++
	e.err = e.enc.Encode(line)
}

func newWorld(cfg *config.Sale, out io.Writer) (*world, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	owner, err := config.ParseAccount(cfg.Owner)
	if err != nil {
		return nil, err
	}
	w := &world{
		cfg:         cfg,
		host:        bank.NewHost(config.AccountAddress(ledgerAccount)),
		owner:       owner,
		now:         int64(cfg.Start),
		instruments: make(map[string]instrument),
		emitter:     &jsonEmitter{enc: json.NewEncoder(out)},
	}

	w.sold = bank.NewToken(cfg.SoldAsset.Symbol, cfg.SoldAsset.Decimals)
	w.soldAddr = w.host.Deploy(w.sold)
	supply, err := config.ParseAmount(cfg.SoldAsset.Supply)
	if err != nil {
		return nil, err
	}
	w.sold.Mint(w.host.Self(), supply)

	answer, err := config.ParseAmount(cfg.Feed.Answer)
	if err != nil {
		return nil, err
	}
	w.answer = answer.ToBig()
	w.feed = bank.NewManualFeed(cfg.Feed.Decimals)
	feedAddr := w.host.Deploy(w.feed)
	w.feed.Set(w.answer, uint64(w.now))

	implAddr := w.host.Deploy(bank.NewImplementation("genesis", cfg.Version))
	params, err := cfg.LedgerParams(w.soldAddr, feedAddr, implAddr)
	if err != nil {
		return nil, err
	}
	ledger, err := sale.NewLedger(params)
	if err != nil {
		return nil, err
	}
	w.engine = sale.NewEngine(w.host, ledger)
	w.engine.SetNowFunc(func() int64 { return w.now })

	for _, inst := range cfg.Instruments {
		decimals := &inst.Decimals
		if inst.NoDecimals {
			decimals = nil
		}
		if _, err := w.deployInstrument(owner, inst.Symbol, decimals, inst.FeeBps); err != nil {
			return nil, err
		}
		if inst.Primary {
			if err := w.engine.SetPrimaryInstrument(owner, w.instruments[symbolKey(inst.Symbol)].addr); err != nil {
				return nil, fmt.Errorf("primary instrument %s: %w", inst.Symbol, err)
			}
		}
	}
	// setup events are not part of the scenario output
	w.engine.SetEmitter(w.emitter)
	return w, nil
}

// deployInstrument deploys a token and registers it as an accepted
// instrument. A nil decimals deploys a token without the decimals query.
func (w *world) deployInstrument(caller common.Address, symbol string, decimals *uint8, feeBps uint64) (common.Address, error) {
	key := symbolKey(symbol)
	if key == "" {
		return common.Address{}, fmt.Errorf("instrument symbol required")
	}
	if _, exists := w.instruments[key]; exists {
		return common.Address{}, fmt.Errorf("instrument %s already deployed", key)
	}
	var token *bank.Token
	if decimals == nil {
		token = bank.NewTokenWithoutDecimals(key)
	} else {
		token = bank.NewToken(key, *decimals)
	}
	if err := token.SetTransferFee(feeBps); err != nil {
		return common.Address{}, err
	}
	addr := w.host.Deploy(token)
	// kept even when the ledger rejects it so later steps can refer to it
	w.instruments[key] = instrument{token: token, addr: addr}
	if err := w.engine.AddInstrument(caller, addr); err != nil {
		return common.Address{}, fmt.Errorf("add instrument %s: %w", key, err)
	}
	return addr, nil
}

func (w *world) instrument(symbol string) (instrument, error) {
	key := symbolKey(symbol)
	if key == symbolKey(w.cfg.SoldAsset.Symbol) {
		return instrument{token: w.sold, addr: w.soldAddr}, nil
	}
	inst, ok := w.instruments[key]
	if !ok {
		return instrument{}, fmt.Errorf("unknown token %q", symbol)
	}
	return inst, nil
}

func symbolKey(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// newCandidate builds an upgrade candidate. Version zero deploys one without
// the version query.
func newCandidate(step Step) *bank.Implementation {
	name := strings.TrimSpace(step.Account)
	if name == "" {
		name = fmt.Sprintf("v%d", step.Version)
	}
	if step.Version == 0 {
		return bank.NewUnversionedImplementation(name)
	}
	return bank.NewImplementation(name, step.Version)
}
