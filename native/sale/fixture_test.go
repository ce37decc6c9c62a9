package sale

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"presale/core/events"
	"presale/native/bank"
)

const (
	saleStart = 1_000
	saleEnd   = 2_000
)

var (
	ledgerAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	walletA    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	walletB    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	treasury   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	buyer      = common.HexToAddress("0x0000000000000000000000000000000000000101")
	buyer2     = common.HexToAddress("0x0000000000000000000000000000000000000102")
	referrer   = common.HexToAddress("0x0000000000000000000000000000000000000201")
	referrer2  = common.HexToAddress("0x0000000000000000000000000000000000000202")
	outsider   = common.HexToAddress("0x0000000000000000000000000000000000000666")
)

// units returns n whole units in the 18-decimal internal unit.
func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), unitScale)
}

// scaled returns n * 10^decimals.
func scaled(n uint64, decimals uint8) *uint256.Int {
	scale, _ := pow10(uint(decimals))
	return new(uint256.Int).Mul(uint256.NewInt(n), scale)
}

type fixture struct {
	t        *testing.T
	host     *bank.Host
	engine   *Engine
	recorder *events.Recorder
	now      int64

	sold     *bank.Token
	soldAddr common.Address
	feed     *bank.ManualFeed
	feedAddr common.Address
	usdc     *bank.Token
	usdcAddr common.Address
}

// newFixture deploys a sale priced at 0.5 USD per unit with a 1M USD cap,
// a 2000 USD native price and USDC accepted as the primary instrument.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, host: bank.NewHost(ledgerAddr), recorder: &events.Recorder{}, now: 1_500}

	f.sold = bank.NewToken("PRE", 18)
	f.soldAddr = f.host.Deploy(f.sold)
	f.sold.Mint(ledgerAddr, units(10_000_000))

	f.feed = bank.NewManualFeed(8)
	f.feedAddr = f.host.Deploy(f.feed)
	f.feed.Set(big.NewInt(2_000_00000000), uint64(f.now))

	f.usdc = bank.NewToken("USDC", 6)
	f.usdcAddr = f.host.Deploy(f.usdc)

	ledger, err := NewLedger(Params{
		Owner:       owner,
		SoldAsset:   f.soldAddr,
		PriceFeed:   f.feedAddr,
		Version:     1,
		UnitPrice:   new(uint256.Int).Div(unitScale, uint256.NewInt(2)),
		HardCap:     units(1_000_000),
		Start:       saleStart,
		End:         saleEnd,
		ReferralBps: 500,
		Wallets: WalletPolicy{
			WalletA:       walletA,
			WalletB:       walletB,
			Treasury:      treasury,
			ShareA:        4_000,
			ShareB:        4_000,
			ShareTreasury: 2_000,
		},
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	f.engine = NewEngine(f.host, ledger)
	f.engine.SetEmitter(f.recorder)
	f.engine.SetNowFunc(func() int64 { return f.now })

	if err := f.engine.AddInstrument(owner, f.usdcAddr); err != nil {
		t.Fatalf("add instrument: %v", err)
	}
	if err := f.engine.SetPrimaryInstrument(owner, f.usdcAddr); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	f.recorder.Reset()
	return f
}

// at moves the clock and refreshes the feed so price readings stay fresh.
func (f *fixture) at(ts int64) {
	f.now = ts
	f.feed.Set(big.NewInt(2_000_00000000), uint64(ts))
}

func (f *fixture) fundNative(addr common.Address, amount *uint256.Int) {
	f.host.Fund(addr, amount)
}

// fundToken mints amount to holder and approves the ledger to pull it.
func (f *fixture) fundToken(token *bank.Token, holder common.Address, amount *uint256.Int) {
	token.Mint(holder, amount)
	token.Approve(holder, ledgerAddr, amount)
}

func (f *fixture) deployInstrument(token *bank.Token) common.Address {
	f.t.Helper()
	addr := f.host.Deploy(token)
	if err := f.engine.AddInstrument(owner, addr); err != nil {
		f.t.Fatalf("add instrument %s: %v", token.Symbol(), err)
	}
	return addr
}

func requireAmount(t *testing.T, want, got *uint256.Int, label string) {
	t.Helper()
	if got == nil || !want.Eq(got) {
		t.Fatalf("%s: want %s, got %v", label, want.Dec(), got)
	}
}
