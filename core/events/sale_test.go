package events

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestSalePurchaseEvent(t *testing.T) {
	buyer := common.HexToAddress("0x0000000000000000000000000000000000000001")
	evt := NewSalePurchase(buyer, common.Address{}, uint256.NewInt(5000), uint256.NewInt(250), uint256.NewInt(2)).Event()
	if evt == nil {
		t.Fatalf("expected event")
	}
	if evt.Type != TypeSalePurchase {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.Attributes["instrument"] != NativeAsset {
		t.Fatalf("unexpected instrument attr: %s", evt.Attributes["instrument"])
	}
	if evt.Attributes["usdAmount"] != "5000" || evt.Attributes["units"] != "250" || evt.Attributes["rawAmount"] != "2" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
	if evt.Attributes["buyer"] != buyer.Hex() {
		t.Fatalf("unexpected buyer attr: %s", evt.Attributes["buyer"])
	}
}

func TestReferralRecordedEvent(t *testing.T) {
	evt := ReferralRecorded{
		Referrer: common.HexToAddress("0x0000000000000000000000000000000000000002"),
		Buyer:    common.HexToAddress("0x0000000000000000000000000000000000000003"),
		Reward:   uint256.NewInt(42),
		Class:    "B",
	}.Event()
	if evt.Attributes["rewardAmount"] != "42" || evt.Attributes["class"] != "B" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
}

func TestPauseToggledType(t *testing.T) {
	if got := (SalePauseToggled{Paused: true}).EventType(); got != TypeSalePaused {
		t.Fatalf("unexpected type: %s", got)
	}
	if got := (SalePauseToggled{}).EventType(); got != TypeSaleUnpaused {
		t.Fatalf("unexpected type: %s", got)
	}
}

func TestRecorderFiltersByType(t *testing.T) {
	var rec Recorder
	rec.Emit(SalePauseToggled{Paused: true})
	rec.Emit(SaleTokensClaimed{Amount: uint256.NewInt(1)})
	rec.Emit(nil)
	if got := len(rec.Events()); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
	if got := len(rec.OfType(TypeSaleTokensClaimed)); got != 1 {
		t.Fatalf("expected 1 claim event, got %d", got)
	}
	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("expected reset recorder to be empty")
	}
}
