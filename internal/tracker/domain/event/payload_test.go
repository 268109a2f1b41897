package event

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

func TestStreamKeys(t *testing.T) {
	if got := UnitStream("SN-100"); got != "unit:SN-100" {
		t.Fatalf("unexpected unit stream %q", got)
	}
	if got := CenterStream("center-1"); got != "center:center-1" {
		t.Fatalf("unexpected center stream %q", got)
	}
}

func TestDecodePayloadRestoresDispatchLines(t *testing.T) {
	payload := PartsDispatchedPayload{
		Center: domain.HolderRef{Kind: domain.HolderServiceCenter, ID: "center-1"},
		Lines: []domain.PartLine{
			{Code: "P-100", Name: "Compressor", Qty: 5, UnitCost: decimal.NewFromInt(40)},
		},
	}
	raw, err := MarshalPayload(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodePayload[PartsDispatchedPayload](Event{Type: TypePartsDispatched, PayloadJSON: raw})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	line, ok := decoded.Line("P-100")
	if !ok {
		t.Fatal("expected line P-100")
	}
	if line.Qty != 5 || !line.UnitCost.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected line %+v", line)
	}
	if _, ok := decoded.Line("P-999"); ok {
		t.Fatal("expected missing line lookup to fail")
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	_, err := DecodePayload[UnitSoldPayload](Event{Type: TypeUnitSold, PayloadJSON: []byte("{broken")})
	if err == nil {
		t.Fatal("expected decode error")
	}
}
