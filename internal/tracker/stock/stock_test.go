package stock

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

func center(id string) domain.HolderRef {
	return domain.HolderRef{Kind: domain.HolderServiceCenter, ID: id}
}

func partsDispatched(t *testing.T, centerID string, lines ...domain.PartLine) event.Event {
	t.Helper()
	payload, err := event.MarshalPayload(event.PartsDispatchedPayload{
		Center: center(centerID),
		Lines:  lines,
	})
	if err != nil {
		t.Fatalf("marshal dispatch payload: %v", err)
	}
	return event.Event{
		StreamID:    event.CenterStream(centerID),
		Type:        event.TypePartsDispatched,
		Timestamp:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		CenterID:    centerID,
		PayloadJSON: payload,
	}
}

func partReplaced(t *testing.T, centerID, code string, qty int, kind domain.ReplacementKind) event.Event {
	t.Helper()
	payload, err := event.MarshalPayload(event.PartReplacedPayload{
		VisitID:       "v-1",
		Serial:        "SN-1",
		Center:        center(centerID),
		Code:          code,
		Qty:           qty,
		Kind:          kind,
		CostLiability: domain.LiabilityFactory,
		ClaimEligible: true,
		UnitCost:      decimal.NewFromInt(10),
		TotalCost:     decimal.NewFromInt(int64(qty) * 10),
	})
	if err != nil {
		t.Fatalf("marshal replacement payload: %v", err)
	}
	return event.Event{
		StreamID:    event.CenterStream(centerID),
		Type:        event.TypePartReplaced,
		Timestamp:   time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		CenterID:    centerID,
		PayloadJSON: payload,
	}
}

func TestPartStockSubtractsReplacements(t *testing.T) {
	events := []event.Event{
		partsDispatched(t, "SC-1", domain.PartLine{Code: "MB-1", Name: "Main board", Qty: 5, UnitCost: decimal.NewFromInt(40)}),
		partReplaced(t, "SC-1", "MB-1", 3, domain.KindReplacement),
	}

	got, err := PartStock(events, "SC-1", "MB-1")
	if err != nil {
		t.Fatalf("part stock: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}
}

func TestPartStockIgnoresRepairs(t *testing.T) {
	events := []event.Event{
		partsDispatched(t, "SC-1", domain.PartLine{Code: "MB-1", Name: "Main board", Qty: 5, UnitCost: decimal.NewFromInt(40)}),
		partReplaced(t, "SC-1", "MB-1", 3, domain.KindReplacement),
		partReplaced(t, "SC-1", "MB-1", 1, domain.KindRepair),
	}

	got, err := PartStock(events, "SC-1", "MB-1")
	if err != nil {
		t.Fatalf("part stock: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected repairs to leave stock at 2, got %d", got)
	}
}

func TestFoldPartBalancesKeysByCenterAndCode(t *testing.T) {
	events := []event.Event{
		partsDispatched(t, "SC-1",
			domain.PartLine{Code: "MB-1", Name: "Main board", Qty: 5, UnitCost: decimal.NewFromInt(40)},
			domain.PartLine{Code: "FAN-2", Name: "Fan", Qty: 2, UnitCost: decimal.NewFromInt(8)},
		),
		partsDispatched(t, "SC-2", domain.PartLine{Code: "MB-1", Name: "Main board", Qty: 1, UnitCost: decimal.NewFromInt(40)}),
		partReplaced(t, "SC-1", "FAN-2", 2, domain.KindReplacement),
	}

	balances, err := FoldPartBalances(events)
	if err != nil {
		t.Fatalf("fold balances: %v", err)
	}

	cases := []struct {
		key  BalanceKey
		want int
	}{
		{BalanceKey{CenterID: "SC-1", Code: "MB-1"}, 5},
		{BalanceKey{CenterID: "SC-1", Code: "FAN-2"}, 0},
		{BalanceKey{CenterID: "SC-2", Code: "MB-1"}, 1},
	}
	for _, tc := range cases {
		if got := balances[tc.key].Available(); got != tc.want {
			t.Fatalf("%s/%s: expected %d, got %d", tc.key.CenterID, tc.key.Code, tc.want, got)
		}
	}
}

func TestCountUnitsAtHolder(t *testing.T) {
	dealerRef := domain.HolderRef{Kind: domain.HolderDealer, ID: "D-1"}
	otherRef := domain.HolderRef{Kind: domain.HolderDealer, ID: "D-2"}
	units := []domain.Unit{
		{Serial: "SN-1", Holder: dealerRef},
		{Serial: "SN-2", Holder: dealerRef, Sold: true},
		{Serial: "SN-3", Holder: dealerRef},
		{Serial: "SN-4", Holder: otherRef},
	}

	if got := CountUnitsAtHolder(units, dealerRef); got != 2 {
		t.Fatalf("expected 2 unsold units at dealer, got %d", got)
	}
	if got := CountUnitsAtHolder(units, otherRef); got != 1 {
		t.Fatalf("expected 1 unit at other dealer, got %d", got)
	}
}
