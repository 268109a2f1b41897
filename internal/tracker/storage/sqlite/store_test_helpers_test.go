package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func seedModel(t *testing.T, store *Store, modelID string) {
	t.Helper()
	err := store.PutModel(context.Background(), domain.Model{
		ID:        modelID,
		Name:      "Pressure Pump 2000",
		Warranty:  domain.WarrantyWindow{PartsMonths: 12, ServiceMonths: 24},
		Enabled:   true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed model: %v", err)
	}
}

func mustAppend(t *testing.T, store *Store, evt event.Event) event.Event {
	t.Helper()
	stored, err := store.AppendEvent(context.Background(), evt)
	if err != nil {
		t.Fatalf("append %s: %v", evt.Type, err)
	}
	return stored
}

func mustPayload(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := event.MarshalPayload(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func registeredEvent(t *testing.T, serial, modelID string) event.Event {
	t.Helper()
	return event.Event{
		StreamID:   event.UnitStream(serial),
		Seq:        1,
		Type:       event.TypeUnitRegistered,
		Timestamp:  time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
		ActorType:  event.ActorTypeSystem,
		UnitSerial: serial,
		PayloadJSON: mustPayload(t, event.UnitRegisteredPayload{
			Serial:  serial,
			ModelID: modelID,
		}),
	}
}

func dispatchedEvent(t *testing.T, serial string, seq uint64, dealer domain.HolderRef) event.Event {
	t.Helper()
	return event.Event{
		StreamID:    event.UnitStream(serial),
		Seq:         seq,
		Type:        event.TypeUnitDispatched,
		Timestamp:   time.Date(2025, 1, 12, 8, 0, 0, 0, time.UTC),
		ActorType:   event.ActorTypeUser,
		ActorID:     "ops-1",
		UnitSerial:  serial,
		PayloadJSON: mustPayload(t, event.UnitDispatchedPayload{Dealer: dealer}),
	}
}

func soldEvent(t *testing.T, serial string, seq uint64, saleDate time.Time) event.Event {
	t.Helper()
	return event.Event{
		StreamID:   event.UnitStream(serial),
		Seq:        seq,
		Type:       event.TypeUnitSold,
		Timestamp:  saleDate,
		ActorType:  event.ActorTypeUser,
		ActorID:    "dealer-1",
		UnitSerial: serial,
		PayloadJSON: mustPayload(t, event.UnitSoldPayload{
			Customer: domain.HolderRef{Kind: domain.HolderCustomer, ID: "cust-9"},
			SaleDate: saleDate,
		}),
	}
}

func visitOpenedEvent(t *testing.T, serial string, seq uint64, visitID, centerID string) event.Event {
	t.Helper()
	center := domain.HolderRef{Kind: domain.HolderServiceCenter, ID: centerID}
	return event.Event{
		StreamID:   event.UnitStream(serial),
		Seq:        seq,
		Type:       event.TypeVisitOpened,
		Timestamp:  time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		ActorType:  event.ActorTypeUser,
		ActorID:    "tech-1",
		UnitSerial: serial,
		CenterID:   centerID,
		PayloadJSON: mustPayload(t, event.VisitOpenedPayload{
			VisitID:       visitID,
			Serial:        serial,
			Center:        center,
			ReportedIssue: "no pressure",
			Snapshot:      domain.WarrantySnapshot{PartsValid: true, ServiceValid: true},
		}),
	}
}

func partsDispatchedEvent(t *testing.T, centerID string, seq uint64, lines []domain.PartLine) event.Event {
	t.Helper()
	return event.Event{
		StreamID:  event.CenterStream(centerID),
		Seq:       seq,
		Type:      event.TypePartsDispatched,
		Timestamp: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		ActorType: event.ActorTypeUser,
		ActorID:   "factory-ops",
		CenterID:  centerID,
		PayloadJSON: mustPayload(t, event.PartsDispatchedPayload{
			Center: domain.HolderRef{Kind: domain.HolderServiceCenter, ID: centerID},
			Lines:  lines,
		}),
	}
}

func partReplacedEvent(t *testing.T, serial, centerID string, seq uint64, visitID, dispatchEventID, code string, qty int, kind domain.ReplacementKind) event.Event {
	t.Helper()
	unitCost := decimal.NewFromInt(40)
	return event.Event{
		StreamID:   event.CenterStream(centerID),
		Seq:        seq,
		Type:       event.TypePartReplaced,
		Timestamp:  time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		ActorType:  event.ActorTypeUser,
		ActorID:    "tech-1",
		UnitSerial: serial,
		CenterID:   centerID,
		PayloadJSON: mustPayload(t, event.PartReplacedPayload{
			VisitID:         visitID,
			Serial:          serial,
			Center:          domain.HolderRef{Kind: domain.HolderServiceCenter, ID: centerID},
			DispatchEventID: dispatchEventID,
			Code:            code,
			Name:            "Motor Bracket",
			Qty:             qty,
			Kind:            kind,
			CostLiability:   domain.LiabilityFactory,
			ClaimEligible:   true,
			UnitCost:        unitCost,
			TotalCost:       unitCost.Mul(decimal.NewFromInt(int64(qty))),
		}),
	}
}
