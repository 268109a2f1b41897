package timeline

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage/sqlite"
)

func setupUnitHistory(t *testing.T) (*Builder, *time.Time) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	err = store.PutModel(ctx, domain.Model{
		ID: "pp-2000", Name: "Pressure Pump 2000",
		Warranty: domain.WarrantyWindow{PartsMonths: 12, ServiceMonths: 24},
		Enabled:  true, CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed model: %v", err)
	}

	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	svc := service.New(service.Stores{
		Events: store, Units: store, Models: store, Visits: store, PartStock: store,
	}, service.WithClock(func() time.Time { return now }))

	if _, err := svc.RegisterUnit(ctx, service.RegisterUnitInput{Serial: "SN-1", ModelID: "pp-2000"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	dealer := domain.HolderRef{Kind: domain.HolderDealer, ID: "dealer-1"}
	if _, err := svc.DispatchUnit(ctx, service.DispatchUnitInput{Serial: "SN-1", Dealer: dealer}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	subDealer := domain.HolderRef{Kind: domain.HolderSubDealer, ID: "sub-1"}
	if _, err := svc.TransferUnit(ctx, service.TransferUnitInput{
		Serial: "SN-1", FromDealer: dealer, ToSubDealer: subDealer,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := svc.SellUnit(ctx, service.SellUnitInput{
		Serial:   "SN-1",
		Customer: domain.HolderRef{Kind: domain.HolderCustomer, ID: "cust-1"},
		SaleDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	center := domain.HolderRef{Kind: domain.HolderServiceCenter, ID: "center-1"}
	receipt, err := svc.DispatchParts(ctx, service.DispatchPartsInput{
		Center: center,
		Lines:  []domain.PartLine{{Code: "MB-1", Name: "Motor Bracket", Qty: 5, UnitCost: decimal.NewFromInt(40)}},
	})
	if err != nil {
		t.Fatalf("dispatch parts: %v", err)
	}

	now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	visit, err := svc.OpenVisit(ctx, service.OpenVisitInput{
		Serial: "SN-1", Center: center, ReportedIssue: "no pressure",
	})
	if err != nil {
		t.Fatalf("open visit: %v", err)
	}
	if _, err := svc.AuthorizeReplacement(ctx, service.ReplacementInput{
		VisitID:         visit.ID,
		DispatchEventID: receipt.EventID,
		Code:            "MB-1",
		Qty:             3,
		Kind:            "REPLACEMENT",
	}); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	builder := NewBuilder(Stores{
		Events: store, Units: store, Models: store, Visits: store,
	}).WithClock(func() time.Time { return now })
	return builder, &now
}

func TestBuildAssemblesFullLifecycle(t *testing.T) {
	builder, _ := setupUnitHistory(t)

	timeline, err := builder.Build(context.Background(), "SN-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if timeline.Registration.ModelID != "pp-2000" || timeline.Registration.ModelName != "Pressure Pump 2000" {
		t.Fatalf("unexpected registration: %+v", timeline.Registration)
	}
	if len(timeline.Movements) != 3 {
		t.Fatalf("expected dispatch, transfer, and sale, got %d movements", len(timeline.Movements))
	}
	if timeline.Movements[0].Type != event.TypeUnitDispatched ||
		timeline.Movements[1].Type != event.TypeUnitTransferred ||
		timeline.Movements[2].Type != event.TypeUnitSold {
		t.Fatalf("movements out of order: %+v", timeline.Movements)
	}
	if timeline.Movements[1].From.ID != "dealer-1" || timeline.Movements[1].To.ID != "sub-1" {
		t.Fatalf("unexpected transfer parties: %+v", timeline.Movements[1])
	}

	if !timeline.Warranty.PartsValid || !timeline.Warranty.ServiceValid {
		t.Fatalf("expected live warranty coverage in month 5, got %+v", timeline.Warranty)
	}
	if timeline.Warranty.MonthsElapsed != 5 {
		t.Fatalf("expected 5 months elapsed, got %d", timeline.Warranty.MonthsElapsed)
	}

	if len(timeline.Visits) != 1 {
		t.Fatalf("expected one visit, got %d", len(timeline.Visits))
	}
	entry := timeline.Visits[0]
	if entry.Visit.ReportedIssue != "no pressure" {
		t.Fatalf("unexpected visit: %+v", entry.Visit)
	}
	if len(entry.Replacements) != 1 {
		t.Fatalf("expected one replacement, got %d", len(entry.Replacements))
	}
	replacement := entry.Replacements[0]
	if replacement.Code != "MB-1" || replacement.Qty != 3 || !replacement.ClaimEligible {
		t.Fatalf("unexpected replacement: %+v", replacement)
	}
	if !replacement.TotalCost.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected total cost 120, got %s", replacement.TotalCost)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	builder, _ := setupUnitHistory(t)

	first, err := builder.Build(context.Background(), "SN-1")
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := builder.Build(context.Background(), "SN-1")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical timelines from the same journal")
	}
}

func TestBuildLiveWarrantyMovesWithClock(t *testing.T) {
	builder, now := setupUnitHistory(t)

	*now = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	timeline, err := builder.Build(context.Background(), "SN-1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if timeline.Warranty.PartsValid {
		t.Fatal("expected parts warranty lapsed at month 13")
	}
	if !timeline.Warranty.ServiceValid {
		t.Fatal("expected service warranty still valid at month 13")
	}
	// The stored visit snapshot stays frozen regardless.
	if !timeline.Visits[0].Visit.Snapshot.PartsValid {
		t.Fatal("expected frozen snapshot unchanged")
	}
}

func TestBuildUnknownSerial(t *testing.T) {
	builder, _ := setupUnitHistory(t)

	_, err := builder.Build(context.Background(), "ghost")
	if !errors.Is(err, apperrors.New(apperrors.CodeUnitNotFound, "")) {
		t.Fatalf("expected unit not found, got %v", err)
	}
}
