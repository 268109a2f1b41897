// Package timeline assembles the full lifecycle view of one unit from the
// journal: registration, movements, sale, live warranty, and service
// history with replacements.
package timeline

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/warranty"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// Registration is the factory registration entry.
type Registration struct {
	Serial    string
	ModelID   string
	ModelName string
	At        time.Time
}

// Movement is one ownership change: dispatch, transfer, or sale.
type Movement struct {
	Type event.Type
	From domain.HolderRef
	To   domain.HolderRef
	At   time.Time
}

// ReplacementEntry is one part consumed or repaired during a visit.
type ReplacementEntry struct {
	EventID       string
	Code          string
	Name          string
	Qty           int
	Kind          domain.ReplacementKind
	CostLiability domain.CostLiability
	ClaimEligible bool
	TotalCost     decimal.Decimal
	At            time.Time
}

// VisitEntry is a service visit with its replacements.
type VisitEntry struct {
	Visit        domain.ServiceVisit
	Replacements []ReplacementEntry
}

// Warranty is the live coverage at build time.
type Warranty struct {
	Window        domain.WarrantyWindow
	SaleDate      *time.Time
	MonthsElapsed int
	PartsValid    bool
	ServiceValid  bool
}

// Timeline is the aggregated lifecycle of one unit. Building it is a pure
// read: the same journal always yields the same timeline.
type Timeline struct {
	Unit         domain.Unit
	Registration Registration
	Movements    []Movement
	Warranty     Warranty
	Visits       []VisitEntry
}

// Stores groups the read interfaces the builder needs.
type Stores struct {
	Events storage.EventStore
	Units  storage.UnitStore
	Models storage.ModelStore
	Visits storage.VisitStore
}

// Builder assembles timelines.
type Builder struct {
	stores Stores
	clock  func() time.Time
}

// NewBuilder creates a Builder over the given stores.
func NewBuilder(stores Stores) *Builder {
	return &Builder{stores: stores, clock: time.Now}
}

// WithClock overrides the wall clock used for live warranty evaluation.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build assembles the timeline for one serial.
func (b *Builder) Build(ctx context.Context, serial string) (Timeline, error) {
	unit, err := b.stores.Units.GetUnit(ctx, serial)
	if errors.Is(err, storage.ErrNotFound) {
		return Timeline{}, apperrors.WithMetadata(apperrors.CodeUnitNotFound, "unit is not registered",
			map[string]string{"serial": serial})
	}
	if err != nil {
		return Timeline{}, err
	}

	model, err := b.stores.Models.GetModel(ctx, unit.ModelID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Timeline{}, err
	}

	events, err := b.stores.Events.ListEventsByUnit(ctx, serial)
	if err != nil {
		return Timeline{}, err
	}
	visits, err := b.stores.Visits.ListVisitsBySerial(ctx, serial)
	if err != nil {
		return Timeline{}, err
	}

	timeline := Timeline{Unit: unit}
	replacementsByVisit := make(map[string][]ReplacementEntry)

	for _, evt := range events {
		switch evt.Type {
		case event.TypeUnitRegistered:
			payload, err := event.DecodePayload[event.UnitRegisteredPayload](evt)
			if err != nil {
				return Timeline{}, err
			}
			timeline.Registration = Registration{
				Serial:    payload.Serial,
				ModelID:   payload.ModelID,
				ModelName: model.Name,
				At:        evt.Timestamp,
			}
		case event.TypeUnitDispatched:
			payload, err := event.DecodePayload[event.UnitDispatchedPayload](evt)
			if err != nil {
				return Timeline{}, err
			}
			timeline.Movements = append(timeline.Movements, Movement{
				Type: evt.Type,
				From: domain.Factory(),
				To:   payload.Dealer,
				At:   evt.Timestamp,
			})
		case event.TypeUnitTransferred:
			payload, err := event.DecodePayload[event.UnitTransferredPayload](evt)
			if err != nil {
				return Timeline{}, err
			}
			timeline.Movements = append(timeline.Movements, Movement{
				Type: evt.Type,
				From: payload.FromDealer,
				To:   payload.ToSubDealer,
				At:   evt.Timestamp,
			})
		case event.TypeUnitSold:
			payload, err := event.DecodePayload[event.UnitSoldPayload](evt)
			if err != nil {
				return Timeline{}, err
			}
			timeline.Movements = append(timeline.Movements, Movement{
				Type: evt.Type,
				To:   payload.Customer,
				At:   payload.SaleDate,
			})
		case event.TypePartReplaced:
			payload, err := event.DecodePayload[event.PartReplacedPayload](evt)
			if err != nil {
				return Timeline{}, err
			}
			replacementsByVisit[payload.VisitID] = append(replacementsByVisit[payload.VisitID], ReplacementEntry{
				EventID:       evt.ID,
				Code:          payload.Code,
				Name:          payload.Name,
				Qty:           payload.Qty,
				Kind:          payload.Kind,
				CostLiability: payload.CostLiability,
				ClaimEligible: payload.ClaimEligible,
				TotalCost:     payload.TotalCost,
				At:            evt.Timestamp,
			})
		}
	}

	for _, visit := range visits {
		timeline.Visits = append(timeline.Visits, VisitEntry{
			Visit:        visit,
			Replacements: replacementsByVisit[visit.ID],
		})
	}

	timeline.Warranty = Warranty{Window: model.Warranty}
	if unit.Sold && unit.SaleDate != nil {
		asOf := b.clock().UTC()
		snapshot := warranty.Evaluate(*unit.SaleDate, model.Warranty, asOf)
		timeline.Warranty.SaleDate = unit.SaleDate
		timeline.Warranty.MonthsElapsed = warranty.MonthsElapsed(*unit.SaleDate, asOf)
		timeline.Warranty.PartsValid = snapshot.PartsValid
		timeline.Warranty.ServiceValid = snapshot.ServiceValid
	}
	return timeline, nil
}
