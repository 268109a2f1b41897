package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/lifecycle"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/projection"
)

// RegisterUnitInput creates a unit at the factory.
type RegisterUnitInput struct {
	Serial  string
	ModelID string
}

// RegisterUnit registers a serial under an enabled model. The unit starts
// AT_FACTORY with the factory as holder.
func (s *Service) RegisterUnit(ctx context.Context, in RegisterUnitInput) (domain.Unit, error) {
	ctx, span := s.tracer.Start(ctx, "RegisterUnit")
	defer span.End()
	span.SetAttributes(attribute.String("unit.serial", in.Serial))

	model, err := s.getModel(ctx, in.ModelID)
	if err != nil {
		return domain.Unit{}, err
	}
	if !model.Enabled {
		return domain.Unit{}, apperrors.WithMetadata(apperrors.CodeModelDisabled, "model is disabled",
			map[string]string{"model_id": model.ID})
	}

	state, err := s.unitState(ctx, in.Serial)
	if err != nil {
		return domain.Unit{}, err
	}
	evt, err := lifecycle.DecideRegister(state, lifecycle.RegisterCommand{
		Serial:  in.Serial,
		ModelID: in.ModelID,
	}, s.clock)
	if err != nil {
		return domain.Unit{}, err
	}

	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return domain.Unit{}, err
	}
	return projection.ApplyToUnit(domain.Unit{}, stored), nil
}

// DispatchUnitInput moves a unit from the factory to a dealer.
type DispatchUnitInput struct {
	Serial string
	Dealer domain.HolderRef
}

// DispatchUnit dispatches a unit to a dealer. Only AT_FACTORY units qualify.
func (s *Service) DispatchUnit(ctx context.Context, in DispatchUnitInput) (domain.Unit, error) {
	ctx, span := s.tracer.Start(ctx, "DispatchUnit")
	defer span.End()
	span.SetAttributes(attribute.String("unit.serial", in.Serial))

	unit, err := s.getUnit(ctx, in.Serial)
	if err != nil {
		return domain.Unit{}, err
	}
	state := projection.StateFromUnit(unit)
	evt, err := lifecycle.DecideDispatch(state, lifecycle.DispatchCommand{Dealer: in.Dealer}, s.clock)
	if err != nil {
		return domain.Unit{}, err
	}

	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return domain.Unit{}, err
	}
	return projection.ApplyToUnit(unit, stored), nil
}

// TransferUnitInput moves a unit from its dealer to a sub-dealer.
type TransferUnitInput struct {
	Serial      string
	FromDealer  domain.HolderRef
	ToSubDealer domain.HolderRef
}

// TransferUnit transfers a dealer-held unit to a sub-dealer. The transfer
// fails when the named dealer no longer holds the unit.
func (s *Service) TransferUnit(ctx context.Context, in TransferUnitInput) (domain.Unit, error) {
	ctx, span := s.tracer.Start(ctx, "TransferUnit")
	defer span.End()
	span.SetAttributes(attribute.String("unit.serial", in.Serial))

	unit, err := s.getUnit(ctx, in.Serial)
	if err != nil {
		return domain.Unit{}, err
	}
	state := projection.StateFromUnit(unit)
	evt, err := lifecycle.DecideTransfer(state, lifecycle.TransferCommand{
		FromDealer:  in.FromDealer,
		ToSubDealer: in.ToSubDealer,
	}, s.clock)
	if err != nil {
		return domain.Unit{}, err
	}

	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return domain.Unit{}, err
	}
	return projection.ApplyToUnit(unit, stored), nil
}

// SellUnitInput records the customer sale of a unit.
type SellUnitInput struct {
	Serial   string
	Customer domain.HolderRef
	SaleDate time.Time
}

// SellUnit records the sale and starts the warranty clock. Sale is legal
// from any non-sold state; a zero SaleDate defaults to now.
func (s *Service) SellUnit(ctx context.Context, in SellUnitInput) (domain.Unit, error) {
	ctx, span := s.tracer.Start(ctx, "SellUnit")
	defer span.End()
	span.SetAttributes(attribute.String("unit.serial", in.Serial))

	unit, err := s.getUnit(ctx, in.Serial)
	if err != nil {
		return domain.Unit{}, err
	}
	state := projection.StateFromUnit(unit)
	evt, err := lifecycle.DecideSell(state, lifecycle.SellCommand{
		Customer: in.Customer,
		SaleDate: in.SaleDate,
	}, s.clock)
	if err != nil {
		return domain.Unit{}, err
	}

	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return domain.Unit{}, err
	}
	return projection.ApplyToUnit(unit, stored), nil
}
