package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/warranty"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/stock"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// GetUnit returns the current projection of one unit.
func (s *Service) GetUnit(ctx context.Context, serial string) (domain.Unit, error) {
	return s.getUnit(ctx, serial)
}

// GetVisit returns one service visit with its frozen snapshot.
func (s *Service) GetVisit(ctx context.Context, visitID string) (domain.ServiceVisit, error) {
	visit, err := s.stores.Visits.GetVisit(ctx, visitID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ServiceVisit{}, apperrors.WithMetadata(apperrors.CodeVisitNotFound, "service visit does not exist",
			map[string]string{"visit_id": visitID})
	}
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	return visit, nil
}

// UnitsAtHolder lists the units a party currently holds.
func (s *Service) UnitsAtHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Unit, error) {
	if err := holder.Validate(); err != nil {
		return nil, err
	}
	return s.stores.Units.ListUnitsByHolder(ctx, holder)
}

// UnitStockAtHolder counts the units a party currently holds.
func (s *Service) UnitStockAtHolder(ctx context.Context, holder domain.HolderRef) (int, error) {
	if err := holder.Validate(); err != nil {
		return 0, err
	}
	return s.stores.Units.CountUnitsAtHolder(ctx, holder)
}

// PartStockAtCenter derives the available quantity of one part at one
// service center from the journal. The cache is advisory; this fold is the
// authority.
func (s *Service) PartStockAtCenter(ctx context.Context, centerID, code string) (int, error) {
	events, err := s.stores.Events.ListEventsByCenter(ctx, centerID)
	if err != nil {
		return 0, err
	}
	return stock.PartStock(events, centerID, code)
}

// WarrantyStatus reports live warranty coverage as of a given time.
type WarrantyStatus struct {
	Serial        string
	Sold          bool
	SaleDate      *time.Time
	MonthsElapsed int
	Window        domain.WarrantyWindow
	PartsValid    bool
	ServiceValid  bool
}

// WarrantyAt evaluates warranty coverage for a unit at asOf. Unsold units
// report no coverage. A zero asOf means now.
func (s *Service) WarrantyAt(ctx context.Context, serial string, asOf time.Time) (WarrantyStatus, error) {
	unit, err := s.getUnit(ctx, serial)
	if err != nil {
		return WarrantyStatus{}, err
	}
	model, err := s.getModel(ctx, unit.ModelID)
	if err != nil {
		return WarrantyStatus{}, err
	}

	status := WarrantyStatus{
		Serial: unit.Serial,
		Sold:   unit.Sold,
		Window: model.Warranty,
	}
	if !unit.Sold || unit.SaleDate == nil {
		return status, nil
	}
	if asOf.IsZero() {
		asOf = s.clock().UTC()
	}
	snapshot := warranty.Evaluate(*unit.SaleDate, model.Warranty, asOf)
	status.SaleDate = unit.SaleDate
	status.MonthsElapsed = warranty.MonthsElapsed(*unit.SaleDate, asOf)
	status.PartsValid = snapshot.PartsValid
	status.ServiceValid = snapshot.ServiceValid
	return status, nil
}

// VisitsBySerial lists a unit's service visits in opening order.
func (s *Service) VisitsBySerial(ctx context.Context, serial string) ([]domain.ServiceVisit, error) {
	if _, err := s.getUnit(ctx, serial); err != nil {
		return nil, err
	}
	return s.stores.Visits.ListVisitsBySerial(ctx, serial)
}
