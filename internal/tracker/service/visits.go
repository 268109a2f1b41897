package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/lifecycle"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/warranty"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/projection"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/stock"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// OpenVisitInput opens a service visit for a sold unit.
type OpenVisitInput struct {
	Serial        string
	Center        domain.HolderRef
	ReportedIssue string
}

// OpenVisit opens a visit and freezes the warranty snapshot evaluated at
// this moment. Later window changes never revise the stored snapshot.
func (s *Service) OpenVisit(ctx context.Context, in OpenVisitInput) (domain.ServiceVisit, error) {
	ctx, span := s.tracer.Start(ctx, "OpenVisit")
	defer span.End()
	span.SetAttributes(
		attribute.String("unit.serial", in.Serial),
		attribute.String("center.id", in.Center.ID),
	)

	unit, err := s.getUnit(ctx, in.Serial)
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	model, err := s.getModel(ctx, unit.ModelID)
	if err != nil {
		return domain.ServiceVisit{}, err
	}

	openedAt := s.clock().UTC()
	var snapshot domain.WarrantySnapshot
	if unit.SaleDate != nil {
		snapshot = warranty.Evaluate(*unit.SaleDate, model.Warranty, openedAt)
	}

	state := projection.StateFromUnit(unit)
	evt, err := lifecycle.DecideOpenVisit(state, lifecycle.OpenVisitCommand{
		VisitID:       s.newID(),
		Center:        in.Center,
		ReportedIssue: in.ReportedIssue,
		OpenedAt:      openedAt,
		Snapshot:      snapshot,
	}, s.clock)
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	evt.CenterID = in.Center.ID

	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	payload, err := event.DecodePayload[event.VisitOpenedPayload](stored)
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	return domain.ServiceVisit{
		ID:            payload.VisitID,
		Serial:        payload.Serial,
		Center:        payload.Center,
		OpenedAt:      stored.Timestamp,
		ReportedIssue: payload.ReportedIssue,
		Snapshot:      payload.Snapshot,
	}, nil
}

// ReplacementInput claims one part for a visit.
type ReplacementInput struct {
	VisitID         string
	DispatchEventID string
	Code            string
	Qty             int
	Kind            string
}

// Replacement is an authorized part replacement with its derived outcome.
type Replacement struct {
	EventID       string
	VisitID       string
	Serial        string
	Center        domain.HolderRef
	Code          string
	Name          string
	Qty           int
	Kind          domain.ReplacementKind
	CostLiability domain.CostLiability
	ClaimEligible bool
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
}

// AuthorizeReplacement validates a replacement claim end to end and appends
// the replacement to the center's stream.
//
// Check order is load-bearing for the error a caller sees: visit existence,
// visit ownership, unit sale state, claim shape, dispatch lineage, stock,
// then the replacement cap. Liability and claim eligibility are derived
// from the visit's frozen snapshot, never from live warranty state.
func (s *Service) AuthorizeReplacement(ctx context.Context, in ReplacementInput) (Replacement, error) {
	ctx, span := s.tracer.Start(ctx, "AuthorizeReplacement")
	defer span.End()
	span.SetAttributes(attribute.String("visit.id", in.VisitID))

	visit, err := s.stores.Visits.GetVisit(ctx, in.VisitID)
	if errors.Is(err, storage.ErrNotFound) {
		return Replacement{}, apperrors.WithMetadata(apperrors.CodeVisitNotFound, "service visit does not exist",
			map[string]string{"visit_id": in.VisitID})
	}
	if err != nil {
		return Replacement{}, err
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor.Role == auth.RoleServiceCenter && !actor.ActsFor(visit.Center) {
		return Replacement{}, apperrors.WithMetadata(apperrors.CodeVisitWrongCenter, "visit belongs to another service center",
			map[string]string{"visit_id": visit.ID, "center_id": visit.Center.ID})
	}

	unit, err := s.getUnit(ctx, visit.Serial)
	if err != nil {
		return Replacement{}, err
	}
	if !unit.Sold {
		return Replacement{}, apperrors.WithMetadata(apperrors.CodeUnitNotSold, "unit is not yet sold",
			map[string]string{"serial": unit.Serial})
	}

	if in.Qty <= 0 {
		return Replacement{}, apperrors.New(apperrors.CodeReplacementInvalidQty, "replacement quantity must be positive")
	}
	kind, err := domain.ParseReplacementKind(in.Kind)
	if err != nil {
		return Replacement{}, err
	}

	line, err := s.resolveDispatchLine(ctx, in.DispatchEventID, visit.Center, in.Code)
	if err != nil {
		return Replacement{}, err
	}

	centerEvents, err := s.stores.Events.ListEventsByCenter(ctx, visit.Center.ID)
	if err != nil {
		return Replacement{}, err
	}

	if kind == domain.KindReplacement {
		available, err := stock.PartStock(centerEvents, visit.Center.ID, in.Code)
		if err != nil {
			return Replacement{}, err
		}
		if available < in.Qty {
			return Replacement{}, apperrors.WithMetadata(apperrors.CodeInsufficientPartStock, "service center lacks stock for this part",
				map[string]string{
					"center_id": visit.Center.ID,
					"code":      in.Code,
					"available": fmt.Sprintf("%d", available),
					"requested": fmt.Sprintf("%d", in.Qty),
				})
		}
	}

	if err := s.checkReplacementCap(ctx, unit.Serial, in.Code); err != nil {
		return Replacement{}, err
	}

	claimEligible := kind == domain.KindReplacement && visit.Snapshot.PartsValid
	liability := domain.LiabilityCustomer
	if claimEligible {
		liability = domain.LiabilityFactory
	}
	totalCost := line.UnitCost.Mul(decimal.NewFromInt(int64(in.Qty)))

	payload, err := event.MarshalPayload(event.PartReplacedPayload{
		VisitID:         visit.ID,
		Serial:          unit.Serial,
		Center:          visit.Center,
		DispatchEventID: in.DispatchEventID,
		Code:            in.Code,
		Name:            line.Name,
		Qty:             in.Qty,
		Kind:            kind,
		CostLiability:   liability,
		ClaimEligible:   claimEligible,
		UnitCost:        line.UnitCost,
		TotalCost:       totalCost,
	})
	if err != nil {
		return Replacement{}, err
	}

	// Expected sequence serializes the stock check against concurrent
	// claims on the same center stream.
	evt := event.Event{
		StreamID:    event.CenterStream(visit.Center.ID),
		Seq:         centerStreamLastSeq(centerEvents, visit.Center.ID) + 1,
		Type:        event.TypePartReplaced,
		Timestamp:   s.clock().UTC(),
		UnitSerial:  unit.Serial,
		CenterID:    visit.Center.ID,
		PayloadJSON: payload,
	}
	stored, err := s.stores.Events.AppendEvent(ctx, s.stamp(ctx, evt))
	if err != nil {
		return Replacement{}, err
	}

	return Replacement{
		EventID:       stored.ID,
		VisitID:       visit.ID,
		Serial:        unit.Serial,
		Center:        visit.Center,
		Code:          in.Code,
		Name:          line.Name,
		Qty:           in.Qty,
		Kind:          kind,
		CostLiability: liability,
		ClaimEligible: claimEligible,
		UnitCost:      line.UnitCost,
		TotalCost:     totalCost,
	}, nil
}

// resolveDispatchLine validates the dispatch lineage of a claim: the
// referenced event must be a part dispatch to the visit's own center that
// carried the claimed part code.
func (s *Service) resolveDispatchLine(ctx context.Context, dispatchEventID string, center domain.HolderRef, code string) (domain.PartLine, error) {
	dispatch, err := s.stores.Events.GetEvent(ctx, dispatchEventID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.PartLine{}, apperrors.WithMetadata(apperrors.CodePartDispatchNotFound, "dispatch event does not exist",
			map[string]string{"dispatch_event_id": dispatchEventID})
	}
	if err != nil {
		return domain.PartLine{}, err
	}
	if dispatch.Type != event.TypePartsDispatched {
		return domain.PartLine{}, apperrors.WithMetadata(apperrors.CodePartDispatchNotFound, "referenced event is not a part dispatch",
			map[string]string{"dispatch_event_id": dispatchEventID})
	}
	payload, err := event.DecodePayload[event.PartsDispatchedPayload](dispatch)
	if err != nil {
		return domain.PartLine{}, err
	}
	if !payload.Center.Equal(center) {
		return domain.PartLine{}, apperrors.WithMetadata(apperrors.CodePartDispatchWrongCenter, "dispatch went to another service center",
			map[string]string{
				"dispatch_event_id": dispatchEventID,
				"dispatch_center":   payload.Center.ID,
				"visit_center":      center.ID,
			})
	}
	line, ok := payload.Line(code)
	if !ok {
		return domain.PartLine{}, apperrors.WithMetadata(apperrors.CodePartDispatchMissingPart, "dispatch did not carry this part code",
			map[string]string{"dispatch_event_id": dispatchEventID, "code": code})
	}
	return line, nil
}

// checkReplacementCap enforces the optional per unit and part code
// replacement limit.
func (s *Service) checkReplacementCap(ctx context.Context, serial, code string) error {
	if s.maxPartReplacements <= 0 {
		return nil
	}
	unitEvents, err := s.stores.Events.ListEventsByUnit(ctx, serial)
	if err != nil {
		return err
	}
	prior := 0
	for _, evt := range unitEvents {
		if evt.Type != event.TypePartReplaced {
			continue
		}
		payload, err := event.DecodePayload[event.PartReplacedPayload](evt)
		if err != nil {
			return err
		}
		if payload.Code == code && payload.Kind == domain.KindReplacement {
			prior++
		}
	}
	if prior >= s.maxPartReplacements {
		return apperrors.WithMetadata(apperrors.CodeReplacementLimitReached, "replacement cap reached for this part",
			map[string]string{
				"serial": serial,
				"code":   code,
				"limit":  fmt.Sprintf("%d", s.maxPartReplacements),
			})
	}
	return nil
}

func centerStreamLastSeq(events []event.Event, centerID string) uint64 {
	streamID := event.CenterStream(centerID)
	var last uint64
	for _, evt := range events {
		if evt.StreamID == streamID && evt.Seq > last {
			last = evt.Seq
		}
	}
	return last
}
