// Package lifecycle validates unit ownership transitions and folds accepted
// events back into unit state.
//
// The state machine is AT_FACTORY -> DISPATCHED_TO_DEALER ->
// TRANSFERRED_TO_SUBDEALER -> SOLD, with SOLD reachable from any non-sold
// state and terminal for ownership. Guard failures are conflict errors;
// service visits append after SOLD without a transition.
package lifecycle

import (
	"strings"
	"time"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

// RegisterCommand creates a unit at the factory.
type RegisterCommand struct {
	Serial  string
	ModelID string
}

// DispatchCommand moves a unit from the factory to a dealer.
type DispatchCommand struct {
	Dealer domain.HolderRef
}

// TransferCommand moves a unit from its dealer to a sub-dealer.
type TransferCommand struct {
	FromDealer  domain.HolderRef
	ToSubDealer domain.HolderRef
}

// SellCommand records the customer sale and starts the warranty clock.
type SellCommand struct {
	Customer domain.HolderRef
	SaleDate time.Time
}

// OpenVisitCommand opens a service visit for a sold unit. The warranty
// snapshot is evaluated by the caller before deciding and frozen here.
type OpenVisitCommand struct {
	VisitID       string
	Center        domain.HolderRef
	ReportedIssue string
	OpenedAt      time.Time
	Snapshot      domain.WarrantySnapshot
}

// DecideRegister validates registration against current state.
func DecideRegister(state State, cmd RegisterCommand, now func() time.Time) (event.Event, error) {
	if state.Registered {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnitAlreadyRegistered, "unit serial is already registered", map[string]string{
			"serial": state.Serial,
		})
	}
	serial := strings.TrimSpace(cmd.Serial)
	if serial == "" {
		return event.Event{}, apperrors.New(apperrors.CodeUnitSerialEmpty, "unit serial is required")
	}
	modelID := strings.TrimSpace(cmd.ModelID)
	if modelID == "" {
		return event.Event{}, apperrors.New(apperrors.CodeUnitModelEmpty, "unit model is required")
	}

	payload, err := event.MarshalPayload(event.UnitRegisteredPayload{Serial: serial, ModelID: modelID})
	if err != nil {
		return event.Event{}, err
	}
	return accept(state, serial, event.TypeUnitRegistered, payload, now), nil
}

// DecideDispatch validates a factory dispatch against current state.
func DecideDispatch(state State, cmd DispatchCommand, now func() time.Time) (event.Event, error) {
	if err := guardRegistered(state); err != nil {
		return event.Event{}, err
	}
	if state.Sold {
		return event.Event{}, alreadySold(state)
	}
	if state.Status != domain.StatusAtFactory {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnitAlreadyDispatched, "unit has already left the factory", map[string]string{
			"serial": state.Serial,
			"holder": state.Holder.String(),
		})
	}
	if err := cmd.Dealer.Validate(); err != nil {
		return event.Event{}, err
	}
	if cmd.Dealer.Kind != domain.HolderDealer {
		return event.Event{}, apperrors.New(apperrors.CodeHolderRefInvalid, "dispatch target must be a dealer")
	}

	payload, err := event.MarshalPayload(event.UnitDispatchedPayload{Dealer: cmd.Dealer})
	if err != nil {
		return event.Event{}, err
	}
	return accept(state, state.Serial, event.TypeUnitDispatched, payload, now), nil
}

// DecideTransfer validates a dealer to sub-dealer movement. The transferring
// dealer must be the unit's current projected holder.
func DecideTransfer(state State, cmd TransferCommand, now func() time.Time) (event.Event, error) {
	if err := guardRegistered(state); err != nil {
		return event.Event{}, err
	}
	if state.Sold {
		return event.Event{}, alreadySold(state)
	}
	if state.Status != domain.StatusDispatchedToDealer {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnitNotWithDealer, "unit is not held by a dealer", map[string]string{
			"serial": state.Serial,
			"status": string(state.Status),
		})
	}
	if err := cmd.FromDealer.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := cmd.ToSubDealer.Validate(); err != nil {
		return event.Event{}, err
	}
	if cmd.ToSubDealer.Kind != domain.HolderSubDealer {
		return event.Event{}, apperrors.New(apperrors.CodeHolderRefInvalid, "transfer target must be a sub-dealer")
	}
	if !state.Holder.Equal(cmd.FromDealer) {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnitTransferWrongDealer, "transferring dealer no longer holds this unit", map[string]string{
			"serial":      state.Serial,
			"holder":      state.Holder.String(),
			"from_dealer": cmd.FromDealer.String(),
		})
	}

	payload, err := event.MarshalPayload(event.UnitTransferredPayload{
		FromDealer:  cmd.FromDealer,
		ToSubDealer: cmd.ToSubDealer,
	})
	if err != nil {
		return event.Event{}, err
	}
	return accept(state, state.Serial, event.TypeUnitTransferred, payload, now), nil
}

// DecideSell validates a customer sale. Sale is legal from any non-sold
// state, including straight from a dealer with no transfer in between.
func DecideSell(state State, cmd SellCommand, now func() time.Time) (event.Event, error) {
	if err := guardRegistered(state); err != nil {
		return event.Event{}, err
	}
	if state.Sold {
		return event.Event{}, alreadySold(state)
	}
	if err := cmd.Customer.Validate(); err != nil {
		return event.Event{}, err
	}
	if cmd.Customer.Kind != domain.HolderCustomer {
		return event.Event{}, apperrors.New(apperrors.CodeHolderRefInvalid, "sale target must be a customer")
	}
	saleDate := cmd.SaleDate
	if saleDate.IsZero() {
		if now == nil {
			now = time.Now
		}
		saleDate = now()
	}

	payload, err := event.MarshalPayload(event.UnitSoldPayload{
		Customer: cmd.Customer,
		SaleDate: saleDate.UTC(),
	})
	if err != nil {
		return event.Event{}, err
	}
	return accept(state, state.Serial, event.TypeUnitSold, payload, now), nil
}

// DecideOpenVisit validates opening a service visit. The unit must be sold;
// ownership does not change.
func DecideOpenVisit(state State, cmd OpenVisitCommand, now func() time.Time) (event.Event, error) {
	if err := guardRegistered(state); err != nil {
		return event.Event{}, err
	}
	if !state.Sold {
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeUnitNotSold, "unit is not yet sold", map[string]string{
			"serial": state.Serial,
		})
	}
	if err := cmd.Center.Validate(); err != nil {
		return event.Event{}, err
	}
	if cmd.Center.Kind != domain.HolderServiceCenter {
		return event.Event{}, apperrors.New(apperrors.CodeHolderRefInvalid, "visits belong to a service center")
	}

	payload, err := event.MarshalPayload(event.VisitOpenedPayload{
		VisitID:       cmd.VisitID,
		Serial:        state.Serial,
		Center:        cmd.Center,
		ReportedIssue: strings.TrimSpace(cmd.ReportedIssue),
		Snapshot:      cmd.Snapshot,
	})
	if err != nil {
		return event.Event{}, err
	}
	return accept(state, state.Serial, event.TypeVisitOpened, payload, now), nil
}

func guardRegistered(state State) error {
	if !state.Registered {
		return apperrors.New(apperrors.CodeUnitNotFound, "unit is not registered")
	}
	return nil
}

func alreadySold(state State) error {
	return apperrors.WithMetadata(apperrors.CodeUnitAlreadySold, "unit is already sold", map[string]string{
		"serial": state.Serial,
	})
}

// accept builds the envelope for an accepted command on the unit stream.
// The caller stamps identity, actor, and request metadata before appending.
func accept(state State, serial string, typ event.Type, payload []byte, now func() time.Time) event.Event {
	if now == nil {
		now = time.Now
	}
	return event.Event{
		StreamID:    event.UnitStream(serial),
		Seq:         state.LastSeq + 1,
		Type:        typ,
		Timestamp:   now().UTC(),
		UnitSerial:  serial,
		PayloadJSON: payload,
	}
}
