package lifecycle

import (
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

// Fold applies an event to unit state.
//
// Fold is total: unknown or non-ownership event types advance LastSeq and
// leave ownership untouched, so replaying a full stream is always safe.
func Fold(state State, evt event.Event) State {
	switch evt.Type {
	case event.TypeUnitRegistered:
		payload, err := event.DecodePayload[event.UnitRegisteredPayload](evt)
		if err == nil {
			state.Registered = true
			state.Serial = payload.Serial
			state.ModelID = payload.ModelID
			state.Status = domain.StatusAtFactory
			state.Holder = domain.Factory()
			state.RegisteredAt = evt.Timestamp
		}
	case event.TypeUnitDispatched:
		payload, err := event.DecodePayload[event.UnitDispatchedPayload](evt)
		if err == nil {
			state.Status = domain.StatusDispatchedToDealer
			state.Holder = payload.Dealer
		}
	case event.TypeUnitTransferred:
		payload, err := event.DecodePayload[event.UnitTransferredPayload](evt)
		if err == nil {
			state.Status = domain.StatusTransferredToSubDealer
			state.Holder = payload.ToSubDealer
		}
	case event.TypeUnitSold:
		payload, err := event.DecodePayload[event.UnitSoldPayload](evt)
		if err == nil {
			state.Status = domain.StatusSold
			state.Holder = payload.Customer
			state.Sold = true
			saleDate := payload.SaleDate
			state.SaleDate = &saleDate
		}
	}
	if evt.Seq > state.LastSeq {
		state.LastSeq = evt.Seq
	}
	return state
}

// Replay folds a unit stream in order from the zero state.
func Replay(events []event.Event) State {
	var state State
	for _, evt := range events {
		state = Fold(state, evt)
	}
	return state
}
