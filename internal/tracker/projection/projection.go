// Package projection builds and reconciles the per-unit read model from the
// event journal.
//
// Projections are derived state: the store updates them transactionally with
// each accepted event, and readers can replay or reconcile them at any time.
// The journal, never the projection, is the authority.
package projection

import (
	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/lifecycle"
)

// StateFromUnit lifts a stored projection back into foldable state.
func StateFromUnit(unit domain.Unit) lifecycle.State {
	return lifecycle.State{
		Registered:   unit.Serial != "",
		Serial:       unit.Serial,
		ModelID:      unit.ModelID,
		Status:       unit.Status,
		Holder:       unit.Holder,
		Sold:         unit.Sold,
		SaleDate:     unit.SaleDate,
		RegisteredAt: unit.RegisteredAt,
		LastSeq:      unit.LastSeq,
	}
}

// ApplyToUnit folds one accepted event into a stored projection.
func ApplyToUnit(unit domain.Unit, evt event.Event) domain.Unit {
	return lifecycle.Fold(StateFromUnit(unit), evt).Projection()
}

// ReplayUnit rebuilds a unit projection from its full stream.
func ReplayUnit(events []event.Event) (domain.Unit, error) {
	state := lifecycle.Replay(events)
	if !state.Registered {
		return domain.Unit{}, apperrors.New(apperrors.CodeUnitNotFound, "stream has no registration event")
	}
	return state.Projection(), nil
}

// ReconcileUnit replays the stream and reports whether the stored projection
// had drifted behind it. The replayed projection is authoritative.
func ReconcileUnit(stored domain.Unit, events []event.Event) (domain.Unit, bool, error) {
	replayed, err := ReplayUnit(events)
	if err != nil {
		return domain.Unit{}, false, err
	}
	drifted := stored.LastSeq != replayed.LastSeq ||
		stored.Status != replayed.Status ||
		!stored.Holder.Equal(replayed.Holder) ||
		stored.Sold != replayed.Sold
	return replayed, drifted, nil
}
