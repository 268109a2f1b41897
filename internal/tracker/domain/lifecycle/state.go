package lifecycle

import (
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

// State is the replayed unit aggregate used by deciders.
//
// It is derived from the unit's event stream and drives every ownership
// guard; the persisted Unit projection mirrors it for fast reads.
type State struct {
	// Registered indicates whether unit.registered has been applied.
	Registered bool
	// Serial is the unit's unique serial number.
	Serial string
	// ModelID references the product definition in the catalog.
	ModelID string
	// Status is the lifecycle stage that gates which movements are legal.
	Status domain.LifecycleStatus
	// Holder is the current custodian before sale.
	Holder domain.HolderRef
	// Sold marks the terminal ownership state.
	Sold bool
	// SaleDate starts the warranty clock; nil until sold.
	SaleDate *time.Time
	// RegisteredAt is the registration timestamp.
	RegisteredAt time.Time
	// LastSeq is the sequence of the latest folded event. Deciders stamp
	// LastSeq+1 on produced events so concurrent writers conflict instead
	// of interleaving.
	LastSeq uint64
}

// Projection renders the state as the persisted Unit read model.
func (s State) Projection() domain.Unit {
	return domain.Unit{
		Serial:       s.Serial,
		ModelID:      s.ModelID,
		Status:       s.Status,
		Holder:       s.Holder,
		Sold:         s.Sold,
		SaleDate:     s.SaleDate,
		LastSeq:      s.LastSeq,
		RegisteredAt: s.RegisteredAt,
	}
}
