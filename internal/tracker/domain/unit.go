package domain

import "time"

// LifecycleStatus is the current ownership stage of a unit.
type LifecycleStatus string

const (
	// StatusAtFactory is the state of a freshly registered unit.
	StatusAtFactory LifecycleStatus = "AT_FACTORY"
	// StatusDispatchedToDealer follows a factory dispatch.
	StatusDispatchedToDealer LifecycleStatus = "DISPATCHED_TO_DEALER"
	// StatusTransferredToSubDealer follows a dealer transfer.
	StatusTransferredToSubDealer LifecycleStatus = "TRANSFERRED_TO_SUBDEALER"
	// StatusSold is terminal for ownership; only service events follow.
	StatusSold LifecycleStatus = "SOLD"
)

// Unit is the per-unit projection derived from the event log.
//
// It is a read model: updated only as a side effect of an accepted event and
// always rebuildable by replaying the unit's stream. LastSeq records the
// sequence of the latest folded event so stale projections can be detected
// and reconciled on read.
type Unit struct {
	Serial       string
	ModelID      string
	Status       LifecycleStatus
	Holder       HolderRef
	Sold         bool
	SaleDate     *time.Time
	LastSeq      uint64
	RegisteredAt time.Time
}
