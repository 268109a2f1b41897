// Package event defines the append-only journal envelope and the typed
// payloads of every lifecycle fact the tracker records.
package event

import (
	"time"
)

// Type identifies a lifecycle fact.
type Type string

const (
	// TypeUnitRegistered records factory registration of a serial.
	TypeUnitRegistered Type = "unit.registered"
	// TypeUnitDispatched records a factory to dealer movement.
	TypeUnitDispatched Type = "unit.dispatched"
	// TypeUnitTransferred records a dealer to sub-dealer movement.
	TypeUnitTransferred Type = "unit.transferred"
	// TypeUnitSold records the customer sale; at most one per unit.
	TypeUnitSold Type = "unit.sold"
	// TypePartsDispatched records factory part lines sent to a service center.
	TypePartsDispatched Type = "parts.dispatched"
	// TypeVisitOpened records a service visit with its frozen warranty snapshot.
	TypeVisitOpened Type = "service.visit_opened"
	// TypePartReplaced records one part consumed or repaired during a visit.
	TypePartReplaced Type = "service.part_replaced"
)

// ActorType names what kind of actor produced an event.
type ActorType string

const (
	// ActorTypeUser marks an authenticated operator action.
	ActorTypeUser ActorType = "user"
	// ActorTypeSystem marks events produced by internal processes.
	ActorTypeSystem ActorType = "system"
)

// Event is the journal envelope. Events are immutable once appended; the
// store assigns ID and persists the envelope with its payload in one step.
//
// Seq is per-stream and dense starting at 1. Appends carry the expected next
// sequence so a concurrent writer on the same stream loses with a conflict
// instead of silently over-consuming stock or double-selling a unit.
type Event struct {
	ID        string
	StreamID  string
	Seq       uint64
	Type      Type
	Timestamp time.Time
	ActorType ActorType
	ActorID   string
	RequestID string
	// UnitSerial indexes events touching a unit regardless of stream.
	UnitSerial string
	// CenterID indexes events touching a service center regardless of stream.
	CenterID    string
	PayloadJSON []byte
}

// UnitStream keys the lifecycle stream of one serial.
func UnitStream(serial string) string {
	return "unit:" + serial
}

// CenterStream keys the part-stock stream of one service center.
func CenterStream(centerID string) string {
	return "center:" + centerID
}
