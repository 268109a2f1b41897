// Package storage defines the persistence contracts of the tracker core.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// EventStore persists the append-only journal.
//
// AppendEvent validates that every referenced entity resolves, assigns the
// event an identifier and timestamp, and in the same atomic step updates
// the unit projection, the advisory part-stock cache, the visit record for
// visit events, and the relay outbox. A failed append leaves no partial
// state. When the event carries an expected sequence, a concurrent append to
// the same stream fails with a conflict instead of interleaving.
type EventStore interface {
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	ListStream(ctx context.Context, streamID string, afterSeq uint64, limit int) ([]event.Event, error)
	ListEventsByUnit(ctx context.Context, serial string) ([]event.Event, error)
	ListEventsByCenter(ctx context.Context, centerID string) ([]event.Event, error)
}

// UnitStore reads the per-unit projection.
type UnitStore interface {
	GetUnit(ctx context.Context, serial string) (domain.Unit, error)
	ListUnitsByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Unit, error)
	CountUnitsAtHolder(ctx context.Context, holder domain.HolderRef) (int, error)
}

// ModelStore is the catalog collaborator seam. The core only reads models;
// writes happen through the catalog's own tooling.
type ModelStore interface {
	PutModel(ctx context.Context, model domain.Model) error
	GetModel(ctx context.Context, id string) (domain.Model, error)
}

// VisitStore reads service visit headers with their frozen snapshots.
type VisitStore interface {
	GetVisit(ctx context.Context, id string) (domain.ServiceVisit, error)
	ListVisitsBySerial(ctx context.Context, serial string) ([]domain.ServiceVisit, error)
}

// PartStockStore reads the advisory part-stock cache.
type PartStockStore interface {
	CachedPartStock(ctx context.Context, centerID, code string) (int, error)
}

// OutboxEntry is one appended event waiting for relay publication.
type OutboxEntry struct {
	ID         int64
	EventID    string
	EventType  string
	Body       []byte
	EnqueuedAt time.Time
}

// OutboxStore drains the transactional relay outbox.
type OutboxStore interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkOutboxPublished(ctx context.Context, ids []int64) error
}
