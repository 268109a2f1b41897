package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
)

func TestAppendEnqueuesOutboxEntry(t *testing.T) {
	store := openTestStore(t)
	seedModel(t, store, "pp-2000")
	stored := mustAppend(t, store, registeredEvent(t, "SN-200", "pp-2000"))

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d", len(pending))
	}
	entry := pending[0]
	if entry.EventID != stored.ID {
		t.Fatalf("expected event id %s, got %s", stored.ID, entry.EventID)
	}
	if entry.EventType != string(event.TypeUnitRegistered) {
		t.Fatalf("expected registration type, got %s", entry.EventType)
	}

	var envelope outboxEnvelope
	if err := json.Unmarshal(entry.Body, &envelope); err != nil {
		t.Fatalf("decode outbox body: %v", err)
	}
	if envelope.ID != stored.ID || envelope.Seq != 1 {
		t.Fatalf("expected envelope for seq 1, got %+v", envelope)
	}
	if envelope.UnitSerial != "SN-200" {
		t.Fatalf("expected serial in envelope, got %s", envelope.UnitSerial)
	}
}

func TestMarkOutboxPublishedDrainsQueue(t *testing.T) {
	store := openTestStore(t)
	seedModel(t, store, "pp-2000")
	mustAppend(t, store, registeredEvent(t, "SN-201", "pp-2000"))
	mustAppend(t, store, soldEvent(t, "SN-201", 2, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))

	pending, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected two pending entries, got %d", len(pending))
	}

	ids := []int64{pending[0].ID}
	if err := store.MarkOutboxPublished(context.Background(), ids); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	remaining, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected one remaining entry, got %d", len(remaining))
	}
	if remaining[0].ID == pending[0].ID {
		t.Fatal("expected published entry to drop out of the pending list")
	}

	// Marking nothing is a no-op.
	if err := store.MarkOutboxPublished(context.Background(), nil); err != nil {
		t.Fatalf("mark empty: %v", err)
	}
}

func TestOutboxPreservesEnqueueOrder(t *testing.T) {
	store := openTestStore(t)
	seedModel(t, store, "pp-2000")
	mustAppend(t, store, registeredEvent(t, "SN-202", "pp-2000"))
	dealer := domain.HolderRef{Kind: domain.HolderDealer, ID: "dealer-1"}
	mustAppend(t, store, dispatchedEvent(t, "SN-202", 2, dealer))

	pending, err := store.ListPendingOutbox(context.Background(), 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected two entries, got %d", len(pending))
	}
	if pending[0].EventType != string(event.TypeUnitRegistered) ||
		pending[1].EventType != string(event.TypeUnitDispatched) {
		t.Fatalf("expected enqueue order preserved, got %s then %s",
			pending[0].EventType, pending[1].EventType)
	}
}
