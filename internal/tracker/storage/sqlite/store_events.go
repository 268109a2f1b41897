package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/id"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/projection"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// EventStore methods (unified event journal)

// AppendEvent atomically appends an event and returns it with its assigned
// identifier and sequence.
//
// The same transaction validates references, inserts the journal row, folds
// the event into the units projection, adjusts the part-stock cache, records
// the visit header for visit events, and enqueues the relay outbox entry.
// Rollback on any failure leaves no derived state without its event.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(evt.StreamID) == "" {
		return event.Event{}, fmt.Errorf("event stream id is required")
	}
	if evt.Type == "" {
		return event.Event{}, fmt.Errorf("event type is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if evt.ID == "" {
		evt.ID = id.MustNewID()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	if evt.Seq == 0 {
		last, err := streamLastSeq(ctx, tx, evt.StreamID)
		if err != nil {
			return event.Event{}, err
		}
		evt.Seq = last + 1
	}

	if err := validateEventReferences(ctx, tx, evt); err != nil {
		return event.Event{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (id, stream_id, seq, event_type, timestamp, actor_type, actor_id, request_id, unit_serial, center_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.StreamID, int64(evt.Seq), string(evt.Type), toMillis(evt.Timestamp),
		string(evt.ActorType), evt.ActorID, evt.RequestID, evt.UnitSerial, evt.CenterID, evt.PayloadJSON,
	)
	if err != nil {
		if isConstraintError(err) {
			conflict := apperrors.Wrap(apperrors.CodeConcurrentAppend,
				"another event claimed this stream sequence", err)
			conflict.Metadata = map[string]string{
				"stream_id": evt.StreamID,
				"seq":       fmt.Sprintf("%d", evt.Seq),
			}
			return event.Event{}, conflict
		}
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	if err := applyEventSideEffects(ctx, tx, evt); err != nil {
		return event.Event{}, err
	}

	if err := enqueueOutbox(ctx, tx, evt); err != nil {
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit tx: %w", err)
	}
	return evt, nil
}

func streamLastSeq(ctx context.Context, tx *sql.Tx, streamID string) (uint64, error) {
	var last int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE stream_id = ?`, streamID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("read stream sequence: %w", err)
	}
	return uint64(last), nil
}

// validateEventReferences checks that everything the event points at exists
// inside the append transaction, so acceptance and reference checks cannot
// race each other.
func validateEventReferences(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	switch evt.Type {
	case event.TypeUnitRegistered:
		payload, err := event.DecodePayload[event.UnitRegisteredPayload](evt)
		if err != nil {
			return err
		}
		model, err := getModelTx(ctx, tx, payload.ModelID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeModelNotFound, "model does not exist",
				map[string]string{"model_id": payload.ModelID})
		}
		if err != nil {
			return err
		}
		if !model.Enabled {
			return apperrors.WithMetadata(apperrors.CodeModelDisabled, "model is disabled",
				map[string]string{"model_id": payload.ModelID})
		}
		exists, err := unitExists(ctx, tx, evt.UnitSerial)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.WithMetadata(apperrors.CodeUnitAlreadyRegistered, "serial is already registered",
				map[string]string{"serial": evt.UnitSerial})
		}
	case event.TypeUnitDispatched, event.TypeUnitTransferred, event.TypeUnitSold, event.TypeVisitOpened:
		exists, err := unitExists(ctx, tx, evt.UnitSerial)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.WithMetadata(apperrors.CodeUnitNotFound, "unit is not registered",
				map[string]string{"serial": evt.UnitSerial})
		}
	case event.TypePartReplaced:
		payload, err := event.DecodePayload[event.PartReplacedPayload](evt)
		if err != nil {
			return err
		}
		if err := visitExistsTx(ctx, tx, payload.VisitID); err != nil {
			return err
		}
		if err := dispatchEventExistsTx(ctx, tx, payload.DispatchEventID); err != nil {
			return err
		}
	}
	return nil
}

func unitExists(ctx context.Context, tx *sql.Tx, serial string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM units WHERE serial = ?`, serial).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check unit: %w", err)
	}
	return true, nil
}

func visitExistsTx(ctx context.Context, tx *sql.Tx, visitID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM service_visits WHERE id = ?`, visitID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WithMetadata(apperrors.CodeVisitNotFound, "service visit does not exist",
			map[string]string{"visit_id": visitID})
	}
	if err != nil {
		return fmt.Errorf("check visit: %w", err)
	}
	return nil
}

func dispatchEventExistsTx(ctx context.Context, tx *sql.Tx, eventID string) error {
	var eventType string
	err := tx.QueryRowContext(ctx, `SELECT event_type FROM events WHERE id = ?`, eventID).Scan(&eventType)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WithMetadata(apperrors.CodePartDispatchNotFound, "dispatch event does not exist",
			map[string]string{"dispatch_event_id": eventID})
	}
	if err != nil {
		return fmt.Errorf("check dispatch event: %w", err)
	}
	if event.Type(eventType) != event.TypePartsDispatched {
		return apperrors.WithMetadata(apperrors.CodePartDispatchNotFound, "referenced event is not a part dispatch",
			map[string]string{"dispatch_event_id": eventID})
	}
	return nil
}

// applyEventSideEffects keeps the derived tables in sync with the journal
// inside the append transaction.
func applyEventSideEffects(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	// Unit-stream events fold into the units projection.
	if evt.UnitSerial != "" && evt.StreamID == event.UnitStream(evt.UnitSerial) {
		if err := foldUnitProjection(ctx, tx, evt); err != nil {
			return err
		}
	}

	switch evt.Type {
	case event.TypeVisitOpened:
		payload, err := event.DecodePayload[event.VisitOpenedPayload](evt)
		if err != nil {
			return err
		}
		return insertVisitTx(ctx, tx, domain.ServiceVisit{
			ID:            payload.VisitID,
			Serial:        payload.Serial,
			Center:        payload.Center,
			OpenedAt:      evt.Timestamp,
			ReportedIssue: payload.ReportedIssue,
			Snapshot:      payload.Snapshot,
		})
	case event.TypePartsDispatched:
		payload, err := event.DecodePayload[event.PartsDispatchedPayload](evt)
		if err != nil {
			return err
		}
		for _, line := range payload.Lines {
			if err := adjustPartStockTx(ctx, tx, evt.CenterID, line.Code, line.Qty); err != nil {
				return err
			}
		}
	case event.TypePartReplaced:
		payload, err := event.DecodePayload[event.PartReplacedPayload](evt)
		if err != nil {
			return err
		}
		// Repairs return the part to the unit and consume no stock.
		if payload.Kind == domain.KindReplacement {
			return adjustPartStockTx(ctx, tx, evt.CenterID, payload.Code, -payload.Qty)
		}
	}
	return nil
}

func foldUnitProjection(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	current, err := getUnitTx(ctx, tx, evt.UnitSerial)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	updated := projection.ApplyToUnit(current, evt)
	return upsertUnitTx(ctx, tx, updated)
}

func enqueueOutbox(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	body, err := json.Marshal(outboxEnvelope{
		ID:         evt.ID,
		StreamID:   evt.StreamID,
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Timestamp:  evt.Timestamp,
		ActorType:  string(evt.ActorType),
		ActorID:    evt.ActorID,
		RequestID:  evt.RequestID,
		UnitSerial: evt.UnitSerial,
		CenterID:   evt.CenterID,
		Payload:    json.RawMessage(evt.PayloadJSON),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox body: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (event_id, event_type, body, enqueued_at)
		VALUES (?, ?, ?, ?)`,
		evt.ID, string(evt.Type), body, toMillis(evt.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox: %w", err)
	}
	return nil
}

// outboxEnvelope is the wire form of an event as published by the relay.
type outboxEnvelope struct {
	ID         string          `json:"id"`
	StreamID   string          `json:"stream_id"`
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	ActorType  string          `json:"actor_type,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	UnitSerial string          `json:"unit_serial,omitempty"`
	CenterID   string          `json:"center_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

const eventColumns = `id, stream_id, seq, event_type, timestamp, actor_type, actor_id, request_id, unit_serial, center_id, payload_json`

func scanEvent(row interface{ Scan(dest ...any) error }) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		eventType string
		timestamp int64
		actorType string
	)
	err := row.Scan(&evt.ID, &evt.StreamID, &seq, &eventType, &timestamp,
		&actorType, &evt.ActorID, &evt.RequestID, &evt.UnitSerial, &evt.CenterID, &evt.PayloadJSON)
	if err != nil {
		return event.Event{}, err
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Timestamp = fromMillis(timestamp)
	evt.ActorType = event.ActorType(actorType)
	return evt, nil
}

// GetEvent loads one event by its identifier.
func (s *Store) GetEvent(ctx context.Context, eventID string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID)
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotFound
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	return evt, nil
}

// ListStream returns the events of one stream in sequence order, starting
// after afterSeq. A limit of 0 or less means no limit.
func (s *Store) ListStream(ctx context.Context, streamID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE stream_id = ? AND seq > ? ORDER BY seq ASC`
	args := []any{streamID, int64(afterSeq)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.listEvents(ctx, query, args...)
}

// ListEventsByUnit returns every event touching a serial across both unit
// and center streams, in append order.
func (s *Store) ListEventsByUnit(ctx context.Context, serial string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE unit_serial = ? ORDER BY rowid ASC`, serial)
}

// ListEventsByCenter returns every event touching a service center, in
// append order.
func (s *Store) ListEventsByCenter(ctx context.Context, centerID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE center_id = ? ORDER BY rowid ASC`, centerID)
}

func (s *Store) listEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}
