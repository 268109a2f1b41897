package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// OutboxStore methods (transactional relay outbox)

// ListPendingOutbox returns unpublished outbox entries in enqueue order.
func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]storage.OutboxEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT id, event_id, event_type, body, enqueued_at
		FROM outbox WHERE published_at IS NULL ORDER BY id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox: %w", err)
	}
	defer rows.Close()

	var entries []storage.OutboxEntry
	for rows.Next() {
		var entry storage.OutboxEntry
		var enqueuedAt int64
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.EventType, &entry.Body, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.EnqueuedAt = fromMillis(enqueuedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read outbox entries: %w", err)
	}
	return entries, nil
}

// MarkOutboxPublished stamps the given entries as published.
func (s *Store) MarkOutboxPublished(ctx context.Context, ids []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, toMillis(time.Now()))
	for i, entryID := range ids {
		placeholders[i] = "?"
		args = append(args, entryID)
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outbox SET published_at = ? WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
