// Package relay publishes appended events from the transactional outbox to
// downstream consumers. The outbox is written in the same transaction as
// the journal append, so every event is delivered at least once and
// consumers deduplicate on the event id.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// Publisher delivers one outbox entry to the transport.
type Publisher interface {
	Publish(ctx context.Context, subject, msgID string, body []byte) error
}

// Relay drains the outbox on an interval.
type Relay struct {
	outbox        storage.OutboxStore
	publisher     Publisher
	logger        *slog.Logger
	subjectPrefix string
	interval      time.Duration
	batchSize     int
}

// Option configures the Relay.
type Option func(*Relay)

// WithLogger overrides the relay logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// WithInterval overrides the drain interval.
func WithInterval(interval time.Duration) Option {
	return func(r *Relay) { r.interval = interval }
}

// WithBatchSize overrides how many entries one drain pass claims.
func WithBatchSize(size int) Option {
	return func(r *Relay) { r.batchSize = size }
}

// WithSubjectPrefix overrides the subject prefix.
func WithSubjectPrefix(prefix string) Option {
	return func(r *Relay) { r.subjectPrefix = prefix }
}

// New creates a Relay over the given outbox and publisher.
func New(outbox storage.OutboxStore, publisher Publisher, opts ...Option) *Relay {
	relay := &Relay{
		outbox:        outbox,
		publisher:     publisher,
		logger:        slog.Default(),
		subjectPrefix: "tracker.events",
		interval:      time.Second,
		batchSize:     100,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(relay)
		}
	}
	return relay
}

// Run drains the outbox until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.DrainOnce(ctx); err != nil {
			r.logger.Error("outbox drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DrainOnce publishes one batch of pending entries and returns how many it
// delivered. Publication stops at the first failure so ordering holds; the
// failed entry and everything behind it stay pending for the next pass.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.ListPendingOutbox(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(entries))
	for _, entry := range entries {
		subject := r.subjectPrefix + "." + entry.EventType
		if err := r.publisher.Publish(ctx, subject, entry.EventID, entry.Body); err != nil {
			if markErr := r.markPublished(ctx, published); markErr != nil {
				return len(published), markErr
			}
			return len(published), fmt.Errorf("publish %s to %s: %w", entry.EventID, subject, err)
		}
		published = append(published, entry.ID)
	}
	if err := r.markPublished(ctx, published); err != nil {
		return len(published), err
	}

	r.logger.Debug("outbox drained", "published", len(published))
	return len(published), nil
}

func (r *Relay) markPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.outbox.MarkOutboxPublished(ctx, ids); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
