// Package service implements the tracker's application operations on top of
// the journal: registration, movements, sale, part dispatches, service
// visits, and replacement authorization.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/id"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/requestid"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/lifecycle"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/projection"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// Stores groups the storage interfaces the service depends on. In production
// a single SQLite store satisfies all of them.
type Stores struct {
	Events    storage.EventStore
	Units     storage.UnitStore
	Models    storage.ModelStore
	Visits    storage.VisitStore
	PartStock storage.PartStockStore
}

// Service coordinates command validation, warranty evaluation, and journal
// appends.
type Service struct {
	stores              Stores
	clock               func() time.Time
	newID               func() string
	maxPartReplacements int
	tracer              trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator overrides identifier generation, mainly for tests.
func WithIDGenerator(generator func() string) Option {
	return func(s *Service) { s.newID = generator }
}

// WithMaxPartReplacements caps the replacement count per unit and part code.
// Zero means unlimited.
func WithMaxPartReplacements(limit int) Option {
	return func(s *Service) { s.maxPartReplacements = limit }
}

// New creates a Service over the given stores.
func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		clock:  time.Now,
		newID:  id.MustNewID,
		tracer: otel.Tracer("tracker/service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// stamp fills identity, actor, and request metadata on an accepted envelope
// before it reaches the store.
func (s *Service) stamp(ctx context.Context, evt event.Event) event.Event {
	evt.ID = s.newID()
	evt.RequestID = requestid.FromContext(ctx)
	if actor, ok := auth.ActorFromContext(ctx); ok {
		evt.ActorType = event.ActorTypeUser
		evt.ActorID = actor.ID
	} else {
		evt.ActorType = event.ActorTypeSystem
	}
	return evt
}

// unitState loads the foldable state for a serial. Unregistered serials
// yield zero state so deciders can report registration guards themselves.
func (s *Service) unitState(ctx context.Context, serial string) (lifecycle.State, error) {
	unit, err := s.stores.Units.GetUnit(ctx, serial)
	if errors.Is(err, storage.ErrNotFound) {
		return lifecycle.State{}, nil
	}
	if err != nil {
		return lifecycle.State{}, err
	}
	return projection.StateFromUnit(unit), nil
}

func (s *Service) getUnit(ctx context.Context, serial string) (domain.Unit, error) {
	unit, err := s.stores.Units.GetUnit(ctx, serial)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Unit{}, apperrors.WithMetadata(apperrors.CodeUnitNotFound, "unit is not registered",
			map[string]string{"serial": serial})
	}
	if err != nil {
		return domain.Unit{}, err
	}
	return unit, nil
}

func (s *Service) getModel(ctx context.Context, modelID string) (domain.Model, error) {
	model, err := s.stores.Models.GetModel(ctx, modelID)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Model{}, apperrors.WithMetadata(apperrors.CodeModelNotFound, "model does not exist",
			map[string]string{"model_id": modelID})
	}
	if err != nil {
		return domain.Model{}, err
	}
	return model, nil
}
