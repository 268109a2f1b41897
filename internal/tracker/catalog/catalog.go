// Package catalog manages the product model definitions the tracker core
// reads warranty windows from. The core never writes models; registration
// and disabling happen through this package's tooling.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// Catalog reads and maintains product models.
type Catalog struct {
	store storage.ModelStore
	clock func() time.Time
}

// Option configures the Catalog.
type Option func(*Catalog)

// WithClock overrides the wall clock used for registration timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Catalog) { c.clock = clock }
}

// New creates a Catalog over the given model store.
func New(store storage.ModelStore, opts ...Option) *Catalog {
	catalog := &Catalog{store: store, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(catalog)
		}
	}
	return catalog
}

// ModelInput describes a model to register.
type ModelInput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PartsMonths   int    `json:"parts_months"`
	ServiceMonths int    `json:"service_months"`
}

// Register adds or updates a model definition. Registration keeps the model
// enabled; use Disable to retire one.
func (c *Catalog) Register(ctx context.Context, in ModelInput) (domain.Model, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.Model{}, apperrors.New(apperrors.CodeRequestInvalid, "model id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Model{}, apperrors.WithMetadata(apperrors.CodeRequestInvalid, "model name is required",
			map[string]string{"model_id": in.ID})
	}
	if in.PartsMonths < 0 || in.ServiceMonths < 0 {
		return domain.Model{}, apperrors.WithMetadata(apperrors.CodeRequestInvalid, "warranty months must not be negative",
			map[string]string{"model_id": in.ID})
	}

	model := domain.Model{
		ID:   in.ID,
		Name: in.Name,
		Warranty: domain.WarrantyWindow{
			PartsMonths:   in.PartsMonths,
			ServiceMonths: in.ServiceMonths,
		},
		Enabled:   true,
		CreatedAt: c.clock().UTC(),
	}
	if existing, err := c.store.GetModel(ctx, in.ID); err == nil {
		model.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Model{}, err
	}
	if err := c.store.PutModel(ctx, model); err != nil {
		return domain.Model{}, err
	}
	return model, nil
}

// Disable retires a model so new units can no longer register against it.
// Existing units keep their warranty window.
func (c *Catalog) Disable(ctx context.Context, id string) (domain.Model, error) {
	model, err := c.Get(ctx, id)
	if err != nil {
		return domain.Model{}, err
	}
	model.Enabled = false
	if err := c.store.PutModel(ctx, model); err != nil {
		return domain.Model{}, err
	}
	return model, nil
}

// Get returns one model definition.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Model, error) {
	model, err := c.store.GetModel(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Model{}, apperrors.WithMetadata(apperrors.CodeModelNotFound, "model does not exist",
			map[string]string{"model_id": id})
	}
	if err != nil {
		return domain.Model{}, err
	}
	return model, nil
}

// WarrantyWindow returns the warranty window the core applies at sale time.
func (c *Catalog) WarrantyWindow(ctx context.Context, id string) (domain.WarrantyWindow, error) {
	model, err := c.Get(ctx, id)
	if err != nil {
		return domain.WarrantyWindow{}, err
	}
	return model.Warranty, nil
}
