package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// ModelStore methods (catalog read model)

// PutModel inserts or updates a product model.
func (s *Store) PutModel(ctx context.Context, model domain.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if model.ID == "" {
		return fmt.Errorf("model id is required")
	}
	enabled := 0
	if model.Enabled {
		enabled = 1
	}
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO models (id, name, parts_months, service_months, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			parts_months = excluded.parts_months,
			service_months = excluded.service_months,
			enabled = excluded.enabled`,
		model.ID, model.Name, model.Warranty.PartsMonths, model.Warranty.ServiceMonths,
		enabled, toMillis(model.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put model: %w", err)
	}
	return nil
}

// GetModel loads one product model by id.
func (s *Store) GetModel(ctx context.Context, modelID string) (domain.Model, error) {
	if err := ctx.Err(); err != nil {
		return domain.Model{}, err
	}
	return getModel(ctx, s.sqlDB, modelID)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getModel(ctx context.Context, q rowQuerier, modelID string) (domain.Model, error) {
	var (
		model     domain.Model
		enabled   int64
		createdAt int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, parts_months, service_months, enabled, created_at
		FROM models WHERE id = ?`, modelID).
		Scan(&model.ID, &model.Name, &model.Warranty.PartsMonths, &model.Warranty.ServiceMonths,
			&enabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Model{}, fmt.Errorf("get model: %w", err)
	}
	model.Enabled = enabled != 0
	model.CreatedAt = fromMillis(createdAt)
	return model, nil
}

func getModelTx(ctx context.Context, tx *sql.Tx, modelID string) (domain.Model, error) {
	return getModel(ctx, tx, modelID)
}
