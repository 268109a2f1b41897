package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain/event"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/projection"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// UnitStore methods (per-unit projection)

const unitColumns = `serial, model_id, status, holder_kind, holder_id, sold, sale_date, last_seq, registered_at`

func scanUnit(row interface{ Scan(dest ...any) error }) (domain.Unit, error) {
	var (
		unit         domain.Unit
		status       string
		holderKind   string
		sold         int64
		saleDate     sql.NullInt64
		lastSeq      int64
		registeredAt int64
	)
	err := row.Scan(&unit.Serial, &unit.ModelID, &status, &holderKind, &unit.Holder.ID,
		&sold, &saleDate, &lastSeq, &registeredAt)
	if err != nil {
		return domain.Unit{}, err
	}
	unit.Status = domain.LifecycleStatus(status)
	unit.Holder.Kind = domain.HolderKind(holderKind)
	unit.Sold = sold != 0
	unit.SaleDate = fromNullMillis(saleDate)
	unit.LastSeq = uint64(lastSeq)
	unit.RegisteredAt = fromMillis(registeredAt)
	return unit, nil
}

// GetUnit loads one unit projection by serial.
func (s *Store) GetUnit(ctx context.Context, serial string) (domain.Unit, error) {
	if err := ctx.Err(); err != nil {
		return domain.Unit{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE serial = ?`, serial)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Unit{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Unit{}, fmt.Errorf("get unit: %w", err)
	}
	return unit, nil
}

// ListUnitsByHolder returns the unsold units currently held by one party,
// ordered by serial for stable output. Sold units are out of circulation and
// never count as stock.
func (s *Store) ListUnitsByHolder(ctx context.Context, holder domain.HolderRef) ([]domain.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE holder_kind = ? AND holder_id = ? AND sold = 0 ORDER BY serial ASC`,
		string(holder.Kind), holder.ID)
	if err != nil {
		return nil, fmt.Errorf("list units by holder: %w", err)
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	return units, nil
}

// CountUnitsAtHolder counts the unsold units currently held by one party.
func (s *Store) CountUnitsAtHolder(ctx context.Context, holder domain.HolderRef) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM units WHERE holder_kind = ? AND holder_id = ? AND sold = 0`,
		string(holder.Kind), holder.ID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count units at holder: %w", err)
	}
	return count, nil
}

// ReconcileUnit replays the unit stream, rewrites the stored projection when
// it has drifted, and returns the authoritative projection.
func (s *Store) ReconcileUnit(ctx context.Context, serial string) (domain.Unit, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Unit{}, false, err
	}
	events, err := s.ListStream(ctx, event.UnitStream(serial), 0, 0)
	if err != nil {
		return domain.Unit{}, false, err
	}
	stored, err := s.GetUnit(ctx, serial)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.Unit{}, false, err
	}
	replayed, drifted, err := projection.ReconcileUnit(stored, events)
	if err != nil {
		return domain.Unit{}, false, err
	}
	if drifted {
		tx, err := s.sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return domain.Unit{}, false, fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()
		if err := upsertUnitTx(ctx, tx, replayed); err != nil {
			return domain.Unit{}, false, err
		}
		if err := tx.Commit(); err != nil {
			return domain.Unit{}, false, fmt.Errorf("commit tx: %w", err)
		}
	}
	return replayed, drifted, nil
}

func getUnitTx(ctx context.Context, tx *sql.Tx, serial string) (domain.Unit, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE serial = ?`, serial)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Unit{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Unit{}, fmt.Errorf("get unit: %w", err)
	}
	return unit, nil
}

func upsertUnitTx(ctx context.Context, tx *sql.Tx, unit domain.Unit) error {
	sold := 0
	if unit.Sold {
		sold = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO units (serial, model_id, status, holder_kind, holder_id, sold, sale_date, last_seq, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (serial) DO UPDATE SET
			status = excluded.status,
			holder_kind = excluded.holder_kind,
			holder_id = excluded.holder_id,
			sold = excluded.sold,
			sale_date = excluded.sale_date,
			last_seq = excluded.last_seq`,
		unit.Serial, unit.ModelID, string(unit.Status), string(unit.Holder.Kind), unit.Holder.ID,
		sold, toNullMillis(unit.SaleDate), int64(unit.LastSeq), toMillis(unit.RegisteredAt),
	)
	if err != nil {
		return fmt.Errorf("upsert unit: %w", err)
	}
	return nil
}
