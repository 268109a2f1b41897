package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/stock"
)

// PartStockStore methods (advisory cache)
//
// The cache is maintained transactionally with every append but the journal
// stays the authority. ReconcilePartStock replays a center's stream and
// rewrites the cached rows when they drift.

// CachedPartStock returns the cached available quantity for one part at one
// service center. A part never dispatched to the center reports zero.
func (s *Store) CachedPartStock(ctx context.Context, centerID, code string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var qty int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT qty FROM part_stock WHERE center_id = ? AND code = ?`, centerID, code).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read part stock: %w", err)
	}
	return qty, nil
}

// ReconcilePartStock replays the center stream, rewrites the cached rows for
// the center, and reports whether any row had drifted.
func (s *Store) ReconcilePartStock(ctx context.Context, centerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	events, err := s.ListEventsByCenter(ctx, centerID)
	if err != nil {
		return false, err
	}
	balances, err := stock.FoldPartBalances(events)
	if err != nil {
		return false, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	drifted := false
	rows, err := tx.QueryContext(ctx,
		`SELECT code, qty FROM part_stock WHERE center_id = ?`, centerID)
	if err != nil {
		return false, fmt.Errorf("read cached stock: %w", err)
	}
	cached := make(map[string]int)
	for rows.Next() {
		var code string
		var qty int
		if err := rows.Scan(&code, &qty); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan cached stock: %w", err)
		}
		cached[code] = qty
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return false, fmt.Errorf("read cached stock: %w", err)
	}
	rows.Close()

	for key, balance := range balances {
		if key.CenterID != centerID {
			continue
		}
		available := balance.Available()
		if cached[key.Code] != available {
			drifted = true
		}
		delete(cached, key.Code)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO part_stock (center_id, code, qty) VALUES (?, ?, ?)
			ON CONFLICT (center_id, code) DO UPDATE SET qty = excluded.qty`,
			centerID, key.Code, available)
		if err != nil {
			return false, fmt.Errorf("rewrite part stock: %w", err)
		}
	}

	// Cached rows with no journal backing are stale.
	for code := range cached {
		drifted = true
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM part_stock WHERE center_id = ? AND code = ?`, centerID, code); err != nil {
			return false, fmt.Errorf("drop stale part stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return drifted, nil
}

func adjustPartStockTx(ctx context.Context, tx *sql.Tx, centerID, code string, delta int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO part_stock (center_id, code, qty) VALUES (?, ?, ?)
		ON CONFLICT (center_id, code) DO UPDATE SET qty = qty + ?`,
		centerID, code, delta, delta)
	if err != nil {
		return fmt.Errorf("adjust part stock: %w", err)
	}
	return nil
}
