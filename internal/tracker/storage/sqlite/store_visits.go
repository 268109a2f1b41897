package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/storage"
)

// VisitStore methods (service visit headers)

const visitColumns = `id, serial, center_id, opened_at, reported_issue, parts_valid, service_valid`

func scanVisit(row interface{ Scan(dest ...any) error }) (domain.ServiceVisit, error) {
	var (
		visit        domain.ServiceVisit
		openedAt     int64
		partsValid   int64
		serviceValid int64
	)
	err := row.Scan(&visit.ID, &visit.Serial, &visit.Center.ID, &openedAt,
		&visit.ReportedIssue, &partsValid, &serviceValid)
	if err != nil {
		return domain.ServiceVisit{}, err
	}
	visit.Center.Kind = domain.HolderServiceCenter
	visit.OpenedAt = fromMillis(openedAt)
	visit.Snapshot = domain.WarrantySnapshot{
		PartsValid:   partsValid != 0,
		ServiceValid: serviceValid != 0,
	}
	return visit, nil
}

// GetVisit loads one service visit with its frozen warranty snapshot.
func (s *Store) GetVisit(ctx context.Context, visitID string) (domain.ServiceVisit, error) {
	if err := ctx.Err(); err != nil {
		return domain.ServiceVisit{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+visitColumns+` FROM service_visits WHERE id = ?`, visitID)
	visit, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ServiceVisit{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.ServiceVisit{}, fmt.Errorf("get visit: %w", err)
	}
	return visit, nil
}

// ListVisitsBySerial returns a unit's service visits in opening order.
func (s *Store) ListVisitsBySerial(ctx context.Context, serial string) ([]domain.ServiceVisit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+visitColumns+` FROM service_visits WHERE serial = ? ORDER BY opened_at ASC, id ASC`, serial)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []domain.ServiceVisit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read visits: %w", err)
	}
	return visits, nil
}

func insertVisitTx(ctx context.Context, tx *sql.Tx, visit domain.ServiceVisit) error {
	partsValid := 0
	if visit.Snapshot.PartsValid {
		partsValid = 1
	}
	serviceValid := 0
	if visit.Snapshot.ServiceValid {
		serviceValid = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO service_visits (id, serial, center_id, opened_at, reported_issue, parts_valid, service_valid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		visit.ID, visit.Serial, visit.Center.ID, toMillis(visit.OpenedAt),
		visit.ReportedIssue, partsValid, serviceValid,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}
