package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

const anomalyColumns = `id, employee_id, day, anomaly_type, severity, description, detail, resolved, resolution_note, resolved_by, resolved_at, created, updated`

// UpsertAnomaly inserts or refreshes an anomaly keyed by (employee, day, type).
// Resolution fields are left untouched on update; only an operator clears them.
func (r *SQLiteRepo) UpsertAnomaly(ctx context.Context, a *models.Anomaly) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("anomaly is nil")
	}

	detail := string(a.Detail)
	if detail == "" {
		detail = "{}"
	}

	res, err := r.h.Exec(ctx, `INSERT INTO anomalies (employee_id, day, anomaly_type, severity, description, detail, resolved, resolution_note, resolved_by, resolved_at, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, 0, '', '', NULL, ?, ?)
		ON CONFLICT(employee_id, day, anomaly_type) DO UPDATE SET
			severity=excluded.severity, description=excluded.description,
			detail=excluded.detail, updated=excluded.updated`,
		a.EmployeeID, a.Day, a.Type, a.Severity, a.Description, detail, now(), now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListAnomalies(ctx context.Context, from, to string, onlyUnresolved bool) ([]models.Anomaly, error) {
	q := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE day >= ? AND day <= ?`
	if onlyUnresolved {
		q += ` AND resolved = 0`
	}
	q += ` ORDER BY day, employee_id, anomaly_type`

	rows, err := r.h.QueryRows(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ResolveAnomaly(ctx context.Context, id int64, note, actor string) error {
	res, err := r.h.Exec(ctx, `UPDATE anomalies SET resolved = 1, resolution_note = ?, resolved_by = ?, resolved_at = ?, updated = ? WHERE id = ?`,
		note, actor, now(), now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("anomaly %d not found", id)
	}
	return nil
}

func scanAnomaly(s rowScanner) (*models.Anomaly, error) {
	var a models.Anomaly
	var detail string
	var resolved int
	var resolvedAt sql.NullInt64
	if err := s.Scan(&a.ID, &a.EmployeeID, &a.Day, &a.Type, &a.Severity, &a.Description, &detail, &resolved, &a.ResolutionNote, &a.ResolvedBy, &resolvedAt, &a.Created, &a.Updated); err != nil {
		return nil, err
	}
	a.Detail = []byte(detail)
	a.Resolved = resolved == 1
	if resolvedAt.Valid {
		a.ResolvedAt = &resolvedAt.Int64
	}
	return &a, nil
}
