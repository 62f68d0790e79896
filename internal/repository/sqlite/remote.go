package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) UpsertRemoteSession(ctx context.Context, s *models.RemoteSession) (int64, bool, error) {
	if s == nil {
		return 0, false, fmt.Errorf("remote session is nil")
	}

	startTS := s.Start.UTC().Unix()
	endTS := s.End.UTC().Unix()

	row := r.h.QueryRow(ctx, `SELECT id FROM remote_sessions WHERE employee_id = ? AND session_code = ? AND start_ts = ?`, s.EmployeeID, s.SessionCode, startTS)
	var id int64
	err := row.Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := r.h.Exec(ctx, `INSERT INTO remote_sessions (employee_id, client_name, contact_name, session_code, start_ts, end_ts, duration_minutes, billing_mode, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.EmployeeID, s.ClientName, s.ContactName, s.SessionCode, startTS, endTS, s.DurationMinutes, s.BillingMode, now())
		if err != nil {
			return 0, false, err
		}
		newID, err := res.LastInsertId()
		return newID, true, err
	case err != nil:
		return 0, false, err
	}

	_, err = r.h.Exec(ctx, `UPDATE remote_sessions SET client_name = ?, contact_name = ?, end_ts = ?, duration_minutes = ?, billing_mode = ? WHERE id = ?`,
		s.ClientName, s.ContactName, endTS, s.DurationMinutes, s.BillingMode, id)
	return id, false, err
}

func (r *SQLiteRepo) ListRemoteSessionsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.RemoteSession, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, employee_id, client_name, contact_name, session_code, start_ts, end_ts, duration_minutes, billing_mode, created FROM remote_sessions WHERE employee_id = ? AND start_ts < ? AND end_ts > ? ORDER BY start_ts`,
		employeeID, to.UTC().Unix(), from.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RemoteSession
	for rows.Next() {
		var s models.RemoteSession
		var startTS, endTS int64
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.ClientName, &s.ContactName, &s.SessionCode, &startTS, &endTS, &s.DurationMinutes, &s.BillingMode, &s.Created); err != nil {
			return nil, err
		}
		s.Start = time.Unix(startTS, 0).UTC()
		s.End = time.Unix(endTS, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
