package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

// UpsertAttendance inserts a clock punch or updates the hour columns when the
// natural key (employee, day, start, end) already exists. The second return
// value reports whether a new row was inserted.
func (r *SQLiteRepo) UpsertAttendance(ctx context.Context, a *models.AttendanceRecord) (int64, bool, error) {
	if a == nil {
		return 0, false, fmt.Errorf("attendance is nil")
	}

	startTS := a.Start.UTC().Unix()
	endTS := a.End.UTC().Unix()

	row := r.h.QueryRow(ctx, `SELECT id FROM attendance_records WHERE employee_id = ? AND day = ? AND start_ts = ? AND end_ts = ?`, a.EmployeeID, a.Day, startTS, endTS)
	var id int64
	err := row.Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := r.h.Exec(ctx, `INSERT INTO attendance_records (employee_id, client_id, day, start_ts, end_ts, total_hours, rounded_hours, net_hours, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.EmployeeID, a.ClientID, a.Day, startTS, endTS, a.TotalHours, a.RoundedHours, a.NetHours, now())
		if err != nil {
			return 0, false, err
		}
		newID, err := res.LastInsertId()
		return newID, true, err
	case err != nil:
		return 0, false, err
	}

	_, err = r.h.Exec(ctx, `UPDATE attendance_records SET client_id = ?, total_hours = ?, rounded_hours = ?, net_hours = ? WHERE id = ?`,
		a.ClientID, a.TotalHours, a.RoundedHours, a.NetHours, id)
	return id, false, err
}

func (r *SQLiteRepo) ListAttendanceForDay(ctx context.Context, employeeID int64, day string) ([]models.AttendanceRecord, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, employee_id, client_id, day, start_ts, end_ts, total_hours, rounded_hours, net_hours, created FROM attendance_records WHERE employee_id = ? AND day = ? ORDER BY start_ts`, employeeID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		var a models.AttendanceRecord
		var clientID sql.NullInt64
		var startTS, endTS int64
		if err := rows.Scan(&a.ID, &a.EmployeeID, &clientID, &a.Day, &startTS, &endTS, &a.TotalHours, &a.RoundedHours, &a.NetHours, &a.Created); err != nil {
			return nil, err
		}
		if clientID.Valid {
			a.ClientID = &clientID.Int64
		}
		a.Start = time.Unix(startTS, 0).UTC()
		a.End = time.Unix(endTS, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CreateAbsenceRequest(ctx context.Context, a *models.AbsenceRequest) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("absence request is nil")
	}
	res, err := r.h.Exec(ctx, `INSERT INTO absence_requests (employee_id, start_day, end_day, kind, approved, created) VALUES (?, ?, ?, ?, ?, ?)`,
		a.EmployeeID, a.StartDay, a.EndDay, a.Kind, a.Approved, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) HasApprovedAbsence(ctx context.Context, employeeID int64, day string) (bool, error) {
	row := r.h.QueryRow(ctx, `SELECT COUNT(1) FROM absence_requests WHERE employee_id = ? AND approved = 1 AND start_day <= ? AND end_day >= ?`, employeeID, day, day)
	var cnt int
	if err := row.Scan(&cnt); err != nil {
		return false, err
	}
	return cnt > 0, nil
}
