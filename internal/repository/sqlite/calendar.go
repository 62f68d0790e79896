package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) (int64, bool, error) {
	if e == nil {
		return 0, false, fmt.Errorf("calendar event is nil")
	}

	startTS := e.Start.UTC().Unix()
	endTS := e.End.UTC().Unix()

	row := r.h.QueryRow(ctx, `SELECT id FROM calendar_events WHERE employee_id = ? AND start_ts = ? AND end_ts = ? AND title = ?`, e.EmployeeID, startTS, endTS, e.Title)
	var id int64
	err := row.Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := r.h.Exec(ctx, `INSERT INTO calendar_events (employee_id, title, start_ts, end_ts, location, priority, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.EmployeeID, e.Title, startTS, endTS, e.Location, e.Priority, now())
		if err != nil {
			return 0, false, err
		}
		newID, err := res.LastInsertId()
		return newID, true, err
	case err != nil:
		return 0, false, err
	}

	_, err = r.h.Exec(ctx, `UPDATE calendar_events SET location = ?, priority = ? WHERE id = ?`, e.Location, e.Priority, id)
	return id, false, err
}

func (r *SQLiteRepo) ListCalendarEventsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, employee_id, title, start_ts, end_ts, location, priority, created FROM calendar_events WHERE employee_id = ? AND start_ts < ? AND end_ts > ? ORDER BY start_ts`,
		employeeID, to.UTC().Unix(), from.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CalendarEvent
	for rows.Next() {
		var e models.CalendarEvent
		var startTS, endTS int64
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Title, &startTS, &endTS, &e.Location, &e.Priority, &e.Created); err != nil {
			return nil, err
		}
		e.Start = time.Unix(startTS, 0).UTC()
		e.End = time.Unix(endTS, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
