package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

const activityColumns = `id, employee_id, client_id, project_id, ticket_id, start_ts, end_ts, duration_hours, description, billable, content_hash, is_duplicate, original_record_id, duplicate_reason, confidence, created`

// InsertActivity always writes the full column set; duplicate bookkeeping
// columns default to zero values on a plain insert.
func (r *SQLiteRepo) InsertActivity(ctx context.Context, a *models.ActivityRecord) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("activity is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO activity_records (employee_id, client_id, project_id, ticket_id, start_ts, end_ts, duration_hours, description, billable, content_hash, is_duplicate, original_record_id, duplicate_reason, confidence, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.EmployeeID, a.ClientID, a.ProjectID, a.TicketID, a.Start.UTC().Unix(), a.End.UTC().Unix(), a.DurationHours, a.Description, boolInt(a.Billable), a.ContentHash, boolInt(a.IsDuplicate), a.OriginalRecordID, a.DuplicateReason, a.Confidence, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetActivityByID(ctx context.Context, id int64) (*models.ActivityRecord, error) {
	row := r.h.QueryRow(ctx, `SELECT `+activityColumns+` FROM activity_records WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepo) GetActivityByHash(ctx context.Context, hash string) (*models.ActivityRecord, error) {
	row := r.h.QueryRow(ctx, `SELECT `+activityColumns+` FROM activity_records WHERE content_hash = ? AND is_duplicate = 0 ORDER BY id LIMIT 1`, hash)
	a, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepo) ListActivitiesNear(ctx context.Context, employeeID int64, start time.Time, window time.Duration, limit int) ([]models.ActivityRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	ts := start.UTC().Unix()
	w := int64(window.Seconds())

	rows, err := r.h.QueryRows(ctx, `SELECT `+activityColumns+` FROM activity_records WHERE employee_id = ? AND is_duplicate = 0 AND start_ts BETWEEN ? AND ? ORDER BY ABS(start_ts - ?) LIMIT ?`,
		employeeID, ts-w, ts+w, ts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *SQLiteRepo) ListActivitiesOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.ActivityRecord, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT `+activityColumns+` FROM activity_records WHERE employee_id = ? AND is_duplicate = 0 AND start_ts < ? AND end_ts > ? ORDER BY start_ts`,
		employeeID, to.UTC().Unix(), from.UTC().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *SQLiteRepo) MarkActivityDuplicate(ctx context.Context, id, originalID int64, reason string, confidence float64) error {
	_, err := r.h.Exec(ctx, `UPDATE activity_records SET is_duplicate = 1, original_record_id = ?, duplicate_reason = ?, confidence = ? WHERE id = ?`,
		originalID, reason, confidence, id)
	return err
}

func (r *SQLiteRepo) MergeActivity(ctx context.Context, id int64, description, ticketID string) error {
	_, err := r.h.Exec(ctx, `UPDATE activity_records SET description = ?, ticket_id = ? WHERE id = ?`, description, ticketID, id)
	return err
}

func (r *SQLiteRepo) ListCleanupCandidates(ctx context.Context) ([]models.ActivityRecord, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT `+activityColumns+` FROM activity_records WHERE is_duplicate = 0 ORDER BY employee_id, start_ts, duration_hours, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]models.ActivityRecord, error) {
	var out []models.ActivityRecord
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanActivity(s rowScanner) (*models.ActivityRecord, error) {
	var a models.ActivityRecord
	var clientID, projectID, originalID sql.NullInt64
	var startTS, endTS int64
	var billable, isDup int
	if err := s.Scan(&a.ID, &a.EmployeeID, &clientID, &projectID, &a.TicketID, &startTS, &endTS, &a.DurationHours, &a.Description, &billable, &a.ContentHash, &isDup, &originalID, &a.DuplicateReason, &a.Confidence, &a.Created); err != nil {
		return nil, err
	}
	if clientID.Valid {
		a.ClientID = &clientID.Int64
	}
	if projectID.Valid {
		a.ProjectID = &projectID.Int64
	}
	if originalID.Valid {
		a.OriginalRecordID = &originalID.Int64
	}
	a.Start = time.Unix(startTS, 0).UTC()
	a.End = time.Unix(endTS, 0).UTC()
	a.Billable = billable == 1
	a.IsDuplicate = isDup == 1
	return &a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
