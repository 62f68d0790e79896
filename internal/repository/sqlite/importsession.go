package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

const importSessionColumns = `id, session_id, file_name, source_type, status, processed, inserted, updated_rows, skipped, errors, warnings, created, updated`

func (r *SQLiteRepo) CreateImportSession(ctx context.Context, s *models.ImportSession) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("import session is nil")
	}

	errsJSON, warnsJSON, err := marshalSessionLists(s)
	if err != nil {
		return 0, err
	}

	res, err := r.h.Exec(ctx, `INSERT INTO import_sessions (session_id, file_name, source_type, status, processed, inserted, updated_rows, skipped, errors, warnings, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.FileName, s.SourceType, s.Status, s.Processed, s.Inserted, s.Updated, s.Skipped, errsJSON, warnsJSON, now(), now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) UpdateImportSession(ctx context.Context, s *models.ImportSession) error {
	if s == nil {
		return fmt.Errorf("import session is nil")
	}

	errsJSON, warnsJSON, err := marshalSessionLists(s)
	if err != nil {
		return err
	}

	_, err = r.h.Exec(ctx, `UPDATE import_sessions SET status = ?, processed = ?, inserted = ?, updated_rows = ?, skipped = ?, errors = ?, warnings = ?, updated = ? WHERE session_id = ?`,
		s.Status, s.Processed, s.Inserted, s.Updated, s.Skipped, errsJSON, warnsJSON, now(), s.SessionID)
	return err
}

func (r *SQLiteRepo) GetImportSession(ctx context.Context, sessionID string) (*models.ImportSession, error) {
	row := r.h.QueryRow(ctx, `SELECT `+importSessionColumns+` FROM import_sessions WHERE session_id = ?`, sessionID)
	s, err := scanImportSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepo) ListImportSessions(ctx context.Context, limit int) ([]models.ImportSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.h.QueryRows(ctx, `SELECT `+importSessionColumns+` FROM import_sessions ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ImportSession
	for rows.Next() {
		s, err := scanImportSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func marshalSessionLists(s *models.ImportSession) (string, string, error) {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	warns := s.Warnings
	if warns == nil {
		warns = []string{}
	}
	eb, err := json.Marshal(errs)
	if err != nil {
		return "", "", fmt.Errorf("marshal errors: %w", err)
	}
	wb, err := json.Marshal(warns)
	if err != nil {
		return "", "", fmt.Errorf("marshal warnings: %w", err)
	}
	return string(eb), string(wb), nil
}

func scanImportSession(s rowScanner) (*models.ImportSession, error) {
	var out models.ImportSession
	var errsJSON, warnsJSON string
	if err := s.Scan(&out.ID, &out.SessionID, &out.FileName, &out.SourceType, &out.Status, &out.Processed, &out.Inserted, &out.Updated, &out.Skipped, &errsJSON, &warnsJSON, &out.Created, &out.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(errsJSON), &out.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	if err := json.Unmarshal([]byte(warnsJSON), &out.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return &out, nil
}
