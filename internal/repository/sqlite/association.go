package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) EnqueueAssociation(ctx context.Context, e *models.AssociationQueueEntry) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("association entry is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO association_queue (raw_name, suggested_client_id, confidence, status, created) VALUES (?, ?, ?, 'pending', ?)
		ON CONFLICT(raw_name) DO UPDATE SET suggested_client_id=excluded.suggested_client_id, confidence=excluded.confidence`,
		e.RawName, e.SuggestedClientID, e.Confidence, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListPendingAssociations(ctx context.Context) ([]models.AssociationQueueEntry, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, raw_name, suggested_client_id, confidence, status, created FROM association_queue WHERE status = 'pending' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssociationQueueEntry
	for rows.Next() {
		var e models.AssociationQueueEntry
		var suggested sql.NullInt64
		if err := rows.Scan(&e.ID, &e.RawName, &suggested, &e.Confidence, &e.Status, &e.Created); err != nil {
			return nil, err
		}
		if suggested.Valid {
			e.SuggestedClientID = &suggested.Int64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ConfirmAssociation(ctx context.Context, id, clientID int64) error {
	res, err := r.h.Exec(ctx, `UPDATE association_queue SET status = 'confirmed', suggested_client_id = ? WHERE id = ? AND status = 'pending'`, clientID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("pending association %d not found", id)
	}
	return nil
}
