package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) CreateOperator(ctx context.Context, o *models.Operator) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("operator is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO operators (name, email, password_hash, updated) VALUES (?, ?, ?, ?)`, o.Name, o.Email, o.PasswordHash, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	row := r.h.QueryRow(ctx, `SELECT id, name, email, password_hash, updated FROM operators WHERE email = ?`, email)
	var o models.Operator
	var pw sql.NullString
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &pw, &o.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if pw.Valid {
		o.PasswordHash = pw.String
	}
	return &o, nil
}
