package sqlite

import (
	"context"
	"database/sql"
)

func (r *SQLiteRepo) GetConfigValue(ctx context.Context, category, key string) (string, bool, error) {
	row := r.h.QueryRow(ctx, `SELECT value FROM config_values WHERE category = ? AND key = ?`, category, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *SQLiteRepo) SetConfigValue(ctx context.Context, category, key, value string) error {
	_, err := r.h.Exec(ctx, `INSERT INTO config_values (category, key, value, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(category, key) DO UPDATE SET value=excluded.value, updated=excluded.updated`,
		category, key, value, now())
	return err
}
