package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) CreateClient(ctx context.Context, c *models.Client) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("client is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO clients (name, active, created) VALUES (?, 1, ?) ON CONFLICT(name) DO UPDATE SET active = 1`, c.Name, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	row := r.h.QueryRow(ctx, `SELECT id, name, active, created FROM clients WHERE name = ? COLLATE NOCASE`, name)
	var c models.Client
	var active int
	if err := row.Scan(&c.ID, &c.Name, &active, &c.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.Active = active == 1
	return &c, nil
}

func (r *SQLiteRepo) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, name, active, created FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		var c models.Client
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &active, &c.Created); err != nil {
			return nil, err
		}
		c.Active = active == 1
		out = append(out, c)
	}
	return out, rows.Err()
}
