package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO projects (name, client_id, active, created) VALUES (?, ?, 1, ?) ON CONFLICT(name) DO UPDATE SET client_id = COALESCE(excluded.client_id, projects.client_id), active = 1`,
		p.Name, p.ClientID, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	row := r.h.QueryRow(ctx, `SELECT id, name, client_id, active, created FROM projects WHERE name = ? COLLATE NOCASE`, name)
	var p models.Project
	var clientID sql.NullInt64
	var active int
	if err := row.Scan(&p.ID, &p.Name, &clientID, &active, &p.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if clientID.Valid {
		p.ClientID = &clientID.Int64
	}
	p.Active = active == 1
	return &p, nil
}

func (r *SQLiteRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, name, client_id, active, created FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		var clientID sql.NullInt64
		var active int
		if err := rows.Scan(&p.ID, &p.Name, &clientID, &active, &p.Created); err != nil {
			return nil, err
		}
		if clientID.Valid {
			p.ClientID = &clientID.Int64
		}
		p.Active = active == 1
		out = append(out, p)
	}
	return out, rows.Err()
}
