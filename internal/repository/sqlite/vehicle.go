package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) CreateVehicle(ctx context.Context, v *models.Vehicle) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("vehicle is nil")
	}

	res, err := r.h.Exec(ctx, `INSERT INTO vehicles (name, plate, created) VALUES (?, ?, ?) ON CONFLICT(name) DO UPDATE SET plate = excluded.plate`, v.Name, v.Plate, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetVehicleByName(ctx context.Context, name string) (*models.Vehicle, error) {
	row := r.h.QueryRow(ctx, `SELECT id, name, plate, created FROM vehicles WHERE name = ? COLLATE NOCASE`, name)
	var v models.Vehicle
	if err := row.Scan(&v.ID, &v.Name, &v.Plate, &v.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *SQLiteRepo) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, name, plate, created FROM vehicles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Plate, &v.Created); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
