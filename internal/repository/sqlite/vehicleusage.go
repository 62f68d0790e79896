package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

func (r *SQLiteRepo) UpsertVehicleUsage(ctx context.Context, u *models.VehicleUsage) (int64, bool, error) {
	if u == nil {
		return 0, false, fmt.Errorf("vehicle usage is nil")
	}

	pickupTS := u.Pickup.UTC().Unix()
	returnTS := u.Return.UTC().Unix()

	row := r.h.QueryRow(ctx, `SELECT id FROM vehicle_usages WHERE employee_id = ? AND vehicle_id = ? AND day = ? AND pickup_ts = ?`, u.EmployeeID, u.VehicleID, u.Day, pickupTS)
	var id int64
	err := row.Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := r.h.Exec(ctx, `INSERT INTO vehicle_usages (employee_id, vehicle_id, client_id, day, pickup_ts, return_ts, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.EmployeeID, u.VehicleID, u.ClientID, u.Day, pickupTS, returnTS, now())
		if err != nil {
			return 0, false, err
		}
		newID, err := res.LastInsertId()
		return newID, true, err
	case err != nil:
		return 0, false, err
	}

	_, err = r.h.Exec(ctx, `UPDATE vehicle_usages SET client_id = ?, return_ts = ? WHERE id = ?`, u.ClientID, returnTS, id)
	return id, false, err
}

func (r *SQLiteRepo) ListVehicleUsageForDay(ctx context.Context, employeeID int64, day string) ([]models.VehicleUsage, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT id, employee_id, vehicle_id, client_id, day, pickup_ts, return_ts, created FROM vehicle_usages WHERE employee_id = ? AND day = ? ORDER BY pickup_ts`, employeeID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VehicleUsage
	for rows.Next() {
		var u models.VehicleUsage
		var clientID sql.NullInt64
		var pickupTS, returnTS int64
		if err := rows.Scan(&u.ID, &u.EmployeeID, &u.VehicleID, &clientID, &u.Day, &pickupTS, &returnTS, &u.Created); err != nil {
			return nil, err
		}
		if clientID.Valid {
			u.ClientID = &clientID.Int64
		}
		u.Pickup = time.Unix(pickupTS, 0).UTC()
		u.Return = time.Unix(returnTS, 0).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}
