package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

const kpiColumns = `id, employee_id, day, clock_hours, activity_hours, billable_hours, calendar_hours, efficiency_rate, cost, revenue, profit, remote_sessions, onsite_hours, travel_hours, vehicle_used, validation_alerts, updated`

// UpsertDailyKPI overwrites all aggregate columns for (employee, day), so
// recomputation is idempotent.
func (r *SQLiteRepo) UpsertDailyKPI(ctx context.Context, k *models.DailyKPI) error {
	if k == nil {
		return fmt.Errorf("daily kpi is nil")
	}

	alerts := k.Alerts
	if alerts == nil {
		alerts = []models.Alert{}
	}
	alertsJSON, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}

	_, err = r.h.Exec(ctx, `INSERT INTO daily_kpis (employee_id, day, clock_hours, activity_hours, billable_hours, calendar_hours, efficiency_rate, cost, revenue, profit, remote_sessions, onsite_hours, travel_hours, vehicle_used, validation_alerts, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, day) DO UPDATE SET
			clock_hours=excluded.clock_hours, activity_hours=excluded.activity_hours,
			billable_hours=excluded.billable_hours, calendar_hours=excluded.calendar_hours,
			efficiency_rate=excluded.efficiency_rate, cost=excluded.cost,
			revenue=excluded.revenue, profit=excluded.profit,
			remote_sessions=excluded.remote_sessions, onsite_hours=excluded.onsite_hours,
			travel_hours=excluded.travel_hours, vehicle_used=excluded.vehicle_used,
			validation_alerts=excluded.validation_alerts, updated=excluded.updated`,
		k.EmployeeID, k.Day, k.ClockHours, k.ActivityHours, k.BillableHours, k.CalendarHours,
		k.EfficiencyRate, k.Cost, k.Revenue, k.Profit, k.RemoteSessions, k.OnsiteHours,
		k.TravelHours, boolInt(k.VehicleUsed), string(alertsJSON), now())
	return err
}

func (r *SQLiteRepo) GetDailyKPI(ctx context.Context, employeeID int64, day string) (*models.DailyKPI, error) {
	row := r.h.QueryRow(ctx, `SELECT `+kpiColumns+` FROM daily_kpis WHERE employee_id = ? AND day = ?`, employeeID, day)
	k, err := scanKPI(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return k, nil
}

func (r *SQLiteRepo) ListDailyKPIs(ctx context.Context, from, to string) ([]models.DailyKPI, error) {
	rows, err := r.h.QueryRows(ctx, `SELECT `+kpiColumns+` FROM daily_kpis WHERE day >= ? AND day <= ? ORDER BY day, employee_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyKPI
	for rows.Next() {
		k, err := scanKPI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

func scanKPI(s rowScanner) (*models.DailyKPI, error) {
	var k models.DailyKPI
	var vehicleUsed int
	var alertsJSON string
	if err := s.Scan(&k.ID, &k.EmployeeID, &k.Day, &k.ClockHours, &k.ActivityHours, &k.BillableHours, &k.CalendarHours, &k.EfficiencyRate, &k.Cost, &k.Revenue, &k.Profit, &k.RemoteSessions, &k.OnsiteHours, &k.TravelHours, &vehicleUsed, &alertsJSON, &k.Updated); err != nil {
		return nil, err
	}
	k.VehicleUsed = vehicleUsed == 1
	if err := json.Unmarshal([]byte(alertsJSON), &k.Alerts); err != nil {
		return nil, fmt.Errorf("unmarshal alerts: %w", err)
	}
	return &k, nil
}
