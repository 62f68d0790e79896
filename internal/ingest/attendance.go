package ingest

import (
	"context"
	"fmt"
	"math"

	"github.com/garnizeh/worklog/pkg/models"
)

// ingestAttendanceRow loads one clock punch interval. Hours are derived from
// the punch pair when the export carries no totals; rounded hours snap to the
// nearest quarter and net hours subtract the break column when present.
func ingestAttendanceRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawName, err := requireColumn(rec, "employee", "dipendente", "nominativo", "nome", "employee", "operatore")
	if err != nil {
		return resSkipped, err
	}
	rawDay, err := requireColumn(rec, "date", "data", "giorno", "date")
	if err != nil {
		return resSkipped, err
	}
	rawStart, err := requireColumn(rec, "clock-in", "entrata", "ora entrata", "inizio", "dalle", "clock in", "start")
	if err != nil {
		return resSkipped, err
	}
	rawEnd, err := requireColumn(rec, "clock-out", "uscita", "ora uscita", "fine", "alle", "clock out", "end")
	if err != nil {
		return resSkipped, err
	}

	day, err := ParseDate(rawDay)
	if err != nil {
		return resSkipped, err
	}
	start, err := ParseClock(day, rawStart)
	if err != nil {
		return resSkipped, fmt.Errorf("clock-in: %w", err)
	}
	end, err := ParseClock(day, rawEnd)
	if err != nil {
		return resSkipped, fmt.Errorf("clock-out: %w", err)
	}
	if !end.After(start) {
		// overnight shift: the punch-out belongs to the next day
		end = end.AddDate(0, 0, 1)
	}

	employeeID, err := resolveEmployee(ctx, rc, rawName)
	if err != nil {
		return resSkipped, err
	}

	total := end.Sub(start).Hours()
	if raw, ok := pickColumn(rec, "ore totali", "ore", "total hours", "totale"); ok && raw != "" {
		if v, err := ParseFloat(raw); err == nil && v > 0 {
			total = v
		}
	}
	rounded := math.Round(total*4) / 4
	net := total
	if raw, ok := pickColumn(rec, "pausa", "break", "pause"); ok && raw != "" {
		if v, err := ParseFloat(raw); err == nil && v > 0 && v < total {
			net = total - v
		}
	}

	a := &models.AttendanceRecord{
		EmployeeID:   employeeID,
		Day:          day,
		Start:        start,
		End:          end,
		TotalHours:   total,
		RoundedHours: rounded,
		NetHours:     net,
	}
	if raw, ok := pickColumn(rec, "cliente", "client", "azienda", "sede cliente"); ok && raw != "" {
		clientID, err := rc.resolver.ResolveClient(ctx, raw)
		if err == nil {
			a.ClientID = &clientID
		}
	}

	_, inserted, err := rc.store.UpsertAttendance(ctx, a)
	if err != nil {
		return resSkipped, fmt.Errorf("store attendance: %w", err)
	}
	if inserted {
		return resInserted, nil
	}
	return resUpdated, nil
}
