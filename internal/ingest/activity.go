package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/internal/dedup"
	"github.com/garnizeh/worklog/pkg/models"
)

// ingestActivityRow loads one timesheet entry through the dedup engine. A
// marked duplicate still produces a flagged row, so it counts as inserted; a
// merge enriches the original in place and counts as updated.
func ingestActivityRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawName, err := requireColumn(rec, "employee", "dipendente", "operatore", "tecnico", "nome", "employee")
	if err != nil {
		return resSkipped, err
	}
	rawStart, err := requireColumn(rec, "start", "data inizio", "inizio", "data", "start", "dal")
	if err != nil {
		return resSkipped, err
	}

	start, err := ParseDateTime(rawStart)
	if err != nil {
		return resSkipped, fmt.Errorf("start: %w", err)
	}

	var end time.Time
	var duration float64
	if rawEnd, ok := pickColumn(rec, "data fine", "fine", "end", "al"); ok && rawEnd != "" {
		end, err = ParseDateTime(rawEnd)
		if err != nil {
			return resSkipped, fmt.Errorf("end: %w", err)
		}
		if end.Before(start) {
			return resSkipped, fmt.Errorf("end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
		}
		duration = end.Sub(start).Hours()
	}
	if rawDur, ok := pickColumn(rec, "durata", "ore", "duration", "hours", "tempo"); ok && rawDur != "" {
		v, err := ParseFloat(rawDur)
		if err != nil {
			return resSkipped, fmt.Errorf("duration: %w", err)
		}
		if v < 0 {
			return resSkipped, fmt.Errorf("negative duration %v", v)
		}
		duration = v
		if end.IsZero() {
			end = start.Add(time.Duration(v * float64(time.Hour)))
		}
	}
	if end.IsZero() {
		return resSkipped, fmt.Errorf("row carries neither end nor duration")
	}

	employeeID, err := resolveEmployee(ctx, rc, rawName)
	if err != nil {
		return resSkipped, err
	}

	a := &models.ActivityRecord{
		EmployeeID:    employeeID,
		Start:         start,
		End:           end,
		DurationHours: duration,
		Billable:      true,
	}
	if raw, ok := pickColumn(rec, "descrizione", "attivita", "description", "note", "oggetto"); ok {
		a.Description = raw
	}
	if raw, ok := pickColumn(rec, "ticket", "numero ticket", "id ticket", "segnalazione"); ok {
		a.TicketID = raw
	}
	if raw, ok := pickColumn(rec, "fatturabile", "billable", "addebitabile"); ok && raw != "" {
		a.Billable = parseBool(raw)
	}
	if raw, ok := pickColumn(rec, "cliente", "client", "azienda"); ok && raw != "" {
		if clientID, err := rc.resolver.ResolveClient(ctx, raw); err == nil {
			a.ClientID = &clientID
		}
	}
	if raw, ok := pickColumn(rec, "progetto", "commessa", "project"); ok && raw != "" {
		p := &models.Project{Name: CleanCell(raw), ClientID: a.ClientID}
		projectID, err := rc.store.CreateProject(ctx, p)
		if err != nil {
			return resSkipped, fmt.Errorf("resolve project: %w", err)
		}
		a.ProjectID = &projectID
	}

	out, err := rc.engine.Check(ctx, a)
	if err != nil {
		return resSkipped, fmt.Errorf("dedup check: %w", err)
	}
	if _, err := rc.engine.Apply(ctx, a, out); err != nil {
		return resSkipped, fmt.Errorf("dedup apply: %w", err)
	}

	switch out.Action {
	case dedup.ActionInsert, dedup.ActionMark:
		return resInserted, nil
	case dedup.ActionMerge:
		return resUpdated, nil
	default:
		return resSkipped, nil
	}
}
