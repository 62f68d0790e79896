package ingest

import (
	"context"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
)

func ingestCalendarRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawName, err := requireColumn(rec, "employee", "dipendente", "partecipante", "organizzatore", "employee", "nome")
	if err != nil {
		return resSkipped, err
	}
	rawStart, err := requireColumn(rec, "start", "data inizio", "inizio", "start")
	if err != nil {
		return resSkipped, err
	}
	rawEnd, err := requireColumn(rec, "end", "data fine", "fine", "end")
	if err != nil {
		return resSkipped, err
	}

	start, err := ParseDateTime(rawStart)
	if err != nil {
		return resSkipped, fmt.Errorf("start: %w", err)
	}
	end, err := ParseDateTime(rawEnd)
	if err != nil {
		return resSkipped, fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		return resSkipped, fmt.Errorf("event ends before it starts")
	}

	employeeID, err := resolveEmployee(ctx, rc, rawName)
	if err != nil {
		return resSkipped, err
	}

	e := &models.CalendarEvent{
		EmployeeID: employeeID,
		Start:      start,
		End:        end,
	}
	if raw, ok := pickColumn(rec, "titolo", "oggetto", "title", "subject"); ok {
		e.Title = raw
	}
	if raw, ok := pickColumn(rec, "luogo", "sede", "location"); ok {
		e.Location = raw
	}
	if raw, ok := pickColumn(rec, "priorita", "priority", "importanza"); ok {
		e.Priority = raw
	}

	_, inserted, err := rc.store.UpsertCalendarEvent(ctx, e)
	if err != nil {
		return resSkipped, fmt.Errorf("store calendar event: %w", err)
	}
	if inserted {
		return resInserted, nil
	}
	return resUpdated, nil
}
