package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

func ingestRemoteRow(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error) {
	rawName, err := requireColumn(rec, "operator", "operatore", "tecnico", "dipendente", "operator", "nome")
	if err != nil {
		return resSkipped, err
	}
	rawStart, err := requireColumn(rec, "start", "data inizio", "inizio", "start", "data")
	if err != nil {
		return resSkipped, err
	}

	start, err := ParseDateTime(rawStart)
	if err != nil {
		return resSkipped, fmt.Errorf("start: %w", err)
	}

	var end time.Time
	var minutes float64
	if raw, ok := pickColumn(rec, "data fine", "fine", "end"); ok && raw != "" {
		end, err = ParseDateTime(raw)
		if err != nil {
			return resSkipped, fmt.Errorf("end: %w", err)
		}
		if end.Before(start) {
			return resSkipped, fmt.Errorf("session ends before it starts")
		}
		minutes = end.Sub(start).Minutes()
	}
	if raw, ok := pickColumn(rec, "durata minuti", "minuti", "minutes", "durata"); ok && raw != "" {
		v, err := ParseFloat(raw)
		if err != nil {
			return resSkipped, fmt.Errorf("duration: %w", err)
		}
		minutes = v
		if end.IsZero() {
			end = start.Add(time.Duration(v * float64(time.Minute)))
		}
	}
	if end.IsZero() {
		return resSkipped, fmt.Errorf("row carries neither end nor duration")
	}

	employeeID, err := resolveEmployee(ctx, rc, rawName)
	if err != nil {
		return resSkipped, err
	}

	s := &models.RemoteSession{
		EmployeeID:      employeeID,
		Start:           start,
		End:             end,
		DurationMinutes: minutes,
	}
	if raw, ok := pickColumn(rec, "cliente", "client", "azienda"); ok {
		s.ClientName = raw
	}
	if raw, ok := pickColumn(rec, "contatto", "referente", "contact"); ok {
		s.ContactName = raw
	}
	if raw, ok := pickColumn(rec, "codice sessione", "sessione", "session", "id sessione", "codice"); ok {
		s.SessionCode = raw
	}
	if raw, ok := pickColumn(rec, "fatturazione", "billing", "modalita"); ok {
		s.BillingMode = raw
	}

	_, inserted, err := rc.store.UpsertRemoteSession(ctx, s)
	if err != nil {
		return resSkipped, fmt.Errorf("store remote session: %w", err)
	}
	if inserted {
		return resInserted, nil
	}
	return resUpdated, nil
}
