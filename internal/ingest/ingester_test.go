package ingest_test

import (
	"context"
	"testing"

	"github.com/garnizeh/worklog/internal/dedup"
	"github.com/garnizeh/worklog/internal/ingest"
	"github.com/garnizeh/worklog/pkg/repository/mock"
)

func newIngester(store *mock.Store) *ingest.Ingester {
	return ingest.NewIngester(store, nil, dedup.DefaultConfig())
}

func TestIngestAttendanceFile(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	csv := "Dipendente;Data;Entrata;Uscita;Pausa\n" +
		"Mario Rossi;02/03/2026;09:00;18:00;1\n" +
		"Luigi Bianchi;02/03/2026;08:30;17:00;0,5\n"

	session, err := newIngester(store).IngestFile(ctx, "presenze.csv", ingest.SourceAttendance, []byte(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if session.Status != ingest.StatusCompleted {
		t.Errorf("status = %q, want completed", session.Status)
	}
	if session.Processed != 2 || session.Inserted != 2 {
		t.Errorf("processed/inserted = %d/%d, want 2/2", session.Processed, session.Inserted)
	}
	if len(store.Employees) != 2 {
		t.Fatalf("expected 2 resolved employees, got %d", len(store.Employees))
	}
	if len(store.Attendance) != 2 {
		t.Fatalf("expected 2 punches, got %d", len(store.Attendance))
	}

	first := store.Attendance[0]
	if first.Day != "2026-03-02" {
		t.Errorf("day = %q, want 2026-03-02", first.Day)
	}
	if first.TotalHours != 9 || first.NetHours != 8 {
		t.Errorf("total/net = %v/%v, want 9/8 after the break", first.TotalHours, first.NetHours)
	}
}

func TestIngestAttendanceReimportUpdates(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	csv := "Dipendente;Data;Entrata;Uscita\nMario Rossi;02/03/2026;09:00;17:00\n"
	ing := newIngester(store)

	if _, err := ing.IngestFile(ctx, "presenze.csv", ingest.SourceAttendance, []byte(csv)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	session, err := ing.IngestFile(ctx, "presenze.csv", ingest.SourceAttendance, []byte(csv))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	if session.Updated != 1 || session.Inserted != 0 {
		t.Errorf("reimport should update, got inserted=%d updated=%d", session.Inserted, session.Updated)
	}
	if len(store.Attendance) != 1 {
		t.Errorf("reimport should not duplicate punches, got %d", len(store.Attendance))
	}
}

func TestIngestActivityFileWithDuplicate(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	row := "Mario Rossi;02/03/2026 09:00;2,5;Manutenzione server;T-100;SI\n"
	csv := "Dipendente;Data Inizio;Durata;Descrizione;Ticket;Fatturabile\n" + row + row

	session, err := newIngester(store).IngestFile(ctx, "attivita.csv", ingest.SourceActivity, []byte(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// soft dedup keeps the second row, flagged
	if session.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", session.Inserted)
	}
	if len(store.Activities) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(store.Activities))
	}
	dupes := 0
	for _, a := range store.Activities {
		if a.DurationHours != 2.5 {
			t.Errorf("duration = %v, want 2.5", a.DurationHours)
		}
		if !a.Billable {
			t.Error("fatturabile SI should read as billable")
		}
		if a.IsDuplicate {
			dupes++
		}
	}
	if dupes != 1 {
		t.Errorf("exactly one row should be flagged duplicate, got %d", dupes)
	}
}

func TestIngestSkipsUnresolvableRows(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	csv := "Dipendente;Data;Entrata;Uscita\n" +
		"Punto;02/03/2026;09:00;17:00\n" +
		"Mario Rossi;02/03/2026;09:00;17:00\n"

	session, err := newIngester(store).IngestFile(ctx, "presenze.csv", ingest.SourceAttendance, []byte(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if session.Status != ingest.StatusCompleted {
		t.Errorf("row problems should not fail the file, status = %q", session.Status)
	}
	if session.Inserted != 1 || session.Skipped != 1 {
		t.Errorf("inserted/skipped = %d/%d, want 1/1", session.Inserted, session.Skipped)
	}
	if len(session.Warnings) != 1 {
		t.Errorf("expected a warning for the vehicle-name row, got %v", session.Warnings)
	}
}

func TestIngestUnknownSourceFails(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()

	session, err := newIngester(store).IngestFile(ctx, "boh.csv", "payroll", []byte("a;b\n1;2\n"))
	if err == nil {
		t.Fatal("unknown source type should be a file-level error")
	}
	if session.Status != ingest.StatusFailed {
		t.Errorf("status = %q, want failed", session.Status)
	}
	if len(store.Imports) != 1 {
		t.Errorf("the failed session should still be recorded, got %d", len(store.Imports))
	}
}

func TestIngestRemoteFile(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	csv := "Operatore;Cliente;Data Inizio;Durata Minuti;Codice Sessione\n" +
		"Mario Rossi;ACME Srl;02/03/2026 14:00;45;RS-9912\n"

	session, err := newIngester(store).IngestFile(ctx, "teleassistenze.csv", ingest.SourceRemote, []byte(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if session.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1; warnings: %v", session.Inserted, session.Warnings)
	}
	s := store.Sessions[0]
	if s.SessionCode != "RS-9912" {
		t.Errorf("session code = %q", s.SessionCode)
	}
	if got := s.End.Sub(s.Start).Minutes(); got != 45 {
		t.Errorf("duration = %v minutes, want 45", got)
	}
}

func TestIngestVehicleFileOvernight(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	csv := "Conducente;Mezzo;Data;Ritiro;Riconsegna\n" +
		"Mario Rossi;Fiat Fiorino;02/03/2026;22:00;02:00\n"

	session, err := newIngester(store).IngestFile(ctx, "mezzi.csv", ingest.SourceVehicle, []byte(csv))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if session.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1; warnings: %v", session.Inserted, session.Warnings)
	}
	u := store.Usages[0]
	if !u.Return.After(u.Pickup) {
		t.Error("overnight return should roll to the next day")
	}
	if got := u.Return.Sub(u.Pickup).Hours(); got != 4 {
		t.Errorf("usage = %v hours, want 4", got)
	}
}
