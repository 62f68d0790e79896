package sqlite_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	dbembed "github.com/garnizeh/worklog/db"
	"github.com/garnizeh/worklog/internal/db"
	"github.com/garnizeh/worklog/internal/repository/sqlite"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// newTestStore opens a fresh named in-memory database, applies the embedded
// migrations and seed defaults, and returns a Store bound to it.
func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(ctx, database, dbembed.Migrations, dbembed.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlite.New(database, nil)
}

func mustCreateEmployee(t *testing.T, store repository.Store, full string) int64 {
	t.Helper()
	parts := strings.SplitN(full, " ", 2)
	id, err := store.CreateEmployee(context.Background(), &models.Employee{
		FirstName: parts[0], LastName: parts[1], FullName: full, Active: true,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	return id
}

func TestEmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id := mustCreateEmployee(t, store, "Mario Rossi")

	e, err := store.GetEmployeeByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.FullName != "Mario Rossi" || !e.Active {
		t.Fatalf("unexpected employee: %#v", e)
	}

	cost := 180.0
	e.DailyCost = &cost
	if err := store.UpdateEmployee(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	e, err = store.GetEmployeeByID(ctx, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if e.DailyCost == nil || *e.DailyCost != 180 {
		t.Errorf("daily cost not persisted: %#v", e.DailyCost)
	}

	if err := store.DeactivateEmployee(ctx, id); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, err := store.ListActiveEmployees(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated employee still listed: %v", active)
	}

	if missing, err := store.GetEmployeeByID(ctx, 9999); err != nil || missing != nil {
		t.Errorf("missing id should be (nil, nil), got %#v, %v", missing, err)
	}
}

func TestLegacyEmployeeLookup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	if _, err := store.CreateLegacyEmployee(ctx, &models.LegacyEmployee{
		EmployeeID: id, FirstName: "Mario", LastName: "Rossi",
	}); err != nil {
		t.Fatalf("create legacy: %v", err)
	}

	l, err := store.GetLegacyByName(ctx, "Mario", "Rossi")
	if err != nil {
		t.Fatalf("get legacy: %v", err)
	}
	if l == nil || l.EmployeeID != id {
		t.Fatalf("legacy lookup: %#v", l)
	}

	l, err = store.GetLegacyByEmployeeID(ctx, id)
	if err != nil || l == nil {
		t.Fatalf("legacy by employee: %#v, %v", l, err)
	}
}

func TestAttendanceUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := &models.AttendanceRecord{
		EmployeeID: id, Day: "2026-03-02",
		Start: start, End: start.Add(8 * time.Hour),
		TotalHours: 8, RoundedHours: 8, NetHours: 8,
	}

	_, inserted, err := store.UpsertAttendance(ctx, a)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !inserted {
		t.Error("first upsert should insert")
	}

	a.NetHours = 7
	_, inserted, err = store.UpsertAttendance(ctx, a)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if inserted {
		t.Error("same natural key should update, not insert")
	}

	punches, err := store.ListAttendanceForDay(ctx, id, "2026-03-02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(punches) != 1 {
		t.Fatalf("expected 1 punch, got %d", len(punches))
	}
	if punches[0].NetHours != 7 {
		t.Errorf("net hours = %v, want updated 7", punches[0].NetHours)
	}
	if !punches[0].Start.Equal(start) {
		t.Errorf("start round-trip: got %v, want %v", punches[0].Start, start)
	}
}

func TestActivityHashAndProximity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, hash string) int64 {
		aid, err := store.InsertActivity(ctx, &models.ActivityRecord{
			EmployeeID: id, Start: base.Add(offset), End: base.Add(offset + 2*time.Hour),
			DurationHours: 2, Description: "lavoro", Billable: true, ContentHash: hash,
		})
		if err != nil {
			t.Fatalf("insert activity: %v", err)
		}
		return aid
	}

	first := mk(0, "hash-a")
	second := mk(3*time.Minute, "hash-b")
	mk(2*time.Hour, "hash-c") // outside a 5-minute window

	got, err := store.GetActivityByHash(ctx, "hash-a")
	if err != nil {
		t.Fatalf("by hash: %v", err)
	}
	if got == nil || got.ID != first {
		t.Fatalf("hash lookup: %#v", got)
	}

	near, err := store.ListActivitiesNear(ctx, id, base.Add(time.Minute), 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("near: %v", err)
	}
	if len(near) != 2 {
		t.Fatalf("expected 2 within the window, got %d", len(near))
	}
	if near[0].ID != first {
		t.Errorf("nearest first: got id %d, want %d", near[0].ID, first)
	}

	if err := store.MarkActivityDuplicate(ctx, second, first, "test", 0.9); err != nil {
		t.Fatalf("mark duplicate: %v", err)
	}
	near, err = store.ListActivitiesNear(ctx, id, base.Add(time.Minute), 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("near after mark: %v", err)
	}
	if len(near) != 1 {
		t.Errorf("duplicates should drop out of the candidate set, got %d", len(near))
	}

	rec, err := store.GetActivityByID(ctx, second)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !rec.IsDuplicate || rec.OriginalRecordID == nil || *rec.OriginalRecordID != first {
		t.Errorf("duplicate columns: %#v", rec)
	}
}

func TestActivityMerge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	aid, err := store.InsertActivity(ctx, &models.ActivityRecord{
		EmployeeID: id, Start: base, End: base.Add(time.Hour),
		DurationHours: 1, Description: "breve", Billable: true, ContentHash: "h",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.MergeActivity(ctx, aid, "descrizione più ricca", "T-7"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	rec, err := store.GetActivityByID(ctx, aid)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rec.Description != "descrizione più ricca" || rec.TicketID != "T-7" {
		t.Errorf("merge not persisted: %#v", rec)
	}
}

func TestDailyKPIUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	k := &models.DailyKPI{
		EmployeeID: id, Day: "2026-03-02",
		ClockHours: 8, ActivityHours: 7, BillableHours: 6, EfficiencyRate: 75,
		Cost: 200, Revenue: 300, Profit: 100,
		Alerts: []models.Alert{{Type: "HOURS_DIVERGENCE", Severity: "warning", Message: "test"}},
	}
	if err := store.UpsertDailyKPI(ctx, k); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	k.BillableHours = 8
	k.Alerts = nil
	if err := store.UpsertDailyKPI(ctx, k); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetDailyKPI(ctx, id, "2026-03-02")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("kpi row missing")
	}
	if got.BillableHours != 8 {
		t.Errorf("recompute should overwrite, billable = %v", got.BillableHours)
	}
	if len(got.Alerts) != 0 {
		t.Errorf("cleared alerts should round-trip empty, got %v", got.Alerts)
	}

	rows, err := store.ListDailyKPIs(ctx, "2026-03-01", "2026-03-03")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row in range, got %d", len(rows))
	}
}

func TestAnomalyUpsertKeepsResolution(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	a := &models.Anomaly{
		EmployeeID: id, Day: "2026-03-02", Type: "missing_report",
		Severity: "high", Description: "8h clocked, no report",
	}
	if _, err := store.UpsertAnomaly(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := store.ListAnomalies(ctx, "2026-03-01", "2026-03-03", true)
	if err != nil || len(list) != 1 {
		t.Fatalf("list unresolved: %v, %v", list, err)
	}

	if err := store.ResolveAnomaly(ctx, list[0].ID, "checked manually", "admin@example.com"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// a rescan refreshes severity and detail but must not reopen the finding
	a.Severity = "medium"
	if _, err := store.UpsertAnomaly(ctx, a); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	unresolved, err := store.ListAnomalies(ctx, "2026-03-01", "2026-03-03", true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("resolved anomaly reopened by rescan: %v", unresolved)
	}

	all, err := store.ListAnomalies(ctx, "2026-03-01", "2026-03-03", false)
	if err != nil || len(all) != 1 {
		t.Fatalf("full list: %v, %v", all, err)
	}
	if all[0].Severity != "medium" || !all[0].Resolved || all[0].ResolvedBy != "admin@example.com" {
		t.Errorf("rescan should refresh severity and keep resolution: %#v", all[0])
	}

	if err := store.ResolveAnomaly(ctx, 9999, "", ""); err == nil {
		t.Error("resolving a missing anomaly should fail")
	}
}

func TestConfigValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// seeded default
	v, ok, err := store.GetConfigValue(ctx, "kpi", "ore_lavorative_giornaliere")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "8" {
		t.Fatalf("seed default missing: %q %v", v, ok)
	}

	if err := store.SetConfigValue(ctx, "kpi", "ore_lavorative_giornaliere", "7.5"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err = store.GetConfigValue(ctx, "kpi", "ore_lavorative_giornaliere")
	if err != nil || !ok || v != "7.5" {
		t.Errorf("override not visible: %q %v %v", v, ok, err)
	}

	if _, ok, err := store.GetConfigValue(ctx, "kpi", "non_esiste"); err != nil || ok {
		t.Errorf("missing key should be (_, false, nil), got %v %v", ok, err)
	}
}

func TestAssociationQueue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	clientID, err := store.CreateClient(ctx, &models.Client{Name: "ACME Srl", Active: true})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	if _, err := store.EnqueueAssociation(ctx, &models.AssociationQueueEntry{
		RawName: "ACME S.r.l.", SuggestedClientID: &clientID, Confidence: 0.72,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := store.ListPendingAssociations(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending: %v, %v", pending, err)
	}
	if pending[0].SuggestedClientID == nil || *pending[0].SuggestedClientID != clientID {
		t.Errorf("suggestion lost: %#v", pending[0])
	}

	if err := store.ConfirmAssociation(ctx, pending[0].ID, clientID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	pending, err = store.ListPendingAssociations(ctx)
	if err != nil {
		t.Fatalf("pending after confirm: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("confirmed entry still pending: %v", pending)
	}

	if err := store.ConfirmAssociation(ctx, 9999, clientID); err == nil {
		t.Error("confirming a missing entry should fail")
	}
}

func TestImportSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	s := &models.ImportSession{
		SessionID: "abc-123", FileName: "presenze.csv", SourceType: "attendance", Status: "running",
	}
	if _, err := store.CreateImportSession(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.Status = "completed"
	s.Processed, s.Inserted, s.Skipped = 10, 8, 2
	s.Warnings = []string{"row 4: employee name \"Punto\" not resolvable"}
	if err := store.UpdateImportSession(ctx, s); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetImportSession(ctx, "abc-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Status != "completed" || got.Inserted != 8 {
		t.Fatalf("round trip: %#v", got)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings lost: %v", got.Warnings)
	}

	if missing, err := store.GetImportSession(ctx, "nope"); err != nil || missing != nil {
		t.Errorf("missing session should be (nil, nil): %#v, %v", missing, err)
	}

	list, err := store.ListImportSessions(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("list: %v, %v", list, err)
	}
}

func TestOperators(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.CreateOperator(ctx, &models.Operator{
		Name: "Admin", Email: "admin@example.com", PasswordHash: "x",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	o, err := store.GetOperatorByEmail(ctx, "admin@example.com")
	if err != nil || o == nil || o.Name != "Admin" {
		t.Fatalf("get: %#v, %v", o, err)
	}
	if missing, err := store.GetOperatorByEmail(ctx, "nobody@example.com"); err != nil || missing != nil {
		t.Errorf("missing operator should be (nil, nil): %#v, %v", missing, err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	wantErr := fmt.Errorf("boom")
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.CreateEmployee(ctx, &models.Employee{
			FirstName: "Mario", LastName: "Rossi", FullName: "Mario Rossi", Active: true,
		}); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected the fn error back, got %v", err)
	}

	employees, err := store.ListActiveEmployees(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(employees) != 0 {
		t.Errorf("rollback failed, employee persisted: %v", employees)
	}
}

func TestHasApprovedAbsence(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	id := mustCreateEmployee(t, store, "Mario Rossi")

	ok, err := store.HasApprovedAbsence(ctx, id, "2026-03-02")
	if err != nil || ok {
		t.Fatalf("no absence yet: %v, %v", ok, err)
	}

	if _, err := store.CreateAbsenceRequest(ctx, &models.AbsenceRequest{
		EmployeeID: id, StartDay: "2026-03-01", EndDay: "2026-03-05", Kind: "ferie", Approved: true,
	}); err != nil {
		t.Fatalf("create absence: %v", err)
	}
	ok, err = store.HasApprovedAbsence(ctx, id, "2026-03-02")
	if err != nil || !ok {
		t.Errorf("day inside approved range should match: %v, %v", ok, err)
	}
	ok, err = store.HasApprovedAbsence(ctx, id, "2026-03-08")
	if err != nil || ok {
		t.Errorf("day outside range should not match: %v, %v", ok, err)
	}
}
