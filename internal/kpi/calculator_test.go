package kpi_test

import (
	"context"
	"testing"
	"time"

	"github.com/garnizeh/worklog/internal/kpi"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository/mock"
)

const day = "2026-03-02"

func seedEmployee(store *mock.Store) int64 {
	e := &models.Employee{FirstName: "Mario", LastName: "Rossi", FullName: "Mario Rossi", Active: true}
	id, _ := store.CreateEmployee(context.Background(), e)
	return id
}

func addClock(store *mock.Store, employeeID int64, net float64) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.Attendance = append(store.Attendance, models.AttendanceRecord{
		ID:         int64(len(store.Attendance) + 1000),
		EmployeeID: employeeID,
		Day:        day,
		Start:      start,
		End:        start.Add(time.Duration(net * float64(time.Hour))),
		TotalHours: net,
		NetHours:   net,
	})
}

func addActivity(store *mock.Store, employeeID int64, hours float64, billable bool) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.Activities = append(store.Activities, models.ActivityRecord{
		ID:            int64(len(store.Activities) + 2000),
		EmployeeID:    employeeID,
		Start:         start,
		End:           start.Add(time.Duration(hours * float64(time.Hour))),
		DurationHours: hours,
		Billable:      billable,
	})
}

func hasAlert(k *models.DailyKPI, typ string) bool {
	for _, a := range k.Alerts {
		if a.Type == typ {
			return true
		}
	}
	return false
}

func TestComputeDailyEfficiency(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addClock(store, id, 8)
	addActivity(store, id, 10, true)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if k == nil {
		t.Fatal("expected a KPI row")
	}

	// effective hours take the larger source: 10 activity over 8 clocked
	if k.EfficiencyRate != 100 {
		t.Errorf("efficiency = %v, want 100 (10 billable over 10 effective)", k.EfficiencyRate)
	}
	if !hasAlert(k, kpi.AlertBillableExceedsClock) {
		t.Error("billable 10h over clocked 8h should be flagged critical")
	}
	if k.Revenue != 500 {
		t.Errorf("revenue = %v, want 10h * 50", k.Revenue)
	}
	if k.Profit != 300 {
		t.Errorf("profit = %v, want 500 - 200 default cost", k.Profit)
	}
}

func TestComputeDailyBillableExceedsClock(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addClock(store, id, 4)
	addActivity(store, id, 10, true)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if !hasAlert(k, kpi.AlertBillableExceedsClock) {
		t.Error("billable 10h over clocked 4h should be flagged critical")
	}
	if !hasAlert(k, kpi.AlertHoursDivergence) {
		t.Error("4h clock vs 10h activity should be flagged divergent")
	}
}

func TestComputeDailyBillableWithoutTimesheet(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addActivity(store, id, 4, true)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !hasAlert(k, kpi.AlertBillableWithoutTimesheet) {
		t.Error("billable hours with no clock punches should be flagged")
	}
}

func TestComputeDailyPersistsAlertsAsAnomalies(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addActivity(store, id, 6, true)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !hasAlert(k, kpi.AlertBillableWithoutTimesheet) {
		t.Fatal("billable hours with no clock punches should be flagged")
	}

	var found *models.Anomaly
	for i := range store.Anomalies {
		if store.Anomalies[i].Type == kpi.AlertBillableWithoutTimesheet {
			found = &store.Anomalies[i]
		}
	}
	if found == nil {
		t.Fatalf("alert should be written to the anomalies table, got %d rows", len(store.Anomalies))
	}
	if found.EmployeeID != id || found.Day != day {
		t.Errorf("anomaly keyed on %d/%s, want %d/%s", found.EmployeeID, found.Day, id, day)
	}
	if found.Severity != "medium" {
		t.Errorf("severity = %q, want medium for a warning alert", found.Severity)
	}

	// recomputation upserts on (employee, day, type)
	if _, err := calc.ComputeDaily(ctx, id, day); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(store.Anomalies) != 1 {
		t.Errorf("recompute should overwrite the anomaly row, got %d", len(store.Anomalies))
	}
}

func TestComputeDailyHoursDivergence(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addClock(store, id, 8)
	addActivity(store, id, 4, false)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !hasAlert(k, kpi.AlertHoursDivergence) {
		t.Error("50% clock/activity divergence should be flagged")
	}
}

func TestComputeDailyCalendarOnly(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store.Events = append(store.Events, models.CalendarEvent{
		ID: 1, EmployeeID: id, Title: "Sopralluogo", Start: start, End: start.Add(2 * time.Hour), Location: "Cliente",
	})

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if k.CalendarHours != 2 || k.OnsiteHours != 2 {
		t.Errorf("calendar/onsite = %v/%v, want 2/2", k.CalendarHours, k.OnsiteHours)
	}
	if !hasAlert(k, kpi.AlertCalendarWithoutClock) {
		t.Error("calendar hours with no clock punches should be flagged")
	}
}

func TestComputeDailyMultiDayActivityAllocation(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)

	// spans the previous evening into this day: only the tail counts here
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
	store.Activities = append(store.Activities, models.ActivityRecord{
		ID: 1, EmployeeID: id, Start: start, End: end, DurationHours: 8, Billable: true,
	})

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if k.ActivityHours != 4 {
		t.Errorf("this day's share = %v, want 4 (midnight to 04:00)", k.ActivityHours)
	}
}

func TestComputeDailySkipsEmptyDays(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	k, err := calc.ComputeDaily(ctx, id, day)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if k != nil {
		t.Errorf("day with no data should not produce a row, got %#v", k)
	}
	if len(store.KPIs) != 0 {
		t.Errorf("no KPI row should be written, got %d", len(store.KPIs))
	}
}

func TestComputeDailyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addClock(store, id, 8)
	addActivity(store, id, 8, true)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	if _, err := calc.ComputeDaily(ctx, id, day); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	if _, err := calc.ComputeDaily(ctx, id, day); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if len(store.KPIs) != 1 {
		t.Errorf("recomputation should overwrite, got %d rows", len(store.KPIs))
	}
}

func TestComputeRange(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	id := seedEmployee(store)
	addClock(store, id, 8)

	calc := kpi.NewCalculator(store, nil, kpi.DefaultParams())
	rows, err := calc.ComputeRange(ctx, "2026-03-01", "2026-03-03")
	if err != nil {
		t.Fatalf("compute range: %v", err)
	}
	if rows != 1 {
		t.Errorf("only one day has data, got %d rows", rows)
	}
}
