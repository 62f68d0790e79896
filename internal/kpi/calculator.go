package kpi

import (
	"context"
	"fmt"
	"math"
	"time"

	"log/slog"

	"github.com/garnizeh/worklog/internal/settings"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Alert types raised during KPI validation.
const (
	AlertBillableExceedsClock     = "BILLABLE_EXCEEDS_CLOCK"
	AlertHoursDivergence          = "HOURS_DIVERGENCE"
	AlertCalendarWithoutClock     = "CALENDAR_WITHOUT_CLOCK"
	AlertHighEfficiency           = "HIGH_EFFICIENCY"
	AlertBillableWithoutTimesheet = "BILLABLE_WITHOUT_TIMESHEET"
)

// Params are the business constants, read from config_values with these
// defaults.
type Params struct {
	DefaultWorkdayHours float64
	HourlyRate          float64
	DailyCostDefault    float64
	EfficiencyCap       float64
	EfficiencyAlert     float64
	DivergencePercent   float64
}

func DefaultParams() Params {
	return Params{
		DefaultWorkdayHours: 8,
		HourlyRate:          50,
		DailyCostDefault:    200,
		EfficiencyCap:       150,
		EfficiencyAlert:     120,
		DivergencePercent:   25,
	}
}

// LoadParams reads the tunables from config_values.
func LoadParams(ctx context.Context, s *settings.Settings) Params {
	d := DefaultParams()
	return Params{
		DefaultWorkdayHours: s.Float(ctx, settings.CategoryKPI, "ore_lavorative_giornaliere", d.DefaultWorkdayHours),
		HourlyRate:          s.Float(ctx, settings.CategoryKPI, "tariffa_oraria_standard", d.HourlyRate),
		DailyCostDefault:    s.Float(ctx, settings.CategoryKPI, "costo_giornaliero_default", d.DailyCostDefault),
		EfficiencyCap:       s.Float(ctx, settings.CategoryKPI, "efficiency_cap", d.EfficiencyCap),
		EfficiencyAlert:     s.Float(ctx, settings.CategoryKPI, "efficiency_alert_threshold", d.EfficiencyAlert),
		DivergencePercent:   s.Float(ctx, settings.CategoryValidation, "divergenza_ore_percentuale", d.DivergencePercent),
	}
}

// Calculator derives the daily KPI row for an (employee, day) pair.
type Calculator struct {
	store  repository.Store
	logger *slog.Logger
	params Params
}

func NewCalculator(store repository.Store, logger *slog.Logger, params Params) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{store: store, logger: logger, params: params}
}

// ComputeDaily aggregates every source for the pair, validates cross-source
// consistency and upserts the KPI row. Recomputation overwrites the previous
// row for the same key. When no source has any data the day is skipped and
// nil is returned.
func (c *Calculator) ComputeDaily(ctx context.Context, employeeID int64, day string) (*models.DailyKPI, error) {
	dayStart, err := time.Parse(dayFormat, day)
	if err != nil {
		return nil, fmt.Errorf("bad day %q: %w", day, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	clockHours, err := c.clockHours(ctx, employeeID, day)
	if err != nil {
		return nil, err
	}
	activityHours, billableHours, err := c.activityHours(ctx, employeeID, day, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	calendarHours, onsiteHours, err := c.calendarHours(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	sessions, err := c.store.ListRemoteSessionsOverlapping(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list remote sessions: %w", err)
	}

	usages, err := c.store.ListVehicleUsageForDay(ctx, employeeID, day)
	if err != nil {
		return nil, fmt.Errorf("list vehicle usage: %w", err)
	}
	var travelHours float64
	for _, u := range usages {
		travelHours += overlapHours(u.Pickup, u.Return, dayStart, dayEnd)
	}

	if clockHours == 0 && activityHours == 0 && calendarHours == 0 && len(sessions) == 0 && len(usages) == 0 {
		return nil, nil
	}

	effective := effectiveHours(clockHours, activityHours, c.params.DefaultWorkdayHours)
	efficiency := efficiencyRate(billableHours, effective, c.params.EfficiencyCap)

	cost := c.params.DailyCostDefault
	if e, err := c.store.GetEmployeeByID(ctx, employeeID); err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	} else if e != nil && e.DailyCost != nil && *e.DailyCost > 0 {
		cost = *e.DailyCost
	}
	revenue := billableHours * c.params.HourlyRate

	k := &models.DailyKPI{
		EmployeeID:     employeeID,
		Day:            day,
		ClockHours:     round2(clockHours),
		ActivityHours:  round2(activityHours),
		BillableHours:  round2(billableHours),
		CalendarHours:  round2(calendarHours),
		EfficiencyRate: round2(efficiency),
		Cost:           round2(cost),
		Revenue:        round2(revenue),
		Profit:         round2(revenue - cost),
		RemoteSessions: len(sessions),
		OnsiteHours:    round2(onsiteHours),
		TravelHours:    round2(travelHours),
		VehicleUsed:    len(usages) > 0,
	}
	k.Alerts = c.validate(k)

	if err := c.store.UpsertDailyKPI(ctx, k); err != nil {
		return nil, fmt.Errorf("upsert daily kpi: %w", err)
	}

	// every alert also lands in the anomalies table, keyed on
	// (employee, day, type) so recomputation overwrites instead of piling up
	for i := range k.Alerts {
		a := &k.Alerts[i]
		_, err := c.store.UpsertAnomaly(ctx, &models.Anomaly{
			EmployeeID:  employeeID,
			Day:         day,
			Type:        a.Type,
			Severity:    anomalySeverity(a.Severity),
			Description: a.Message,
		})
		if err != nil {
			return nil, fmt.Errorf("persist kpi alert %s: %w", a.Type, err)
		}
	}
	return k, nil
}

// anomalySeverity maps alert severities onto the scale the anomalies table
// uses.
func anomalySeverity(alert string) string {
	switch alert {
	case "critical":
		return "high"
	case "warning":
		return "medium"
	default:
		return "low"
	}
}

// ComputeRange walks the day range for every active employee.
func (c *Calculator) ComputeRange(ctx context.Context, from, to string) (int, error) {
	start, err := time.Parse(dayFormat, from)
	if err != nil {
		return 0, fmt.Errorf("bad from day %q: %w", from, err)
	}
	end, err := time.Parse(dayFormat, to)
	if err != nil {
		return 0, fmt.Errorf("bad to day %q: %w", to, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("range end %s before start %s", to, from)
	}

	employees, err := c.store.ListActiveEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("list employees: %w", err)
	}

	computed := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayStr := day.Format(dayFormat)
		for _, e := range employees {
			k, err := c.ComputeDaily(ctx, e.ID, dayStr)
			if err != nil {
				return computed, fmt.Errorf("compute kpi employee=%d day=%s: %w", e.ID, dayStr, err)
			}
			if k != nil {
				computed++
			}
		}
	}
	c.logger.Info("kpi range computed", "from", from, "to", to, "rows", computed)
	return computed, nil
}

func (c *Calculator) clockHours(ctx context.Context, employeeID int64, day string) (float64, error) {
	punches, err := c.store.ListAttendanceForDay(ctx, employeeID, day)
	if err != nil {
		return 0, fmt.Errorf("list attendance: %w", err)
	}
	var total float64
	for _, p := range punches {
		total += p.NetHours
	}
	return total, nil
}

func (c *Calculator) activityHours(ctx context.Context, employeeID int64, day string, dayStart, dayEnd time.Time) (activity, billable float64, err error) {
	// the widened window catches multi-day activities whose tail lands today
	records, err := c.store.ListActivitiesOverlapping(ctx, employeeID, dayStart.AddDate(0, 0, -7), dayEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("list activities: %w", err)
	}
	for i := range records {
		r := &records[i]
		share, ok := AllocateHours(r.Start, r.End, r.DurationHours)[day]
		if !ok {
			continue
		}
		activity += share
		if r.Billable {
			billable += share
		}
	}
	return activity, billable, nil
}

func (c *Calculator) calendarHours(ctx context.Context, employeeID int64, dayStart, dayEnd time.Time) (calendar, onsite float64, err error) {
	events, err := c.store.ListCalendarEventsOverlapping(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("list calendar events: %w", err)
	}
	for _, e := range events {
		h := overlapHours(e.Start, e.End, dayStart, dayEnd)
		calendar += h
		if e.Location != "" {
			onsite += h
		}
	}
	return calendar, onsite, nil
}

// validate runs the cross-source consistency checks and returns the alerts to
// store with the row.
func (c *Calculator) validate(k *models.DailyKPI) []models.Alert {
	var alerts []models.Alert

	if k.ClockHours > 0 && k.BillableHours > k.ClockHours {
		alerts = append(alerts, models.Alert{
			Type:     AlertBillableExceedsClock,
			Severity: "critical",
			Message:  fmt.Sprintf("billable %.2fh exceeds clocked %.2fh", k.BillableHours, k.ClockHours),
		})
	}

	if k.ClockHours == 0 && k.BillableHours > 0 {
		alerts = append(alerts, models.Alert{
			Type:     AlertBillableWithoutTimesheet,
			Severity: "warning",
			Message:  fmt.Sprintf("%.2f billable hours with no clock punches", k.BillableHours),
		})
	}

	if k.ClockHours > 0 && k.ActivityHours > 0 {
		larger := math.Max(k.ClockHours, k.ActivityHours)
		divergence := math.Abs(k.ClockHours-k.ActivityHours) / larger * 100
		if divergence > c.params.DivergencePercent {
			alerts = append(alerts, models.Alert{
				Type:     AlertHoursDivergence,
				Severity: "warning",
				Message:  fmt.Sprintf("clock %.2fh and activity %.2fh diverge by %.0f%%", k.ClockHours, k.ActivityHours, divergence),
			})
		}
	}

	if k.CalendarHours > 0 && k.ClockHours == 0 {
		alerts = append(alerts, models.Alert{
			Type:     AlertCalendarWithoutClock,
			Severity: "warning",
			Message:  fmt.Sprintf("%.2f calendar hours scheduled with no clock punches", k.CalendarHours),
		})
	}

	if k.EfficiencyRate > c.params.EfficiencyAlert {
		alerts = append(alerts, models.Alert{
			Type:     AlertHighEfficiency,
			Severity: "info",
			Message:  fmt.Sprintf("efficiency %.0f%% above the %.0f%% watch threshold", k.EfficiencyRate, c.params.EfficiencyAlert),
		})
	}

	return alerts
}

// effectiveHours is the efficiency denominator: the larger of the two hour
// sources when both are present, else whichever is present, else the
// configured workday so the rate never divides by zero.
func effectiveHours(clock, activity, defaultWorkday float64) float64 {
	if clock > 0 || activity > 0 {
		return math.Max(clock, activity)
	}
	return defaultWorkday
}

func efficiencyRate(billable, effective, cap float64) float64 {
	rate := billable / effective * 100
	if rate > cap {
		rate = cap
	}
	return rate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
