// Package anomaly scans the aggregated data for cross-source inconsistencies
// and records them as operator-facing findings.
package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"log/slog"

	"github.com/qri-io/jsonschema"

	dbembed "github.com/garnizeh/worklog/db"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Anomaly types produced by the scan.
const (
	TypeHourMismatch    = "hour_mismatch"
	TypeOverlapPunches  = "overlapping_punches"
	TypeClientMismatch  = "client_mismatch"
	TypeUnmatchedRemote = "unmatched_remote_session"
	TypeLowHours        = "low_hours"
	TypeMissingReport   = "missing_report"
)

// Thresholds for the scan, read from config_values by the caller.
type Thresholds struct {
	// MismatchTolerance is the clock/activity gap in hours below which no
	// finding is raised.
	MismatchTolerance float64
	// MinDailyHours is the clocked floor under which a day needs an approved
	// absence to pass.
	MinDailyHours float64
	// ReportRequiredAfter is the clocked hours beyond which at least one
	// activity entry is expected.
	ReportRequiredAfter float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MismatchTolerance:   1,
		MinDailyHours:       4,
		ReportRequiredAfter: 4,
	}
}

// Engine runs the six consistency checks over a day range. Each check is
// independent; findings are upserted on (employee, day, type) so rescans stay
// idempotent.
type Engine struct {
	store  repository.Store
	logger *slog.Logger
	th     Thresholds
	schema *jsonschema.Schema
}

func NewEngine(store repository.Store, logger *slog.Logger, th Thresholds) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := dbembed.SeedFiles.ReadFile("seed/anomaly_detail_v1.json")
	if err != nil {
		return nil, fmt.Errorf("load anomaly detail schema: %w", err)
	}
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, fmt.Errorf("parse anomaly detail schema: %w", err)
	}
	if th.MismatchTolerance <= 0 {
		th.MismatchTolerance = DefaultThresholds().MismatchTolerance
	}
	if th.MinDailyHours <= 0 {
		th.MinDailyHours = DefaultThresholds().MinDailyHours
	}
	if th.ReportRequiredAfter <= 0 {
		th.ReportRequiredAfter = DefaultThresholds().ReportRequiredAfter
	}
	return &Engine{store: store, logger: logger, th: th, schema: schema}, nil
}

// Scan walks every KPI row in [from, to] and runs all checks, returning the
// number of findings written.
func (e *Engine) Scan(ctx context.Context, from, to string) (int, error) {
	kpis, err := e.store.ListDailyKPIs(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list daily kpis: %w", err)
	}

	written := 0
	for i := range kpis {
		n, err := e.scanDay(ctx, &kpis[i])
		if err != nil {
			return written, fmt.Errorf("scan employee=%d day=%s: %w", kpis[i].EmployeeID, kpis[i].Day, err)
		}
		written += n
	}
	e.logger.Info("anomaly scan finished", "from", from, "to", to, "findings", written)
	return written, nil
}

func (e *Engine) scanDay(ctx context.Context, k *models.DailyKPI) (int, error) {
	dayStart, err := time.Parse("2006-01-02", k.Day)
	if err != nil {
		return 0, fmt.Errorf("bad day %q: %w", k.Day, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	punches, err := e.store.ListAttendanceForDay(ctx, k.EmployeeID, k.Day)
	if err != nil {
		return 0, fmt.Errorf("list attendance: %w", err)
	}

	written := 0
	write := func(a *models.Anomaly, detail map[string]any) error {
		a.EmployeeID = k.EmployeeID
		a.Day = k.Day
		if detail != nil {
			raw, err := e.encodeDetail(ctx, detail)
			if err != nil {
				return err
			}
			a.Detail = raw
		}
		if _, err := e.store.UpsertAnomaly(ctx, a); err != nil {
			return fmt.Errorf("upsert anomaly %s: %w", a.Type, err)
		}
		written++
		return nil
	}

	// 1. clock vs activity vs calendar hour mismatch
	if gap := maxHourGap(k); gap > e.th.MismatchTolerance {
		severity := "low"
		switch {
		case gap > 3:
			severity = "high"
		case gap > 2:
			severity = "medium"
		}
		err := write(&models.Anomaly{
			Type:        TypeHourMismatch,
			Severity:    severity,
			Description: fmt.Sprintf("clock %.2fh, activity %.2fh and calendar %.2fh disagree by %.2fh", k.ClockHours, k.ActivityHours, k.CalendarHours, gap),
		}, map[string]any{
			"clock_hours":    k.ClockHours,
			"activity_hours": k.ActivityHours,
			"calendar_hours": k.CalendarHours,
			"gap_hours":      gap,
			"threshold":      e.th.MismatchTolerance,
		})
		if err != nil {
			return written, err
		}
	}

	// 2. overlapping clock punches
	if ids, intervals := overlappingPunches(punches); len(ids) > 0 {
		err := write(&models.Anomaly{
			Type:        TypeOverlapPunches,
			Severity:    "high",
			Description: fmt.Sprintf("%d clock punches overlap", len(ids)),
		}, map[string]any{
			"record_ids": ids,
			"intervals":  intervals,
		})
		if err != nil {
			return written, err
		}
	}

	// 3. clock client vs vehicle client mismatch
	usages, err := e.store.ListVehicleUsageForDay(ctx, k.EmployeeID, k.Day)
	if err != nil {
		return written, fmt.Errorf("list vehicle usage: %w", err)
	}
	if clockClient, vehicleClient, ok := clientMismatch(punches, usages); ok {
		err := write(&models.Anomaly{
			Type:        TypeClientMismatch,
			Severity:    "medium",
			Description: "vehicle log names a different client than the clock punches",
		}, map[string]any{
			"clock_client_id":   clockClient,
			"vehicle_client_id": vehicleClient,
		})
		if err != nil {
			return written, err
		}
	}

	// 4. remote sessions with no activity mentioning remote work
	sessions, err := e.store.ListRemoteSessionsOverlapping(ctx, k.EmployeeID, dayStart, dayEnd)
	if err != nil {
		return written, fmt.Errorf("list remote sessions: %w", err)
	}
	if len(sessions) > 0 {
		activities, err := e.store.ListActivitiesOverlapping(ctx, k.EmployeeID, dayStart, dayEnd)
		if err != nil {
			return written, fmt.Errorf("list activities: %w", err)
		}
		if ids := unmatchedSessions(sessions, activities); len(ids) > 0 {
			err := write(&models.Anomaly{
				Type:        TypeUnmatchedRemote,
				Severity:    "medium",
				Description: fmt.Sprintf("%d remote sessions have no matching remote-work activity", len(ids)),
			}, map[string]any{
				"session_ids": ids,
			})
			if err != nil {
				return written, err
			}
		}
	}

	// 5. low clocked hours with no approved absence
	if k.ClockHours > 0 && k.ClockHours < e.th.MinDailyHours {
		approved, err := e.store.HasApprovedAbsence(ctx, k.EmployeeID, k.Day)
		if err != nil {
			return written, fmt.Errorf("check absence: %w", err)
		}
		if !approved {
			err := write(&models.Anomaly{
				Type:        TypeLowHours,
				Severity:    "high",
				Description: fmt.Sprintf("only %.2fh clocked with no approved absence", k.ClockHours),
			}, map[string]any{
				"actual":    k.ClockHours,
				"threshold": e.th.MinDailyHours,
			})
			if err != nil {
				return written, err
			}
		}
	}

	// 6. substantial clocked time with an empty activity report
	if k.ClockHours > e.th.ReportRequiredAfter && k.ActivityHours == 0 {
		err := write(&models.Anomaly{
			Type:        TypeMissingReport,
			Severity:    "high",
			Description: fmt.Sprintf("%.2fh clocked but no activity entries", k.ClockHours),
		}, map[string]any{
			"clock_hours": k.ClockHours,
			"threshold":   e.th.ReportRequiredAfter,
		})
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// encodeDetail marshals a detail payload and validates it against the
// embedded schema before it is persisted.
func (e *Engine) encodeDetail(ctx context.Context, detail map[string]any) (json.RawMessage, error) {
	raw, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal detail: %w", err)
	}
	errs, err := e.schema.ValidateBytes(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("validate detail: %w", err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("detail payload rejected by schema: %s", errs[0].Error())
	}
	return raw, nil
}

func overlappingPunches(punches []models.AttendanceRecord) ([]int64, []map[string]any) {
	var ids []int64
	var intervals []map[string]any
	seen := make(map[int64]bool)
	for i := range punches {
		for j := i + 1; j < len(punches); j++ {
			a, b := &punches[i], &punches[j]
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				for _, p := range []*models.AttendanceRecord{a, b} {
					if !seen[p.ID] {
						seen[p.ID] = true
						ids = append(ids, p.ID)
						intervals = append(intervals, map[string]any{
							"start": p.Start.Format(time.RFC3339),
							"end":   p.End.Format(time.RFC3339),
						})
					}
				}
			}
		}
	}
	return ids, intervals
}

func clientMismatch(punches []models.AttendanceRecord, usages []models.VehicleUsage) (clockClient, vehicleClient int64, mismatch bool) {
	for _, p := range punches {
		if p.ClientID == nil {
			continue
		}
		for _, u := range usages {
			if u.ClientID != nil && *u.ClientID != *p.ClientID {
				return *p.ClientID, *u.ClientID, true
			}
		}
	}
	return 0, 0, false
}

// maxHourGap is the largest pairwise gap between the three hour sources,
// ignoring sources with no data for the day.
func maxHourGap(k *models.DailyKPI) float64 {
	sources := []float64{k.ClockHours, k.ActivityHours, k.CalendarHours}
	var gap float64
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			if sources[i] <= 0 || sources[j] <= 0 {
				continue
			}
			if d := math.Abs(sources[i] - sources[j]); d > gap {
				gap = d
			}
		}
	}
	return gap
}

var remoteWorkTerms = []string{"remoto", "remote", "teleassistenza", "telelavoro"}

func mentionsRemoteWork(description string) bool {
	lower := strings.ToLower(description)
	for _, term := range remoteWorkTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// unmatchedSessions returns the sessions no overlapping activity accounts
// for with a remote-work description.
func unmatchedSessions(sessions []models.RemoteSession, activities []models.ActivityRecord) []int64 {
	var ids []int64
	for _, s := range sessions {
		matched := false
		for i := range activities {
			a := &activities[i]
			if mentionsRemoteWork(a.Description) && a.Start.Before(s.End) && s.Start.Before(a.End) {
				matched = true
				break
			}
		}
		if !matched {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
