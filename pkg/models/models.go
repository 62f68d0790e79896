package models

import (
	"encoding/json"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

// Employee is the canonical identity every raw name resolves to. FullName is
// the normalized form and is unique among active employees.
type Employee struct {
	ID        int64    `json:"id" db:"id"`
	FirstName string   `json:"first_name" db:"first_name"`
	LastName  string   `json:"last_name" db:"last_name"`
	FullName  string   `json:"full_name" db:"full_name"`
	Email     string   `json:"email,omitempty" db:"email"`
	Role      string   `json:"role,omitempty" db:"role"`
	DailyCost *float64 `json:"daily_cost,omitempty" db:"daily_cost"`
	Active    bool     `json:"active" db:"active"`
	Updated   int64    `json:"updated" db:"updated"`
}

// EmployeeAlias records an alternate spelling of a canonical employee's name.
type EmployeeAlias struct {
	ID         int64  `json:"id" db:"id"`
	EmployeeID int64  `json:"employee_id" db:"employee_id"`
	AliasFirst string `json:"alias_first" db:"alias_first"`
	AliasLast  string `json:"alias_last" db:"alias_last"`
	AliasFull  string `json:"alias_full" db:"alias_full"`
	Source     string `json:"source,omitempty" db:"source"`
	Note       string `json:"note,omitempty" db:"note"`
	Created    int64  `json:"created" db:"created"`
}

// LegacyEmployee is the secondary employee row kept for backward-compatible
// joins, linked 1:1 to a canonical employee.
type LegacyEmployee struct {
	ID         int64  `json:"id" db:"id"`
	EmployeeID int64  `json:"employee_id" db:"employee_id"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Created    int64  `json:"created" db:"created"`
}

type Client struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Active  bool   `json:"active" db:"active"`
	Created int64  `json:"created" db:"created"`
}

type Project struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ClientID *int64 `json:"client_id,omitempty" db:"client_id"`
	Active   bool   `json:"active" db:"active"`
	Created  int64  `json:"created" db:"created"`
}

type Vehicle struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Plate   string `json:"plate,omitempty" db:"plate"`
	Created int64  `json:"created" db:"created"`
}

// ActivityRecord is a logged unit of work. When IsDuplicate is set,
// OriginalRecordID points at a non-duplicate record.
type ActivityRecord struct {
	ID               int64     `json:"id" db:"id"`
	EmployeeID       int64     `json:"employee_id" db:"employee_id"`
	ClientID         *int64    `json:"client_id,omitempty" db:"client_id"`
	ProjectID        *int64    `json:"project_id,omitempty" db:"project_id"`
	TicketID         string    `json:"ticket_id,omitempty" db:"ticket_id"`
	Start            time.Time `json:"start" db:"start_ts"`
	End              time.Time `json:"end" db:"end_ts"`
	DurationHours    float64   `json:"duration_hours" db:"duration_hours"`
	Description      string    `json:"description,omitempty" db:"description"`
	Billable         bool      `json:"billable" db:"billable"`
	ContentHash      string    `json:"content_hash,omitempty" db:"content_hash"`
	IsDuplicate      bool      `json:"is_duplicate" db:"is_duplicate"`
	OriginalRecordID *int64    `json:"original_record_id,omitempty" db:"original_record_id"`
	DuplicateReason  string    `json:"duplicate_reason,omitempty" db:"duplicate_reason"`
	Confidence       float64   `json:"confidence" db:"confidence"`
	Created          int64     `json:"created" db:"created"`
}

// AttendanceRecord is one clock punch interval.
type AttendanceRecord struct {
	ID           int64     `json:"id" db:"id"`
	EmployeeID   int64     `json:"employee_id" db:"employee_id"`
	ClientID     *int64    `json:"client_id,omitempty" db:"client_id"`
	Day          string    `json:"day" db:"day"`
	Start        time.Time `json:"start" db:"start_ts"`
	End          time.Time `json:"end" db:"end_ts"`
	TotalHours   float64   `json:"total_hours" db:"total_hours"`
	RoundedHours float64   `json:"rounded_hours" db:"rounded_hours"`
	NetHours     float64   `json:"net_hours" db:"net_hours"`
	Created      int64     `json:"created" db:"created"`
}

type CalendarEvent struct {
	ID         int64     `json:"id" db:"id"`
	EmployeeID int64     `json:"employee_id" db:"employee_id"`
	Title      string    `json:"title,omitempty" db:"title"`
	Start      time.Time `json:"start" db:"start_ts"`
	End        time.Time `json:"end" db:"end_ts"`
	Location   string    `json:"location,omitempty" db:"location"`
	Priority   string    `json:"priority,omitempty" db:"priority"`
	Created    int64     `json:"created" db:"created"`
}

type RemoteSession struct {
	ID              int64     `json:"id" db:"id"`
	EmployeeID      int64     `json:"employee_id" db:"employee_id"`
	ClientName      string    `json:"client_name,omitempty" db:"client_name"`
	ContactName     string    `json:"contact_name,omitempty" db:"contact_name"`
	SessionCode     string    `json:"session_code,omitempty" db:"session_code"`
	Start           time.Time `json:"start" db:"start_ts"`
	End             time.Time `json:"end" db:"end_ts"`
	DurationMinutes float64   `json:"duration_minutes" db:"duration_minutes"`
	BillingMode     string    `json:"billing_mode,omitempty" db:"billing_mode"`
	Created         int64     `json:"created" db:"created"`
}

type VehicleUsage struct {
	ID         int64     `json:"id" db:"id"`
	EmployeeID int64     `json:"employee_id" db:"employee_id"`
	VehicleID  int64     `json:"vehicle_id" db:"vehicle_id"`
	ClientID   *int64    `json:"client_id,omitempty" db:"client_id"`
	Day        string    `json:"day" db:"day"`
	Pickup     time.Time `json:"pickup" db:"pickup_ts"`
	Return     time.Time `json:"return" db:"return_ts"`
	Created    int64     `json:"created" db:"created"`
}

type AbsenceRequest struct {
	ID         int64  `json:"id" db:"id"`
	EmployeeID int64  `json:"employee_id" db:"employee_id"`
	StartDay   string `json:"start_day" db:"start_day"`
	EndDay     string `json:"end_day" db:"end_day"`
	Kind       string `json:"kind,omitempty" db:"kind"`
	Approved   bool   `json:"approved" db:"approved"`
	Created    int64  `json:"created" db:"created"`
}

// Alert is a cross-source consistency finding attached to a daily KPI.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DailyKPI aggregates all sources for one (employee, day). Recomputation
// overwrites prior values for the same key.
type DailyKPI struct {
	ID             int64   `json:"id" db:"id"`
	EmployeeID     int64   `json:"employee_id" db:"employee_id"`
	Day            string  `json:"day" db:"day"`
	ClockHours     float64 `json:"clock_hours" db:"clock_hours"`
	ActivityHours  float64 `json:"activity_hours" db:"activity_hours"`
	BillableHours  float64 `json:"billable_hours" db:"billable_hours"`
	CalendarHours  float64 `json:"calendar_hours" db:"calendar_hours"`
	EfficiencyRate float64 `json:"efficiency_rate" db:"efficiency_rate"`
	Cost           float64 `json:"cost" db:"cost"`
	Revenue        float64 `json:"revenue" db:"revenue"`
	Profit         float64 `json:"profit" db:"profit"`
	RemoteSessions int     `json:"remote_sessions" db:"remote_sessions"`
	OnsiteHours    float64 `json:"onsite_hours" db:"onsite_hours"`
	TravelHours    float64 `json:"travel_hours" db:"travel_hours"`
	VehicleUsed    bool    `json:"vehicle_used" db:"vehicle_used"`
	Alerts         []Alert `json:"validation_alerts" db:"validation_alerts"`
	Updated        int64   `json:"updated" db:"updated"`
}

type Anomaly struct {
	ID             int64           `json:"id" db:"id"`
	EmployeeID     int64           `json:"employee_id" db:"employee_id"`
	Day            string          `json:"day" db:"day"`
	Type           string          `json:"anomaly_type" db:"anomaly_type"`
	Severity       string          `json:"severity" db:"severity"`
	Description    string          `json:"description" db:"description"`
	Detail         json.RawMessage `json:"detail,omitempty" db:"detail"`
	Resolved       bool            `json:"resolved" db:"resolved"`
	ResolutionNote string          `json:"resolution_note,omitempty" db:"resolution_note"`
	ResolvedBy     string          `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt     *int64          `json:"resolved_at,omitempty" db:"resolved_at"`
	Created        int64           `json:"created" db:"created"`
	Updated        int64           `json:"updated" db:"updated"`
}

// AssociationQueueEntry holds a client name the pipeline could not confidently
// map, awaiting manual confirmation.
type AssociationQueueEntry struct {
	ID                int64   `json:"id" db:"id"`
	RawName           string  `json:"raw_name" db:"raw_name"`
	SuggestedClientID *int64  `json:"suggested_client_id,omitempty" db:"suggested_client_id"`
	Confidence        float64 `json:"confidence" db:"confidence"`
	Status            string  `json:"status" db:"status"`
	Created           int64   `json:"created" db:"created"`
}

// ImportSession is the per-file ingestion result summary.
type ImportSession struct {
	ID         int64    `json:"id" db:"id"`
	SessionID  string   `json:"session_id" db:"session_id"`
	FileName   string   `json:"file_name" db:"file_name"`
	SourceType string   `json:"source_type" db:"source_type"`
	Status     string   `json:"status" db:"status"`
	Processed  int      `json:"processed" db:"processed"`
	Inserted   int      `json:"inserted" db:"inserted"`
	Updated    int      `json:"updated" db:"updated_rows"`
	Skipped    int      `json:"skipped" db:"skipped"`
	Errors     []string `json:"errors" db:"errors"`
	Warnings   []string `json:"warnings" db:"warnings"`
	Created    int64    `json:"created" db:"created"`
	UpdatedAt  int64    `json:"updated_at" db:"updated"`
}

// Operator is a human user of the reporting/admin surface.
type Operator struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
	Updated      int64  `json:"updated" db:"updated"`
}
