package repository

import (
	"context"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type EmployeeRepo interface {
	CreateEmployee(ctx context.Context, e *models.Employee) (int64, error)
	GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeactivateEmployee(ctx context.Context, id int64) error
	CreateAlias(ctx context.Context, a *models.EmployeeAlias) (int64, error)
	ListAliases(ctx context.Context) ([]models.EmployeeAlias, error)
	CreateLegacyEmployee(ctx context.Context, l *models.LegacyEmployee) (int64, error)
	GetLegacyByName(ctx context.Context, first, last string) (*models.LegacyEmployee, error)
	GetLegacyByEmployeeID(ctx context.Context, employeeID int64) (*models.LegacyEmployee, error)
}

type ClientRepo interface {
	CreateClient(ctx context.Context, c *models.Client) (int64, error)
	GetClientByName(ctx context.Context, name string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
}

type VehicleRepo interface {
	CreateVehicle(ctx context.Context, v *models.Vehicle) (int64, error)
	GetVehicleByName(ctx context.Context, name string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
}

type ActivityRepo interface {
	InsertActivity(ctx context.Context, a *models.ActivityRecord) (int64, error)
	GetActivityByID(ctx context.Context, id int64) (*models.ActivityRecord, error)
	// GetActivityByHash returns the first non-duplicate record with the hash.
	GetActivityByHash(ctx context.Context, hash string) (*models.ActivityRecord, error)
	// ListActivitiesNear returns non-duplicate records for the employee whose
	// start falls within +/- window of start, ordered by proximity.
	ListActivitiesNear(ctx context.Context, employeeID int64, start time.Time, window time.Duration, limit int) ([]models.ActivityRecord, error)
	// ListActivitiesOverlapping returns non-duplicate records for the employee
	// overlapping the [from, to) interval.
	ListActivitiesOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.ActivityRecord, error)
	MarkActivityDuplicate(ctx context.Context, id, originalID int64, reason string, confidence float64) error
	// MergeActivity updates description and ticket id on the original record.
	MergeActivity(ctx context.Context, id int64, description, ticketID string) error
	// ListCleanupCandidates returns all non-duplicate records ordered by
	// (employee, start, duration, id) so exact groups are adjacent.
	ListCleanupCandidates(ctx context.Context) ([]models.ActivityRecord, error)
}

type AttendanceRepo interface {
	UpsertAttendance(ctx context.Context, a *models.AttendanceRecord) (int64, bool, error)
	ListAttendanceForDay(ctx context.Context, employeeID int64, day string) ([]models.AttendanceRecord, error)
}

type CalendarRepo interface {
	UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) (int64, bool, error)
	ListCalendarEventsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.CalendarEvent, error)
}

type RemoteSessionRepo interface {
	UpsertRemoteSession(ctx context.Context, s *models.RemoteSession) (int64, bool, error)
	ListRemoteSessionsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.RemoteSession, error)
}

type VehicleUsageRepo interface {
	UpsertVehicleUsage(ctx context.Context, u *models.VehicleUsage) (int64, bool, error)
	ListVehicleUsageForDay(ctx context.Context, employeeID int64, day string) ([]models.VehicleUsage, error)
}

type AbsenceRepo interface {
	CreateAbsenceRequest(ctx context.Context, a *models.AbsenceRequest) (int64, error)
	HasApprovedAbsence(ctx context.Context, employeeID int64, day string) (bool, error)
}

type KPIRepo interface {
	UpsertDailyKPI(ctx context.Context, k *models.DailyKPI) error
	GetDailyKPI(ctx context.Context, employeeID int64, day string) (*models.DailyKPI, error)
	ListDailyKPIs(ctx context.Context, from, to string) ([]models.DailyKPI, error)
}

type AnomalyRepo interface {
	UpsertAnomaly(ctx context.Context, a *models.Anomaly) (int64, error)
	ListAnomalies(ctx context.Context, from, to string, onlyUnresolved bool) ([]models.Anomaly, error)
	ResolveAnomaly(ctx context.Context, id int64, note, actor string) error
}

type AssociationRepo interface {
	EnqueueAssociation(ctx context.Context, e *models.AssociationQueueEntry) (int64, error)
	ListPendingAssociations(ctx context.Context) ([]models.AssociationQueueEntry, error)
	ConfirmAssociation(ctx context.Context, id, clientID int64) error
}

type ImportSessionRepo interface {
	CreateImportSession(ctx context.Context, s *models.ImportSession) (int64, error)
	UpdateImportSession(ctx context.Context, s *models.ImportSession) error
	GetImportSession(ctx context.Context, sessionID string) (*models.ImportSession, error)
	ListImportSessions(ctx context.Context, limit int) ([]models.ImportSession, error)
}

type ConfigRepo interface {
	GetConfigValue(ctx context.Context, category, key string) (string, bool, error)
	SetConfigValue(ctx context.Context, category, key, value string) error
}

type OperatorRepo interface {
	CreateOperator(ctx context.Context, o *models.Operator) (int64, error)
	GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error)
}

// Store aggregates every repository plus transaction scoping. WithinTx runs fn
// against a Store bound to a single transaction; fn returning an error rolls
// everything back.
type Store interface {
	EmployeeRepo
	ClientRepo
	ProjectRepo
	VehicleRepo
	ActivityRepo
	AttendanceRepo
	CalendarRepo
	RemoteSessionRepo
	VehicleUsageRepo
	AbsenceRepo
	KPIRepo
	AnomalyRepo
	AssociationRepo
	ImportSessionRepo
	ConfigRepo
	OperatorRepo

	WithinTx(ctx context.Context, fn func(Store) error) error
}
