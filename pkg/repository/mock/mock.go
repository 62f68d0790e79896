// Package mock provides an in-memory Store for unit tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps everything in slices; ids are assigned sequentially. Not safe
// for concurrent use, which tests do not need.
type Store struct {
	Employees    []models.Employee
	Aliases      []models.EmployeeAlias
	Legacy       []models.LegacyEmployee
	Clients      []models.Client
	Projects     []models.Project
	Vehicles     []models.Vehicle
	Activities   []models.ActivityRecord
	Attendance   []models.AttendanceRecord
	Events       []models.CalendarEvent
	Sessions     []models.RemoteSession
	Usages       []models.VehicleUsage
	Absences     []models.AbsenceRequest
	KPIs         []models.DailyKPI
	Anomalies    []models.Anomaly
	Associations []models.AssociationQueueEntry
	Imports      []models.ImportSession
	ConfigVals   map[string]string
	Operators    []models.Operator

	// Err, when set, is returned by every method to exercise failure paths.
	Err error

	nextID int64
}

func NewStore() *Store {
	return &Store{ConfigVals: make(map[string]string)}
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

// WithinTx just runs fn against the same store; tests do not need rollback.
func (m *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(m)
}

// --- employees ---

func (m *Store) CreateEmployee(ctx context.Context, e *models.Employee) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	e.ID = m.id()
	e.Updated = time.Now().Unix()
	m.Employees = append(m.Employees, *e)
	return e.ID, nil
}

func (m *Store) GetEmployeeByID(ctx context.Context, id int64) (*models.Employee, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Employees {
		if m.Employees[i].ID == id {
			e := m.Employees[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *Store) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Employee
	for _, e := range m.Employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Store) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Employees {
		if m.Employees[i].ID == e.ID {
			m.Employees[i] = *e
			return nil
		}
	}
	return nil
}

func (m *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Employees {
		if m.Employees[i].ID == id {
			m.Employees[i].Active = false
		}
	}
	return nil
}

func (m *Store) CreateAlias(ctx context.Context, a *models.EmployeeAlias) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	a.ID = m.id()
	m.Aliases = append(m.Aliases, *a)
	return a.ID, nil
}

func (m *Store) ListAliases(ctx context.Context) ([]models.EmployeeAlias, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.EmployeeAlias(nil), m.Aliases...), nil
}

func (m *Store) CreateLegacyEmployee(ctx context.Context, l *models.LegacyEmployee) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	l.ID = m.id()
	m.Legacy = append(m.Legacy, *l)
	return l.ID, nil
}

func (m *Store) GetLegacyByName(ctx context.Context, first, last string) (*models.LegacyEmployee, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Legacy {
		if strings.EqualFold(m.Legacy[i].FirstName, first) && strings.EqualFold(m.Legacy[i].LastName, last) {
			l := m.Legacy[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (m *Store) GetLegacyByEmployeeID(ctx context.Context, employeeID int64) (*models.LegacyEmployee, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Legacy {
		if m.Legacy[i].EmployeeID == employeeID {
			l := m.Legacy[i]
			return &l, nil
		}
	}
	return nil, nil
}

// --- clients, projects, vehicles ---

func (m *Store) CreateClient(ctx context.Context, c *models.Client) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	c.ID = m.id()
	m.Clients = append(m.Clients, *c)
	return c.ID, nil
}

func (m *Store) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Clients {
		if strings.EqualFold(m.Clients[i].Name, name) {
			c := m.Clients[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Client(nil), m.Clients...), nil
}

func (m *Store) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	for i := range m.Projects {
		if strings.EqualFold(m.Projects[i].Name, p.Name) {
			if p.ClientID != nil {
				m.Projects[i].ClientID = p.ClientID
			}
			return m.Projects[i].ID, nil
		}
	}
	p.ID = m.id()
	m.Projects = append(m.Projects, *p)
	return p.ID, nil
}

func (m *Store) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Projects {
		if strings.EqualFold(m.Projects[i].Name, name) {
			p := m.Projects[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Project(nil), m.Projects...), nil
}

func (m *Store) CreateVehicle(ctx context.Context, v *models.Vehicle) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	v.ID = m.id()
	m.Vehicles = append(m.Vehicles, *v)
	return v.ID, nil
}

func (m *Store) GetVehicleByName(ctx context.Context, name string) (*models.Vehicle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Vehicles {
		if strings.EqualFold(m.Vehicles[i].Name, name) {
			v := m.Vehicles[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (m *Store) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Vehicle(nil), m.Vehicles...), nil
}

// --- activities ---

func (m *Store) InsertActivity(ctx context.Context, a *models.ActivityRecord) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	a.ID = m.id()
	a.Created = time.Now().Unix()
	m.Activities = append(m.Activities, *a)
	return a.ID, nil
}

func (m *Store) GetActivityByID(ctx context.Context, id int64) (*models.ActivityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Activities {
		if m.Activities[i].ID == id {
			a := m.Activities[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Store) GetActivityByHash(ctx context.Context, hash string) (*models.ActivityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Activities {
		if !m.Activities[i].IsDuplicate && m.Activities[i].ContentHash == hash {
			a := m.Activities[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Store) ListActivitiesNear(ctx context.Context, employeeID int64, start time.Time, window time.Duration, limit int) ([]models.ActivityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.ActivityRecord
	for _, a := range m.Activities {
		if a.IsDuplicate || a.EmployeeID != employeeID {
			continue
		}
		gap := a.Start.Sub(start)
		if gap < 0 {
			gap = -gap
		}
		if gap <= window {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		gi := out[i].Start.Sub(start)
		if gi < 0 {
			gi = -gi
		}
		gj := out[j].Start.Sub(start)
		if gj < 0 {
			gj = -gj
		}
		return gi < gj
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) ListActivitiesOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.ActivityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.ActivityRecord
	for _, a := range m.Activities {
		if a.IsDuplicate || a.EmployeeID != employeeID {
			continue
		}
		if a.Start.Before(to) && from.Before(a.End) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Store) MarkActivityDuplicate(ctx context.Context, id, originalID int64, reason string, confidence float64) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Activities {
		if m.Activities[i].ID == id {
			m.Activities[i].IsDuplicate = true
			orig := originalID
			m.Activities[i].OriginalRecordID = &orig
			m.Activities[i].DuplicateReason = reason
			m.Activities[i].Confidence = confidence
		}
	}
	return nil
}

func (m *Store) MergeActivity(ctx context.Context, id int64, description, ticketID string) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Activities {
		if m.Activities[i].ID == id {
			m.Activities[i].Description = description
			m.Activities[i].TicketID = ticketID
		}
	}
	return nil
}

func (m *Store) ListCleanupCandidates(ctx context.Context) ([]models.ActivityRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.ActivityRecord
	for _, a := range m.Activities {
		if !a.IsDuplicate {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].DurationHours != out[j].DurationHours {
			return out[i].DurationHours < out[j].DurationHours
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- attendance, calendar, remote, vehicle usage, absences ---

func (m *Store) UpsertAttendance(ctx context.Context, a *models.AttendanceRecord) (int64, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	for i := range m.Attendance {
		cur := &m.Attendance[i]
		if cur.EmployeeID == a.EmployeeID && cur.Day == a.Day && cur.Start.Equal(a.Start) && cur.End.Equal(a.End) {
			a.ID = cur.ID
			*cur = *a
			return cur.ID, false, nil
		}
	}
	a.ID = m.id()
	m.Attendance = append(m.Attendance, *a)
	return a.ID, true, nil
}

func (m *Store) ListAttendanceForDay(ctx context.Context, employeeID int64, day string) ([]models.AttendanceRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.AttendanceRecord
	for _, a := range m.Attendance {
		if a.EmployeeID == employeeID && a.Day == day {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Store) UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) (int64, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	for i := range m.Events {
		cur := &m.Events[i]
		if cur.EmployeeID == e.EmployeeID && cur.Start.Equal(e.Start) && cur.End.Equal(e.End) && cur.Title == e.Title {
			e.ID = cur.ID
			*cur = *e
			return cur.ID, false, nil
		}
	}
	e.ID = m.id()
	m.Events = append(m.Events, *e)
	return e.ID, true, nil
}

func (m *Store) ListCalendarEventsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.CalendarEvent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.CalendarEvent
	for _, e := range m.Events {
		if e.EmployeeID == employeeID && e.Start.Before(to) && from.Before(e.End) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Store) UpsertRemoteSession(ctx context.Context, s *models.RemoteSession) (int64, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	for i := range m.Sessions {
		cur := &m.Sessions[i]
		if cur.EmployeeID == s.EmployeeID && cur.SessionCode == s.SessionCode && cur.Start.Equal(s.Start) {
			s.ID = cur.ID
			*cur = *s
			return cur.ID, false, nil
		}
	}
	s.ID = m.id()
	m.Sessions = append(m.Sessions, *s)
	return s.ID, true, nil
}

func (m *Store) ListRemoteSessionsOverlapping(ctx context.Context, employeeID int64, from, to time.Time) ([]models.RemoteSession, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.RemoteSession
	for _, s := range m.Sessions {
		if s.EmployeeID == employeeID && s.Start.Before(to) && from.Before(s.End) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Store) UpsertVehicleUsage(ctx context.Context, u *models.VehicleUsage) (int64, bool, error) {
	if m.Err != nil {
		return 0, false, m.Err
	}
	for i := range m.Usages {
		cur := &m.Usages[i]
		if cur.EmployeeID == u.EmployeeID && cur.VehicleID == u.VehicleID && cur.Day == u.Day && cur.Pickup.Equal(u.Pickup) {
			u.ID = cur.ID
			*cur = *u
			return cur.ID, false, nil
		}
	}
	u.ID = m.id()
	m.Usages = append(m.Usages, *u)
	return u.ID, true, nil
}

func (m *Store) ListVehicleUsageForDay(ctx context.Context, employeeID int64, day string) ([]models.VehicleUsage, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.VehicleUsage
	for _, u := range m.Usages {
		if u.EmployeeID == employeeID && u.Day == day {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *Store) CreateAbsenceRequest(ctx context.Context, a *models.AbsenceRequest) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	a.ID = m.id()
	m.Absences = append(m.Absences, *a)
	return a.ID, nil
}

func (m *Store) HasApprovedAbsence(ctx context.Context, employeeID int64, day string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	for _, a := range m.Absences {
		if a.EmployeeID == employeeID && a.Approved && a.StartDay <= day && day <= a.EndDay {
			return true, nil
		}
	}
	return false, nil
}

// --- kpis and anomalies ---

func (m *Store) UpsertDailyKPI(ctx context.Context, k *models.DailyKPI) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.KPIs {
		if m.KPIs[i].EmployeeID == k.EmployeeID && m.KPIs[i].Day == k.Day {
			k.ID = m.KPIs[i].ID
			m.KPIs[i] = *k
			return nil
		}
	}
	k.ID = m.id()
	m.KPIs = append(m.KPIs, *k)
	return nil
}

func (m *Store) GetDailyKPI(ctx context.Context, employeeID int64, day string) (*models.DailyKPI, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.KPIs {
		if m.KPIs[i].EmployeeID == employeeID && m.KPIs[i].Day == day {
			k := m.KPIs[i]
			return &k, nil
		}
	}
	return nil, nil
}

func (m *Store) ListDailyKPIs(ctx context.Context, from, to string) ([]models.DailyKPI, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.DailyKPI
	for _, k := range m.KPIs {
		if k.Day >= from && k.Day <= to {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (m *Store) UpsertAnomaly(ctx context.Context, a *models.Anomaly) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	for i := range m.Anomalies {
		cur := &m.Anomalies[i]
		if cur.EmployeeID == a.EmployeeID && cur.Day == a.Day && cur.Type == a.Type {
			a.ID = cur.ID
			a.Resolved = cur.Resolved
			*cur = *a
			return cur.ID, nil
		}
	}
	a.ID = m.id()
	m.Anomalies = append(m.Anomalies, *a)
	return a.ID, nil
}

func (m *Store) ListAnomalies(ctx context.Context, from, to string, onlyUnresolved bool) ([]models.Anomaly, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Anomaly
	for _, a := range m.Anomalies {
		if a.Day < from || a.Day > to {
			continue
		}
		if onlyUnresolved && a.Resolved {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Store) ResolveAnomaly(ctx context.Context, id int64, note, actor string) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Anomalies {
		if m.Anomalies[i].ID == id {
			now := time.Now().Unix()
			m.Anomalies[i].Resolved = true
			m.Anomalies[i].ResolutionNote = note
			m.Anomalies[i].ResolvedBy = actor
			m.Anomalies[i].ResolvedAt = &now
			return nil
		}
	}
	return fmt.Errorf("anomaly %d not found", id)
}

// --- associations, import sessions, config, operators ---

func (m *Store) EnqueueAssociation(ctx context.Context, e *models.AssociationQueueEntry) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	for i := range m.Associations {
		if m.Associations[i].RawName == e.RawName {
			return m.Associations[i].ID, nil
		}
	}
	e.ID = m.id()
	e.Status = "pending"
	m.Associations = append(m.Associations, *e)
	return e.ID, nil
}

func (m *Store) ListPendingAssociations(ctx context.Context) ([]models.AssociationQueueEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.AssociationQueueEntry
	for _, e := range m.Associations {
		if e.Status == "pending" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Store) ConfirmAssociation(ctx context.Context, id, clientID int64) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Associations {
		if m.Associations[i].ID == id && m.Associations[i].Status == "pending" {
			m.Associations[i].Status = "confirmed"
			m.Associations[i].SuggestedClientID = &clientID
			return nil
		}
	}
	return fmt.Errorf("pending association %d not found", id)
}

func (m *Store) CreateImportSession(ctx context.Context, s *models.ImportSession) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	s.ID = m.id()
	m.Imports = append(m.Imports, *s)
	return s.ID, nil
}

func (m *Store) UpdateImportSession(ctx context.Context, s *models.ImportSession) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Imports {
		if m.Imports[i].SessionID == s.SessionID {
			m.Imports[i] = *s
		}
	}
	return nil
}

func (m *Store) GetImportSession(ctx context.Context, sessionID string) (*models.ImportSession, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Imports {
		if m.Imports[i].SessionID == sessionID {
			s := m.Imports[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *Store) ListImportSessions(ctx context.Context, limit int) ([]models.ImportSession, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := append([]models.ImportSession(nil), m.Imports...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *Store) GetConfigValue(ctx context.Context, category, key string) (string, bool, error) {
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.ConfigVals[category+"/"+key]
	return v, ok, nil
}

func (m *Store) SetConfigValue(ctx context.Context, category, key, value string) error {
	if m.Err != nil {
		return m.Err
	}
	m.ConfigVals[category+"/"+key] = value
	return nil
}

func (m *Store) CreateOperator(ctx context.Context, o *models.Operator) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	o.ID = m.id()
	m.Operators = append(m.Operators, *o)
	return o.ID, nil
}

func (m *Store) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Operators {
		if strings.EqualFold(m.Operators[i].Email, email) {
			o := m.Operators[i]
			return &o, nil
		}
	}
	return nil, nil
}
