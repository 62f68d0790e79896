package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/garnizeh/worklog/api"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository/mock"
)

func TestAnomaliesList(t *testing.T) {
	store := mock.NewStore()
	store.Anomalies = []models.Anomaly{
		{ID: 1, EmployeeID: 1, Day: "2026-03-02", Type: "missing_report", Severity: "high"},
		{ID: 2, EmployeeID: 1, Day: "2026-03-03", Type: "low_hours", Severity: "high", Resolved: true},
	}
	h := api.NewAnomaliesHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/anomalies?from=2026-03-01&to=2026-03-05&unresolved=1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []models.Anomaly
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Type != "missing_report" {
		t.Errorf("unresolved filter: %v", out)
	}
}

func TestAnomaliesListRejectsBadRange(t *testing.T) {
	h := api.NewAnomaliesHandler(mock.NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/anomalies?from=yesterday&to=today", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnomaliesResolveRecordsActor(t *testing.T) {
	store := mock.NewStore()
	store.Anomalies = []models.Anomaly{
		{ID: 7, EmployeeID: 1, Day: "2026-03-02", Type: "missing_report", Severity: "high"},
	}
	h := api.NewAnomaliesHandler(store, nil)

	req := httptest.NewRequest(http.MethodPatch, "/v1/anomalies/7/resolve",
		strings.NewReader(`{"note":"talked to the employee"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	req = req.WithContext(context.WithValue(req.Context(), api.CtxOperatorEmail, "admin@example.com"))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	a := store.Anomalies[0]
	if !a.Resolved || a.ResolvedBy != "admin@example.com" || a.ResolutionNote != "talked to the employee" {
		t.Errorf("resolution not recorded: %#v", a)
	}
}

func TestAnomaliesResolveUnknownID(t *testing.T) {
	h := api.NewAnomaliesHandler(mock.NewStore(), nil)

	req := httptest.NewRequest(http.MethodPatch, "/v1/anomalies/99/resolve", strings.NewReader(`{}`))
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestKPIList(t *testing.T) {
	store := mock.NewStore()
	store.KPIs = []models.DailyKPI{
		{ID: 1, EmployeeID: 1, Day: "2026-03-02", ClockHours: 8, BillableHours: 6, EfficiencyRate: 75},
	}
	h := api.NewKPIHandler(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/kpi?from=2026-03-01&to=2026-03-05", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []models.DailyKPI
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].EfficiencyRate != 75 {
		t.Errorf("list: %v", out)
	}
}

func TestKPIListRejectsBadRange(t *testing.T) {
	h := api.NewKPIHandler(mock.NewStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/kpi?from=03/01/2026&to=03/05/2026", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
