package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/garnizeh/worklog/internal/jobs"
	"github.com/garnizeh/worklog/pkg/repository"
)

type KPIHandler struct {
	kpiRepo repository.KPIRepo
	pool    *jobs.WorkerPool
}

func NewKPIHandler(kr repository.KPIRepo, pool *jobs.WorkerPool) *KPIHandler {
	return &KPIHandler{kpiRepo: kr, pool: pool}
}

// dayRange reads from/to query parameters, defaulting to the last 30 days.
func dayRange(r *http.Request) (string, string, bool) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" && to == "" {
		now := time.Now().UTC()
		return now.AddDate(0, 0, -30).Format("2006-01-02"), now.Format("2006-01-02"), true
	}
	for _, v := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return "", "", false
		}
	}
	return from, to, true
}

func (h *KPIHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dayRange(r)
	if !ok {
		http.Error(w, "Invalid from/to, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	kpis, err := h.kpiRepo.ListDailyKPIs(r.Context(), from, to)
	if err != nil {
		logger.Error("list kpis", "err", err)
		http.Error(w, "Error listing KPIs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(kpis)
}

// Recalculate enqueues a KPI recomputation job for the range.
func (h *KPIHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dayRange(r)
	if !ok {
		http.Error(w, "Invalid from/to, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	jobID, err := h.pool.Enqueue(r.Context(), jobs.TypeKPIRecalculate, jobs.RangePayload{From: from, To: to}, 50, 3)
	if err != nil {
		http.Error(w, "Error enqueueing recalculation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"job_id": jobID, "from": from, "to": to})
}
