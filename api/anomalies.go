package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/worklog/internal/jobs"
	"github.com/garnizeh/worklog/pkg/repository"
)

type AnomaliesHandler struct {
	anomalyRepo repository.AnomalyRepo
	pool        *jobs.WorkerPool
}

func NewAnomaliesHandler(ar repository.AnomalyRepo, pool *jobs.WorkerPool) *AnomaliesHandler {
	return &AnomaliesHandler{anomalyRepo: ar, pool: pool}
}

func (h *AnomaliesHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dayRange(r)
	if !ok {
		http.Error(w, "Invalid from/to, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	onlyUnresolved := r.URL.Query().Get("unresolved") == "1"

	anomalies, err := h.anomalyRepo.ListAnomalies(r.Context(), from, to, onlyUnresolved)
	if err != nil {
		logger.Error("list anomalies", "err", err)
		http.Error(w, "Error listing anomalies", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(anomalies)
}

type resolveRequest struct {
	Note string `json:"note"`
}

// Resolve marks a finding as handled. The actor is the operator email from
// the JWT.
func (h *AnomaliesHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid anomaly id", http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	actor, _ := r.Context().Value(CtxOperatorEmail).(string)
	if err := h.anomalyRepo.ResolveAnomaly(r.Context(), id, req.Note, actor); err != nil {
		logger.Error("resolve anomaly", "id", id, "err", err)
		http.Error(w, "Error resolving anomaly", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"id": id, "resolved": true})
}

// Scan enqueues a validation scan job for the range.
func (h *AnomaliesHandler) Scan(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dayRange(r)
	if !ok {
		http.Error(w, "Invalid from/to, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	jobID, err := h.pool.Enqueue(r.Context(), jobs.TypeValidationScan, jobs.RangePayload{From: from, To: to}, 50, 3)
	if err != nil {
		http.Error(w, "Error enqueueing scan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"job_id": jobID, "from": from, "to": to})
}
