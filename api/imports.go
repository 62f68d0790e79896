package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/worklog/internal/ingest"
	"github.com/garnizeh/worklog/internal/jobs"
	"github.com/garnizeh/worklog/pkg/repository"
)

const maxUploadBytes = 32 << 20 // 32 MiB

type ImportsHandler struct {
	sessionRepo repository.ImportSessionRepo
	pool        *jobs.WorkerPool
	uploadDir   string
}

func NewImportsHandler(sr repository.ImportSessionRepo, pool *jobs.WorkerPool, uploadDir string) *ImportsHandler {
	return &ImportsHandler{sessionRepo: sr, pool: pool, uploadDir: uploadDir}
}

var validSources = map[string]bool{
	ingest.SourceAttendance: true,
	ingest.SourceActivity:   true,
	ingest.SourceCalendar:   true,
	ingest.SourceProject:    true,
	ingest.SourceVehicle:    true,
	ingest.SourceRemote:     true,
}

// Upload accepts a multipart CSV upload, stages it on disk and enqueues an
// import job. The response carries the job id; session status is available
// from the listing endpoints once a worker picks it up.
func (h *ImportsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sourceType := r.FormValue("source_type")
	if !validSources[sourceType] {
		http.Error(w, "Invalid source_type", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		http.Error(w, "Error staging upload", http.StatusInternalServerError)
		return
	}
	staged := filepath.Join(h.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	dst, err := os.Create(staged)
	if err != nil {
		http.Error(w, "Error staging upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		http.Error(w, "Error staging upload", http.StatusInternalServerError)
		return
	}
	dst.Close()

	jobID, err := h.pool.Enqueue(r.Context(), jobs.TypeImportFile, jobs.ImportFilePayload{
		Path:       staged,
		FileName:   header.Filename,
		SourceType: sourceType,
	}, 10, 3)
	if err != nil {
		http.Error(w, "Error enqueueing import", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      jobID,
		"file_name":   header.Filename,
		"source_type": sourceType,
	})
}

func (h *ImportsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	sessions, err := h.sessionRepo.ListImportSessions(r.Context(), limit)
	if err != nil {
		logger.Error("list import sessions", "err", err)
		http.Error(w, "Error listing sessions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

func (h *ImportsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	session, err := h.sessionRepo.GetImportSession(r.Context(), sessionID)
	if err != nil {
		logger.Error("get import session", "err", err)
		http.Error(w, "Error loading session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
