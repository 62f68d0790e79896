package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/worklog/pkg/repository"
)

type AssociationsHandler struct {
	assocRepo repository.AssociationRepo
}

func NewAssociationsHandler(ar repository.AssociationRepo) *AssociationsHandler {
	return &AssociationsHandler{assocRepo: ar}
}

func (h *AssociationsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.assocRepo.ListPendingAssociations(r.Context())
	if err != nil {
		logger.Error("list associations", "err", err)
		http.Error(w, "Error listing associations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

type confirmRequest struct {
	ClientID int64 `json:"client_id"`
}

func (h *AssociationsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid association id", http.StatusBadRequest)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID <= 0 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.assocRepo.ConfirmAssociation(r.Context(), id, req.ClientID); err != nil {
		logger.Error("confirm association", "id", id, "err", err)
		http.Error(w, "Error confirming association", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"id": id, "status": "confirmed"})
}
