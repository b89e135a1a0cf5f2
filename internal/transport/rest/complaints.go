package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"task_tracker/internal/domain"
)

// ListComplaints shows managers every complaint and employees their own.
func (h *Handlers) ListComplaints(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	var (
		complaints []domain.Complaint
		err        error
	)
	if s.IsManager() {
		complaints, err = h.storage.GetComplaints(r.Context())
	} else {
		complaints, err = h.storage.GetComplaintsByEmployee(r.Context(), s.UserID)
	}
	if err != nil {
		respondError(w, r, err, "Failed to fetch complaints")
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

func (h *Handlers) MyComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.storage.GetComplaintsByEmployee(r.Context(), currentSession(r).UserID)
	if err != nil {
		respondError(w, r, err, "Failed to fetch complaints")
		return
	}
	respondWithJSON(w, http.StatusOK, complaints)
}

func (h *Handlers) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	var req createComplaintRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Failed to create complaint")
		return
	}
	complaint, err := h.storage.CreateComplaint(r.Context(), domain.NewComplaint{
		Title:       req.Title,
		Description: req.Description,
	}, currentSession(r).UserID)
	if err != nil {
		respondError(w, r, err, "Failed to create complaint")
		return
	}
	respondWithJSON(w, http.StatusOK, complaint)
}

func (h *Handlers) UpdateComplaint(w http.ResponseWriter, r *http.Request) {
	var req updateComplaintRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err, "Failed to update complaint")
		return
	}
	status := domain.ComplaintStatus(*req.Status)
	complaint, err := h.storage.UpdateComplaint(r.Context(), mux.Vars(r)["id"], domain.ComplaintUpdate{Status: &status})
	if err != nil {
		respondError(w, r, err, "Failed to update complaint")
		return
	}
	if complaint == nil {
		respondError(w, r, domain.NotFound("Complaint not found"), "Failed to update complaint")
		return
	}
	respondWithJSON(w, http.StatusOK, complaint)
}
