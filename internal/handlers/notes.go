package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/models"
)

func (h *Handler) ListCoachNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.ListCoachNotes(r.Context(), principal(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type CoachNoteRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	IsPinned       bool     `json:"isPinned"`
	VisibleToStaff []string `json:"visibleToStaff,omitempty"`
}

func (h *Handler) CreateCoachNote(w http.ResponseWriter, r *http.Request) {
	var req CoachNoteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n := &models.CoachNote{
		Title:    req.Title,
		Content:  req.Content,
		IsPinned: req.IsPinned,
		AuthorID: principal(r).UserID,
	}
	for _, id := range req.VisibleToStaff {
		n.VisibleToStaff = append(n.VisibleToStaff, models.StaffAccess{StaffID: id, CanView: true})
	}
	if err := h.store.CreateCoachNote(r.Context(), n); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) DeleteCoachNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCoachNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
