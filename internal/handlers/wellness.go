package handlers

import (
	"errors"
	"net/http"

	"squad-backend/internal/analytics"
	"squad-backend/internal/models"
)

func (h *Handler) GetWellnessSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.WellnessSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) UpdateWellnessSettings(w http.ResponseWriter, r *http.Request) {
	var s models.WellnessSettings
	if err := readJSON(w, r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.UpdateWellnessSettings(r.Context(), s); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) ListDailyPlayerNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.ListDailyPlayerNotes(r.Context(), dateRange(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type DailyNoteRequest struct {
	Date     string              `json:"date"`
	PlayerID string              `json:"playerId"`
	Status   models.PlayerStatus `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	Notes    string              `json:"notes,omitempty"`
}

func (h *Handler) AddDailyPlayerNote(w http.ResponseWriter, r *http.Request) {
	var req DailyNoteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n := &models.DailyPlayerNote{
		Date:      req.Date,
		PlayerID:  req.PlayerID,
		Status:    req.Status,
		Reason:    req.Reason,
		Notes:     req.Notes,
		CreatedBy: principal(r).UserID,
	}
	if err := h.store.AddDailyPlayerNote(r.Context(), n); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

type GenerateRequest struct {
	Date string `json:"date"`
}

func (h *Handler) GenerateAnalytics(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sum, err := analytics.Generate(r.Context(), h.store, req.Date)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *Handler) ListDailyPlayerAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListDailyPlayerAnalytics(r.Context(), dateRange(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListDailyEventAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListDailyEventAnalytics(r.Context(), dateRange(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
