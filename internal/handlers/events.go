package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/models"
	"squad-backend/internal/notify"
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context(), dateRange(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if err := readJSON(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = ""
	if err := h.store.CreateEvent(r.Context(), &e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notifyParticipants(r.Context(), e, "New event", fmt.Sprintf("%s on %s at %s", e.Title, e.Day(), e.StartTime))
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if err := readJSON(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = chi.URLParam(r, "id")
	if err := h.store.UpdateEvent(r.Context(), &e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notifyParticipants(r.Context(), e, "Event updated", fmt.Sprintf("%s on %s at %s", e.Title, e.Day(), e.StartTime))
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// participantUsers maps event participants to their user ids. Participants
// whose player or staff record is gone are skipped.
func (h *Handler) participantUsers(ctx context.Context, e models.Event) []string {
	var out []string
	for _, p := range e.Participants {
		switch {
		case p.PlayerID != "":
			if pl, err := h.store.GetPlayer(ctx, p.PlayerID); err == nil && pl.AccountID != "" {
				out = append(out, pl.AccountID)
			}
		case p.StaffID != "":
			if s, err := h.store.GetStaff(ctx, p.StaffID); err == nil {
				out = append(out, s.UserID())
			}
		}
	}
	return out
}

func (h *Handler) notifyParticipants(ctx context.Context, e models.Event, title, msg string) {
	if h.notify == nil {
		return
	}
	users := h.participantUsers(ctx, e)
	if len(users) == 0 {
		return
	}
	relType := "event"
	_, err := h.notify.Notify(ctx, notify.Draft{
		UserIDs:     users,
		Title:       title,
		Message:     msg,
		Type:        models.NotificationInfo,
		Category:    models.CategoryEvent,
		RelatedID:   &e.ID,
		RelatedType: &relType,
	})
	if err != nil {
		h.logger.Error("notify event participants", "event_id", e.ID, "err", err)
	}
}
