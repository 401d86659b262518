package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/models"
	"squad-backend/internal/notify"
)

func (h *Handler) ListChatRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListChatRooms(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

type CreateChatRoomRequest struct {
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	ParticipantIDs []string `json:"participantIds"`
}

func (h *Handler) CreateChatRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRoomRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	room := &models.ChatRoom{Name: req.Name, Type: req.Type, CreatedBy: principal(r).UserID}
	for _, id := range req.ParticipantIDs {
		room.Participants = append(room.Participants, models.ChatParticipant{UserID: id})
	}
	if err := h.store.CreateChatRoom(r.Context(), room); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// room loads a room the caller belongs to. Admins may open any room.
func (h *Handler) room(w http.ResponseWriter, r *http.Request) (*models.ChatRoom, bool) {
	room, err := h.store.GetChatRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	p := principal(r)
	if !p.IsAdmin() && !room.HasParticipant(p.UserID) {
		writeError(w, http.StatusForbidden, "not a participant")
		return nil, false
	}
	return room, true
}

func (h *Handler) GetChatRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room.Messages)
}

// canManageRoom admits room admins and global admins.
func canManageRoom(p models.Principal, room *models.ChatRoom) bool {
	return p.IsAdmin() || room.ManagedBy(p.UserID)
}

func (h *Handler) DeleteChatRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	if !canManageRoom(principal(r), room) {
		writeError(w, http.StatusForbidden, "only room admins can delete a room")
		return
	}
	if err := h.store.DeleteChatRoom(r.Context(), room.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AddParticipantsRequest struct {
	UserIDs []string `json:"userIds"`
}

func (h *Handler) AddChatParticipants(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	if !canManageRoom(principal(r), room) {
		writeError(w, http.StatusForbidden, "only room admins can add members")
		return
	}
	var req AddParticipantsRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	parts, err := h.store.AddChatParticipants(r.Context(), room.ID, req.UserIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

// RemoveChatParticipant lets room admins remove anyone and members leave.
func (h *Handler) RemoveChatParticipant(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")
	p := principal(r)
	if userID != p.UserID && !canManageRoom(p, room) {
		writeError(w, http.StatusForbidden, "only room admins can remove other members")
		return
	}
	if err := h.store.RemoveChatParticipant(r.Context(), room.ID, userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	var req PostMessageRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := principal(r)
	m := &models.ChatMessage{RoomID: room.ID, SenderID: p.UserID, Content: req.Content}
	if err := h.store.PostMessage(r.Context(), m); err != nil {
		h.fail(w, r, err)
		return
	}

	var others []string
	for _, part := range room.Participants {
		if part.IsActive && part.UserID != p.UserID {
			others = append(others, part.UserID)
		}
	}
	if h.notify != nil && len(others) > 0 {
		relType := "chat_room"
		title := "New message"
		if room.Name != "" {
			title += " in " + room.Name
		}
		_, err := h.notify.Notify(r.Context(), notify.Draft{
			UserIDs:     others,
			Title:       title,
			Message:     preview(m.Content, 120),
			Category:    models.CategoryChat,
			Priority:    models.PriorityLow,
			RelatedID:   &room.ID,
			RelatedType: &relType,
		})
		if err != nil {
			h.logger.Error("notify chat participants", "room_id", room.ID, "err", err)
		}
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "messageId")
	p := principal(r)
	for _, m := range room.Messages {
		if m.ID == id && m.SenderID != p.UserID && !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "only the sender can delete a message")
			return
		}
	}
	if err := h.store.DeleteMessage(r.Context(), room.ID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func preview(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
