package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/models"
	"squad-backend/internal/store"
)

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.store.ListPlayers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPlayer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type CreatePlayerRequest struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Position string              `json:"position,omitempty"`
	Status   models.PlayerStatus `json:"status,omitempty"`
	Password string              `json:"password,omitempty"`
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.store.CreatePlayer(r.Context(), &models.Player{
		Name: req.Name, Email: req.Email, Position: req.Position, Status: req.Status,
	}, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdatePlayerRequest changes only the fields present in the body.
type UpdatePlayerRequest struct {
	Name     *string              `json:"name,omitempty"`
	Email    *string              `json:"email,omitempty"`
	Position *string              `json:"position,omitempty"`
	Status   *models.PlayerStatus `json:"status,omitempty"`
	Password *string              `json:"password,omitempty"`
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlayerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.store.UpdatePlayer(r.Context(), chi.URLParam(r, "id"), store.PlayerUpdate{
		Name: req.Name, Email: req.Email, Position: req.Position, Status: req.Status, Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MatchDayTagRequest sets a tag; null or "" clears it.
type MatchDayTagRequest struct {
	PlayerIDs   []string `json:"playerIds,omitempty"`
	MatchDayTag *string  `json:"matchDayTag"`
}

func (h *Handler) SetMatchDayTag(w http.ResponseWriter, r *http.Request) {
	var req MatchDayTagRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.SetMatchDayTag(r.Context(), chi.URLParam(r, "id"), req.MatchDayTag); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetMatchDayTags(w http.ResponseWriter, r *http.Request) {
	var req MatchDayTagRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.store.SetMatchDayTags(r.Context(), req.PlayerIDs, req.MatchDayTag); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.PlayerIDs)})
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	old, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	up, ok := h.storeUpload(w, r, "avatars/"+id)
	if !ok {
		return
	}
	if err := h.store.SetPlayerAvatar(r.Context(), id, &up.info.URL); err != nil {
		h.discard(r, up.info.URL)
		h.fail(w, r, err)
		return
	}
	if old.ImageURL != nil {
		h.discard(r, *old.ImageURL)
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": up.info.URL})
}

func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.SetPlayerAvatar(r.Context(), id, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	if p.ImageURL != nil {
		h.discard(r, *p.ImageURL)
	}
	w.WriteHeader(http.StatusNoContent)
}

// canSeePlayer admits staff, and a player looking at their own record.
func canSeePlayer(p models.Principal, playerID string) bool {
	return isStaff(p) || (p.PlayerID != "" && p.PlayerID == playerID)
}

func (h *Handler) ListPlayerNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := principal(r)
	if !canSeePlayer(p, id) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	notes, err := h.store.ListPlayerNotes(r.Context(), id, !isStaff(p))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type PlayerNoteRequest struct {
	Title             string `json:"title,omitempty"`
	Content           string `json:"content"`
	Type              string `json:"type,omitempty"`
	IsVisibleToPlayer bool   `json:"isVisibleToPlayer"`
	IsPinned          bool   `json:"isPinned"`
}

func (h *Handler) AddPlayerNote(w http.ResponseWriter, r *http.Request) {
	var req PlayerNoteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := principal(r)
	n := &models.PlayerNote{
		PlayerID:          chi.URLParam(r, "id"),
		Title:             req.Title,
		Content:           req.Content,
		Type:              req.Type,
		IsVisibleToPlayer: req.IsVisibleToPlayer,
		IsPinned:          req.IsPinned,
		CreatedBy:         p.UserID,
		Author:            models.NoteAuthor{ID: p.UserID, Name: h.displayName(r, p), Email: p.Email},
	}
	if err := h.store.AddPlayerNote(r.Context(), n); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) DeletePlayerNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePlayerNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPlayerMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !canSeePlayer(principal(r), id) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	files, err := h.store.ListPlayerMedia(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) UploadPlayerMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetPlayer(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	up, ok := h.storeUpload(w, r, "media/"+id)
	if !ok {
		return
	}
	m := &models.MediaFile{
		PlayerID:   id,
		FileName:   up.header.Filename,
		FileURL:    up.info.URL,
		FileType:   up.info.ContentType,
		FileSize:   up.info.Size,
		Tags:       r.MultipartForm.Value["tags"],
		UploadedBy: principal(r).UserID,
	}
	if err := h.store.AddPlayerMedia(r.Context(), m); err != nil {
		h.discard(r, up.info.URL)
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeletePlayerMedia(w http.ResponseWriter, r *http.Request) {
	playerID, mediaID := chi.URLParam(r, "id"), chi.URLParam(r, "mediaId")
	files, err := h.store.ListPlayerMedia(r.Context(), playerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeletePlayerMedia(r.Context(), playerID, mediaID); err != nil {
		h.fail(w, r, err)
		return
	}
	for _, f := range files {
		if f.ID == mediaID {
			h.discard(r, f.FileURL)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// displayName is the principal's account name, falling back to the e-mail.
func (h *Handler) displayName(r *http.Request, p models.Principal) string {
	if acct, err := h.store.GetAccount(r.Context(), p.UserID); err == nil && acct.Name() != "" {
		return acct.Name()
	}
	return p.Email
}
