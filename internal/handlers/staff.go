package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/models"
	"squad-backend/internal/store"
)

// Staff responses never carry the password hash.
func redact(s models.Staff) models.Staff {
	s.Password = ""
	return s
}

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.store.ListStaff(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]models.Staff, len(staff))
	for i, s := range staff {
		out[i] = redact(s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetStaff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*s))
}

type CreateStaffRequest struct {
	FirstName   string                   `json:"firstName"`
	LastName    string                   `json:"lastName"`
	Name        string                   `json:"name,omitempty"`
	Email       string                   `json:"email"`
	Password    string                   `json:"password,omitempty"`
	Phone       string                   `json:"phone,omitempty"`
	Position    string                   `json:"position,omitempty"`
	Role        models.Role              `json:"role,omitempty"`
	Permissions *models.StaffPermissions `json:"permissions,omitempty"`
}

func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	perms := models.DefaultStaffPermissions()
	if req.Permissions != nil {
		perms = *req.Permissions
	}
	s := &models.Staff{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Position:         req.Position,
		Role:             req.Role,
		StaffPermissions: perms,
	}
	if err := h.store.CreateStaff(r.Context(), s, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, redact(*s))
}

// UpdateStaffRequest edits a staff member; omitted fields are kept and a
// given permissions object replaces the whole set.
type UpdateStaffRequest struct {
	FirstName   *string                  `json:"firstName,omitempty"`
	LastName    *string                  `json:"lastName,omitempty"`
	Name        *string                  `json:"name,omitempty"`
	Email       *string                  `json:"email,omitempty"`
	Password    *string                  `json:"password,omitempty"`
	Phone       *string                  `json:"phone,omitempty"`
	Position    *string                  `json:"position,omitempty"`
	Role        *models.Role             `json:"role,omitempty"`
	Permissions *models.StaffPermissions `json:"permissions,omitempty"`
}

func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	var req UpdateStaffRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.store.UpdateStaff(r.Context(), chi.URLParam(r, "id"), store.StaffUpdate(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(*s))
}

// Admins manage every staff avatar, other staff only their own.
func canEditStaff(p models.Principal, staffID string) bool {
	return p.IsAdmin() || (p.StaffID != "" && p.StaffID == staffID)
}

func (h *Handler) UploadStaffAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !canEditStaff(principal(r), id) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	old, err := h.store.GetStaff(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	up, ok := h.storeUpload(w, r, "avatars/"+id)
	if !ok {
		return
	}
	if err := h.store.SetStaffAvatar(r.Context(), id, &up.info.URL); err != nil {
		h.discard(r, up.info.URL)
		h.fail(w, r, err)
		return
	}
	if old.ImageURL != nil {
		h.discard(r, *old.ImageURL)
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": up.info.URL})
}

func (h *Handler) DeleteStaffAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !canEditStaff(principal(r), id) {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	s, err := h.store.GetStaff(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.SetStaffAvatar(r.Context(), id, nil); err != nil {
		h.fail(w, r, err)
		return
	}
	if s.ImageURL != nil {
		h.discard(r, *s.ImageURL)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteStaff(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.store.ListTeams(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

type CreateTeamRequest struct {
	Name      string   `json:"name"`
	PlayerIDs []string `json:"playerIds,omitempty"`
	StaffIDs  []string `json:"staffIds,omitempty"`
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t := &models.Team{Name: req.Name, PlayerIDs: req.PlayerIDs, StaffIDs: req.StaffIDs}
	if err := h.store.CreateTeam(r.Context(), t); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
