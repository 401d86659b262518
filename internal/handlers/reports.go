package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"squad-backend/internal/auth"
	"squad-backend/internal/models"
	"squad-backend/internal/store"
)

// reportRoutes serves one report tree. Reading is open to whoever reaches
// the route; changes need staff.
func (h *Handler) reportRoutes(r chi.Router, scope models.ReportScope) {
	staff := r.With(auth.RequireStaff)

	r.Get("/folders", h.listFolders(scope))
	staff.Post("/folders", h.createFolder(scope))
	staff.Put("/folders/{id}", h.updateFolder(scope))
	staff.Put("/folders/{id}/move", h.moveFolder(scope))
	staff.Put("/folders/{id}/visibility", h.setFolderVisibility(scope))
	staff.Delete("/folders/{id}", h.deleteFolder(scope))

	r.Get("/", h.listReports(scope))
	staff.Post("/", h.uploadReport(scope))
	staff.Delete("/{id}", h.deleteReport(scope))
}

func (h *Handler) listFolders(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := h.store.ListFolders(r.Context(), scope, r.URL.Query().Get("parentId"), principal(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, folders)
	}
}

type FolderRequest struct {
	Name             string                `json:"name"`
	Description      string                `json:"description,omitempty"`
	ParentID         string                `json:"parentId,omitempty"`
	VisibleToStaff   []models.FolderAccess `json:"visibleToStaff,omitempty"`
	VisibleToPlayers []models.FolderAccess `json:"visibleToPlayers,omitempty"`
}

func (h *Handler) createFolder(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FolderRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		f := &models.ReportFolder{
			Name:             strings.TrimSpace(req.Name),
			Description:      req.Description,
			ParentID:         req.ParentID,
			CreatedBy:        principal(r).UserID,
			VisibleToStaff:   req.VisibleToStaff,
			VisibleToPlayers: req.VisibleToPlayers,
		}
		if err := h.store.CreateFolder(r.Context(), scope, f); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

// UpdateFolderRequest renames a folder or edits its description; omitted
// fields are kept.
type UpdateFolderRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) updateFolder(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateFolderRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		f, err := h.store.UpdateFolder(r.Context(), scope, chi.URLParam(r, "id"), store.FolderUpdate(req))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

type MoveFolderRequest struct {
	ParentID string `json:"parentId"`
}

func (h *Handler) moveFolder(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveFolderRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.store.MoveFolder(r.Context(), scope, chi.URLParam(r, "id"), req.ParentID); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type FolderVisibilityRequest struct {
	VisibleToStaff   []models.FolderAccess `json:"visibleToStaff"`
	VisibleToPlayers []models.FolderAccess `json:"visibleToPlayers"`
}

func (h *Handler) setFolderVisibility(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FolderVisibilityRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := h.store.SetFolderVisibility(r.Context(), scope, chi.URLParam(r, "id"), req.VisibleToStaff, req.VisibleToPlayers)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) deleteFolder(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.DeleteFolder(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) listReports(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := h.store.ListReports(r.Context(), scope, r.URL.Query().Get("folderId"), principal(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, reports)
	}
}

// uploadReport takes a multipart form with the file plus name, description
// and folderId fields.
func (h *Handler) uploadReport(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := h.storeUpload(w, r, "reports/"+string(scope))
		if !ok {
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			name = up.header.Filename
		}
		rep := &models.Report{
			Name:        name,
			Description: r.FormValue("description"),
			FolderID:    r.FormValue("folderId"),
			FileName:    up.header.Filename,
			FileURL:     up.info.URL,
			FileType:    up.info.ContentType,
			FileSize:    up.info.Size,
			CreatedBy:   principal(r).UserID,
		}
		if err := h.store.CreateReport(r.Context(), scope, rep); err != nil {
			h.discard(r, up.info.URL)
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rep)
	}
}

func (h *Handler) deleteReport(scope models.ReportScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.DeleteReport(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
