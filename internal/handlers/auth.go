package handlers

import (
	"errors"
	"net/http"

	"squad-backend/internal/auth"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInactive):
		writeError(w, http.StatusForbidden, err.Error())
	case err != nil:
		h.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// MeResponse is the principal plus the account's display fields.
type MeResponse struct {
	auth.User
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	me := MeResponse{auth.User{
		ID: p.UserID, Email: p.Email, Role: p.Role, IsActive: true,
		PlayerID: p.PlayerID, StaffID: p.StaffID,
	}}
	if p.UserID == auth.AdminUserID {
		me.FirstName, me.LastName, me.Name = "Local", "Admin", "Local Admin"
		writeJSON(w, http.StatusOK, me)
		return
	}
	acct, err := h.store.GetAccount(r.Context(), p.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	me.Email = acct.Email
	me.FirstName, me.LastName, me.Name = acct.FirstName, acct.LastName, acct.Name()
	me.IsActive = acct.IsActive
	writeJSON(w, http.StatusOK, me)
}
