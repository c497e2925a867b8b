// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matajihat/matajihat/internal/service"
)

// ListUsers returns every account. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	WriteSuccess(w, views, &Meta{Total: len(views)})
}

type adminUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// CreateUser provisions an account with any role. Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.AdminCreate(r.Context(), actor(r), service.AdminCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Bio:      req.Bio,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, toUserView(user))
}

// UpdateUser rewrites any field of an account, credentials included when a
// new password is supplied. Admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req adminUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.AdminUpdate(r.Context(), actor(r), id, service.AdminUpdateInput{
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toUserView(updated), nil)
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole promotes or demotes an account. Admin only, never on the
// admin's own account.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.ChangeRole(r.Context(), actor(r), id, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toUserView(updated), nil)
}

// DeleteUser removes an account and its news items. Admin only; deleting
// yourself is rejected.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	if err := h.users.Delete(r.Context(), actor(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}

// Profile returns the caller's own account.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if user == nil {
		WriteError(w, r, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	WriteSuccess(w, toUserView(*user), nil)
}

type profileRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile changes the caller's name, email, bio and avatar.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), actor(r), service.ProfileInput{
		Name:      req.Name,
		Email:     req.Email,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toUserView(updated), nil)
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword sets a new password after verifying the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), actor(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"changed": true}, nil)
}
