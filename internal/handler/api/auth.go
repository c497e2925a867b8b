// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/middleware"
	"github.com/matajihat/matajihat/internal/service"
	"github.com/matajihat/matajihat/internal/session"
	"github.com/matajihat/matajihat/internal/store"
)

// userView is the JSON shape of an account. The password hash never leaves
// the server.
type userView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	AvatarURL   string     `json:"avatar_url"`
	Bio         string     `json:"bio"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func toUserView(u store.User) userView {
	v := userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		Bio:       u.Bio,
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		v.LastLoginAt = &t
	}
	return v
}

// signedInPayload is the response to a successful login or registration:
// the account plus where the client should navigate next.
func signedInPayload(user store.User) map[string]any {
	v := authz.Viewer{UserID: user.ID, Role: user.Role, Authenticated: true}
	return map[string]any{
		"user":         toUserView(user),
		"landing_page": authz.LandingPage(v),
		"pages":        authz.VisiblePages(v),
		"tabs":         authz.VisibleTabs(v),
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	WriteCreated(w, signedInPayload(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and starts a session. Repeated failures lock
// the account out with growing backoff.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if locked, _ := h.loginProtection.IsAccountLocked(req.Email); locked {
		WriteError(w, r, http.StatusTooManyRequests, "rate_limited", nil)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.loginProtection.RecordFailedAttempt(req.Email)
		writeServiceError(w, r, err)
		return
	}
	h.loginProtection.RecordSuccessfulLogin(req.Email)

	// A fresh token on privilege change blocks session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)

	WriteSuccess(w, signedInPayload(user), nil)
}

// Logout destroys the session. Safe to call signed out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"signed_out": true}, nil)
}

// Session reports who the caller is and what they may see. Guests get the
// guest navigation rather than an error.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if user == nil {
		v := authz.Guest()
		WriteSuccess(w, map[string]any{
			"authenticated": false,
			"landing_page":  authz.LandingPage(v),
			"pages":         authz.VisiblePages(v),
			"tabs":          authz.VisibleTabs(v),
			"lang":          middleware.Lang(r),
		}, nil)
		return
	}

	v := authz.Viewer{UserID: user.ID, Role: user.Role, Authenticated: true}
	WriteSuccess(w, map[string]any{
		"authenticated": true,
		"user":          toUserView(*user),
		"landing_page":  authz.LandingPage(v),
		"pages":         authz.VisiblePages(v),
		"tabs":          authz.VisibleTabs(v),
		"lang":          middleware.Lang(r),
	}, nil)
}

type langRequest struct {
	Lang string `json:"lang"`
}

// SetLang stores the caller's language preference in the session.
func (h *Handler) SetLang(w http.ResponseWriter, r *http.Request) {
	var req langRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !i18n.IsSupported(req.Lang) {
		WriteError(w, r, http.StatusUnprocessableEntity, "validation_failed",
			map[string]string{"lang": "unsupported language"})
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyLang, req.Lang)
	WriteSuccess(w, map[string]any{"lang": req.Lang}, nil)
}
