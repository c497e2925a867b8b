// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the portal's JSON REST handlers.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/config"
	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/imagehost"
	"github.com/matajihat/matajihat/internal/middleware"
	"github.com/matajihat/matajihat/internal/service"
	"github.com/matajihat/matajihat/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db              *sql.DB
	cfg             *config.Config
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection

	news       *service.NewsService
	categories *service.CategoryService
	users      *service.UserService
	settings   *service.SettingsService
	events     *service.EventService

	processor *imagehost.Processor
	uploader  imagehost.Uploader
}

// NewHandler wires the API handlers against their services.
func NewHandler(db *sql.DB, cfg *config.Config, sm *scs.SessionManager, lp *middleware.LoginProtection, c cache.Cacher) *Handler {
	events := service.NewEventService(db)
	h := &Handler{
		db:              db,
		cfg:             cfg,
		sessionManager:  sm,
		loginProtection: lp,
		news:            service.NewNewsService(db, events),
		categories:      service.NewCategoryService(db, events, c),
		users:           service.NewUserService(db, events),
		settings:        service.NewSettingsService(db, events, c),
		events:          events,
		processor:       imagehost.NewProcessor(),
	}
	if cfg.ImageHostEnabled() {
		h.uploader = imagehost.NewClient(cfg.ImageHostEndpoint, cfg.ImageHostKey, 30*time.Second)
	}
	return h
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the machine code, localized message and optional
// per-field details.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response in the standard envelope.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 response in the standard envelope.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error envelope with a message localized for the
// request language.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code string, details map[string]string) {
	lang := middleware.Lang(r)
	// Field details may carry locale keys; plain strings pass through
	// untouched since T returns an unknown key as-is.
	if len(details) > 0 {
		localized := make(map[string]string, len(details))
		for field, msg := range details {
			localized[field] = i18n.T(lang, msg)
		}
		details = localized
	}
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: i18n.T(lang, "error."+code),
			Details: details,
		},
	})
}

// writeServiceError maps service layer errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := service.AsValidation(err); ok {
		WriteError(w, r, http.StatusUnprocessableEntity, "validation_failed", ve.Fields)
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		WriteError(w, r, http.StatusForbidden, "permission_denied", nil)
	case errors.Is(err, service.ErrConflict):
		WriteError(w, r, http.StatusConflict, "conflict", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, r, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.Is(err, service.ErrEmailTaken):
		WriteError(w, r, http.StatusConflict, "email_taken", nil)
	case errors.Is(err, imagehost.ErrUploadFailed):
		WriteError(w, r, http.StatusBadGateway, "upload_failed", nil)
	default:
		slog.Error("api request failed", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusInternalServerError, "internal", nil)
	}
}

// decodeJSON reads a request body into dst. The body is capped at 1 MiB;
// media uploads go through multipart instead.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", nil)
		return false
	}
	return true
}

// actor returns the signed-in user loaded by the middleware, or nil for
// guests.
func actor(r *http.Request) *store.User {
	return middleware.GetUser(r)
}
