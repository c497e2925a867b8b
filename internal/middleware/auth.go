// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/session"
	"github.com/matajihat/matajihat/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key the signed-in user is stored under.
const ContextKeyUser ContextKey = "user"

// apiError is the JSON error envelope shared by all middleware responses.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response with a localized message looked
// up from the error code.
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	var apiErr apiError
	apiErr.Error.Code = code
	apiErr.Error.Message = i18n.T(Lang(r), "error."+code)

	_ = json.NewEncoder(w).Encode(apiErr)
}

// Lang returns the response language for a request: the session preference
// when set, otherwise the best Accept-Language match.
func Lang(r *http.Request) string {
	if globalSessionManager != nil {
		if lang := globalSessionManager.GetString(r.Context(), session.KeyLang); lang != "" && i18n.IsSupported(lang) {
			return lang
		}
	}
	return i18n.MatchLanguage(r.Header.Get("Accept-Language"))
}

// globalSessionManager is set by SetSessionManager and used by Lang.
var globalSessionManager *scs.SessionManager

// SetSessionManager sets the session manager used for language lookups.
// Call once during application initialization.
func SetSessionManager(sm *scs.SessionManager) {
	globalSessionManager = sm
}

// RequireAuth creates middleware that rejects unauthenticated requests.
func RequireAuth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetInt64(r.Context(), session.KeyUserID) == 0 {
				WriteAPIError(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoadUser creates middleware that loads the current user into the request
// context. A session pointing at a deleted account is destroyed.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				_ = sm.Destroy(r.Context())
				WriteAPIError(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalLoadUser loads the current user into context when a valid session
// exists, and lets the request through untouched otherwise.
func OptionalLoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// Viewer builds the authorization principal for the request.
func Viewer(r *http.Request) authz.Viewer {
	user := GetUser(r)
	if user == nil {
		return authz.Guest()
	}
	return authz.Viewer{UserID: user.ID, Role: user.Role, Authenticated: true}
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: admin > sub-admin > user.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	minLevel := model.RoleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}

			if model.RoleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
					"remote_addr", r.RemoteAddr,
				)
				WriteAPIError(w, r, http.StatusForbidden, "permission_denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin requires the admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireModerator requires at least the sub-admin role.
func RequireModerator() func(http.Handler) http.Handler {
	return RequireRole(model.RoleSubAdmin)
}
