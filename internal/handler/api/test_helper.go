// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/config"
	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/middleware"
	"github.com/matajihat/matajihat/internal/session"
	"github.com/matajihat/matajihat/internal/store"
)

var i18nOnce sync.Once

// newTestHandler builds a Handler against an in-memory database.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	i18nOnce.Do(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := i18n.Init(logger); err != nil {
			t.Fatalf("initializing i18n: %v", err)
		}
	})

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { c.Close() })

	cfg := &config.Config{
		SessionSecret:  strings.Repeat("s", 32),
		Env:            "development",
		UploadMaxBytes: 10 << 20,
	}
	sm := session.New(db, true)
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	return NewHandler(db, cfg, sm, lp, c)
}

func createTestUser(t *testing.T, h *Handler, email, role string) *store.User {
	t.Helper()
	now := time.Now()
	q := store.New(h.db)
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "$argon2id$test",
		Name:         "Test " + role,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return &u
}

func createTestCategory(t *testing.T, h *Handler, name, slug string) store.Category {
	t.Helper()
	now := time.Now()
	q := store.New(h.db)
	c, err := q.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test category: %v", err)
	}
	return c
}

// withUser places a signed-in user on the request the way LoadUser does.
func withUser(r *http.Request, u *store.User) *http.Request {
	if u == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, *u))
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with a JSON body and optional URL
// params.
func newJSONRequest(t *testing.T, method, path, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// decodeEnvelope unmarshals a response envelope data payload into dst.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body: %s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decoding data: %v (body: %s)", err, rec.Body.String())
	}
}

// decodeErrorCode pulls the machine code out of an error response.
func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v (body: %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}
