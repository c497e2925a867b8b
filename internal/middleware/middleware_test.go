// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/store"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// withUser injects a user into the request context the way LoadUser does.
func withUser(r *http.Request, user store.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *store.User
		minRole    string
		wantStatus int
	}{
		{name: "no user", user: nil, minRole: model.RoleSubAdmin, wantStatus: http.StatusUnauthorized},
		{name: "user below sub-admin", user: &store.User{ID: 1, Role: model.RoleUser}, minRole: model.RoleSubAdmin, wantStatus: http.StatusForbidden},
		{name: "sub-admin at sub-admin", user: &store.User{ID: 2, Role: model.RoleSubAdmin}, minRole: model.RoleSubAdmin, wantStatus: http.StatusOK},
		{name: "sub-admin below admin", user: &store.User{ID: 2, Role: model.RoleSubAdmin}, minRole: model.RoleAdmin, wantStatus: http.StatusForbidden},
		{name: "admin everywhere", user: &store.User{ID: 3, Role: model.RoleAdmin}, minRole: model.RoleAdmin, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.minRole)(okHandler())
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.user != nil {
				r = withUser(r, *tt.user)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestViewer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if v := Viewer(r); v.Authenticated {
		t.Error("request without user must produce a guest viewer")
	}

	r = withUser(r, store.User{ID: 7, Role: model.RoleSubAdmin})
	v := Viewer(r)
	if !v.Authenticated || v.UserID != 7 || v.Role != model.RoleSubAdmin {
		t.Errorf("viewer = %+v", v)
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler())

	status := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	if status("10.0.0.1:1") != http.StatusOK || status("10.0.0.1:1") != http.StatusOK {
		t.Fatal("burst requests should pass")
	}
	if status("10.0.0.1:1") != http.StatusTooManyRequests {
		t.Error("third request should be limited")
	}
	// Other clients are unaffected.
	if status("10.0.0.2:1") != http.StatusOK {
		t.Error("separate IP should have its own limiter")
	}
}

func TestLoginProtectionLockout(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	const email = "target@example.com"

	for i := 0; i < 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("locked after %d attempts", i+1)
		}
	}
	locked, dur := lp.RecordFailedAttempt(email)
	if !locked {
		t.Fatal("expected lockout on third failure")
	}
	if dur != time.Minute {
		t.Errorf("lock duration = %v, want 1m", dur)
	}

	if isLocked, _ := lp.IsAccountLocked(email); !isLocked {
		t.Error("account should report locked")
	}

	lp.RecordSuccessfulLogin(email)
	// Success clears the counter but not an active lock window in real use;
	// here the entry is removed entirely.
	if isLocked, _ := lp.IsAccountLocked(email); isLocked {
		t.Error("cleared account should not be locked")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(false))(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("HSTS missing in production mode")
	}

	devHandler := SecurityHeaders(DefaultSecurityHeadersConfig(true))(okHandler())
	w = httptest.NewRecorder()
	devHandler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Error("HSTS must be off in development")
	}
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	handler := Timeout(10 * time.Millisecond)(slow)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}

	fast := Timeout(time.Second)(okHandler())
	w = httptest.NewRecorder()
	fast.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestTimeoutDiscardsLateWrites(t *testing.T) {
	handlerDone := make(chan error, 1)
	late := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(20 * time.Millisecond)
		_, err := w.Write([]byte("late handler output"))
		handlerDone <- err
	})

	handler := Timeout(10 * time.Millisecond)(late)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	err := <-handlerDone
	if err != http.ErrHandlerTimeout {
		t.Errorf("late write error = %v, want http.ErrHandlerTimeout", err)
	}
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"timeout"`) {
		t.Errorf("body = %q, want timeout envelope", body)
	}
	if strings.Contains(body, "late handler output") {
		t.Errorf("body = %q, handler bytes leaked after timeout", body)
	}
}
