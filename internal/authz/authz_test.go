// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package authz

import (
	"testing"

	"github.com/matajihat/matajihat/internal/model"
)

func viewer(id int64, role string) Viewer {
	return Viewer{UserID: id, Role: role, Authenticated: true}
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name         string
		viewer       Viewer
		page         Page
		wantAllowed  bool
		wantRedirect Page
	}{
		{name: "guest home", viewer: Guest(), page: PageHome, wantAllowed: true},
		{name: "guest category", viewer: Guest(), page: PageCategory, wantAllowed: true},
		{name: "guest detail", viewer: Guest(), page: PageDetail, wantAllowed: true},
		{name: "guest login", viewer: Guest(), page: PageLogin, wantAllowed: true},
		{name: "guest submit redirects to login", viewer: Guest(), page: PageSubmit, wantRedirect: PageLogin},
		{name: "guest profile redirects to login", viewer: Guest(), page: PageProfile, wantRedirect: PageLogin},
		{name: "guest admin redirects to login", viewer: Guest(), page: PageAdmin, wantRedirect: PageLogin},
		{name: "user login stays reachable", viewer: viewer(1, model.RoleUser), page: PageLogin, wantAllowed: true},
		{name: "user register stays reachable", viewer: viewer(1, model.RoleUser), page: PageRegister, wantAllowed: true},
		{name: "user profile", viewer: viewer(1, model.RoleUser), page: PageProfile, wantAllowed: true},
		{name: "user admin redirects home", viewer: viewer(1, model.RoleUser), page: PageAdmin, wantRedirect: PageHome},
		{name: "sub-admin admin", viewer: viewer(1, model.RoleSubAdmin), page: PageAdmin, wantAllowed: true},
		{name: "admin admin", viewer: viewer(1, model.RoleAdmin), page: PageAdmin, wantAllowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePage(tt.viewer, tt.page)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.Redirect != tt.wantRedirect {
				t.Errorf("Redirect = %q, want %q", got.Redirect, tt.wantRedirect)
			}
		})
	}
}

func TestVisiblePages(t *testing.T) {
	contains := func(pages []Page, p Page) bool {
		for _, page := range pages {
			if page == p {
				return true
			}
		}
		return false
	}

	guestPages := VisiblePages(Guest())
	for _, p := range []Page{PageHome, PageLogin, PageRegister} {
		if !contains(guestPages, p) {
			t.Errorf("guest pages missing %q", p)
		}
	}
	if contains(guestPages, PageAdmin) || contains(guestPages, PageProfile) {
		t.Error("guest pages must not include authenticated surfaces")
	}

	userPages := VisiblePages(viewer(1, model.RoleUser))
	for _, p := range []Page{PageLogin, PageRegister, PageSubmit, PageProfile} {
		if !contains(userPages, p) {
			t.Errorf("user pages missing %q", p)
		}
	}
	if contains(userPages, PageAdmin) {
		t.Error("user pages must not include the admin area")
	}

	if !contains(VisiblePages(viewer(2, model.RoleSubAdmin)), PageAdmin) {
		t.Error("sub-admin pages must include the admin area")
	}
}

func TestLandingPage(t *testing.T) {
	tests := []struct {
		name   string
		viewer Viewer
		want   Page
	}{
		{name: "guest", viewer: Guest(), want: PageHome},
		{name: "user", viewer: viewer(1, model.RoleUser), want: PageHome},
		{name: "sub-admin", viewer: viewer(1, model.RoleSubAdmin), want: PageAdmin},
		{name: "admin", viewer: viewer(1, model.RoleAdmin), want: PageAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LandingPage(tt.viewer); got != tt.want {
				t.Errorf("LandingPage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanAccessTab(t *testing.T) {
	admin := viewer(1, model.RoleAdmin)
	subAdmin := viewer(2, model.RoleSubAdmin)
	user := viewer(3, model.RoleUser)

	moderationTabs := []Tab{TabStats, TabPending, TabAllNews}
	adminTabs := []Tab{TabCategories, TabUsers, TabSettings}

	for _, tab := range moderationTabs {
		if !CanAccessTab(admin, tab) || !CanAccessTab(subAdmin, tab) {
			t.Errorf("moderation tab %q should be open to admin and sub-admin", tab)
		}
		if CanAccessTab(user, tab) {
			t.Errorf("tab %q must not be open to regular users", tab)
		}
	}

	for _, tab := range adminTabs {
		if !CanAccessTab(admin, tab) {
			t.Errorf("tab %q should be open to admin", tab)
		}
		if CanAccessTab(subAdmin, tab) {
			t.Errorf("tab %q must not be open to sub-admin", tab)
		}
	}

	if CanAccessTab(Guest(), TabStats) {
		t.Error("guests must not access any admin tab")
	}
}

func TestVisibleTabs(t *testing.T) {
	if got := VisibleTabs(viewer(1, model.RoleAdmin)); len(got) != 6 {
		t.Errorf("admin sees %d tabs, want 6", len(got))
	}
	subTabs := VisibleTabs(viewer(2, model.RoleSubAdmin))
	if len(subTabs) != 3 {
		t.Fatalf("sub-admin sees %d tabs, want 3", len(subTabs))
	}
	for _, tab := range subTabs {
		if adminOnlyTabs[tab] {
			t.Errorf("sub-admin must not see tab %q", tab)
		}
	}
	if got := VisibleTabs(viewer(3, model.RoleUser)); len(got) != 0 {
		t.Errorf("user sees %d tabs, want 0", len(got))
	}
}

func TestCanEditNews(t *testing.T) {
	const authorID = int64(10)

	tests := []struct {
		name   string
		viewer Viewer
		want   bool
	}{
		{name: "guest", viewer: Guest(), want: false},
		{name: "author edits own", viewer: viewer(authorID, model.RoleUser), want: true},
		{name: "other user denied", viewer: viewer(11, model.RoleUser), want: false},
		{name: "sub-admin edits any", viewer: viewer(12, model.RoleSubAdmin), want: true},
		{name: "admin edits any", viewer: viewer(13, model.RoleAdmin), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditNews(tt.viewer, authorID); got != tt.want {
				t.Errorf("CanEditNews = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMutationPredicates(t *testing.T) {
	admin := viewer(1, model.RoleAdmin)
	subAdmin := viewer(2, model.RoleSubAdmin)
	user := viewer(3, model.RoleUser)
	guest := Guest()

	if !CanSubmitNews(user) || CanSubmitNews(guest) {
		t.Error("submission requires authentication, nothing more")
	}

	if !CanSetNewsStatus(admin) || !CanSetNewsStatus(subAdmin) {
		t.Error("moderators must be able to set status")
	}
	if CanSetNewsStatus(user) || CanSetNewsStatus(guest) {
		t.Error("non-moderators must not set status")
	}

	if !CanToggleBreaking(subAdmin) || CanToggleBreaking(user) {
		t.Error("breaking toggle is a moderator action")
	}

	adminOnly := []struct {
		name string
		fn   func(Viewer) bool
	}{
		{"CanDeleteNews", CanDeleteNews},
		{"CanManageCategories", CanManageCategories},
		{"CanManageUsers", CanManageUsers},
		{"CanEditSettings", CanEditSettings},
		{"CanViewEvents", CanViewEvents},
	}
	for _, tc := range adminOnly {
		if !tc.fn(admin) {
			t.Errorf("%s must allow admin", tc.name)
		}
		if tc.fn(subAdmin) || tc.fn(user) || tc.fn(guest) {
			t.Errorf("%s must be admin only", tc.name)
		}
	}
}
