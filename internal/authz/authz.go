// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authz centralizes every role-based permission and navigation
// decision so handlers never hard-code role comparisons.
package authz

import "github.com/matajihat/matajihat/internal/model"

// Page identifies a navigable surface of the portal.
type Page string

// Portal pages.
const (
	PageHome     Page = "home"
	PageCategory Page = "category"
	PageDetail   Page = "detail"
	PageLogin    Page = "login"
	PageRegister Page = "register"
	PageSubmit   Page = "submit"
	PageProfile  Page = "profile"
	PageAdmin    Page = "admin"
)

// Tab identifies a panel tab inside the admin area.
type Tab string

// Admin panel tabs.
const (
	TabStats      Tab = "stats"
	TabPending    Tab = "pending"
	TabAllNews    Tab = "all-news"
	TabCategories Tab = "categories"
	TabUsers      Tab = "users"
	TabSettings   Tab = "settings"
)

// Viewer describes the requesting principal. A zero Viewer is a guest.
type Viewer struct {
	UserID        int64
	Role          string
	Authenticated bool
}

// Guest returns an unauthenticated viewer.
func Guest() Viewer {
	return Viewer{}
}

// Decision is the outcome of a page resolution. When Allowed is false,
// Redirect names the page the viewer should land on instead.
type Decision struct {
	Allowed  bool
	Redirect Page
}

// ResolvePage decides whether a viewer may visit a page. Guests are sent to
// the login page for authenticated surfaces; the admin area needs at least
// the sub-admin role. The auth forms stay reachable for any session so a
// signed-in user can re-authenticate or register another account.
func ResolvePage(v Viewer, page Page) Decision {
	switch page {
	case PageLogin, PageRegister:
		return Decision{Allowed: true}
	case PageSubmit, PageProfile:
		if !v.Authenticated {
			return Decision{Redirect: PageLogin}
		}
		return Decision{Allowed: true}
	case PageAdmin:
		if !v.Authenticated {
			return Decision{Redirect: PageLogin}
		}
		if !model.IsModerator(v.Role) {
			return Decision{Redirect: PageHome}
		}
		return Decision{Allowed: true}
	default:
		// Home, category and detail pages are public.
		return Decision{Allowed: true}
	}
}

// VisiblePages returns the pages a viewer may visit, in display order.
func VisiblePages(v Viewer) []Page {
	all := []Page{PageHome, PageCategory, PageDetail, PageLogin, PageRegister,
		PageSubmit, PageProfile, PageAdmin}
	var visible []Page
	for _, page := range all {
		if ResolvePage(v, page).Allowed {
			visible = append(visible, page)
		}
	}
	return visible
}

// LandingPage returns where a viewer lands right after signing in.
// Moderators go straight to the admin panel, everyone else to the front page.
func LandingPage(v Viewer) Page {
	if v.Authenticated && model.IsModerator(v.Role) {
		return PageAdmin
	}
	return PageHome
}

// adminOnlyTabs are the panel tabs reserved for full admins. Sub-admins see
// the moderation tabs only.
var adminOnlyTabs = map[Tab]bool{
	TabCategories: true,
	TabUsers:      true,
	TabSettings:   true,
}

// CanAccessTab reports whether a viewer may open an admin panel tab.
func CanAccessTab(v Viewer, tab Tab) bool {
	if !v.Authenticated || !model.IsModerator(v.Role) {
		return false
	}
	if adminOnlyTabs[tab] {
		return v.Role == model.RoleAdmin
	}
	return true
}

// VisibleTabs returns the admin panel tabs a viewer may open, in display order.
func VisibleTabs(v Viewer) []Tab {
	all := []Tab{TabStats, TabPending, TabAllNews, TabCategories, TabUsers, TabSettings}
	var visible []Tab
	for _, tab := range all {
		if CanAccessTab(v, tab) {
			visible = append(visible, tab)
		}
	}
	return visible
}

// CanSubmitNews reports whether a viewer may submit a news item.
func CanSubmitNews(v Viewer) bool {
	return v.Authenticated
}

// CanEditNews reports whether a viewer may edit an item. Authors may edit
// their own submissions, moderators may edit anything.
func CanEditNews(v Viewer, authorID int64) bool {
	if !v.Authenticated {
		return false
	}
	if v.UserID == authorID {
		return true
	}
	return model.IsModerator(v.Role)
}

// CanSetNewsStatus reports whether a viewer may approve or reject items.
func CanSetNewsStatus(v Viewer) bool {
	return v.Authenticated && model.IsModerator(v.Role)
}

// CanToggleBreaking reports whether a viewer may flag items as breaking.
func CanToggleBreaking(v Viewer) bool {
	return v.Authenticated && model.IsModerator(v.Role)
}

// CanDeleteNews reports whether a viewer may delete items. Deletion is
// destructive so it stays with full admins.
func CanDeleteNews(v Viewer) bool {
	return v.Authenticated && v.Role == model.RoleAdmin
}

// CanManageCategories reports whether a viewer may change the category tree.
func CanManageCategories(v Viewer) bool {
	return v.Authenticated && v.Role == model.RoleAdmin
}

// CanManageUsers reports whether a viewer may change user roles or delete accounts.
func CanManageUsers(v Viewer) bool {
	return v.Authenticated && v.Role == model.RoleAdmin
}

// CanEditSettings reports whether a viewer may change the site settings.
func CanEditSettings(v Viewer) bool {
	return v.Authenticated && v.Role == model.RoleAdmin
}

// CanViewEvents reports whether a viewer may read the audit log.
func CanViewEvents(v Viewer) bool {
	return v.Authenticated && v.Role == model.RoleAdmin
}
