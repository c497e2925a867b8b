// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared across the
// application: user roles, news moderation statuses, the category tree and
// the site settings singleton.
package model

// User roles, ordered by increasing privilege.
const (
	RoleUser     = "user"
	RoleSubAdmin = "sub-admin"
	RoleAdmin    = "admin"
)

// ValidRoles contains all roles a stored user may hold. Guests are
// represented by the absence of a user, never by a row.
var ValidRoles = []string{RoleUser, RoleSubAdmin, RoleAdmin}

// IsValidRole reports whether role is one of the stored user roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleLevel returns a numeric level for the role hierarchy. Higher level
// means more privilege. Guests and unknown roles have level 0.
func RoleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleSubAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// IsModerator reports whether the role may approve or reject news items.
func IsModerator(role string) bool {
	return role == RoleAdmin || role == RoleSubAdmin
}
