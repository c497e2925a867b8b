// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// News moderation statuses.
//
// Every item is created pending. Moderators move it to approved or rejected;
// any content edit by the owning author forces it back to pending. There is
// no terminal state.
const (
	NewsStatusPending  = "pending"
	NewsStatusApproved = "approved"
	NewsStatusRejected = "rejected"
)

// ValidNewsStatuses contains all moderation statuses.
var ValidNewsStatuses = []string{NewsStatusPending, NewsStatusApproved, NewsStatusRejected}

// IsValidNewsStatus reports whether status is a known moderation status.
func IsValidNewsStatus(status string) bool {
	for _, s := range ValidNewsStatuses {
		if s == status {
			return true
		}
	}
	return false
}
