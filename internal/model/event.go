// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels for the audit log.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories for the audit log.
const (
	EventCategoryAuth     = "auth"
	EventCategoryNews     = "news"
	EventCategoryUser     = "user"
	EventCategoryCategory = "category"
	EventCategoryConfig   = "config"
	EventCategoryCache    = "cache"
	EventCategorySystem   = "system"
)
