// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a registered portal account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	AvatarURL    string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// Category is a navigation category. ParentID is null for top-level entries.
type Category struct {
	ID        int64
	Name      string
	Slug      string
	ParentID  sql.NullInt64
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// News is a single news item. Tags holds a JSON-encoded string array and
// Version is bumped on every write for optimistic concurrency control.
type News struct {
	ID               int64
	Title            string
	ShortDescription string
	BodyMD           string
	BodyHTML         string
	CategorySlug     string
	ImageURL         string
	AuthorID         int64
	AuthorName       string
	Status           string
	IsBreaking       bool
	Tags             string
	Views            int64
	Version          int64
	PublishedAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SiteSetting is the singleton portal configuration row.
type SiteSetting struct {
	ID              int64
	AreaTitle       string
	AreaDescription string
	SliderImages    string
	UpdatedAt       time.Time
}

// Event is an audit log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
