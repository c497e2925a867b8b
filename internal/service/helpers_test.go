// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/store"
)

// testEnv bundles the services under test against one in-memory database.
type testEnv struct {
	db         *sql.DB
	queries    *store.Queries
	news       *NewsService
	categories *CategoryService
	users      *UserService
	settings   *SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

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

	events := NewEventService(db)
	return &testEnv{
		db:         db,
		queries:    store.New(db),
		news:       NewNewsService(db, events),
		categories: NewCategoryService(db, events, c),
		users:      NewUserService(db, events),
		settings:   NewSettingsService(db, events, c),
	}
}

func (e *testEnv) createUser(t *testing.T, email, role string) *store.User {
	t.Helper()
	now := time.Now()
	u, err := e.queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "$argon2id$test",
		Name:         "Test " + role,
		Role:         role,
		AvatarURL:    "",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return &u
}

func (e *testEnv) createCategory(t *testing.T, name, slug string, parentID *int64) store.Category {
	t.Helper()
	var parent sql.NullInt64
	if parentID != nil {
		parent = sql.NullInt64{Int64: *parentID, Valid: true}
	}
	now := time.Now()
	c, err := e.queries.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name:      name,
		Slug:      slug,
		ParentID:  parent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating test category: %v", err)
	}
	return c
}

func (e *testEnv) submitNews(t *testing.T, author *store.User, title, slug string) store.News {
	t.Helper()
	item, err := e.news.Submit(context.Background(), author, SubmitNewsInput{
		Title:            title,
		ShortDescription: "short",
		Body:             "body text",
		CategorySlug:     slug,
	})
	if err != nil {
		t.Fatalf("submitting test news: %v", err)
	}
	return item
}
