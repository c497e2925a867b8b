// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/matajihat/matajihat/internal/auth"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/util"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@matajihat.example"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "প্রশাসক"
)

// starterCategories is the initial navigation tree: top-level name mapped to
// its sub-category names.
var starterCategories = []struct {
	Name     string
	Children []string
}{
	{Name: "বাংলাদেশ", Children: []string{"রাজনীতি", "অর্থনীতি"}},
	{Name: "আন্তর্জাতিক", Children: nil},
	{Name: "খেলা", Children: []string{"ক্রিকেট", "ফুটবল"}},
	{Name: "বিনোদন", Children: nil},
	{Name: "প্রযুক্তি", Children: nil},
}

// Seed creates initial data in the database: a default admin account, the
// starter category tree and the site settings row. Safe to run repeatedly.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries); err != nil {
		return err
	}
	if err := seedCategories(ctx, queries); err != nil {
		return err
	}
	return seedSettings(ctx, queries)
}

func seedAdmin(ctx context.Context, queries *Queries) error {
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Name:         DefaultAdminName,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)
	return nil
}

func seedCategories(ctx context.Context, queries *Queries) error {
	existing, err := queries.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	for i, top := range starterCategories {
		parent, err := queries.CreateCategory(ctx, CreateCategoryParams{
			Name:      top.Name,
			Slug:      util.Slugify(top.Name),
			Position:  int64(i),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating category %q: %w", top.Name, err)
		}
		for j, childName := range top.Children {
			_, err := queries.CreateCategory(ctx, CreateCategoryParams{
				Name:      childName,
				Slug:      util.Slugify(childName),
				ParentID:  sql.NullInt64{Int64: parent.ID, Valid: true},
				Position:  int64(j),
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("creating category %q: %w", childName, err)
			}
		}
	}

	slog.Info("seeded starter categories", "count", len(starterCategories))
	return nil
}

func seedSettings(ctx context.Context, queries *Queries) error {
	_, err := queries.GetSiteSettings(ctx)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking site settings: %w", err)
	}

	defaults := model.DefaultSiteSettings()
	_, err = queries.UpsertSiteSettings(ctx, UpsertSiteSettingsParams{
		AreaTitle:       defaults.AreaTitle,
		AreaDescription: defaults.AreaDescription,
		SliderImages:    "[]",
		UpdatedAt:       time.Now(),
	})
	if err != nil {
		return fmt.Errorf("writing default site settings: %w", err)
	}

	slog.Info("seeded default site settings")
	return nil
}
