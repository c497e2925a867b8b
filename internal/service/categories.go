// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/store"
	"github.com/matajihat/matajihat/internal/util"
)

const categoryTreeKey = "categories:tree"

// CategoryService manages the two-level navigation tree.
type CategoryService struct {
	queries *store.Queries
	events  *EventService
	tree    *cache.TypedCache[[]model.CategoryNode]
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(db *sql.DB, events *EventService, c cache.Cacher) *CategoryService {
	return &CategoryService{
		queries: store.New(db),
		events:  events,
		tree:    cache.NewTypedCache[[]model.CategoryNode](c, 5*time.Minute),
	}
}

// buildTree assembles flat rows into the two-level tree. Rows arrive
// ordered parents first, then by position, so children always find their
// parent already placed.
func buildTree(rows []store.Category) []model.CategoryNode {
	tree := make([]model.CategoryNode, 0, len(rows))
	index := make(map[int64]int, len(rows))

	for _, row := range rows {
		if !row.ParentID.Valid {
			index[row.ID] = len(tree)
			tree = append(tree, model.CategoryNode{
				ID:   row.ID,
				Name: row.Name,
				Slug: row.Slug,
			})
		}
	}
	for _, row := range rows {
		if row.ParentID.Valid {
			i, ok := index[row.ParentID.Int64]
			if !ok {
				continue
			}
			tree[i].Children = append(tree[i].Children, model.CategoryNode{
				ID:   row.ID,
				Name: row.Name,
				Slug: row.Slug,
			})
		}
	}
	return tree
}

// Tree returns the navigation tree, cached for a short period.
func (s *CategoryService) Tree(ctx context.Context) ([]model.CategoryNode, error) {
	tree, err := s.tree.GetOrSet(ctx, categoryTreeKey, func() (*[]model.CategoryNode, error) {
		rows, err := s.queries.ListCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		t := buildTree(rows)
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return *tree, nil
}

// Resolve maps a requested slug onto the tree. Unknown slugs never error;
// they resolve to themselves with an empty listing so stale links degrade
// gracefully.
func (s *CategoryService) Resolve(ctx context.Context, slug string) (model.CategoryResolution, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return model.CategoryResolution{}, err
	}
	return model.Resolve(tree, slug), nil
}

// invalidate drops the cached tree after a mutation.
func (s *CategoryService) invalidate(ctx context.Context) {
	_ = s.tree.Delete(ctx, categoryTreeKey)
}

// Create adds a category. Administrators only. ParentID nil creates a
// top-level entry; otherwise the parent must itself be top-level, keeping
// the tree at two levels.
func (s *CategoryService) Create(ctx context.Context, actor *store.User, name string, parentID *int64) (store.Category, error) {
	if !authz.CanManageCategories(viewerFor(actor)) {
		return store.Category{}, ErrPermissionDenied
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return store.Category{}, newValidationError(map[string]string{"name": "required"})
	}
	slug := util.Slugify(name)
	if slug == "" {
		return store.Category{}, newValidationError(map[string]string{"name": "cannot derive slug"})
	}
	if _, err := s.queries.GetCategoryBySlug(ctx, slug); err == nil {
		return store.Category{}, ErrConflict
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.Category{}, err
	}

	var parent sql.NullInt64
	if parentID != nil {
		p, err := s.queries.GetCategoryByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.Category{}, newValidationError(map[string]string{"parent_id": "unknown parent"})
			}
			return store.Category{}, err
		}
		if p.ParentID.Valid {
			return store.Category{}, newValidationError(map[string]string{"parent_id": "nesting is limited to one level"})
		}
		parent = sql.NullInt64{Int64: p.ID, Valid: true}
	}

	now := time.Now()
	created, err := s.queries.CreateCategory(ctx, store.CreateCategoryParams{
		Name:      name,
		Slug:      slug,
		ParentID:  parent,
		Position:  0,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.invalidate(ctx)
	s.events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryCategory,
		"category created", &actor.ID, map[string]any{"category_id": created.ID, "slug": created.Slug})
	return created, nil
}

// Rename changes a category's display name. The slug stays stable so
// existing news items keep pointing at the category.
func (s *CategoryService) Rename(ctx context.Context, actor *store.User, id int64, name string) (store.Category, error) {
	if !authz.CanManageCategories(viewerFor(actor)) {
		return store.Category{}, ErrPermissionDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Category{}, newValidationError(map[string]string{"name": "required"})
	}

	current, err := s.queries.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Category{}, ErrNotFound
		}
		return store.Category{}, err
	}

	updated, err := s.queries.UpdateCategory(ctx, store.UpdateCategoryParams{
		Name:      name,
		Slug:      current.Slug,
		Position:  current.Position,
		UpdatedAt: time.Now(),
		ID:        current.ID,
	})
	if err != nil {
		return store.Category{}, fmt.Errorf("rename category: %w", err)
	}

	s.invalidate(ctx)
	s.events.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryCategory,
		"category renamed", &actor.ID, map[string]any{"category_id": id, "name": name})
	return updated, nil
}

// Delete removes a category and, through the foreign key cascade, its
// children. News items keep their stored slug; listings for it degrade to
// empty via slug resolution rather than breaking.
func (s *CategoryService) Delete(ctx context.Context, actor *store.User, id int64) error {
	if !authz.CanManageCategories(viewerFor(actor)) {
		return ErrPermissionDenied
	}
	affected, err := s.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx)
	s.events.LogEvent(ctx, model.EventLevelWarning, model.EventCategoryCategory,
		"category deleted", &actor.ID, map[string]any{"category_id": id})
	return nil
}
