// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createCategory = `
INSERT INTO categories (name, slug, parent_id, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, name, slug, parent_id, position, created_at, updated_at
`

// CreateCategoryParams holds the fields for CreateCategory.
type CreateCategoryParams struct {
	Name      string
	Slug      string
	ParentID  sql.NullInt64
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateCategory inserts a category and returns the created row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory,
		arg.Name, arg.Slug, arg.ParentID, arg.Position, arg.CreatedAt, arg.UpdatedAt)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCategoryByID = `
SELECT id, name, slug, parent_id, position, created_at, updated_at
FROM categories WHERE id = ?
`

// GetCategoryByID fetches a category by primary key.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryByID, id)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCategoryBySlug = `
SELECT id, name, slug, parent_id, position, created_at, updated_at
FROM categories WHERE slug = ?
`

// GetCategoryBySlug fetches a category by its URL slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryBySlug, slug)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCategories = `
SELECT id, name, slug, parent_id, position, created_at, updated_at
FROM categories
ORDER BY parent_id IS NOT NULL, position ASC, id ASC
`

// ListCategories returns all categories, parents before children, each group
// in display order.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const updateCategory = `
UPDATE categories SET name = ?, slug = ?, position = ?, updated_at = ? WHERE id = ?
RETURNING id, name, slug, parent_id, position, created_at, updated_at
`

// UpdateCategoryParams holds the fields for UpdateCategory.
type UpdateCategoryParams struct {
	Name      string
	Slug      string
	Position  int64
	UpdatedAt time.Time
	ID        int64
}

// UpdateCategory renames a category. The parent cannot be changed after
// creation, which keeps the tree depth invariant trivial to enforce.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory, arg.Name, arg.Slug, arg.Position, arg.UpdatedAt, arg.ID)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

// DeleteCategory removes a category. Children cascade via the foreign key.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countChildCategories = `SELECT COUNT(*) FROM categories WHERE parent_id = ?`

// CountChildCategories returns the number of direct children of a category.
func (q *Queries) CountChildCategories(ctx context.Context, parentID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countChildCategories, parentID).Scan(&n)
	return n, err
}
