// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"
)

const newsColumns = `id, title, short_description, body_md, body_html, category_slug, image_url,
author_id, author_name, status, is_breaking, tags, views, version, published_at, created_at, updated_at`

func scanNews(row interface{ Scan(...any) error }) (News, error) {
	var n News
	err := row.Scan(&n.ID, &n.Title, &n.ShortDescription, &n.BodyMD, &n.BodyHTML, &n.CategorySlug,
		&n.ImageURL, &n.AuthorID, &n.AuthorName, &n.Status, &n.IsBreaking, &n.Tags, &n.Views,
		&n.Version, &n.PublishedAt, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

const createNews = `
INSERT INTO news (title, short_description, body_md, body_html, category_slug, image_url,
                  author_id, author_name, status, is_breaking, tags, published_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + newsColumns

// CreateNewsParams holds the fields for CreateNews.
type CreateNewsParams struct {
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
	PublishedAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateNews inserts a news item and returns the created row.
func (q *Queries) CreateNews(ctx context.Context, arg CreateNewsParams) (News, error) {
	row := q.db.QueryRowContext(ctx, createNews,
		arg.Title, arg.ShortDescription, arg.BodyMD, arg.BodyHTML, arg.CategorySlug, arg.ImageURL,
		arg.AuthorID, arg.AuthorName, arg.Status, arg.IsBreaking, arg.Tags,
		arg.PublishedAt, arg.CreatedAt, arg.UpdatedAt)
	return scanNews(row)
}

const getNewsByID = `SELECT ` + newsColumns + ` FROM news WHERE id = ?`

// GetNewsByID fetches a news item by primary key.
func (q *Queries) GetNewsByID(ctx context.Context, id int64) (News, error) {
	return scanNews(q.db.QueryRowContext(ctx, getNewsByID, id))
}

// Shared ORDER BY for all listings: newest first, id breaks ties so the
// order is stable across identical timestamps.
const newsOrder = ` ORDER BY published_at DESC, id DESC`

func (q *Queries) listNews(ctx context.Context, query string, args ...any) ([]News, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const listAllNews = `SELECT ` + newsColumns + ` FROM news` + newsOrder

// ListAllNews returns every news item regardless of status.
func (q *Queries) ListAllNews(ctx context.Context) ([]News, error) {
	return q.listNews(ctx, listAllNews)
}

const listNewsByStatus = `SELECT ` + newsColumns + ` FROM news WHERE status = ?` + newsOrder

// ListNewsByStatus returns news items with the given moderation status.
func (q *Queries) ListNewsByStatus(ctx context.Context, status string) ([]News, error) {
	return q.listNews(ctx, listNewsByStatus, status)
}

const listNewsByAuthor = `SELECT ` + newsColumns + ` FROM news WHERE author_id = ?` + newsOrder

// ListNewsByAuthor returns all items submitted by a single author.
func (q *Queries) ListNewsByAuthor(ctx context.Context, authorID int64) ([]News, error) {
	return q.listNews(ctx, listNewsByAuthor, authorID)
}

// ListApprovedNewsByCategorySlugs returns approved items whose category is
// any of the given slugs.
func (q *Queries) ListApprovedNewsByCategorySlugs(ctx context.Context, slugs []string) ([]News, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	query := `SELECT ` + newsColumns + ` FROM news WHERE status = 'approved' AND category_slug IN (` +
		placeholders + `)` + newsOrder
	args := make([]any, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}
	return q.listNews(ctx, query, args...)
}

const listBreakingNews = `
SELECT ` + newsColumns + ` FROM news WHERE status = 'approved' AND is_breaking = 1` + newsOrder

// ListBreakingNews returns approved items flagged for the breaking ticker.
func (q *Queries) ListBreakingNews(ctx context.Context) ([]News, error) {
	return q.listNews(ctx, listBreakingNews)
}

const updateNewsContent = `
UPDATE news
SET title = ?, short_description = ?, body_md = ?, body_html = ?, category_slug = ?,
    image_url = ?, tags = ?, status = ?, version = version + 1, updated_at = ?
WHERE id = ?
RETURNING ` + newsColumns

// UpdateNewsContentParams holds the fields for UpdateNewsContent.
type UpdateNewsContentParams struct {
	Title            string
	ShortDescription string
	BodyMD           string
	BodyHTML         string
	CategorySlug     string
	ImageURL         string
	Tags             string
	Status           string
	UpdatedAt        time.Time
	ID               int64
}

// UpdateNewsContent edits the authored fields of an item and bumps its
// version. Status is set alongside so an author edit can drop an item back
// to pending in the same statement.
func (q *Queries) UpdateNewsContent(ctx context.Context, arg UpdateNewsContentParams) (News, error) {
	row := q.db.QueryRowContext(ctx, updateNewsContent,
		arg.Title, arg.ShortDescription, arg.BodyMD, arg.BodyHTML, arg.CategorySlug,
		arg.ImageURL, arg.Tags, arg.Status, arg.UpdatedAt, arg.ID)
	return scanNews(row)
}

const updateNewsStatus = `
UPDATE news SET status = ?, version = version + 1, updated_at = ?
WHERE id = ? AND version = ?
RETURNING ` + newsColumns

// UpdateNewsStatusParams holds the fields for UpdateNewsStatus.
type UpdateNewsStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        int64
	Version   int64
}

// UpdateNewsStatus performs a compare-and-set status transition. The update
// only applies when the stored version matches; otherwise sql.ErrNoRows is
// returned and the caller decides how to resolve the conflict.
func (q *Queries) UpdateNewsStatus(ctx context.Context, arg UpdateNewsStatusParams) (News, error) {
	row := q.db.QueryRowContext(ctx, updateNewsStatus, arg.Status, arg.UpdatedAt, arg.ID, arg.Version)
	return scanNews(row)
}

const updateNewsBreaking = `
UPDATE news SET is_breaking = ?, version = version + 1, updated_at = ?
WHERE id = ?
RETURNING ` + newsColumns

// UpdateNewsBreakingParams holds the fields for UpdateNewsBreaking.
type UpdateNewsBreakingParams struct {
	IsBreaking bool
	UpdatedAt  time.Time
	ID         int64
}

// UpdateNewsBreaking toggles the breaking flag on an item.
func (q *Queries) UpdateNewsBreaking(ctx context.Context, arg UpdateNewsBreakingParams) (News, error) {
	row := q.db.QueryRowContext(ctx, updateNewsBreaking, arg.IsBreaking, arg.UpdatedAt, arg.ID)
	return scanNews(row)
}

const incrementNewsViews = `UPDATE news SET views = views + 1 WHERE id = ? RETURNING views`

// IncrementNewsViews bumps the view counter and returns the new count.
// The version column is untouched so reads never conflict with edits.
func (q *Queries) IncrementNewsViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := q.db.QueryRowContext(ctx, incrementNewsViews, id).Scan(&views)
	return views, err
}

const deleteNews = `DELETE FROM news WHERE id = ?`

// DeleteNews removes a news item. Returns the number of affected rows.
func (q *Queries) DeleteNews(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteNews, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countNewsByStatus = `SELECT COUNT(*) FROM news WHERE status = ?`

// CountNewsByStatus returns the number of items with the given status.
func (q *Queries) CountNewsByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countNewsByStatus, status).Scan(&n)
	return n, err
}

const countNews = `SELECT COUNT(*) FROM news`

// CountNews returns the total number of news items.
func (q *Queries) CountNews(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countNews).Scan(&n)
	return n, err
}

const sumNewsViews = `SELECT COALESCE(SUM(views), 0) FROM news`

// SumNewsViews returns the total view count across all items.
func (q *Queries) SumNewsViews(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, sumNewsViews).Scan(&n)
	return n, err
}

const countNewsByCategorySlug = `SELECT COUNT(*) FROM news WHERE category_slug = ?`

// CountNewsByCategorySlug returns how many items reference a category slug.
func (q *Queries) CountNewsByCategorySlug(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countNewsByCategorySlug, slug).Scan(&n)
	return n, err
}
