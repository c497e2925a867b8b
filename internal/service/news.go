// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/store"
)

// htmlSanitizer strips unsafe markup from rendered article bodies.
var htmlSanitizer = bluemonday.UGCPolicy()

const (
	maxTitleLength = 200
	maxShortLength = 500
	maxTagCount    = 10
)

// viewerFor converts a store user into an authorization viewer. A nil user
// is a guest.
func viewerFor(u *store.User) authz.Viewer {
	if u == nil {
		return authz.Guest()
	}
	return authz.Viewer{UserID: u.ID, Role: u.Role, Authenticated: true}
}

// NewsService owns the submission and moderation workflow.
type NewsService struct {
	queries *store.Queries
	events  *EventService
}

// NewNewsService creates a new NewsService.
func NewNewsService(db *sql.DB, events *EventService) *NewsService {
	return &NewsService{
		queries: store.New(db),
		events:  events,
	}
}

// SubmitNewsInput carries the author-editable fields of a news item.
type SubmitNewsInput struct {
	Title            string
	ShortDescription string
	Body             string
	CategorySlug     string
	ImageURL         string
	Tags             []string
	IsBreaking       bool
}

// validate normalizes the input and reports per-field problems.
func (in *SubmitNewsInput) validate(ctx context.Context, q *store.Queries) error {
	in.Title = strings.TrimSpace(in.Title)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.Body = strings.TrimSpace(in.Body)
	in.CategorySlug = strings.TrimSpace(in.CategorySlug)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	} else if len(in.Title) > maxTitleLength {
		fields["title"] = "too long"
	}
	if in.ShortDescription == "" {
		fields["short_description"] = "required"
	} else if len(in.ShortDescription) > maxShortLength {
		fields["short_description"] = "too long"
	}
	if in.Body == "" {
		fields["body"] = "required"
	}
	if len(in.Tags) > maxTagCount {
		fields["tags"] = "too many"
	}
	if in.CategorySlug == "" {
		fields["category_slug"] = "required"
	} else if _, err := q.GetCategoryBySlug(ctx, in.CategorySlug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			fields["category_slug"] = "unknown category"
		} else {
			return err
		}
	}
	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

// renderBody converts markdown to sanitized HTML.
func renderBody(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// encodeTags stores tags as a JSON array, dropping empty entries.
func encodeTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeTags parses the stored JSON tag list. Malformed data yields an
// empty list rather than an error.
func DecodeTags(stored string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(stored), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// Submit creates a news item for the given author. The item always starts
// pending regardless of the author's role; even administrators go through
// the moderation queue for their own submissions. The breaking flag is a
// moderator call, so it is dropped from everyone else's input.
func (s *NewsService) Submit(ctx context.Context, actor *store.User, in SubmitNewsInput) (store.News, error) {
	v := viewerFor(actor)
	if !authz.CanSubmitNews(v) {
		return store.News{}, ErrPermissionDenied
	}
	if err := in.validate(ctx, s.queries); err != nil {
		return store.News{}, err
	}

	bodyHTML, err := renderBody(in.Body)
	if err != nil {
		return store.News{}, err
	}

	now := time.Now()
	item, err := s.queries.CreateNews(ctx, store.CreateNewsParams{
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		BodyMD:           in.Body,
		BodyHTML:         bodyHTML,
		CategorySlug:     in.CategorySlug,
		ImageURL:         in.ImageURL,
		AuthorID:         actor.ID,
		AuthorName:       actor.Name,
		Status:           model.NewsStatusPending,
		IsBreaking:       in.IsBreaking && authz.CanToggleBreaking(v),
		Tags:             encodeTags(in.Tags),
		PublishedAt:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return store.News{}, fmt.Errorf("create news: %w", err)
	}

	s.events.LogNewsEvent(ctx, model.EventLevelInfo, "news submitted", &actor.ID,
		map[string]any{"news_id": item.ID, "title": item.Title})
	return item, nil
}

// Edit updates the authored fields of an item. The owning author may edit
// their own item, which drops it back to pending from any prior status;
// moderators may edit anything without resetting the status. An empty
// ImageURL keeps the stored image.
func (s *NewsService) Edit(ctx context.Context, actor *store.User, id int64, in SubmitNewsInput) (store.News, error) {
	item, err := s.queries.GetNewsByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.News{}, ErrNotFound
		}
		return store.News{}, err
	}

	v := viewerFor(actor)
	if !authz.CanEditNews(v, item.AuthorID) {
		return store.News{}, ErrPermissionDenied
	}
	if err := in.validate(ctx, s.queries); err != nil {
		return store.News{}, err
	}

	bodyHTML, err := renderBody(in.Body)
	if err != nil {
		return store.News{}, err
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = item.ImageURL
	}

	status := item.Status
	if !authz.CanSetNewsStatus(v) {
		status = model.NewsStatusPending
	}

	updated, err := s.queries.UpdateNewsContent(ctx, store.UpdateNewsContentParams{
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		BodyMD:           in.Body,
		BodyHTML:         bodyHTML,
		CategorySlug:     in.CategorySlug,
		ImageURL:         imageURL,
		Tags:             encodeTags(in.Tags),
		Status:           status,
		UpdatedAt:        time.Now(),
		ID:               item.ID,
	})
	if err != nil {
		return store.News{}, fmt.Errorf("update news: %w", err)
	}

	s.events.LogNewsEvent(ctx, model.EventLevelInfo, "news edited", &actor.ID,
		map[string]any{"news_id": updated.ID, "status": updated.Status})
	return updated, nil
}

// SetStatus moves an item to the given moderation status using the caller's
// known version for optimistic concurrency. When another write raced in
// first, the call still succeeds if the item already sits at the requested
// status; any other outcome is ErrConflict and the caller must reload.
func (s *NewsService) SetStatus(ctx context.Context, actor *store.User, id int64, status string, version int64) (store.News, error) {
	if !authz.CanSetNewsStatus(viewerFor(actor)) {
		return store.News{}, ErrPermissionDenied
	}
	if !model.IsValidNewsStatus(status) {
		return store.News{}, newValidationError(map[string]string{"status": "unknown status"})
	}

	updated, err := s.queries.UpdateNewsStatus(ctx, store.UpdateNewsStatusParams{
		Status:    status,
		UpdatedAt: time.Now(),
		ID:        id,
		Version:   version,
	})
	if err == nil {
		s.events.LogNewsEvent(ctx, model.EventLevelWarning, "news status changed", &actor.ID,
			map[string]any{"news_id": updated.ID, "status": status})
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return store.News{}, fmt.Errorf("set news status: %w", err)
	}

	current, getErr := s.queries.GetNewsByID(ctx, id)
	if getErr != nil {
		if errors.Is(getErr, sql.ErrNoRows) {
			return store.News{}, ErrNotFound
		}
		return store.News{}, getErr
	}
	if current.Status == status {
		return current, nil
	}
	return store.News{}, ErrConflict
}

// SetBreaking toggles the breaking-news flag. Moderators only.
func (s *NewsService) SetBreaking(ctx context.Context, actor *store.User, id int64, breaking bool) (store.News, error) {
	if !authz.CanToggleBreaking(viewerFor(actor)) {
		return store.News{}, ErrPermissionDenied
	}
	updated, err := s.queries.UpdateNewsBreaking(ctx, store.UpdateNewsBreakingParams{
		IsBreaking: breaking,
		UpdatedAt:  time.Now(),
		ID:         id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.News{}, ErrNotFound
		}
		return store.News{}, err
	}
	s.events.LogNewsEvent(ctx, model.EventLevelInfo, "news breaking flag changed", &actor.ID,
		map[string]any{"news_id": id, "breaking": breaking})
	return updated, nil
}

// Delete removes an item permanently. Administrators only; sub-admins can
// reject but never destroy.
func (s *NewsService) Delete(ctx context.Context, actor *store.User, id int64) error {
	if !authz.CanDeleteNews(viewerFor(actor)) {
		return ErrPermissionDenied
	}
	affected, err := s.queries.DeleteNews(ctx, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.events.LogNewsEvent(ctx, model.EventLevelWarning, "news deleted", &actor.ID,
		map[string]any{"news_id": id})
	return nil
}

// Get returns a single item for display and bumps the view counter on
// approved items. Pending and rejected items are visible only to their
// author and to moderators; everyone else gets ErrNotFound so the item's
// existence is not leaked.
func (s *NewsService) Get(ctx context.Context, actor *store.User, id int64) (store.News, error) {
	item, err := s.queries.GetNewsByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.News{}, ErrNotFound
		}
		return store.News{}, err
	}

	if item.Status != model.NewsStatusApproved {
		v := viewerFor(actor)
		if !(v.Authenticated && (v.UserID == item.AuthorID || model.IsModerator(v.Role))) {
			return store.News{}, ErrNotFound
		}
		return item, nil
	}

	views, err := s.queries.IncrementNewsViews(ctx, id)
	if err == nil {
		item.Views = views
	}
	return item, nil
}

// ListApproved returns all approved items, newest first.
func (s *NewsService) ListApproved(ctx context.Context) ([]store.News, error) {
	return s.queries.ListNewsByStatus(ctx, model.NewsStatusApproved)
}

// ListByResolution returns approved items for a resolved category: the
// target slug plus any child slugs the resolution contributed. An unknown
// slug resolves to itself only and lists nothing.
func (s *NewsService) ListByResolution(ctx context.Context, res model.CategoryResolution) ([]store.News, error) {
	return s.queries.ListApprovedNewsByCategorySlugs(ctx, res.RelevantSlugs)
}

// ListBreaking returns the approved items currently flagged breaking.
func (s *NewsService) ListBreaking(ctx context.Context) ([]store.News, error) {
	return s.queries.ListBreakingNews(ctx)
}

// ListMine returns all of the actor's own items in every status.
func (s *NewsService) ListMine(ctx context.Context, actor *store.User) ([]store.News, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}
	return s.queries.ListNewsByAuthor(ctx, actor.ID)
}

// ListAll returns every item regardless of status. Moderators only.
func (s *NewsService) ListAll(ctx context.Context, actor *store.User) ([]store.News, error) {
	if !authz.CanAccessTab(viewerFor(actor), authz.TabAllNews) {
		return nil, ErrPermissionDenied
	}
	return s.queries.ListAllNews(ctx)
}

// ListPending returns the moderation queue. Moderators only.
func (s *NewsService) ListPending(ctx context.Context, actor *store.User) ([]store.News, error) {
	if !authz.CanAccessTab(viewerFor(actor), authz.TabPending) {
		return nil, ErrPermissionDenied
	}
	return s.queries.ListNewsByStatus(ctx, model.NewsStatusPending)
}

// Stats summarizes the portal for the admin dashboard. User and category
// counts are populated for administrators only; sub-admins see the news
// figures with those fields zeroed.
type Stats struct {
	TotalNews     int64 `json:"total_news"`
	PendingNews   int64 `json:"pending_news"`
	ApprovedNews  int64 `json:"approved_news"`
	RejectedNews  int64 `json:"rejected_news"`
	TotalViews    int64 `json:"total_views"`
	TotalUsers    int64 `json:"total_users,omitempty"`
	CategoryCount int64 `json:"category_count,omitempty"`
}

// Stats gathers dashboard counters for a moderator.
func (s *NewsService) Stats(ctx context.Context, actor *store.User) (Stats, error) {
	v := viewerFor(actor)
	if !authz.CanAccessTab(v, authz.TabStats) {
		return Stats{}, ErrPermissionDenied
	}

	var st Stats
	var err error
	if st.TotalNews, err = s.queries.CountNews(ctx); err != nil {
		return Stats{}, err
	}
	if st.PendingNews, err = s.queries.CountNewsByStatus(ctx, model.NewsStatusPending); err != nil {
		return Stats{}, err
	}
	if st.ApprovedNews, err = s.queries.CountNewsByStatus(ctx, model.NewsStatusApproved); err != nil {
		return Stats{}, err
	}
	if st.RejectedNews, err = s.queries.CountNewsByStatus(ctx, model.NewsStatusRejected); err != nil {
		return Stats{}, err
	}
	if st.TotalViews, err = s.queries.SumNewsViews(ctx); err != nil {
		return Stats{}, err
	}

	if v.Role == model.RoleAdmin {
		if st.TotalUsers, err = s.queries.CountUsers(ctx); err != nil {
			return Stats{}, err
		}
		cats, err := s.queries.ListCategories(ctx)
		if err != nil {
			return Stats{}, err
		}
		st.CategoryCount = int64(len(cats))
	}
	return st, nil
}
