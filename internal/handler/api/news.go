// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matajihat/matajihat/internal/i18n"
	"github.com/matajihat/matajihat/internal/middleware"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/service"
	"github.com/matajihat/matajihat/internal/store"
)

// newsView is the JSON shape of a news item. List responses leave the
// bodies empty to keep payloads small.
type newsView struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"short_description"`
	BodyMD           string    `json:"body_md,omitempty"`
	BodyHTML         string    `json:"body_html,omitempty"`
	CategorySlug     string    `json:"category_slug"`
	ImageURL         string    `json:"image_url,omitempty"`
	AuthorID         int64     `json:"author_id"`
	AuthorName       string    `json:"author_name"`
	Status           string    `json:"status"`
	IsBreaking       bool      `json:"is_breaking"`
	Tags             []string  `json:"tags"`
	Views            int64     `json:"views"`
	Version          int64     `json:"version"`
	PublishedAt      time.Time `json:"published_at"`
}

func toNewsView(n store.News, withBody bool) newsView {
	v := newsView{
		ID:               n.ID,
		Title:            n.Title,
		ShortDescription: n.ShortDescription,
		CategorySlug:     n.CategorySlug,
		ImageURL:         n.ImageURL,
		AuthorID:         n.AuthorID,
		AuthorName:       n.AuthorName,
		Status:           n.Status,
		IsBreaking:       n.IsBreaking,
		Tags:             service.DecodeTags(n.Tags),
		Views:            n.Views,
		Version:          n.Version,
		PublishedAt:      n.PublishedAt,
	}
	if withBody {
		v.BodyMD = n.BodyMD
		v.BodyHTML = n.BodyHTML
	}
	return v
}

func toNewsList(items []store.News) []newsView {
	views := make([]newsView, 0, len(items))
	for _, item := range items {
		views = append(views, toNewsView(item, false))
	}
	return views
}

// newsRequest carries the author-editable fields.
type newsRequest struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"short_description"`
	Body             string   `json:"body"`
	CategorySlug     string   `json:"category_slug"`
	ImageURL         string   `json:"image_url"`
	Tags             []string `json:"tags"`
	IsBreaking       bool     `json:"is_breaking"`
}

func (req newsRequest) toInput() service.SubmitNewsInput {
	return service.SubmitNewsInput{
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Body:             req.Body,
		CategorySlug:     req.CategorySlug,
		ImageURL:         req.ImageURL,
		Tags:             req.Tags,
		IsBreaking:       req.IsBreaking,
	}
}

// ListNews serves the public feed. Query parameters narrow it down:
// category lists a resolved category and its children, breaking=1 lists the
// ticker items, mine=1 lists the caller's own submissions in every status.
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch {
	case r.URL.Query().Get("mine") == "1":
		user := actor(r)
		if user == nil {
			WriteError(w, r, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		items, err := h.news.ListMine(ctx, user)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, toNewsList(items), &Meta{Total: len(items)})

	case r.URL.Query().Get("breaking") == "1":
		items, err := h.news.ListBreaking(ctx)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, toNewsList(items), &Meta{Total: len(items)})

	case r.URL.Query().Get("category") != "":
		res, err := h.categories.Resolve(ctx, r.URL.Query().Get("category"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		items, err := h.news.ListByResolution(ctx, res)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, map[string]any{
			"category": res,
			"items":    toNewsList(items),
		}, &Meta{Total: len(items)})

	default:
		items, err := h.news.ListApproved(ctx)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, toNewsList(items), &Meta{Total: len(items)})
	}
}

// GetNews serves a single item and counts the view on approved ones.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	item, err := h.news.Get(r.Context(), actor(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toNewsView(item, true), nil)
}

// CreateNews accepts a submission from any signed-in user.
func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.news.Submit(r.Context(), actor(r), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, Response{
		Data: map[string]any{
			"news":    toNewsView(item, true),
			"message": i18n.T(middleware.Lang(r), "news.pending_notice"),
		},
	})
}

// UpdateNews edits an item. Authors drop back to pending; moderators keep
// the current status.
func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req newsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.news.Edit(r.Context(), actor(r), id, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toNewsView(item, true), nil)
}

// DeleteNews removes an item for good. Admin only.
func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	if err := h.news.Delete(r.Context(), actor(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}

// newsStatusRequest carries a moderation decision with the version the
// moderator saw.
type newsStatusRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// SetNewsStatus applies a moderation decision. Moderators only.
func (h *Handler) SetNewsStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req newsStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.news.SetStatus(r.Context(), actor(r), id, req.Status, req.Version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toNewsView(item, true), nil)
}

// newsBreakingRequest toggles the ticker flag.
type newsBreakingRequest struct {
	Breaking bool `json:"breaking"`
}

// SetNewsBreaking flags or unflags an item for the breaking ticker.
func (h *Handler) SetNewsBreaking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req newsBreakingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.news.SetBreaking(r.Context(), actor(r), id, req.Breaking)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toNewsView(item, true), nil)
}

// AdminListNews serves the moderation views: every item by default, one
// status with ?status=pending.
func (h *Handler) AdminListNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := actor(r)

	var (
		items []store.News
		err   error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		items, err = h.news.ListAll(ctx, user)
	case model.NewsStatusPending:
		items, err = h.news.ListPending(ctx, user)
	case model.NewsStatusApproved, model.NewsStatusRejected:
		if items, err = h.news.ListAll(ctx, user); err == nil {
			filtered := items[:0]
			for _, item := range items {
				if item.Status == status {
					filtered = append(filtered, item)
				}
			}
			items = filtered
		}
	default:
		WriteError(w, r, http.StatusBadRequest, "bad_request", nil)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, toNewsList(items), &Meta{Total: len(items)})
}

// AdminStats serves the dashboard counters.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.news.Stats(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, stats, nil)
}
