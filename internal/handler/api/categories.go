// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListCategories serves the navigation tree.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Tree(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, tree, &Meta{Total: len(tree)})
}

// ResolveCategory maps a slug onto the tree. Unknown slugs return a
// degraded resolution, never 404.
func (h *Handler) ResolveCategory(w http.ResponseWriter, r *http.Request) {
	res, err := h.categories.Resolve(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res, nil)
}

type categoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// CreateCategory adds a category. Admin only.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.categories.Create(r.Context(), actor(r), req.Name, req.ParentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, map[string]any{
		"id":   created.ID,
		"name": created.Name,
		"slug": created.Slug,
	})
}

// RenameCategory changes a category's display name. Admin only.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.categories.Rename(r.Context(), actor(r), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{
		"id":   updated.ID,
		"name": updated.Name,
		"slug": updated.Slug,
	}, nil)
}

// DeleteCategory removes a category and its children. Admin only.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}

	if err := h.categories.Delete(r.Context(), actor(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"deleted": true}, nil)
}
