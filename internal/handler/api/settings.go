// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/matajihat/matajihat/internal/model"
)

// GetSettings serves the site banner and slider configuration. Public.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, settings, nil)
}

// UpdateSettings replaces the site configuration. Admin only.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req model.SiteSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.settings.Update(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, saved, nil)
}
