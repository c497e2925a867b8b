// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matajihat/matajihat/internal/store"
)

// eventView is the JSON shape of an audit entry.
type eventView struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	UserID    *int64         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toEventView(e store.Event) eventView {
	v := eventView{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		id := e.UserID.Int64
		v.UserID = &id
	}
	_ = json.Unmarshal([]byte(e.Metadata), &v.Metadata)
	return v
}

// ListEvents serves the audit trail, newest first. Admin only; the role
// gate sits in the router.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)

	events, err := h.events.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toEventView(e))
	}
	WriteSuccess(w, views, &Meta{Total: len(views)})
}
