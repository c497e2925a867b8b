// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/matajihat/matajihat/internal/imagehost"
	"github.com/matajihat/matajihat/internal/model"
)

// UploadImage accepts a multipart image, normalizes it and pushes it to the
// external host, returning the public URL to attach to a news item.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		WriteError(w, r, http.StatusBadGateway, "upload_failed", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxBytes)
	if err := r.ParseMultipartForm(h.cfg.UploadMaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", nil)
			return
		}
		WriteError(w, r, http.StatusBadRequest, "bad_request", nil)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", nil)
		return
	}
	defer file.Close()

	processed, err := h.processor.Process(file)
	if err != nil {
		WriteError(w, r, http.StatusUnprocessableEntity, "validation_failed",
			map[string]string{"image": "unsupported or corrupt image"})
		return
	}

	url, err := h.uploader.Upload(r.Context(), processed)
	if err != nil {
		slog.Error("image upload failed", "error", err)
		writeServiceError(w, r, imagehost.ErrUploadFailed)
		return
	}

	if user := actor(r); user != nil {
		h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryNews,
			"image uploaded", &user.ID, map[string]any{"url": url})
	}
	WriteSuccess(w, map[string]any{"url": url}, nil)
}
