// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/cache"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/store"
)

const siteSettingsKey = "settings:site"

const maxSliderImages = 10

// SettingsService manages the singleton site configuration.
type SettingsService struct {
	queries *store.Queries
	events  *EventService
	cached  *cache.TypedCache[model.SiteSettings]
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(db *sql.DB, events *EventService, c cache.Cacher) *SettingsService {
	return &SettingsService{
		queries: store.New(db),
		events:  events,
		cached:  cache.NewTypedCache[model.SiteSettings](c, 5*time.Minute),
	}
}

// decodeSettings converts the stored row into the domain value. A malformed
// slider list degrades to empty.
func decodeSettings(row store.SiteSetting) model.SiteSettings {
	var images []string
	if err := json.Unmarshal([]byte(row.SliderImages), &images); err != nil || images == nil {
		images = []string{}
	}
	return model.SiteSettings{
		AreaTitle:       row.AreaTitle,
		AreaDescription: row.AreaDescription,
		SliderImages:    images,
	}
}

// Get returns the current settings, falling back to the launch defaults
// before an admin has saved any.
func (s *SettingsService) Get(ctx context.Context) (model.SiteSettings, error) {
	settings, err := s.cached.GetOrSet(ctx, siteSettingsKey, func() (*model.SiteSettings, error) {
		row, err := s.queries.GetSiteSettings(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				def := model.DefaultSiteSettings()
				return &def, nil
			}
			return nil, fmt.Errorf("get site settings: %w", err)
		}
		decoded := decodeSettings(row)
		return &decoded, nil
	})
	if err != nil {
		return model.SiteSettings{}, err
	}
	return *settings, nil
}

// Update replaces the settings. Administrators only.
func (s *SettingsService) Update(ctx context.Context, actor *store.User, in model.SiteSettings) (model.SiteSettings, error) {
	if !authz.CanEditSettings(viewerFor(actor)) {
		return model.SiteSettings{}, ErrPermissionDenied
	}

	in.AreaTitle = strings.TrimSpace(in.AreaTitle)
	in.AreaDescription = strings.TrimSpace(in.AreaDescription)

	fields := map[string]string{}
	if in.AreaTitle == "" {
		fields["area_title"] = "required"
	}
	if len(in.SliderImages) > maxSliderImages {
		fields["slider_images"] = fmt.Sprintf("at most %d images", maxSliderImages)
	}
	if len(fields) > 0 {
		return model.SiteSettings{}, newValidationError(fields)
	}

	images := make([]string, 0, len(in.SliderImages))
	for _, img := range in.SliderImages {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	in.SliderImages = images

	encoded, err := json.Marshal(in.SliderImages)
	if err != nil {
		return model.SiteSettings{}, fmt.Errorf("encode slider images: %w", err)
	}

	row, err := s.queries.UpsertSiteSettings(ctx, store.UpsertSiteSettingsParams{
		AreaTitle:       in.AreaTitle,
		AreaDescription: in.AreaDescription,
		SliderImages:    string(encoded),
		UpdatedAt:       time.Now(),
	})
	if err != nil {
		return model.SiteSettings{}, fmt.Errorf("save site settings: %w", err)
	}

	_ = s.cached.Delete(ctx, siteSettingsKey)
	s.events.LogConfigEvent(ctx, model.EventLevelWarning, "site settings updated", &actor.ID, nil)
	return decodeSettings(row), nil
}
