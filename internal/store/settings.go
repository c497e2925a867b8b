// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const getSiteSettings = `
SELECT id, area_title, area_description, slider_images, updated_at
FROM site_settings WHERE id = 1
`

// GetSiteSettings fetches the singleton settings row. Returns sql.ErrNoRows
// when it has never been written.
func (q *Queries) GetSiteSettings(ctx context.Context) (SiteSetting, error) {
	row := q.db.QueryRowContext(ctx, getSiteSettings)
	var s SiteSetting
	err := row.Scan(&s.ID, &s.AreaTitle, &s.AreaDescription, &s.SliderImages, &s.UpdatedAt)
	return s, err
}

const upsertSiteSettings = `
INSERT INTO site_settings (id, area_title, area_description, slider_images, updated_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    area_title = excluded.area_title,
    area_description = excluded.area_description,
    slider_images = excluded.slider_images,
    updated_at = excluded.updated_at
RETURNING id, area_title, area_description, slider_images, updated_at
`

// UpsertSiteSettingsParams holds the fields for UpsertSiteSettings.
type UpsertSiteSettingsParams struct {
	AreaTitle       string
	AreaDescription string
	SliderImages    string
	UpdatedAt       time.Time
}

// UpsertSiteSettings writes the singleton settings row, creating it on first use.
func (q *Queries) UpsertSiteSettings(ctx context.Context, arg UpsertSiteSettingsParams) (SiteSetting, error) {
	row := q.db.QueryRowContext(ctx, upsertSiteSettings,
		arg.AreaTitle, arg.AreaDescription, arg.SliderImages, arg.UpdatedAt)
	var s SiteSetting
	err := row.Scan(&s.ID, &s.AreaTitle, &s.AreaDescription, &s.SliderImages, &s.UpdatedAt)
	return s, err
}
