// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// SiteSettings is the singleton site configuration record: the area banner
// shown on the home page and the ordered slider image URLs. Exactly one
// instance exists; the store applies get-or-create semantics.
type SiteSettings struct {
	AreaTitle       string   `json:"area_title"`
	AreaDescription string   `json:"area_description"`
	SliderImages    []string `json:"slider_images"`
}

// DefaultSiteSettings returns the settings used before an admin has saved
// any, mirroring the portal's launch configuration.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		AreaTitle:       "মাতাজীহাট",
		AreaDescription: "মাতাজীহাট এলাকার সংবাদ ও তথ্য পোর্টাল",
		SliderImages:    []string{},
	}
}
