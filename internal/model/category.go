// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// CategoryNode is a category with its immediate children. The tree is at
// most two levels deep: children never carry children of their own.
type CategoryNode struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Slug     string         `json:"slug"`
	Children []CategoryNode `json:"sub_categories,omitempty"`
}

// CategoryResolution is the result of resolving a requested category slug
// against the tree. When the slug matches nothing, Label carries the slug
// verbatim and RelevantSlugs contains only the requested slug, so the
// listing degrades to empty rather than erroring.
type CategoryResolution struct {
	Label         string        `json:"label"`
	Target        *CategoryNode `json:"target,omitempty"`
	Parent        *CategoryNode `json:"parent,omitempty"`
	RelevantSlugs []string      `json:"relevant_slugs"`
}

// Resolve finds the requested slug in the tree. An exact top-level match wins
// and records no parent; otherwise each top-level category's children are
// searched and a match records both the child and its parent for breadcrumb
// display. Only a top-level target contributes its child slugs to
// RelevantSlugs; a child target lists itself alone, never its siblings.
func Resolve(tree []CategoryNode, slug string) CategoryResolution {
	res := CategoryResolution{
		Label:         slug,
		RelevantSlugs: []string{slug},
	}

	for i := range tree {
		cat := &tree[i]
		if cat.Slug == slug {
			res.Target = cat
			res.Label = cat.Name
			for _, child := range cat.Children {
				res.RelevantSlugs = append(res.RelevantSlugs, child.Slug)
			}
			return res
		}
		for j := range cat.Children {
			if cat.Children[j].Slug == slug {
				res.Target = &cat.Children[j]
				res.Parent = cat
				res.Label = cat.Children[j].Name
				return res
			}
		}
	}

	return res
}
