// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/matajihat/matajihat/internal/model"
)

func TestCategoryTreeTwoLevels(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	parent, err := env.categories.Create(ctx, admin, "বাংলাদেশ", nil)
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	child, err := env.categories.Create(ctx, admin, "রাজনীতি", &parent.ID)
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	// A child of a child is rejected.
	if _, err := env.categories.Create(ctx, admin, "উপশাখা", &child.ID); err == nil {
		t.Fatal("Create grandchild succeeded, want validation error")
	} else if _, ok := AsValidation(err); !ok {
		t.Fatalf("Create grandchild: err = %v, want ValidationError", err)
	}

	tree, err := env.categories.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("tree has %d roots, want 1", len(tree))
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].ID != child.ID {
		t.Fatalf("tree children: %+v", tree[0].Children)
	}
}

func TestCategoryCreateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	if _, err := env.categories.Create(context.Background(), sub, "খেলা", nil); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Create as sub-admin: err = %v, want ErrPermissionDenied", err)
	}
}

func TestCategoryDuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	if _, err := env.categories.Create(ctx, admin, "Sports", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.categories.Create(ctx, admin, "Sports", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate Create: err = %v, want ErrConflict", err)
	}
}

func TestCategoryRenameKeepsSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	cat, err := env.categories.Create(ctx, admin, "Sports", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	renamed, err := env.categories.Rename(ctx, admin, cat.ID, "Games")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "Games" {
		t.Errorf("Name = %q", renamed.Name)
	}
	if renamed.Slug != cat.Slug {
		t.Errorf("Slug changed on rename: %q -> %q", cat.Slug, renamed.Slug)
	}
}

func TestCategoryDeleteCascadesAndInvalidates(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	parent, err := env.categories.Create(ctx, admin, "বাংলাদেশ", nil)
	if err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	if _, err := env.categories.Create(ctx, admin, "রাজনীতি", &parent.ID); err != nil {
		t.Fatalf("Create child: %v", err)
	}
	// Prime the cache before deleting.
	if _, err := env.categories.Tree(ctx); err != nil {
		t.Fatal(err)
	}

	if err := env.categories.Delete(ctx, admin, parent.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	tree, err := env.categories.Tree(ctx)
	if err != nil {
		t.Fatalf("Tree after delete: %v", err)
	}
	if len(tree) != 0 {
		t.Fatalf("tree still has %d roots after delete", len(tree))
	}

	if err := env.categories.Delete(ctx, admin, parent.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestResolveUnknownSlugDegrades(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.categories.Resolve(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Target != nil {
		t.Error("unknown slug resolved to a target")
	}
	if res.Label != "ghost" {
		t.Errorf("Label = %q, want slug verbatim", res.Label)
	}
	if len(res.RelevantSlugs) != 1 || res.RelevantSlugs[0] != "ghost" {
		t.Errorf("RelevantSlugs = %v", res.RelevantSlugs)
	}
}
