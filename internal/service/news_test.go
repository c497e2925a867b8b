// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matajihat/matajihat/internal/model"
)

func TestSubmitStartsPending(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	ctx := context.Background()

	for _, role := range []string{model.RoleUser, model.RoleSubAdmin, model.RoleAdmin} {
		author := env.createUser(t, role+"@example.com", role)
		item, err := env.news.Submit(ctx, author, SubmitNewsInput{
			Title:            "Match report",
			ShortDescription: "short",
			Body:             "body",
			CategorySlug:     "khela",
		})
		if err != nil {
			t.Fatalf("Submit as %s: %v", role, err)
		}
		if item.Status != model.NewsStatusPending {
			t.Errorf("Submit as %s: status = %q, want pending", role, item.Status)
		}
		if item.Version != 1 {
			t.Errorf("Submit as %s: version = %d, want 1", role, item.Version)
		}
		if item.AuthorName != author.Name {
			t.Errorf("Submit as %s: author name not denormalized", role)
		}
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.news.Submit(context.Background(), nil, SubmitNewsInput{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Submit as guest: err = %v, want ErrPermissionDenied", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	ctx := context.Background()

	_, err := env.news.Submit(ctx, author, SubmitNewsInput{
		Title:        "  ",
		CategorySlug: "no-such-category",
	})
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("Submit: err = %v, want ValidationError", err)
	}
	for _, field := range []string{"title", "short_description", "body", "category_slug"} {
		if _, present := ve.Fields[field]; !present {
			t.Errorf("validation missing field %q: %v", field, ve.Fields)
		}
	}
}

func TestSubmitSanitizesBody(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)

	item, err := env.news.Submit(context.Background(), author, SubmitNewsInput{
		Title:            "t",
		ShortDescription: "s",
		Body:             "# Heading\n\n<script>alert(1)</script>ok",
		CategorySlug:     "khela",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if strings.Contains(item.BodyHTML, "<script") {
		t.Errorf("BodyHTML contains script tag: %q", item.BodyHTML)
	}
	if !strings.Contains(item.BodyHTML, "<h1") {
		t.Errorf("BodyHTML missing rendered heading: %q", item.BodyHTML)
	}
}

func TestEditByAuthorForcesPending(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	approved, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusApproved, item.Version)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	edited, err := env.news.Edit(ctx, author, approved.ID, SubmitNewsInput{
		Title:            "t2",
		ShortDescription: "s",
		Body:             "b",
		CategorySlug:     "khela",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Status != model.NewsStatusPending {
		t.Errorf("author edit: status = %q, want pending", edited.Status)
	}
	if edited.Version != approved.Version+1 {
		t.Errorf("author edit: version = %d, want %d", edited.Version, approved.Version+1)
	}
}

func TestEditByModeratorKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	approved, err := env.news.SetStatus(ctx, sub, item.ID, model.NewsStatusApproved, item.Version)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	edited, err := env.news.Edit(ctx, sub, approved.ID, SubmitNewsInput{
		Title:            "fixed headline",
		ShortDescription: "s",
		Body:             "b",
		CategorySlug:     "khela",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Status != model.NewsStatusApproved {
		t.Errorf("moderator edit: status = %q, want approved", edited.Status)
	}
}

func TestEditKeepsImageWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	ctx := context.Background()

	item, err := env.news.Submit(ctx, author, SubmitNewsInput{
		Title:            "t",
		ShortDescription: "s",
		Body:             "b",
		CategorySlug:     "khela",
		ImageURL:         "https://img.example/one.jpg",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	edited, err := env.news.Edit(ctx, author, item.ID, SubmitNewsInput{
		Title:            "t2",
		ShortDescription: "s",
		Body:             "b",
		CategorySlug:     "khela",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.ImageURL != "https://img.example/one.jpg" {
		t.Errorf("ImageURL = %q, want prior image kept", edited.ImageURL)
	}
}

func TestEditByStrangerDenied(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	other := env.createUser(t, "b@example.com", model.RoleUser)

	item := env.submitNews(t, author, "t", "khela")
	_, err := env.news.Edit(context.Background(), other, item.ID, SubmitNewsInput{
		Title: "t", ShortDescription: "s", Body: "b", CategorySlug: "khela",
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Edit by non-author: err = %v, want ErrPermissionDenied", err)
	}
}

func TestSetStatusStaleVersion(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	if _, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusApproved, item.Version); err != nil {
		t.Fatalf("first SetStatus: %v", err)
	}

	// Same target with the stale version: idempotent success.
	again, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusApproved, item.Version)
	if err != nil {
		t.Fatalf("stale approve to same status: %v", err)
	}
	if again.Status != model.NewsStatusApproved {
		t.Errorf("stale approve: status = %q", again.Status)
	}

	// Different target with the stale version: conflict.
	if _, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusRejected, item.Version); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale reject: err = %v, want ErrConflict", err)
	}
}

func TestSetStatusRequiresModerator(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	item := env.submitNews(t, author, "t", "khela")

	_, err := env.news.SetStatus(context.Background(), author, item.ID, model.NewsStatusApproved, item.Version)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("SetStatus by author: err = %v, want ErrPermissionDenied", err)
	}
}

func TestSetStatusUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	_, err := env.news.SetStatus(context.Background(), admin, 9999, model.NewsStatusApproved, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetStatus on missing item: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	if err := env.news.Delete(ctx, sub, item.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Delete by sub-admin: err = %v, want ErrPermissionDenied", err)
	}
	if err := env.news.Delete(ctx, admin, item.ID); err != nil {
		t.Fatalf("Delete by admin: %v", err)
	}
	if err := env.news.Delete(ctx, admin, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: err = %v, want ErrNotFound", err)
	}
}

func TestGetVisibilityAndViews(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	other := env.createUser(t, "b@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")

	// Pending: author and moderators see it, others get not found.
	if _, err := env.news.Get(ctx, author, item.ID); err != nil {
		t.Errorf("Get pending as author: %v", err)
	}
	if _, err := env.news.Get(ctx, sub, item.ID); err != nil {
		t.Errorf("Get pending as sub-admin: %v", err)
	}
	if _, err := env.news.Get(ctx, other, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get pending as stranger: err = %v, want ErrNotFound", err)
	}
	if _, err := env.news.Get(ctx, nil, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get pending as guest: err = %v, want ErrNotFound", err)
	}

	// Approved: public, and every read bumps the counter.
	approved, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusApproved, item.Version)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := env.news.Get(ctx, nil, item.ID)
	if err != nil {
		t.Fatalf("Get approved as guest: %v", err)
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1", got.Views)
	}
	got, err = env.news.Get(ctx, other, item.ID)
	if err != nil {
		t.Fatalf("Get approved again: %v", err)
	}
	if got.Views != 2 {
		t.Errorf("Views = %d, want 2", got.Views)
	}
	if got.Version != approved.Version {
		t.Errorf("view bump changed version: %d -> %d", approved.Version, got.Version)
	}
}

func TestListByResolutionIncludesChildren(t *testing.T) {
	env := newTestEnv(t)
	parent := env.createCategory(t, "বাংলাদেশ", "bangladesh", nil)
	env.createCategory(t, "রাজনীতি", "rajneeti", &parent.ID)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	inParent := env.submitNews(t, author, "national", "bangladesh")
	inChild := env.submitNews(t, author, "politics", "rajneeti")
	elsewhere := env.submitNews(t, author, "sports", "khela")
	for _, item := range []int64{inParent.ID, inChild.ID, elsewhere.ID} {
		n, err := env.queries.GetNewsByID(ctx, item)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := env.news.SetStatus(ctx, admin, n.ID, model.NewsStatusApproved, n.Version); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}

	res, err := env.categories.Resolve(ctx, "bangladesh")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	items, err := env.news.ListByResolution(ctx, res)
	if err != nil {
		t.Fatalf("ListByResolution: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("parent listing: %d items, want 2", len(items))
	}

	// Child slug lists only itself.
	res, err = env.categories.Resolve(ctx, "rajneeti")
	if err != nil {
		t.Fatalf("Resolve child: %v", err)
	}
	items, err = env.news.ListByResolution(ctx, res)
	if err != nil {
		t.Fatalf("ListByResolution child: %v", err)
	}
	if len(items) != 1 || items[0].ID != inChild.ID {
		t.Fatalf("child listing: got %d items", len(items))
	}

	// Unknown slug degrades to an empty listing.
	res, err = env.categories.Resolve(ctx, "ghost")
	if err != nil {
		t.Fatalf("Resolve unknown: %v", err)
	}
	items, err = env.news.ListByResolution(ctx, res)
	if err != nil {
		t.Fatalf("ListByResolution unknown: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("unknown slug listing: %d items, want 0", len(items))
	}
}

func TestListApprovedExcludesOtherStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	a := env.submitNews(t, author, "one", "khela")
	b := env.submitNews(t, author, "two", "khela")
	env.submitNews(t, author, "three", "khela")
	if _, err := env.news.SetStatus(ctx, admin, a.ID, model.NewsStatusApproved, a.Version); err != nil {
		t.Fatal(err)
	}
	if _, err := env.news.SetStatus(ctx, admin, b.ID, model.NewsStatusRejected, b.Version); err != nil {
		t.Fatal(err)
	}

	items, err := env.news.ListApproved(ctx)
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("ListApproved returned %d items", len(items))
	}

	pending, err := env.news.ListPending(ctx, admin)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListPending returned %d items, want 1", len(pending))
	}

	all, err := env.news.ListAll(ctx, admin)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAll returned %d items, want 3", len(all))
	}

	if _, err := env.news.ListAll(ctx, author); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("ListAll as user: err = %v, want ErrPermissionDenied", err)
	}
}

func TestSetBreaking(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	if _, err := env.news.SetBreaking(ctx, author, item.ID, true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("SetBreaking by author: err = %v, want ErrPermissionDenied", err)
	}

	flagged, err := env.news.SetBreaking(ctx, sub, item.ID, true)
	if err != nil {
		t.Fatalf("SetBreaking: %v", err)
	}
	if !flagged.IsBreaking {
		t.Error("IsBreaking not set")
	}

	// Breaking feed only carries approved items.
	breaking, err := env.news.ListBreaking(ctx)
	if err != nil {
		t.Fatalf("ListBreaking: %v", err)
	}
	if len(breaking) != 0 {
		t.Fatalf("pending breaking item leaked into feed")
	}
	if _, err := env.news.SetStatus(ctx, sub, item.ID, model.NewsStatusApproved, flagged.Version); err != nil {
		t.Fatal(err)
	}
	breaking, err = env.news.ListBreaking(ctx)
	if err != nil {
		t.Fatalf("ListBreaking: %v", err)
	}
	if len(breaking) != 1 {
		t.Fatalf("ListBreaking returned %d items, want 1", len(breaking))
	}
}

func TestSubmitBreakingFlag(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	ctx := context.Background()

	in := SubmitNewsInput{
		Title:            "ticker",
		ShortDescription: "short",
		Body:             "body text",
		CategorySlug:     "khela",
		IsBreaking:       true,
	}

	// The flag stays a moderator call even at submission time.
	item, err := env.news.Submit(ctx, author, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.IsBreaking {
		t.Error("regular author must not flag breaking at submission")
	}

	item, err = env.news.Submit(ctx, sub, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !item.IsBreaking {
		t.Error("moderator breaking flag dropped at submission")
	}
	if item.Status != model.NewsStatusPending {
		t.Errorf("Status = %q, moderator submissions still start pending", item.Status)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.createCategory(t, "খেলা", "khela", nil)
	author := env.createUser(t, "a@example.com", model.RoleUser)
	sub := env.createUser(t, "sub@example.com", model.RoleSubAdmin)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	ctx := context.Background()

	item := env.submitNews(t, author, "t", "khela")
	if _, err := env.news.SetStatus(ctx, admin, item.ID, model.NewsStatusApproved, item.Version); err != nil {
		t.Fatal(err)
	}
	env.submitNews(t, author, "t2", "khela")

	st, err := env.news.Stats(ctx, admin)
	if err != nil {
		t.Fatalf("Stats as admin: %v", err)
	}
	if st.TotalNews != 2 || st.ApprovedNews != 1 || st.PendingNews != 1 {
		t.Errorf("admin stats: %+v", st)
	}
	if st.TotalUsers != 3 || st.CategoryCount != 1 {
		t.Errorf("admin stats missing user/category counts: %+v", st)
	}

	st, err = env.news.Stats(ctx, sub)
	if err != nil {
		t.Fatalf("Stats as sub-admin: %v", err)
	}
	if st.TotalUsers != 0 || st.CategoryCount != 0 {
		t.Errorf("sub-admin stats should omit user/category counts: %+v", st)
	}

	if _, err := env.news.Stats(ctx, author); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Stats as user: err = %v, want ErrPermissionDenied", err)
	}
}

func TestDecodeTags(t *testing.T) {
	if got := DecodeTags(`["ক্রিকেট","খেলা"]`); len(got) != 2 {
		t.Errorf("DecodeTags valid: %v", got)
	}
	if got := DecodeTags("not json"); len(got) != 0 {
		t.Errorf("DecodeTags malformed: %v", got)
	}
	if got := DecodeTags("null"); got == nil {
		t.Error("DecodeTags null should return empty slice")
	}
}
