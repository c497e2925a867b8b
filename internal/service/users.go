// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/matajihat/matajihat/internal/auth"
	"github.com/matajihat/matajihat/internal/authz"
	"github.com/matajihat/matajihat/internal/model"
	"github.com/matajihat/matajihat/internal/store"
)

// defaultAvatarURL builds a generated initials avatar for accounts that do
// not upload their own picture.
func defaultAvatarURL(name string) string {
	return "https://ui-avatars.com/api/?background=random&name=" + url.QueryEscape(name)
}

// UserService manages accounts: registration, login and administration.
type UserService struct {
	queries *store.Queries
	events  *EventService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events *EventService) *UserService {
	return &UserService{
		queries: store.New(db),
		events:  events,
	}
}

// validEmail reports whether s is a single bare RFC 5322 address.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// emailAvailable checks that no other account than selfID owns the address.
func (s *UserService) emailAvailable(ctx context.Context, email string, selfID int64) (bool, error) {
	existing, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return existing.ID == selfID, nil
}

// RegisterInput carries the self-service signup fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new account with the base user role.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (store.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Email == "" {
		fields["email"] = "required"
	} else if !validEmail(in.Email) {
		fields["email"] = "error.invalid_email"
	}
	if len(in.Password) < auth.MinPasswordLength {
		fields["password"] = "error.password_too_short"
	}
	if len(fields) > 0 {
		return store.User{}, newValidationError(fields)
	}

	if _, err := s.queries.GetUserByEmail(ctx, in.Email); err == nil {
		return store.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         model.RoleUser,
		AvatarURL:    defaultAvatarURL(in.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// The unique index can still race a concurrent signup.
		if strings.Contains(err.Error(), "UNIQUE") {
			return store.User{}, ErrEmailTaken
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}

	s.events.LogAuthEvent(ctx, model.EventLevelInfo, "user registered", &user.ID,
		map[string]any{"email": user.Email})
	return user, nil
}

// Login verifies credentials and returns the account. The same
// ErrInvalidCredentials covers an unknown email and a wrong password so the
// response does not reveal which one failed. Hashes made with older
// parameters are transparently upgraded.
func (s *UserService) Login(ctx context.Context, email, password string) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, err
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		s.events.LogAuthEvent(ctx, model.EventLevelWarning, "failed login", &user.ID,
			map[string]any{"email": email})
		return store.User{}, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			})
		}
	}

	now := time.Now()
	if err := s.queries.TouchUserLogin(ctx, user.ID, now); err == nil {
		user.LastLoginAt = sql.NullTime{Time: now, Valid: true}
	}

	s.events.LogAuthEvent(ctx, model.EventLevelInfo, "user logged in", &user.ID, nil)
	return user, nil
}

// GetByID loads a single account.
func (s *UserService) GetByID(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrNotFound
		}
		return store.User{}, err
	}
	return user, nil
}

// ProfileInput carries the fields an account may change about itself.
type ProfileInput struct {
	Name      string
	Email     string
	Bio       string
	AvatarURL string
}

func (in *ProfileInput) validate() map[string]string {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Email == "" {
		fields["email"] = "required"
	} else if !validEmail(in.Email) {
		fields["email"] = "error.invalid_email"
	}
	return fields
}

// UpdateProfile changes the actor's own name, email, bio and avatar. An
// empty avatar URL regenerates the default initials avatar.
func (s *UserService) UpdateProfile(ctx context.Context, actor *store.User, in ProfileInput) (store.User, error) {
	if actor == nil {
		return store.User{}, ErrPermissionDenied
	}
	if fields := in.validate(); len(fields) > 0 {
		return store.User{}, newValidationError(fields)
	}
	free, err := s.emailAvailable(ctx, in.Email, actor.ID)
	if err != nil {
		return store.User{}, err
	}
	if !free {
		return store.User{}, ErrEmailTaken
	}
	if in.AvatarURL == "" {
		in.AvatarURL = defaultAvatarURL(in.Name)
	}

	updated, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		Name:      in.Name,
		Email:     in.Email,
		Bio:       in.Bio,
		AvatarURL: in.AvatarURL,
		UpdatedAt: time.Now(),
		ID:        actor.ID,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *UserService) ChangePassword(ctx context.Context, actor *store.User, current, next string) error {
	if actor == nil {
		return ErrPermissionDenied
	}
	ok, err := auth.CheckPassword(current, actor.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if len(next) < auth.MinPasswordLength {
		return newValidationError(map[string]string{"password": "error.password_too_short"})
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now(),
		ID:           actor.ID,
	}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.events.LogAuthEvent(ctx, model.EventLevelInfo, "password changed", &actor.ID, nil)
	return nil
}

// AdminCreateInput carries the fields for an admin-provisioned account.
type AdminCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Bio      string
}

// AdminCreate provisions an account with an arbitrary role. Administrators
// only; self-service signups go through Register instead.
func (s *UserService) AdminCreate(ctx context.Context, actor *store.User, in AdminCreateInput) (store.User, error) {
	if !authz.CanManageUsers(viewerFor(actor)) {
		return store.User{}, ErrPermissionDenied
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Email == "" {
		fields["email"] = "required"
	} else if !validEmail(in.Email) {
		fields["email"] = "error.invalid_email"
	}
	if len(in.Password) < auth.MinPasswordLength {
		fields["password"] = "error.password_too_short"
	}
	if !model.IsValidRole(in.Role) {
		fields["role"] = "unknown role"
	}
	if len(fields) > 0 {
		return store.User{}, newValidationError(fields)
	}

	free, err := s.emailAvailable(ctx, in.Email, 0)
	if err != nil {
		return store.User{}, err
	}
	if !free {
		return store.User{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		AvatarURL:    defaultAvatarURL(in.Name),
		Bio:          in.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return store.User{}, ErrEmailTaken
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}

	s.events.LogUserEvent(ctx, model.EventLevelWarning, "user created by admin", &actor.ID,
		map[string]any{"target_id": user.ID, "role": user.Role})
	return user, nil
}

// AdminUpdateInput carries the fields an administrator may rewrite on any
// account.
type AdminUpdateInput struct {
	Name      string
	Email     string
	Role      string
	Bio       string
	AvatarURL string
	Password  string // optional; empty keeps the current one
}

// AdminUpdate edits every administrable field of another account, including
// its role and, when a new password is supplied, its credentials.
func (s *UserService) AdminUpdate(ctx context.Context, actor *store.User, targetID int64, in AdminUpdateInput) (store.User, error) {
	if !authz.CanManageUsers(viewerFor(actor)) {
		return store.User{}, ErrPermissionDenied
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)

	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.Email == "" {
		fields["email"] = "required"
	} else if !validEmail(in.Email) {
		fields["email"] = "error.invalid_email"
	}
	if !model.IsValidRole(in.Role) {
		fields["role"] = "unknown role"
	}
	if in.Password != "" && len(in.Password) < auth.MinPasswordLength {
		fields["password"] = "error.password_too_short"
	}
	if len(fields) > 0 {
		return store.User{}, newValidationError(fields)
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrNotFound
		}
		return store.User{}, err
	}

	// Demoting yourself would lock the portal's last admin out.
	if target.ID == actor.ID && in.Role != actor.Role {
		return store.User{}, ErrConflict
	}

	free, err := s.emailAvailable(ctx, in.Email, target.ID)
	if err != nil {
		return store.User{}, err
	}
	if !free {
		return store.User{}, ErrEmailTaken
	}

	if in.AvatarURL == "" {
		in.AvatarURL = defaultAvatarURL(in.Name)
	}

	updated, err := s.queries.UpdateUserAccount(ctx, store.UpdateUserAccountParams{
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		Bio:       in.Bio,
		AvatarURL: in.AvatarURL,
		UpdatedAt: time.Now(),
		ID:        target.ID,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("update user: %w", err)
	}

	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return store.User{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
			PasswordHash: hash,
			UpdatedAt:    time.Now(),
			ID:           target.ID,
		}); err != nil {
			return store.User{}, fmt.Errorf("update password: %w", err)
		}
	}

	s.events.LogUserEvent(ctx, model.EventLevelWarning, "user edited by admin", &actor.ID,
		map[string]any{"target_id": target.ID, "role": in.Role})
	return updated, nil
}

// List returns all accounts. Administrators only.
func (s *UserService) List(ctx context.Context, actor *store.User) ([]store.User, error) {
	if !authz.CanManageUsers(viewerFor(actor)) {
		return nil, ErrPermissionDenied
	}
	return s.queries.ListUsers(ctx)
}

// ChangeRole sets another account's role. Administrators only, and never
// on the actor's own account: the portal must keep at least its acting
// admin in place.
func (s *UserService) ChangeRole(ctx context.Context, actor *store.User, targetID int64, role string) (store.User, error) {
	if !authz.CanManageUsers(viewerFor(actor)) {
		return store.User{}, ErrPermissionDenied
	}
	if !model.IsValidRole(role) {
		return store.User{}, newValidationError(map[string]string{"role": "unknown role"})
	}
	if targetID == actor.ID {
		return store.User{}, ErrConflict
	}

	updated, err := s.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
		Role:      role,
		UpdatedAt: time.Now(),
		ID:        targetID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrNotFound
		}
		return store.User{}, fmt.Errorf("update role: %w", err)
	}

	s.events.LogUserEvent(ctx, model.EventLevelWarning, "user role changed", &actor.ID,
		map[string]any{"target_id": targetID, "role": role})
	return updated, nil
}

// Delete removes an account. Administrators only; self-deletion is
// rejected for the same lockout reason as self role changes.
func (s *UserService) Delete(ctx context.Context, actor *store.User, targetID int64) error {
	if !authz.CanManageUsers(viewerFor(actor)) {
		return ErrPermissionDenied
	}
	if targetID == actor.ID {
		return ErrConflict
	}

	affected, err := s.queries.DeleteUser(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.events.LogUserEvent(ctx, model.EventLevelWarning, "user deleted", &actor.ID,
		map[string]any{"target_id": targetID})
	return nil
}
