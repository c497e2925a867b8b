// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = `id, email, password_hash, name, role, avatar_url, bio, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.AvatarURL, &u.Bio, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

const createUser = `
INSERT INTO users (email, password_hash, name, role, avatar_url, bio, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	AvatarURL    string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the created row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Name, arg.Role, arg.AvatarURL, arg.Bio, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail fetches a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

// ListUsers returns all users ordered by registration time.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const updateUserRole = `
UPDATE users SET role = ?, updated_at = ? WHERE id = ?
RETURNING ` + userColumns

// UpdateUserRoleParams holds the fields for UpdateUserRole.
type UpdateUserRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserRole changes a user's role and returns the updated row.
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt, arg.ID))
}

const updateUserProfile = `
UPDATE users SET name = ?, email = ?, bio = ?, avatar_url = ?, updated_at = ? WHERE id = ?
RETURNING ` + userColumns

// UpdateUserProfileParams holds the fields for UpdateUserProfile.
type UpdateUserProfileParams struct {
	Name      string
	Email     string
	Bio       string
	AvatarURL string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserProfile changes the self-editable account fields.
func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.Name, arg.Email, arg.Bio, arg.AvatarURL, arg.UpdatedAt, arg.ID)
	return scanUser(row)
}

const updateUserAccount = `
UPDATE users SET name = ?, email = ?, role = ?, bio = ?, avatar_url = ?, updated_at = ? WHERE id = ?
RETURNING ` + userColumns

// UpdateUserAccountParams holds the fields for UpdateUserAccount.
type UpdateUserAccountParams struct {
	Name      string
	Email     string
	Role      string
	Bio       string
	AvatarURL string
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserAccount rewrites every administrable field of an account.
func (q *Queries) UpdateUserAccount(ctx context.Context, arg UpdateUserAccountParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserAccount,
		arg.Name, arg.Email, arg.Role, arg.Bio, arg.AvatarURL, arg.UpdatedAt, arg.ID)
	return scanUser(row)
}

const updateUserPassword = `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
`

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const touchUserLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

// TouchUserLogin records the time of a successful sign-in.
func (q *Queries) TouchUserLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, touchUserLogin, at, id)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user. Returns the number of affected rows.
func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the total number of registered users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}
