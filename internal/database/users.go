package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (username, password_hash, full_name, role, employee_code, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, username, password_hash, full_name, role, employee_code, is_active, created_at, updated_at
`

type CreateUserParams struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	EmployeeCode pgtype.Text
	IsActive     bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.PasswordHash,
		arg.FullName,
		arg.Role,
		arg.EmployeeCode,
		arg.IsActive,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.EmployeeCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUser = `
SELECT id, username, password_hash, full_name, role, employee_code, is_active, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.EmployeeCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByUsername = `
SELECT id, username, password_hash, full_name, role, employee_code, is_active, created_at, updated_at
FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.EmployeeCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const listUsers = `
SELECT id, username, password_hash, full_name, role, employee_code, is_active, created_at, updated_at
FROM users
ORDER BY username
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.EmployeeCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const updateUser = `
UPDATE users
SET full_name = $2, role = $3, employee_code = $4, is_active = $5, updated_at = now()
WHERE id = $1
RETURNING id, username, password_hash, full_name, role, employee_code, is_active, created_at, updated_at
`

type UpdateUserParams struct {
	ID           uuid.UUID
	FullName     string
	Role         string
	EmployeeCode pgtype.Text
	IsActive     bool
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser,
		arg.ID,
		arg.FullName,
		arg.Role,
		arg.EmployeeCode,
		arg.IsActive,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.EmployeeCode, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const updateUserPassword = `
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
`

type UpdateUserPasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.Exec(ctx, updateUserPassword, arg.ID, arg.PasswordHash)
	return err
}

const deactivateUser = `
UPDATE users
SET is_active = false, updated_at = now()
WHERE id = $1
`

func (q *Queries) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deactivateUser, id)
	return err
}
