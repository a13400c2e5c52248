package database

import (
	"context"

	"github.com/google/uuid"
)

const createTable = `
INSERT INTO restaurant_tables (number, capacity, status)
VALUES ($1, $2, $3)
RETURNING id, number, capacity, status, created_at, updated_at
`

type CreateTableParams struct {
	Number   string
	Capacity int32
	Status   string
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, createTable, arg.Number, arg.Capacity, arg.Status)
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTable = `
SELECT id, number, capacity, status, created_at, updated_at
FROM restaurant_tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTableForUpdate = `
SELECT id, number, capacity, status, created_at, updated_at
FROM restaurant_tables
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, getTableForUpdate, id)
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const listTables = `
SELECT id, number, capacity, status, created_at, updated_at
FROM restaurant_tables
ORDER BY number
`

func (q *Queries) ListTables(ctx context.Context) ([]RestaurantTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RestaurantTable
	for rows.Next() {
		var t RestaurantTable
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const updateTableStatus = `
UPDATE restaurant_tables
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, number, capacity, status, created_at, updated_at
`

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status)
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const updateTable = `
UPDATE restaurant_tables
SET number = $2, capacity = $3, updated_at = now()
WHERE id = $1
RETURNING id, number, capacity, status, created_at, updated_at
`

type UpdateTableParams struct {
	ID       uuid.UUID
	Number   string
	Capacity int32
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (RestaurantTable, error) {
	row := q.db.QueryRow(ctx, updateTable, arg.ID, arg.Number, arg.Capacity)
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const deleteTable = `
DELETE FROM restaurant_tables
WHERE id = $1
`

func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteTable, id)
	return err
}
