package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createInventoryLevel = `
INSERT INTO inventory_levels (ingredient_id, quantity_on_hand)
VALUES ($1, $2)
RETURNING id, ingredient_id, quantity_on_hand, updated_at
`

type CreateInventoryLevelParams struct {
	IngredientID   uuid.UUID
	QuantityOnHand pgtype.Numeric
}

func (q *Queries) CreateInventoryLevel(ctx context.Context, arg CreateInventoryLevelParams) (InventoryLevel, error) {
	row := q.db.QueryRow(ctx, createInventoryLevel, arg.IngredientID, arg.QuantityOnHand)
	var l InventoryLevel
	err := row.Scan(&l.ID, &l.IngredientID, &l.QuantityOnHand, &l.UpdatedAt)
	return l, err
}

const getInventoryLevel = `
SELECT id, ingredient_id, quantity_on_hand, updated_at
FROM inventory_levels
WHERE ingredient_id = $1
`

func (q *Queries) GetInventoryLevel(ctx context.Context, ingredientID uuid.UUID) (InventoryLevel, error) {
	row := q.db.QueryRow(ctx, getInventoryLevel, ingredientID)
	var l InventoryLevel
	err := row.Scan(&l.ID, &l.IngredientID, &l.QuantityOnHand, &l.UpdatedAt)
	return l, err
}

const getInventoryLevelForUpdate = `
SELECT id, ingredient_id, quantity_on_hand, updated_at
FROM inventory_levels
WHERE ingredient_id = $1
FOR UPDATE
`

func (q *Queries) GetInventoryLevelForUpdate(ctx context.Context, ingredientID uuid.UUID) (InventoryLevel, error) {
	row := q.db.QueryRow(ctx, getInventoryLevelForUpdate, ingredientID)
	var l InventoryLevel
	err := row.Scan(&l.ID, &l.IngredientID, &l.QuantityOnHand, &l.UpdatedAt)
	return l, err
}

const listInventoryLevels = `
SELECT l.id, l.ingredient_id, l.quantity_on_hand, l.updated_at,
       i.name, i.unit, i.cost_per_unit, i.alert_threshold
FROM inventory_levels l
JOIN ingredients i ON i.id = l.ingredient_id
ORDER BY i.name
`

type ListInventoryLevelsRow struct {
	ID             uuid.UUID
	IngredientID   uuid.UUID
	QuantityOnHand pgtype.Numeric
	UpdatedAt      pgtype.Timestamptz
	Name           string
	Unit           string
	CostPerUnit    pgtype.Numeric
	AlertThreshold pgtype.Numeric
}

func (q *Queries) ListInventoryLevels(ctx context.Context) ([]ListInventoryLevelsRow, error) {
	rows, err := q.db.Query(ctx, listInventoryLevels)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListInventoryLevelsRow
	for rows.Next() {
		var r ListInventoryLevelsRow
		if err := rows.Scan(&r.ID, &r.IngredientID, &r.QuantityOnHand, &r.UpdatedAt, &r.Name, &r.Unit, &r.CostPerUnit, &r.AlertThreshold); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const setInventoryQuantity = `
UPDATE inventory_levels
SET quantity_on_hand = $2, updated_at = now()
WHERE ingredient_id = $1
RETURNING id, ingredient_id, quantity_on_hand, updated_at
`

type SetInventoryQuantityParams struct {
	IngredientID   uuid.UUID
	QuantityOnHand pgtype.Numeric
}

func (q *Queries) SetInventoryQuantity(ctx context.Context, arg SetInventoryQuantityParams) (InventoryLevel, error) {
	row := q.db.QueryRow(ctx, setInventoryQuantity, arg.IngredientID, arg.QuantityOnHand)
	var l InventoryLevel
	err := row.Scan(&l.ID, &l.IngredientID, &l.QuantityOnHand, &l.UpdatedAt)
	return l, err
}

const createInventoryLog = `
INSERT INTO inventory_logs (ingredient_id, change_type, quantity_change, quantity_after, reason, reference_id, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, ingredient_id, change_type, quantity_change, quantity_after, reason, reference_id, created_by, created_at
`

type CreateInventoryLogParams struct {
	IngredientID   uuid.UUID
	ChangeType     string
	QuantityChange pgtype.Numeric
	QuantityAfter  pgtype.Numeric
	Reason         pgtype.Text
	ReferenceID    pgtype.UUID
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateInventoryLog(ctx context.Context, arg CreateInventoryLogParams) (InventoryLog, error) {
	row := q.db.QueryRow(ctx, createInventoryLog,
		arg.IngredientID,
		arg.ChangeType,
		arg.QuantityChange,
		arg.QuantityAfter,
		arg.Reason,
		arg.ReferenceID,
		arg.CreatedBy,
	)
	var l InventoryLog
	err := row.Scan(&l.ID, &l.IngredientID, &l.ChangeType, &l.QuantityChange, &l.QuantityAfter, &l.Reason, &l.ReferenceID, &l.CreatedBy, &l.CreatedAt)
	return l, err
}

const listInventoryLogs = `
SELECT id, ingredient_id, change_type, quantity_change, quantity_after, reason, reference_id, created_by, created_at
FROM inventory_logs
WHERE ingredient_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListInventoryLogsParams struct {
	IngredientID uuid.UUID
	Limit        int32
	Offset       int32
}

func (q *Queries) ListInventoryLogs(ctx context.Context, arg ListInventoryLogsParams) ([]InventoryLog, error) {
	rows, err := q.db.Query(ctx, listInventoryLogs, arg.IngredientID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryLog
	for rows.Next() {
		var l InventoryLog
		if err := rows.Scan(&l.ID, &l.IngredientID, &l.ChangeType, &l.QuantityChange, &l.QuantityAfter, &l.Reason, &l.ReferenceID, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// ListLowStockLevels returns levels at or below their alert threshold.
// A zero threshold disables the alert for that ingredient.
const listLowStockLevels = `
SELECT l.id, l.ingredient_id, l.quantity_on_hand, l.updated_at,
       i.name, i.unit, i.cost_per_unit, i.alert_threshold
FROM inventory_levels l
JOIN ingredients i ON i.id = l.ingredient_id
WHERE i.alert_threshold > 0
  AND l.quantity_on_hand <= i.alert_threshold
ORDER BY i.name
`

func (q *Queries) ListLowStockLevels(ctx context.Context) ([]ListInventoryLevelsRow, error) {
	rows, err := q.db.Query(ctx, listLowStockLevels)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListInventoryLevelsRow
	for rows.Next() {
		var r ListInventoryLevelsRow
		if err := rows.Scan(&r.ID, &r.IngredientID, &r.QuantityOnHand, &r.UpdatedAt, &r.Name, &r.Unit, &r.CostPerUnit, &r.AlertThreshold); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
