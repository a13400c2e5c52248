package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createStockTake = `
INSERT INTO stock_takes (code, status, notes, created_by)
VALUES ($1, $2, $3, $4)
RETURNING id, code, status, variance_total, notes, created_by, created_at, completed_at
`

type CreateStockTakeParams struct {
	Code      string
	Status    string
	Notes     pgtype.Text
	CreatedBy uuid.UUID
}

func (q *Queries) CreateStockTake(ctx context.Context, arg CreateStockTakeParams) (StockTake, error) {
	row := q.db.QueryRow(ctx, createStockTake, arg.Code, arg.Status, arg.Notes, arg.CreatedBy)
	var st StockTake
	err := row.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt)
	return st, err
}

const getStockTake = `
SELECT id, code, status, variance_total, notes, created_by, created_at, completed_at
FROM stock_takes
WHERE id = $1
`

func (q *Queries) GetStockTake(ctx context.Context, id uuid.UUID) (StockTake, error) {
	row := q.db.QueryRow(ctx, getStockTake, id)
	var st StockTake
	err := row.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt)
	return st, err
}

const getStockTakeForUpdate = `
SELECT id, code, status, variance_total, notes, created_by, created_at, completed_at
FROM stock_takes
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetStockTakeForUpdate(ctx context.Context, id uuid.UUID) (StockTake, error) {
	row := q.db.QueryRow(ctx, getStockTakeForUpdate, id)
	var st StockTake
	err := row.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt)
	return st, err
}

const listStockTakes = `
SELECT id, code, status, variance_total, notes, created_by, created_at, completed_at
FROM stock_takes
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListStockTakesParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListStockTakes(ctx context.Context, arg ListStockTakesParams) ([]StockTake, error) {
	rows, err := q.db.Query(ctx, listStockTakes, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockTake
	for rows.Next() {
		var st StockTake
		if err := rows.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt); err != nil {
			return nil, err
		}
		items = append(items, st)
	}
	return items, rows.Err()
}

const finalizeStockTake = `
UPDATE stock_takes
SET status = $2, variance_total = $3, completed_at = now()
WHERE id = $1
RETURNING id, code, status, variance_total, notes, created_by, created_at, completed_at
`

type FinalizeStockTakeParams struct {
	ID            uuid.UUID
	Status        string
	VarianceTotal pgtype.Numeric
}

func (q *Queries) FinalizeStockTake(ctx context.Context, arg FinalizeStockTakeParams) (StockTake, error) {
	row := q.db.QueryRow(ctx, finalizeStockTake, arg.ID, arg.Status, arg.VarianceTotal)
	var st StockTake
	err := row.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt)
	return st, err
}

const updateStockTakeStatus = `
UPDATE stock_takes
SET status = $2
WHERE id = $1
RETURNING id, code, status, variance_total, notes, created_by, created_at, completed_at
`

type UpdateStockTakeStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateStockTakeStatus(ctx context.Context, arg UpdateStockTakeStatusParams) (StockTake, error) {
	row := q.db.QueryRow(ctx, updateStockTakeStatus, arg.ID, arg.Status)
	var st StockTake
	err := row.Scan(&st.ID, &st.Code, &st.Status, &st.VarianceTotal, &st.Notes, &st.CreatedBy, &st.CreatedAt, &st.CompletedAt)
	return st, err
}

const getNextStockTakeSequence = `
SELECT count(*) + 1
FROM stock_takes
WHERE code LIKE $1
`

func (q *Queries) GetNextStockTakeSequence(ctx context.Context, prefix string) (int64, error) {
	row := q.db.QueryRow(ctx, getNextStockTakeSequence, prefix+"%")
	var n int64
	err := row.Scan(&n)
	return n, err
}

const createStockTakeLine = `
INSERT INTO stock_take_lines (stock_take_id, ingredient_id, snapshot_qty, actual_qty, variance)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, stock_take_id, ingredient_id, snapshot_qty, actual_qty, variance
`

type CreateStockTakeLineParams struct {
	StockTakeID  uuid.UUID
	IngredientID uuid.UUID
	SnapshotQty  pgtype.Numeric
	ActualQty    pgtype.Numeric
	Variance     pgtype.Numeric
}

func (q *Queries) CreateStockTakeLine(ctx context.Context, arg CreateStockTakeLineParams) (StockTakeLine, error) {
	row := q.db.QueryRow(ctx, createStockTakeLine,
		arg.StockTakeID,
		arg.IngredientID,
		arg.SnapshotQty,
		arg.ActualQty,
		arg.Variance,
	)
	var l StockTakeLine
	err := row.Scan(&l.ID, &l.StockTakeID, &l.IngredientID, &l.SnapshotQty, &l.ActualQty, &l.Variance)
	return l, err
}

const listStockTakeLines = `
SELECT id, stock_take_id, ingredient_id, snapshot_qty, actual_qty, variance
FROM stock_take_lines
WHERE stock_take_id = $1
`

func (q *Queries) ListStockTakeLines(ctx context.Context, stockTakeID uuid.UUID) ([]StockTakeLine, error) {
	rows, err := q.db.Query(ctx, listStockTakeLines, stockTakeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockTakeLine
	for rows.Next() {
		var l StockTakeLine
		if err := rows.Scan(&l.ID, &l.StockTakeID, &l.IngredientID, &l.SnapshotQty, &l.ActualQty, &l.Variance); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const updateStockTakeLineCount = `
UPDATE stock_take_lines
SET actual_qty = $3, variance = $4
WHERE stock_take_id = $1
  AND ingredient_id = $2
RETURNING id, stock_take_id, ingredient_id, snapshot_qty, actual_qty, variance
`

type UpdateStockTakeLineCountParams struct {
	StockTakeID  uuid.UUID
	IngredientID uuid.UUID
	ActualQty    pgtype.Numeric
	Variance     pgtype.Numeric
}

func (q *Queries) UpdateStockTakeLineCount(ctx context.Context, arg UpdateStockTakeLineCountParams) (StockTakeLine, error) {
	row := q.db.QueryRow(ctx, updateStockTakeLineCount,
		arg.StockTakeID,
		arg.IngredientID,
		arg.ActualQty,
		arg.Variance,
	)
	var l StockTakeLine
	err := row.Scan(&l.ID, &l.StockTakeID, &l.IngredientID, &l.SnapshotQty, &l.ActualQty, &l.Variance)
	return l, err
}
