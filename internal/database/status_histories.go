package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createStatusHistory = `
INSERT INTO status_histories (order_line_id, old_status, new_status, reason, changed_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_line_id, old_status, new_status, reason, changed_by, created_at
`

type CreateStatusHistoryParams struct {
	OrderLineID uuid.UUID
	OldStatus   string
	NewStatus   string
	Reason      pgtype.Text
	ChangedBy   uuid.UUID
}

func (q *Queries) CreateStatusHistory(ctx context.Context, arg CreateStatusHistoryParams) (StatusHistory, error) {
	row := q.db.QueryRow(ctx, createStatusHistory,
		arg.OrderLineID,
		arg.OldStatus,
		arg.NewStatus,
		arg.Reason,
		arg.ChangedBy,
	)
	var h StatusHistory
	err := row.Scan(&h.ID, &h.OrderLineID, &h.OldStatus, &h.NewStatus, &h.Reason, &h.ChangedBy, &h.CreatedAt)
	return h, err
}

const listStatusHistories = `
SELECT id, order_line_id, old_status, new_status, reason, changed_by, created_at
FROM status_histories
WHERE order_line_id = $1
ORDER BY created_at
`

func (q *Queries) ListStatusHistories(ctx context.Context, orderLineID uuid.UUID) ([]StatusHistory, error) {
	rows, err := q.db.Query(ctx, listStatusHistories, orderLineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderLineID, &h.OldStatus, &h.NewStatus, &h.Reason, &h.ChangedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

// GetLatestStatusHistory returns the most recent transition for a line.
// Undo uses its old_status as the target.
const getLatestStatusHistory = `
SELECT id, order_line_id, old_status, new_status, reason, changed_by, created_at
FROM status_histories
WHERE order_line_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestStatusHistory(ctx context.Context, orderLineID uuid.UUID) (StatusHistory, error) {
	row := q.db.QueryRow(ctx, getLatestStatusHistory, orderLineID)
	var h StatusHistory
	err := row.Scan(&h.ID, &h.OrderLineID, &h.OldStatus, &h.NewStatus, &h.Reason, &h.ChangedBy, &h.CreatedAt)
	return h, err
}
