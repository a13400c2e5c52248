package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createReasonCode = `
INSERT INTO reason_codes (code, description, is_active)
VALUES ($1, $2, $3)
RETURNING id, code, description, is_active
`

type CreateReasonCodeParams struct {
	Code        string
	Description string
	IsActive    bool
}

func (q *Queries) CreateReasonCode(ctx context.Context, arg CreateReasonCodeParams) (ReasonCode, error) {
	row := q.db.QueryRow(ctx, createReasonCode, arg.Code, arg.Description, arg.IsActive)
	var rc ReasonCode
	err := row.Scan(&rc.ID, &rc.Code, &rc.Description, &rc.IsActive)
	return rc, err
}

const getReasonCodeByCode = `
SELECT id, code, description, is_active
FROM reason_codes
WHERE code = $1
`

func (q *Queries) GetReasonCodeByCode(ctx context.Context, code string) (ReasonCode, error) {
	row := q.db.QueryRow(ctx, getReasonCodeByCode, code)
	var rc ReasonCode
	err := row.Scan(&rc.ID, &rc.Code, &rc.Description, &rc.IsActive)
	return rc, err
}

const listReasonCodes = `
SELECT id, code, description, is_active
FROM reason_codes
ORDER BY code
`

func (q *Queries) ListReasonCodes(ctx context.Context) ([]ReasonCode, error) {
	rows, err := q.db.Query(ctx, listReasonCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReasonCode
	for rows.Next() {
		var rc ReasonCode
		if err := rows.Scan(&rc.ID, &rc.Code, &rc.Description, &rc.IsActive); err != nil {
			return nil, err
		}
		items = append(items, rc)
	}
	return items, rows.Err()
}

const createWasteReport = `
INSERT INTO waste_reports (target_type, ingredient_id, menu_item_id, quantity, reason_code_id, loss_value, reported_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, target_type, ingredient_id, menu_item_id, quantity, reason_code_id, loss_value, reported_by, created_at
`

type CreateWasteReportParams struct {
	TargetType   string
	IngredientID pgtype.UUID
	MenuItemID   pgtype.UUID
	Quantity     pgtype.Numeric
	ReasonCodeID uuid.UUID
	LossValue    pgtype.Numeric
	ReportedBy   uuid.UUID
}

func (q *Queries) CreateWasteReport(ctx context.Context, arg CreateWasteReportParams) (WasteReport, error) {
	row := q.db.QueryRow(ctx, createWasteReport,
		arg.TargetType,
		arg.IngredientID,
		arg.MenuItemID,
		arg.Quantity,
		arg.ReasonCodeID,
		arg.LossValue,
		arg.ReportedBy,
	)
	var w WasteReport
	err := row.Scan(&w.ID, &w.TargetType, &w.IngredientID, &w.MenuItemID, &w.Quantity, &w.ReasonCodeID, &w.LossValue, &w.ReportedBy, &w.CreatedAt)
	return w, err
}

const listWasteReports = `
SELECT id, target_type, ingredient_id, menu_item_id, quantity, reason_code_id, loss_value, reported_by, created_at
FROM waste_reports
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at DESC
`

type ListWasteReportsParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

func (q *Queries) ListWasteReports(ctx context.Context, arg ListWasteReportsParams) ([]WasteReport, error) {
	rows, err := q.db.Query(ctx, listWasteReports, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WasteReport
	for rows.Next() {
		var w WasteReport
		if err := rows.Scan(&w.ID, &w.TargetType, &w.IngredientID, &w.MenuItemID, &w.Quantity, &w.ReasonCodeID, &w.LossValue, &w.ReportedBy, &w.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}
