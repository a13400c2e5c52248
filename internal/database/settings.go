package database

import (
	"context"
)

const getSetting = `
SELECT key, value, updated_at
FROM system_settings
WHERE key = $1
`

func (q *Queries) GetSetting(ctx context.Context, key string) (SystemSetting, error) {
	row := q.db.QueryRow(ctx, getSetting, key)
	var s SystemSetting
	err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}

const listSettings = `
SELECT key, value, updated_at
FROM system_settings
ORDER BY key
`

func (q *Queries) ListSettings(ctx context.Context) ([]SystemSetting, error) {
	rows, err := q.db.Query(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SystemSetting
	for rows.Next() {
		var s SystemSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const upsertSetting = `
INSERT INTO system_settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
RETURNING key, value, updated_at
`

type UpsertSettingParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (SystemSetting, error) {
	row := q.db.QueryRow(ctx, upsertSetting, arg.Key, arg.Value)
	var s SystemSetting
	err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}
