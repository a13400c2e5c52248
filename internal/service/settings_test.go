package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/fami-pos/api/internal/database"
)

func TestSettingsGet_CachesAfterFirstFetch(t *testing.T) {
	calls := 0
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			calls++
			return database.SystemSetting{Key: key, Value: "Fami"}, nil
		},
	}
	svc := NewSettingsService(store)

	for i := 0; i < 3; i++ {
		v, err := svc.Get(context.Background(), SettingRestaurantName)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "Fami" {
			t.Fatalf("value: got %q, want Fami", v)
		}
	}
	if calls != 1 {
		t.Errorf("store calls: got %d, want 1 (cached afterwards)", calls)
	}
}

func TestSettingsGet_MissingKey(t *testing.T) {
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			return database.SystemSetting{}, pgx.ErrNoRows
		},
	}
	svc := NewSettingsService(store)

	_, err := svc.Get(context.Background(), "no_such_key")
	if !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected ErrSettingNotFound, got: %v", err)
	}
}

func TestSettingsInvalidate_ForcesRefetch(t *testing.T) {
	value := "true"
	calls := 0
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			calls++
			return database.SystemSetting{Key: key, Value: value}, nil
		},
	}
	svc := NewSettingsService(store)

	if _, err := svc.Get(context.Background(), SettingRestaurantOpen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value = "false"
	svc.Invalidate(SettingRestaurantOpen)

	v, err := svc.Get(context.Background(), SettingRestaurantOpen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "false" {
		t.Errorf("value after invalidate: got %q, want false", v)
	}
	if calls != 2 {
		t.Errorf("store calls: got %d, want 2", calls)
	}
}

func TestSettingsReload_ReplacesCache(t *testing.T) {
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			t.Error("Get must be served from the reloaded cache")
			return database.SystemSetting{}, pgx.ErrNoRows
		},
		listSettingsFn: func(ctx context.Context) ([]database.SystemSetting, error) {
			return []database.SystemSetting{
				{Key: SettingRestaurantName, Value: "Fami"},
				{Key: SettingCurrencyCode, Value: "IDR"},
			}, nil
		},
	}
	svc := NewSettingsService(store)

	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := svc.Get(context.Background(), SettingCurrencyCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "IDR" {
		t.Errorf("currency: got %q, want IDR", v)
	}
}

func TestSettingsSet_WritesThroughCache(t *testing.T) {
	var upserted database.UpsertSettingParams
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			t.Error("Set must prime the cache, no refetch expected")
			return database.SystemSetting{}, pgx.ErrNoRows
		},
		upsertSettingFn: func(ctx context.Context, arg database.UpsertSettingParams) (database.SystemSetting, error) {
			upserted = arg
			return database.SystemSetting{Key: arg.Key, Value: arg.Value}, nil
		},
	}
	svc := NewSettingsService(store)

	if err := svc.Set(context.Background(), SettingRestaurantOpen, "false"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upserted.Key != SettingRestaurantOpen || upserted.Value != "false" {
		t.Errorf("upsert: got %+v", upserted)
	}

	open, err := svc.IsRestaurantOpen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if open {
		t.Error("expected closed after Set(false)")
	}
}

func TestIsRestaurantOpen_DefaultsToOpen(t *testing.T) {
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			return database.SystemSetting{}, pgx.ErrNoRows
		},
	}
	svc := NewSettingsService(store)

	open, err := svc.IsRestaurantOpen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !open {
		t.Error("missing setting must default to open")
	}
}

func TestSettingsGetBool_GarbageValue(t *testing.T) {
	store := &mockSettingsStore{
		getSettingFn: func(ctx context.Context, key string) (database.SystemSetting, error) {
			return database.SystemSetting{Key: key, Value: "banana"}, nil
		},
	}
	svc := NewSettingsService(store)

	if _, err := svc.GetBool(context.Background(), SettingRestaurantOpen, true); err == nil {
		t.Fatal("expected parse error for non-boolean value")
	}
}
