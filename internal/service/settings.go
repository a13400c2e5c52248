package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/fami-pos/api/internal/database"
)

// Setting keys used by the application.
const (
	SettingRestaurantOpen = "restaurant_open"
	SettingRestaurantName = "restaurant_name"
	SettingCurrencyCode   = "currency_code"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingsStore defines the DB methods needed by the settings service.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (database.SystemSetting, error)
	ListSettings(ctx context.Context) ([]database.SystemSetting, error)
	UpsertSetting(ctx context.Context, arg database.UpsertSettingParams) (database.SystemSetting, error)
}

// SettingsService caches system_settings rows behind an explicit API.
// Callers that change settings out of band call Invalidate or Reload;
// nothing refreshes implicitly.
type SettingsService struct {
	store SettingsStore

	mu    sync.RWMutex
	cache map[string]string
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{
		store: store,
		cache: make(map[string]string),
	}
}

// Reload replaces the whole cache from the database.
func (s *SettingsService) Reload(ctx context.Context) error {
	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("list settings: %w", err)
	}

	fresh := make(map[string]string, len(rows))
	for _, row := range rows {
		fresh[row.Key] = row.Value
	}

	s.mu.Lock()
	s.cache = fresh
	s.mu.Unlock()
	return nil
}

// Invalidate drops a single key so the next Get refetches it.
func (s *SettingsService) Invalidate(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// Get returns the setting value, consulting the cache first.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	row, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = row.Value
	s.mu.Unlock()
	return row.Value, nil
}

// GetBool parses the setting as a boolean; missing key returns the fallback.
func (s *SettingsService) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return fallback, nil
		}
		return fallback, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("setting %q is not a bool: %w", key, err)
	}
	return b, nil
}

// Set writes the setting and updates the cache in place.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if _, err := s.store.UpsertSetting(ctx, database.UpsertSettingParams{
		Key:   key,
		Value: value,
	}); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}

// IsRestaurantOpen gates order intake. Missing setting defaults to open.
func (s *SettingsService) IsRestaurantOpen(ctx context.Context) (bool, error) {
	return s.GetBool(ctx, SettingRestaurantOpen, true)
}
