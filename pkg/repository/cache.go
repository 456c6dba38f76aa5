package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/dinein/pkg/models"
	"github.com/example/dinein/pkg/store"
	"go.uber.org/zap"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	menuKeyPrefix = "menu:"
	tablesKey     = "tables"
)

// Cache is the subset of RedisRepository the cached store needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// CachedStore serves the menu and the table list from a cache in front of
// another Record Store. Table writes and seat changes drop the cached list.
type CachedStore struct {
	store.RecordStore
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(inner store.RecordStore, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedStore {
	return &CachedStore{
		RecordStore: inner,
		cache:       cache,
		ttl:         ttl,
		logger:      logger.Named("cache"),
	}
}

func menuKey(category string) string {
	if category == "" {
		category = models.MenuCategoryAll
	}
	return menuKeyPrefix + category
}

func (s *CachedStore) FetchMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	key := menuKey(category)
	var items []models.MenuItem
	if s.lookup(ctx, key, &items) {
		return items, nil
	}
	items, err := s.RecordStore.FetchMenuItems(ctx, category)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, items)
	return items, nil
}

func (s *CachedStore) FetchTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if s.lookup(ctx, tablesKey, &tables) {
		return tables, nil
	}
	tables, err := s.RecordStore.FetchTables(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, tablesKey, tables)
	return tables, nil
}

func (s *CachedStore) CreateTable(ctx context.Context, displayName string) (*models.Table, error) {
	t, err := s.RecordStore.CreateTable(ctx, displayName)
	if err == nil {
		s.invalidateTables(ctx)
	}
	return t, err
}

func (s *CachedStore) UpdateTable(ctx context.Context, id string, fields models.TableFields) error {
	err := s.RecordStore.UpdateTable(ctx, id, fields)
	if err == nil {
		s.invalidateTables(ctx)
	}
	return err
}

func (s *CachedStore) DeleteTable(ctx context.Context, id string) error {
	err := s.RecordStore.DeleteTable(ctx, id)
	if err == nil {
		s.invalidateTables(ctx)
	}
	return err
}

func (s *CachedStore) CreateCustomer(ctx context.Context, fields models.CustomerFields) (*models.Customer, error) {
	c, err := s.RecordStore.CreateCustomer(ctx, fields)
	if err == nil {
		s.invalidateTables(ctx)
	}
	return c, err
}

func (s *CachedStore) UnassignCustomer(ctx context.Context, customerID string) error {
	err := s.RecordStore.UnassignCustomer(ctx, customerID)
	if err == nil {
		s.invalidateTables(ctx)
	}
	return err
}

// InvalidateMenu drops every cached menu category. Menu rows are maintained
// outside this service, so the API calls it on startup.
func (s *CachedStore) InvalidateMenu(ctx context.Context) error {
	return s.cache.DelPrefix(ctx, menuKeyPrefix)
}

func (s *CachedStore) lookup(ctx context.Context, key string, dest any) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *CachedStore) fill(ctx context.Context, key string, value any) {
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CachedStore) invalidateTables(ctx context.Context) {
	if err := s.cache.Del(ctx, tablesKey); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.String("key", tablesKey), zap.Error(err))
	}
}
