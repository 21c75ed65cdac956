package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/persistence/sqlite/model"
	"bridgee/internal/ports"
)

type SQLiteCache struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.Cache = (*SQLiteCache)(nil)

func NewSQLiteCache(db *gorm.DB) *SQLiteCache {
	return &SQLiteCache{db: db, now: time.Now}
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	var row model.KVEntry
	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query cache by key")
	}

	if c.expired(row) {
		if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.KVEntry{}).Error; err != nil {
			return "", false, errs.Wrap(err, "evict expired cache key")
		}
		return "", false, nil
	}

	return row.Value, true, nil
}

// Set upserts key. A zero ttl keeps the value until it is deleted.
func (c *SQLiteCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	now := c.now().UTC()
	row := model.KVEntry{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: now.Format(time.RFC3339Nano),
	}
	if ttl > 0 {
		row.ExpiresAt = now.Add(ttl).Format(time.RFC3339Nano)
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"expires_at": row.ExpiresAt,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert cache key")
	}

	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}

	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.KVEntry{}).Error; err != nil {
		return errs.Wrap(err, "delete cache key")
	}
	return nil
}

func (c *SQLiteCache) expired(row model.KVEntry) bool {
	if row.ExpiresAt == "" {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, row.ExpiresAt)
	if err != nil {
		return false
	}
	return !c.now().UTC().Before(expiresAt)
}

func checkKey(ctx context.Context, key string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", errors.New("key is required")
	}
	return trimmedKey, nil
}
