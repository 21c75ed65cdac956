package ports

import (
	"context"
	"time"
)

// Cache is a small key-value capability. The bots keep their update
// offsets here so a restart does not replay handled updates.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
