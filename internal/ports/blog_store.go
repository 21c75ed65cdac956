package ports

import (
	"context"

	"bridgee/internal/domain/blog"
)

// BlogStore has the same load/save contract as ApplicationStore.
type BlogStore interface {
	Load(ctx context.Context) []blog.Post
	Save(ctx context.Context, posts []blog.Post) bool
}
