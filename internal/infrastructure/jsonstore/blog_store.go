package jsonstore

import (
	"context"

	"bridgee/internal/domain/blog"
	"bridgee/internal/ports"
)

type BlogStore struct {
	path string
}

var _ ports.BlogStore = (*BlogStore)(nil)

func NewBlogStore(path string) *BlogStore {
	return &BlogStore{path: path}
}

func (s *BlogStore) Load(ctx context.Context) []blog.Post {
	return loadArray[blog.Post](ctx, s.path)
}

func (s *BlogStore) Save(ctx context.Context, posts []blog.Post) bool {
	return saveArray(ctx, s.path, posts)
}
