package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bridgee/internal/bootstrap/logging"
	domainblog "bridgee/internal/domain/blog"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

type Service struct {
	store ports.BlogStore
	now   func() time.Time
	newID func() string
}

func NewService(store ports.BlogStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Draft is the operator input for a new post. Empty Author or ImageURL, or
// a "skip" reply, leaves the field unset.
type Draft struct {
	Title    string
	Content  string
	Author   string
	ImageURL string
}

func (s *Service) List(ctx context.Context) []domainblog.Post {
	return s.store.Load(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (domainblog.Post, error) {
	for _, post := range s.store.Load(ctx) {
		if post.ID == strings.TrimSpace(id) {
			return post, nil
		}
	}
	return domainblog.Post{}, errs.Wrapf(domainblog.ErrPostNotFound, "id %q", id)
}

func (s *Service) Create(ctx context.Context, draft Draft) (domainblog.Post, error) {
	if ctx == nil {
		return domainblog.Post{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return domainblog.Post{}, errs.Wrap(err, "check context")
	}

	post := domainblog.Post{
		ID:            s.newID(),
		Title:         strings.TrimSpace(draft.Title),
		Content:       draft.Content,
		DatePublished: s.now().UTC(),
	}
	if post.Title == "" {
		post.Title = domainblog.DefaultTitle
	}
	_ = post.Set(domainblog.FieldAuthor, draft.Author)
	_ = post.Set(domainblog.FieldImageURL, draft.ImageURL)

	posts := s.store.Load(ctx)
	posts = append(posts, post)
	if !s.store.Save(ctx, posts) {
		return domainblog.Post{}, errs.Wrapf(domainblog.ErrPersistenceFailure, "create %s", post.ID)
	}

	logging.Info(s.logCtx(ctx), "blog post created", slog.String("post_id", post.ID), slog.String("title", post.Title))
	return post, nil
}

// Update applies mutate to the stored post and saves the result. The post
// is not saved when mutate fails.
func (s *Service) Update(ctx context.Context, id string, mutate func(*domainblog.Post) error) (domainblog.Post, error) {
	if ctx == nil {
		return domainblog.Post{}, errors.New("context is required")
	}

	posts := s.store.Load(ctx)
	idx := indexOf(posts, id)
	if idx < 0 {
		return domainblog.Post{}, errs.Wrapf(domainblog.ErrPostNotFound, "id %q", id)
	}
	post := posts[idx]
	if err := mutate(&post); err != nil {
		return domainblog.Post{}, err
	}
	posts[idx] = post
	if !s.store.Save(ctx, posts) {
		return domainblog.Post{}, errs.Wrapf(domainblog.ErrPersistenceFailure, "update %s", id)
	}

	logging.Info(s.logCtx(ctx), "blog post updated", slog.String("post_id", post.ID))
	return post, nil
}

// Delete removes the post and returns it.
func (s *Service) Delete(ctx context.Context, id string) (domainblog.Post, error) {
	if ctx == nil {
		return domainblog.Post{}, errors.New("context is required")
	}

	posts := s.store.Load(ctx)
	idx := indexOf(posts, id)
	if idx < 0 {
		return domainblog.Post{}, errs.Wrapf(domainblog.ErrPostNotFound, "id %q", id)
	}
	removed := posts[idx]
	posts = append(posts[:idx], posts[idx+1:]...)
	if !s.store.Save(ctx, posts) {
		return domainblog.Post{}, errs.Wrapf(domainblog.ErrPersistenceFailure, "delete %s", id)
	}

	logging.Info(s.logCtx(ctx), "blog post deleted", slog.String("post_id", id))
	return removed, nil
}

func (s *Service) logCtx(ctx context.Context) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "blog.service"))
}

func indexOf(posts []domainblog.Post, id string) int {
	id = strings.TrimSpace(id)
	for i, post := range posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}
