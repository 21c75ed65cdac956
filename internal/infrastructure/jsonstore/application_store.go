package jsonstore

import (
	"context"

	"bridgee/internal/domain/application"
	"bridgee/internal/ports"
)

type ApplicationStore struct {
	path string
}

var _ ports.ApplicationStore = (*ApplicationStore)(nil)

func NewApplicationStore(path string) *ApplicationStore {
	return &ApplicationStore{path: path}
}

func (s *ApplicationStore) Path() string { return s.path }

func (s *ApplicationStore) Load(ctx context.Context) []application.Record {
	return loadArray[application.Record](ctx, s.path)
}

func (s *ApplicationStore) Save(ctx context.Context, records []application.Record) bool {
	return saveArray(ctx, s.path, records)
}
