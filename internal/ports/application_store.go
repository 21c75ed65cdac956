package ports

import (
	"context"

	"bridgee/internal/domain/application"
)

// ApplicationStore is whole-collection persistence for application records.
//
// Load never fails: a missing or unreadable store reads as empty. Save
// replaces the entire collection and reports false when nothing was
// persisted. There is no locking between Load and Save, so two writers that
// interleave lose the earlier write.
type ApplicationStore interface {
	Load(ctx context.Context) []application.Record
	Save(ctx context.Context, records []application.Record) bool
}
