package ports

import (
	"context"

	"bridgee/internal/domain/application"
)

// Notifier announces accepted submissions. Failures are reported to the
// caller but never undo the stored record.
type Notifier interface {
	ApplicationReceived(ctx context.Context, record application.Record) error
}

// DocumentInspector extracts optional metadata from an uploaded CV.
type DocumentInspector interface {
	PageCount(ctx context.Context, filename string, data []byte) (int, error)
}
