package ports

import (
	"context"
	"errors"
	"io"
)

var ErrArtifactExists = errors.New("artifact already exists")

// ArtifactStore keeps uploaded CV files keyed by artifact name. Writes are
// put-once; nothing is ever garbage collected.
type ArtifactStore interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Get(ctx context.Context, name string) ([]byte, error)
}
