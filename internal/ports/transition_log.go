package ports

import (
	"context"
	"time"
)

type TransitionEvent struct {
	EventID      uint64
	ArtifactName string
	FromStatus   string
	ToStatus     string
	Action       string
	ActorID      string
	ActorName    string
	CreatedAt    time.Time
}

// TransitionLog is an append-only history of applied status changes. It is
// informational; the record store stays the source of truth.
type TransitionLog interface {
	Append(ctx context.Context, event TransitionEvent) error
	ListByArtifact(ctx context.Context, artifactName string) ([]TransitionEvent, error)
	Recent(ctx context.Context, limit int) ([]TransitionEvent, error)
}
