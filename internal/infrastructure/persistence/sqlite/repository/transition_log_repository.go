package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/persistence/sqlite/model"
	"bridgee/internal/ports"
)

const defaultRecentLimit = 20

type TransitionLogRepository struct {
	db *gorm.DB
}

var _ ports.TransitionLog = (*TransitionLogRepository)(nil)

func NewTransitionLogRepository(db *gorm.DB) *TransitionLogRepository {
	return &TransitionLogRepository{db: db}
}

func (r *TransitionLogRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return r.db.WithContext(ctx), nil
}

func (r *TransitionLogRepository) Append(ctx context.Context, event ports.TransitionEvent) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	artifactName := strings.TrimSpace(event.ArtifactName)
	if artifactName == "" {
		return errors.New("artifact name is required")
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := model.TransitionEvent{
		ArtifactName: artifactName,
		FromStatus:   event.FromStatus,
		ToStatus:     event.ToStatus,
		Action:       event.Action,
		ActorID:      event.ActorID,
		ActorName:    event.ActorName,
		CreatedAt:    createdAt.UTC().Format(time.RFC3339Nano),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert transition event")
	}
	return nil
}

func (r *TransitionLogRepository) ListByArtifact(ctx context.Context, artifactName string) ([]ports.TransitionEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.TransitionEvent
	if err := db.Where("artifact_name = ?", strings.TrimSpace(artifactName)).
		Order("event_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "list transition events by artifact")
	}
	return mapTransitionEvents(rows), nil
}

func (r *TransitionLogRepository) Recent(ctx context.Context, limit int) ([]ports.TransitionEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var rows []model.TransitionEvent
	if err := db.Order("event_id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "list recent transition events")
	}
	return mapTransitionEvents(rows), nil
}

func mapTransitionEvents(rows []model.TransitionEvent) []ports.TransitionEvent {
	out := make([]ports.TransitionEvent, 0, len(rows))
	for _, row := range rows {
		createdAt, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
		out = append(out, ports.TransitionEvent{
			EventID:      row.EventID,
			ArtifactName: row.ArtifactName,
			FromStatus:   row.FromStatus,
			ToStatus:     row.ToStatus,
			Action:       row.Action,
			ActorID:      row.ActorID,
			ActorName:    row.ActorName,
			CreatedAt:    createdAt,
		})
	}
	return out
}
