package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

// Engine applies workflow transitions. Each call is one full
// load, mutate, save cycle against the store.
type Engine struct {
	store   ports.ApplicationStore
	ids     application.IdentifierScheme
	history ports.TransitionLog
	now     func() time.Time
}

// NewEngine wires the workflow engine. history may be nil.
func NewEngine(store ports.ApplicationStore, ids application.IdentifierScheme, history ports.TransitionLog) *Engine {
	return &Engine{
		store:   store,
		ids:     ids,
		history: history,
		now:     time.Now,
	}
}

// Transitioned describes a committed transition.
type Transitioned struct {
	Record application.Record
	From   application.Status
	Action application.Action
}

// ApplyTransition moves the record identified by correlationID according to
// action and persists the whole collection. On ErrPersistenceFailure the
// returned record is zero and the stored state is unchanged.
func (e *Engine) ApplyTransition(ctx context.Context, correlationID string, action application.Action, actor application.Actor) (application.Record, error) {
	result, err := e.apply(ctx, correlationID, action, actor)
	if err != nil {
		return application.Record{}, err
	}
	return result.Record, nil
}

func (e *Engine) apply(ctx context.Context, correlationID string, action application.Action, actor application.Actor) (Transitioned, error) {
	if ctx == nil {
		return Transitioned{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Transitioned{}, errs.Wrap(err, "check context")
	}
	if e.store == nil {
		return Transitioned{}, errors.New("application store is required")
	}

	logCtx := logging.WithAttrs(
		ctx,
		slog.String("component", "review.workflow"),
		slog.String("correlation_id", correlationID),
		slog.String("action", string(action)),
	)

	records := e.store.Load(ctx)
	record, idx, ok := e.ids.Resolve(correlationID, records)
	if !ok {
		logging.Warn(logCtx, "transition target not found")
		return Transitioned{}, errs.Wrapf(application.ErrRecordNotFound, "correlation id %q", correlationID)
	}

	from := record.Status
	to, err := application.NextStatus(from, action)
	if err != nil {
		logging.Warn(logCtx, "transition rejected", slog.String("from", string(from)))
		return Transitioned{}, err
	}

	record.ApplyStatus(to, actor, e.now())
	records[idx] = record

	if !e.store.Save(ctx, records) {
		logging.Error(logCtx, "transition not persisted", slog.String("artifact_name", record.ArtifactName))
		return Transitioned{}, errs.Wrapf(application.ErrPersistenceFailure, "save %s", record.ArtifactName)
	}

	logging.Info(
		logCtx,
		"transition applied",
		slog.String("artifact_name", record.ArtifactName),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("actor", actor.Name),
	)

	e.recordHistoryBestEffort(logCtx, record, from, action, actor)

	return Transitioned{Record: record, From: from, Action: action}, nil
}

func (e *Engine) recordHistoryBestEffort(ctx context.Context, record application.Record, from application.Status, action application.Action, actor application.Actor) {
	if e.history == nil {
		return
	}
	if err := e.history.Append(ctx, ports.TransitionEvent{
		ArtifactName: record.ArtifactName,
		FromStatus:   string(from),
		ToStatus:     string(record.Status),
		Action:       string(action),
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		CreatedAt:    e.now(),
	}); err != nil {
		logging.Warn(ctx, "record transition history failed", slog.Any("err", errs.Loggable(err)))
	}
}
