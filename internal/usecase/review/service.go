package review

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

// Service is what the review front ends (chat bot, console, CLI) talk to.
type Service struct {
	store     ports.ApplicationStore
	artifacts ports.ArtifactStore
	ids       application.IdentifierScheme
	history   ports.TransitionLog
	engine    *Engine
	sessions  *Sessions
}

// NewService wires review use cases. history may be nil.
func NewService(
	store ports.ApplicationStore,
	artifacts ports.ArtifactStore,
	ids application.IdentifierScheme,
	history ports.TransitionLog,
) *Service {
	return &Service{
		store:     store,
		artifacts: artifacts,
		ids:       ids,
		history:   history,
		engine:    NewEngine(store, ids, history),
		sessions:  NewSessions(store),
	}
}

func (s *Service) Identifiers() application.IdentifierScheme { return s.ids }

// List starts (or restarts) the conversation's session over status.
func (s *Service) List(ctx context.Context, conversationID int64, status application.Status, jobTitle string) (*Session, error) {
	return s.sessions.Start(ctx, conversationID, status, jobTitle)
}

func (s *Service) Session(conversationID int64) (*Session, bool) {
	return s.sessions.Get(conversationID)
}

func (s *Service) EndSession(conversationID int64) {
	s.sessions.End(conversationID)
}

type ActResult struct {
	Record             application.Record
	From               application.Status
	RemovedFromSession bool
	SessionExhausted   bool
}

// Act applies action to the record behind correlationID. When the
// conversation has an active session whose filter the record no longer
// matches, the record is dropped from that session's snapshot.
func (s *Service) Act(ctx context.Context, conversationID int64, correlationID string, action application.Action, actor application.Actor) (ActResult, error) {
	transitioned, err := s.engine.apply(ctx, correlationID, action, actor)
	if err != nil {
		return ActResult{}, err
	}

	result := ActResult{Record: transitioned.Record, From: transitioned.From}
	if session, ok := s.sessions.Get(conversationID); ok && transitioned.Record.Status != session.FilterStatus {
		result.RemovedFromSession = session.Remove(transitioned.Record.ArtifactName)
		result.SessionExhausted = session.Empty()
	}
	return result, nil
}

// FetchArtifact returns the stored CV bytes.
func (s *Service) FetchArtifact(ctx context.Context, artifactName string) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s.artifacts == nil {
		return nil, errors.New("artifact store is required")
	}
	data, err := s.artifacts.Get(ctx, artifactName)
	if err != nil {
		if !errors.Is(err, application.ErrArtifactNotFound) {
			logging.Error(
				logging.WithAttrs(ctx, slog.String("component", "review.service")),
				"fetch artifact failed",
				slog.String("artifact_name", artifactName),
				slog.Any("err", errs.Loggable(err)),
			)
		}
		return nil, err
	}
	return data, nil
}

// StatusCount is one row of the status overview. Unrecognized stored
// statuses get their own rows after the known ones.
type StatusCount struct {
	Status application.Status
	Count  int
}

func (s *Service) Counts(ctx context.Context) []StatusCount {
	counts := make(map[application.Status]int)
	for _, record := range s.store.Load(ctx) {
		counts[record.Status]++
	}

	out := make([]StatusCount, 0, len(counts)+len(application.AllStatuses()))
	for _, status := range application.AllStatuses() {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
		delete(counts, status)
	}
	unknown := make([]application.Status, 0, len(counts))
	for status := range counts {
		unknown = append(unknown, status)
	}
	slices.Sort(unknown)
	for _, status := range unknown {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

// Find resolves correlationID against the current store contents.
func (s *Service) Find(ctx context.Context, correlationID string) (application.Record, error) {
	record, _, ok := s.ids.Resolve(strings.TrimSpace(correlationID), s.store.Load(ctx))
	if !ok {
		return application.Record{}, errs.Wrapf(application.ErrRecordNotFound, "correlation id %q", correlationID)
	}
	return record, nil
}

// History returns the record and its recorded transitions, oldest first.
func (s *Service) History(ctx context.Context, correlationID string) (application.Record, []ports.TransitionEvent, error) {
	record, err := s.Find(ctx, correlationID)
	if err != nil {
		return application.Record{}, nil, err
	}
	if s.history == nil {
		return record, nil, nil
	}
	events, err := s.history.ListByArtifact(ctx, record.ArtifactName)
	if err != nil {
		return record, nil, errs.Wrap(err, "list transition history")
	}
	return record, events, nil
}

// All returns every record, newest first. An empty status matches any.
func (s *Service) All(ctx context.Context, status application.Status, jobTitle string) []application.Record {
	jobTitle = strings.TrimSpace(jobTitle)
	return selectNewestFirst(s.store.Load(ctx), func(r application.Record) bool {
		return (status == "" || r.Status == status) && jobTitleMatches(r, jobTitle)
	})
}
