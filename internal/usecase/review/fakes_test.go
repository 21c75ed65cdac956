package review

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"bridgee/internal/domain/application"
	"bridgee/internal/ports"
)

type memStore struct {
	mu        sync.Mutex
	records   []application.Record
	saves     int
	failSaves bool
}

func newMemStore(records ...application.Record) *memStore {
	return &memStore{records: append([]application.Record(nil), records...)}
}

func (s *memStore) Load(context.Context) []application.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]application.Record{}, s.records...)
}

func (s *memStore) Save(_ context.Context, records []application.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return false
	}
	s.saves++
	s.records = append([]application.Record(nil), records...)
	return true
}

func (s *memStore) find(artifactName string) (application.Record, bool) {
	for _, record := range s.Load(context.Background()) {
		if record.ArtifactName == artifactName {
			return record, true
		}
	}
	return application.Record{}, false
}

type memArtifacts struct {
	files map[string][]byte
}

func (m *memArtifacts) Put(_ context.Context, name string, r io.Reader) error {
	if _, ok := m.files[name]; ok {
		return ports.ErrArtifactExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[name] = data
	return nil
}

func (m *memArtifacts) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, application.ErrArtifactNotFound
	}
	return data, nil
}

type memHistory struct {
	events []ports.TransitionEvent
	fail   bool
}

func (h *memHistory) Append(_ context.Context, event ports.TransitionEvent) error {
	if h.fail {
		return errors.New("history unavailable")
	}
	h.events = append(h.events, event)
	return nil
}

func (h *memHistory) ListByArtifact(_ context.Context, artifactName string) ([]ports.TransitionEvent, error) {
	var out []ports.TransitionEvent
	for _, event := range h.events {
		if event.ArtifactName == artifactName {
			out = append(out, event)
		}
	}
	return out, nil
}

func (h *memHistory) Recent(_ context.Context, limit int) ([]ports.TransitionEvent, error) {
	if limit > len(h.events) {
		limit = len(h.events)
	}
	return h.events[len(h.events)-limit:], nil
}

var baseTime = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func sampleRecord(id string, status application.Status, minutes int) application.Record {
	return application.Record{
		ArtifactName: id + "-cv.pdf",
		FullName:     "Applicant " + id,
		Email:        id + "@example.com",
		JobTitle:     "Backend Engineer",
		SubmittedAt:  baseTime.Add(time.Duration(minutes) * time.Minute),
		Status:       status,
	}
}
