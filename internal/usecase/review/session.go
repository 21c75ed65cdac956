package review

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

const PageSize = 3

// Session is one conversation's cursor over a snapshot of records. The
// snapshot is taken when the session starts and is never re-queried; only
// Remove shrinks it.
type Session struct {
	FilterStatus application.Status
	JobTitle     string
	Snapshot     []application.Record
	PageIndex    int
	PageSize     int
	StartedAt    time.Time
}

func (s *Session) PageCount() int {
	if len(s.Snapshot) == 0 {
		return 0
	}
	return (len(s.Snapshot) + s.PageSize - 1) / s.PageSize
}

func (s *Session) CurrentPage() []application.Record {
	start := s.PageIndex * s.PageSize
	if start >= len(s.Snapshot) {
		return nil
	}
	end := min(start+s.PageSize, len(s.Snapshot))
	return s.Snapshot[start:end]
}

// NextPage advances one page. It returns false, leaving the index alone,
// when already on the last page.
func (s *Session) NextPage() bool {
	if s.PageIndex+1 >= s.PageCount() {
		return false
	}
	s.PageIndex++
	return true
}

// PreviousPage returns false when already on the first page.
func (s *Session) PreviousPage() bool {
	if s.PageIndex == 0 {
		return false
	}
	s.PageIndex--
	return true
}

// Bounds returns the 1-based positions of the current page and the total.
func (s *Session) Bounds() (first, last, total int) {
	total = len(s.Snapshot)
	page := s.CurrentPage()
	if len(page) == 0 {
		return 0, 0, total
	}
	first = s.PageIndex*s.PageSize + 1
	return first, first + len(page) - 1, total
}

func (s *Session) Empty() bool { return len(s.Snapshot) == 0 }

// Remove drops artifactName from the snapshot and keeps the page index in
// range. It reports whether anything was removed.
func (s *Session) Remove(artifactName string) bool {
	idx := slices.IndexFunc(s.Snapshot, func(r application.Record) bool {
		return r.ArtifactName == artifactName
	})
	if idx < 0 {
		return false
	}
	s.Snapshot = slices.Delete(s.Snapshot, idx, idx+1)
	if last := s.PageCount() - 1; s.PageIndex > last {
		s.PageIndex = max(last, 0)
	}
	return true
}

// Sessions holds the active session per conversation. A session is created
// when an operator opens a list and discarded when they return to the main
// menu.
type Sessions struct {
	store ports.ApplicationStore
	now   func() time.Time

	mu             sync.Mutex
	byConversation map[int64]*Session
}

func NewSessions(store ports.ApplicationStore) *Sessions {
	return &Sessions{
		store:          store,
		now:            time.Now,
		byConversation: make(map[int64]*Session),
	}
}

// Start snapshots the records in status, optionally narrowed to one job
// title (case-insensitive exact match), newest first. An empty result
// returns ErrNothingToReview and leaves the conversation without a session.
func (m *Sessions) Start(ctx context.Context, conversationID int64, status application.Status, jobTitle string) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	jobTitle = strings.TrimSpace(jobTitle)
	snapshot := filterRecords(m.store.Load(ctx), status, jobTitle)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(snapshot) == 0 {
		delete(m.byConversation, conversationID)
		return nil, errs.Wrapf(application.ErrNothingToReview, "status %q", string(status))
	}

	session := &Session{
		FilterStatus: status,
		JobTitle:     jobTitle,
		Snapshot:     snapshot,
		PageSize:     PageSize,
		StartedAt:    m.now(),
	}
	m.byConversation[conversationID] = session

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "review.sessions")),
		"review session started",
		slog.Int64("conversation_id", conversationID),
		slog.String("status", string(status)),
		slog.String("job_title", jobTitle),
		slog.Int("records", len(snapshot)),
	)
	return session, nil
}

func (m *Sessions) Get(conversationID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byConversation[conversationID]
	return session, ok
}

func (m *Sessions) End(conversationID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byConversation, conversationID)
}

func filterRecords(records []application.Record, status application.Status, jobTitle string) []application.Record {
	return selectNewestFirst(records, func(r application.Record) bool {
		return r.Status == status && jobTitleMatches(r, jobTitle)
	})
}

func jobTitleMatches(r application.Record, jobTitle string) bool {
	return jobTitle == "" || strings.EqualFold(strings.TrimSpace(r.JobTitle), jobTitle)
}

func selectNewestFirst(records []application.Record, keep func(application.Record) bool) []application.Record {
	out := make([]application.Record, 0, len(records))
	for _, record := range records {
		if keep(record) {
			out = append(out, record)
		}
	}
	slices.SortStableFunc(out, func(a, b application.Record) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	return out
}
