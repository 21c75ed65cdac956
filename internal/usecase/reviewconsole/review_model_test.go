package reviewconsole

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bridgee/internal/domain/application"
	"bridgee/internal/usecase/review"
)

type memStore struct {
	mu      sync.Mutex
	records []application.Record
}

func (s *memStore) Load(context.Context) []application.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]application.Record{}, s.records...)
}

func (s *memStore) Save(_ context.Context, records []application.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]application.Record(nil), records...)
	return true
}

func newTestModel(t *testing.T, count int) (*reviewModel, *memStore) {
	t.Helper()
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	store := &memStore{}
	for i := 0; i < count; i++ {
		store.records = append(store.records, application.Record{
			ArtifactName: fmt.Sprintf("%d-cv%d.pdf", 1000+i, i),
			FullName:     fmt.Sprintf("Applicant %d", i),
			Email:        fmt.Sprintf("a%d@example.com", i),
			JobTitle:     "Engineer",
			SubmittedAt:  base.Add(time.Duration(i) * time.Minute),
			Status:       application.StatusNew,
		})
	}
	svc := review.NewService(store, nil, application.TimestampPrefixScheme{}, nil)
	model := NewReviewModel(context.Background(), svc, Options{Actor: application.Actor{ID: "op", Name: "Operator"}}).(*reviewModel)
	model.now = func() time.Time { return base }
	return model, store
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *reviewModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	m.Update(cmd())
}

func press(m *reviewModel, key string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return cmd
}

func TestModelPagesThroughSnapshot(t *testing.T) {
	m, _ := newTestModel(t, 4)
	run(t, m, m.Init())

	if !strings.Contains(m.status, "Displaying page 1 of 2 for New (1-3 of 4 total)") {
		t.Fatalf("status = %q", m.status)
	}
	view := m.View()
	if !strings.Contains(view, "> 1003") {
		t.Fatalf("newest record not selected first:\n%s", view)
	}

	press(m, "n")
	if !strings.Contains(m.status, "page 2 of 2") {
		t.Fatalf("status after next = %q", m.status)
	}
	press(m, "n")
	if m.status != "You are already on the last page." {
		t.Fatalf("status at end = %q", m.status)
	}
	press(m, "p")
	press(m, "p")
	if m.status != "You are already on the first page." {
		t.Fatalf("status at start = %q", m.status)
	}
}

func TestModelActRemovesRecordFromView(t *testing.T) {
	m, store := newTestModel(t, 2)
	run(t, m, m.Init())

	run(t, m, press(m, "1"))

	if len(m.auditLogs) != 1 || !strings.Contains(m.auditLogs[0], "id=1001 action=accept result=New -> Accepted (Pending Interview)") {
		t.Fatalf("auditLogs = %v", m.auditLogs)
	}
	if got := len(m.session.Snapshot); got != 1 {
		t.Fatalf("snapshot size = %d, want 1", got)
	}
	saved := store.Load(context.Background())
	if saved[1].Status != application.StatusAcceptedPendingInterview || saved[1].ReviewerName != "Operator" {
		t.Fatalf("stored record = %+v", saved[1])
	}

	run(t, m, press(m, "2"))
	if m.session != nil || !strings.Contains(m.status, "No more applications in this view.") {
		t.Fatalf("session = %v, status = %q", m.session, m.status)
	}
}

func TestModelActionOutOfRange(t *testing.T) {
	m, _ := newTestModel(t, 1)
	run(t, m, m.Init())

	if cmd := press(m, "5"); cmd != nil {
		t.Fatalf("press(5) returned a command")
	}
	if !strings.Contains(m.status, "no action 5") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModelEmptyTabAndStoreChanged(t *testing.T) {
	m, _ := newTestModel(t, 1)
	run(t, m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	run(t, m, cmd)
	if m.session != nil || m.status != "No applications with status Accepted (Pending Interview)." {
		t.Fatalf("status = %q", m.status)
	}

	m.Update(StoreChangedMsg{})
	if !strings.Contains(m.View(), "changed on disk") {
		t.Fatalf("view missing change indicator")
	}
	run(t, m, press(m, "g"))
	if m.storeChanged {
		t.Fatalf("storeChanged still set after reload")
	}
}

func TestModelJobFilter(t *testing.T) {
	m, store := newTestModel(t, 2)
	store.records[0].JobTitle = "Designer"
	run(t, m, m.Init())

	press(m, "/")
	if !m.filtering {
		t.Fatalf("filter mode not entered")
	}
	m.filter.SetValue("designer")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	if m.jobTitle != "designer" || len(m.session.Snapshot) != 1 || m.session.Snapshot[0].JobTitle != "Designer" {
		t.Fatalf("jobTitle = %q, snapshot = %+v", m.jobTitle, m.session.Snapshot)
	}
}
