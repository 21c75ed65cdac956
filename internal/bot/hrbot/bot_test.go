package hrbot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"bridgee/internal/domain/application"
	"bridgee/internal/ports"
	"bridgee/internal/usecase/review"
)

const hrChat int64 = 4242

type sentMessage struct {
	chatID int64
	msg    ports.ChatMessage
}

type editedMessage struct {
	chatID    int64
	messageID int
	msg       ports.ChatMessage
}

type fakeMessenger struct {
	sent    []sentMessage
	edited  []editedMessage
	docs    []ports.ChatDocument
	answers []string
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, msg ports.ChatMessage) (int, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, msg: msg})
	return len(f.sent), nil
}

func (f *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, msg ports.ChatMessage) error {
	f.edited = append(f.edited, editedMessage{chatID: chatID, messageID: messageID, msg: msg})
	return nil
}

func (f *fakeMessenger) SendDocument(_ context.Context, _ int64, doc ports.ChatDocument) error {
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) texts() []string {
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.msg.Text)
	}
	return out
}

func (f *fakeMessenger) last() ports.ChatMessage {
	return f.sent[len(f.sent)-1].msg
}

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

type memArtifacts struct {
	files map[string][]byte
}

func (m *memArtifacts) Put(_ context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	m.files[name] = data
	return err
}

func (m *memArtifacts) Get(_ context.Context, name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, application.ErrArtifactNotFound
	}
	return data, nil
}

func setupBot(t *testing.T, newCount int) (*Bot, *fakeMessenger, *memStore) {
	t.Helper()
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	store := &memStore{}
	files := &memArtifacts{files: map[string][]byte{}}
	for i := 0; i < newCount; i++ {
		name := fmt.Sprintf("%d-cv%d.pdf", 1000+i, i)
		store.records = append(store.records, application.Record{
			ArtifactName: name,
			FullName:     fmt.Sprintf("Applicant %d", i),
			Email:        fmt.Sprintf("a%d@example.com", i),
			JobTitle:     "Engineer",
			SubmittedAt:  base.Add(time.Duration(i) * time.Minute),
			Status:       application.StatusNew,
		})
		files.files[name] = []byte("%PDF")
	}
	messenger := &fakeMessenger{}
	reviews := review.NewService(store, files, application.TimestampPrefixScheme{}, nil)
	return New(messenger, reviews, hrChat), messenger, store
}

func textUpdate(text string) ports.ChatUpdate {
	return ports.ChatUpdate{ChatID: hrChat, Text: text, From: ports.ChatUser{ID: 7, FirstName: "Dana"}}
}

func callbackUpdate(data string) ports.ChatUpdate {
	return ports.ChatUpdate{ChatID: hrChat, MessageID: 55, CallbackID: "cb", CallbackData: data, From: ports.ChatUser{ID: 7, FirstName: "Dana"}}
}

func TestUnauthorizedChat(t *testing.T) {
	bot, messenger, _ := setupBot(t, 1)

	if err := bot.HandleUpdate(context.Background(), ports.ChatUpdate{ChatID: 1, Text: "/start"}); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if got := messenger.last().Text; got != msgUnauthorized {
		t.Fatalf("reply = %q, want %q", got, msgUnauthorized)
	}

	if err := bot.HandleUpdate(context.Background(), ports.ChatUpdate{ChatID: 1, CallbackID: "x", CallbackData: "act:accept:1000"}); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if len(messenger.answers) != 1 || messenger.answers[0] != "Unauthorized" {
		t.Fatalf("answers = %v", messenger.answers)
	}
}

func TestStartShowsMainMenu(t *testing.T) {
	bot, messenger, _ := setupBot(t, 0)
	if err := bot.HandleUpdate(context.Background(), textUpdate("/start")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	msg := messenger.last()
	if len(msg.Keyboard) != 6 || msg.Keyboard[0][0] != "Review New Applications" || msg.Keyboard[2][1] != "View Offer Extended" {
		t.Fatalf("keyboard = %v", msg.Keyboard)
	}
}

func TestReviewSessionPagesAndSendsCVs(t *testing.T) {
	bot, messenger, _ := setupBot(t, 4)
	ctx := context.Background()

	if err := bot.HandleUpdate(ctx, textUpdate("Review New Applications")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	texts := messenger.texts()
	if texts[0] != "Starting review of 4 new application(s). Use navigation buttons below." {
		t.Fatalf("first reply = %q", texts[0])
	}
	if texts[1] != "Displaying page 1 of 2 for 'New' applications. (1-3 of 4 total)." {
		t.Fatalf("summary = %q", texts[1])
	}
	if len(messenger.sent) != 5 || len(messenger.docs) != 3 {
		t.Fatalf("sent = %d docs = %d, want 5 and 3", len(messenger.sent), len(messenger.docs))
	}
	card := messenger.sent[2].msg
	if !strings.Contains(card.Text, "Name: Applicant 3") {
		t.Fatalf("first card = %q", card.Text)
	}
	if card.Inline[0][0].Data != "act:accept:1003" || card.Inline[0][1].Text != "Decline" {
		t.Fatalf("buttons = %+v", card.Inline)
	}

	if err := bot.HandleUpdate(ctx, textUpdate("Next Page")); err != nil {
		t.Fatalf("Next Page error = %v", err)
	}
	if got := messenger.sent[5].msg.Text; got != "Displaying page 2 of 2 for 'New' applications. (4-4 of 4 total)." {
		t.Fatalf("page 2 summary = %q", got)
	}
	if err := bot.HandleUpdate(ctx, textUpdate("Next Page")); err != nil {
		t.Fatalf("Next Page error = %v", err)
	}
	if got := messenger.last().Text; got != "You are already on the last page." {
		t.Fatalf("reply = %q", got)
	}

	if err := bot.HandleUpdate(ctx, textUpdate("Back to Main Menu")); err != nil {
		t.Fatalf("Back error = %v", err)
	}
	if err := bot.HandleUpdate(ctx, textUpdate("Previous Page")); err != nil {
		t.Fatalf("Previous Page error = %v", err)
	}
	if got := messenger.last().Text; got != "No active list. Choose a view from the main menu." {
		t.Fatalf("reply = %q", got)
	}
}

func TestViewCommandWithJobFilter(t *testing.T) {
	bot, messenger, store := setupBot(t, 2)
	store.records[0].Status = application.StatusInterviewing
	store.records[0].JobTitle = "UI/UX Designer"

	if err := bot.HandleUpdate(context.Background(), textUpdate("/view_interviewing@hr_bot ui/ux designer")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if got := messenger.texts()[0]; got != "Viewing 1 application(s) with status: Interviewing. Use navigation buttons below." {
		t.Fatalf("reply = %q", got)
	}

	if err := bot.HandleUpdate(context.Background(), textUpdate("/view_employed Virtual Assistant")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if got := messenger.last().Text; got != "No applications found for job title 'Virtual Assistant' with status: Employed." {
		t.Fatalf("reply = %q", got)
	}
}

func TestCallbackTransitionsAndEditsCard(t *testing.T) {
	bot, messenger, store := setupBot(t, 1)
	ctx := context.Background()

	if err := bot.HandleUpdate(ctx, textUpdate("/review_applications")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if err := bot.HandleUpdate(ctx, callbackUpdate("act:accept:1000")); err != nil {
		t.Fatalf("callback error = %v", err)
	}

	saved := store.Load(ctx)[0]
	if saved.Status != application.StatusAcceptedPendingInterview || saved.ReviewerID != "7" || saved.ReviewerName != "Dana" {
		t.Fatalf("stored = %+v", saved)
	}
	if len(messenger.edited) != 1 || messenger.edited[0].messageID != 55 {
		t.Fatalf("edited = %+v", messenger.edited)
	}
	edit := messenger.edited[0].msg
	if !strings.Contains(edit.Text, "Status: Accepted (Pending Interview)") || !strings.Contains(edit.Text, "by Dana") {
		t.Fatalf("edited card = %q", edit.Text)
	}
	if edit.Inline[0][0].Data != "act:interview:1000" {
		t.Fatalf("edited buttons = %+v", edit.Inline)
	}
	if messenger.answers[0] != "Status updated to: Accepted (Pending Interview)" {
		t.Fatalf("answer = %q", messenger.answers[0])
	}
	if got := messenger.last().Text; got != "All applications in this view have been handled." {
		t.Fatalf("last reply = %q", got)
	}
}

func TestCallbackErrors(t *testing.T) {
	bot, messenger, _ := setupBot(t, 1)
	ctx := context.Background()

	if err := bot.HandleUpdate(ctx, callbackUpdate("act:employ:1000")); err != nil {
		t.Fatalf("invalid action error = %v", err)
	}
	if !strings.Contains(messenger.answers[0], "not available") {
		t.Fatalf("answer = %q", messenger.answers[0])
	}

	if err := bot.HandleUpdate(ctx, callbackUpdate("act:accept:9999")); err != nil {
		t.Fatalf("not found error = %v", err)
	}
	if !strings.HasPrefix(messenger.edited[0].msg.Text, "Error: Application not found.") {
		t.Fatalf("edit = %q", messenger.edited[0].msg.Text)
	}

	if err := bot.HandleUpdate(ctx, callbackUpdate("set_status:accepted:1000")); err != nil {
		t.Fatalf("unknown data error = %v", err)
	}
	if messenger.edited[1].msg.Text != "Unknown action." {
		t.Fatalf("edit = %q", messenger.edited[1].msg.Text)
	}
}

func TestStoreChangedPingsOnGrowth(t *testing.T) {
	bot, messenger, store := setupBot(t, 1)
	ctx := context.Background()

	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Fatalf("baseline call sent %d messages", len(messenger.sent))
	}

	store.records = append(store.records, application.Record{ArtifactName: "2000-x.pdf", Status: application.StatusNew})
	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 1 || messenger.sent[0].chatID != hrChat || !strings.HasPrefix(messenger.sent[0].msg.Text, "2 new application(s)") {
		t.Fatalf("sent = %+v", messenger.sent)
	}

	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("unchanged count sent another ping")
	}
}

func TestStoreChangedIgnoresReturnsToNew(t *testing.T) {
	bot, messenger, store := setupBot(t, 2)
	ctx := context.Background()

	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}

	store.records[0].Status = application.StatusAcceptedPendingInterview
	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	store.records[0].Status = application.StatusNew
	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Fatalf("undo back to new sent %d pings: %+v", len(messenger.sent), messenger.sent)
	}

	store.records = append(store.records, application.Record{ArtifactName: "3000-y.pdf", Status: application.StatusNew})
	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 1 || !strings.HasPrefix(messenger.sent[0].msg.Text, "3 new application(s)") {
		t.Fatalf("sent = %+v", messenger.sent)
	}
}

func TestOpenBotServesAnyChatWithoutPings(t *testing.T) {
	store := &memStore{}
	messenger := &fakeMessenger{}
	bot := New(messenger, review.NewService(store, &memArtifacts{files: map[string][]byte{}}, application.TimestampPrefixScheme{}, nil), 0)
	ctx := context.Background()

	if !bot.Open() {
		t.Fatalf("Open() = false, want true for chat id 0")
	}
	if err := bot.HandleUpdate(ctx, ports.ChatUpdate{ChatID: 999, Text: "/start"}); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if len(messenger.sent) != 1 || messenger.sent[0].msg.Text == msgUnauthorized {
		t.Fatalf("sent = %+v, want the main menu", messenger.sent)
	}

	_ = bot.StoreChanged(ctx)
	store.records = append(store.records, application.Record{ArtifactName: "1-a.pdf", Status: application.StatusNew})
	if err := bot.StoreChanged(ctx); err != nil {
		t.Fatalf("StoreChanged() error = %v", err)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("open bot sent a ping: %+v", messenger.sent)
	}
}

func TestCardMessageWithoutButtonsExplains(t *testing.T) {
	record := application.Record{
		ArtifactName: "Curriculum_Vitae_of_a_candidate_with_a_rather_long_filename.pdf",
		Status:       application.StatusNew,
	}
	msg := cardMessage(record, application.TimestampPrefixScheme{})
	if len(msg.Inline) != 0 {
		t.Fatalf("Inline = %+v, want no buttons", msg.Inline)
	}
	if !strings.HasSuffix(msg.Text, msgNoButtons) {
		t.Fatalf("Text = %q, want the no-buttons note", msg.Text)
	}
}

func TestSplitCommand(t *testing.T) {
	testCases := []struct {
		in, command, args string
	}{
		{in: "/start", command: "start"},
		{in: "/View_Employed@hr_bot  Virtual Assistant ", command: "view_employed", args: "Virtual Assistant"},
		{in: "/review_applications Full-Stack Developer", command: "review_applications", args: "Full-Stack Developer"},
	}
	for _, tc := range testCases {
		command, args := splitCommand(tc.in)
		if command != tc.command || args != tc.args {
			t.Fatalf("splitCommand(%q) = %q, %q; want %q, %q", tc.in, command, args, tc.command, tc.args)
		}
	}
}
