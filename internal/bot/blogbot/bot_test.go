package blogbot

import (
	"context"
	"strings"
	"testing"
	"time"

	"bridgee/internal/domain/blog"
	"bridgee/internal/ports"
	blogsvc "bridgee/internal/usecase/blog"
)

const adminChat int64 = 777

type sentMessage struct {
	chatID int64
	msg    ports.ChatMessage
}

type fakeMessenger struct {
	sent    []sentMessage
	edited  []string
	answers []string
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, msg ports.ChatMessage) (int, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, msg: msg})
	return len(f.sent), nil
}

func (f *fakeMessenger) Edit(_ context.Context, _ int64, _ int, msg ports.ChatMessage) error {
	f.edited = append(f.edited, msg.Text)
	return nil
}

func (f *fakeMessenger) SendDocument(context.Context, int64, ports.ChatDocument) error { return nil }

func (f *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) last() ports.ChatMessage {
	if len(f.sent) == 0 {
		return ports.ChatMessage{}
	}
	return f.sent[len(f.sent)-1].msg
}

func (f *fakeMessenger) lastEdit() string {
	if len(f.edited) == 0 {
		return ""
	}
	return f.edited[len(f.edited)-1]
}

type memStore struct {
	posts []blog.Post
	fail  bool
}

func (m *memStore) Load(context.Context) []blog.Post {
	return append([]blog.Post(nil), m.posts...)
}

func (m *memStore) Save(_ context.Context, posts []blog.Post) bool {
	if m.fail {
		return false
	}
	m.posts = append([]blog.Post(nil), posts...)
	return true
}

func setupBot(t *testing.T, admin int64, posts ...blog.Post) (*Bot, *fakeMessenger, *memStore) {
	t.Helper()
	store := &memStore{posts: posts}
	messenger := &fakeMessenger{}
	return New(messenger, blogsvc.NewService(store), admin), messenger, store
}

func text(chatID int64, s string) ports.ChatUpdate {
	return ports.ChatUpdate{ChatID: chatID, Text: s}
}

func press(chatID int64, data string) ports.ChatUpdate {
	return ports.ChatUpdate{ChatID: chatID, MessageID: 9, CallbackID: "cb", CallbackData: data}
}

func mustHandle(t *testing.T, b *Bot, update ports.ChatUpdate) {
	t.Helper()
	if err := b.HandleUpdate(context.Background(), update); err != nil {
		t.Fatalf("HandleUpdate(%+v) error = %v", update, err)
	}
}

func samplePost(id, title string) blog.Post {
	author := "Ada"
	return blog.Post{
		ID:            id,
		Title:         title,
		Author:        &author,
		Content:       "body",
		DatePublished: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestUnauthorizedChat(t *testing.T) {
	b, messenger, _ := setupBot(t, adminChat)

	mustHandle(t, b, text(1, "/start"))
	if got := messenger.last().Text; got != msgUnauthorized {
		t.Fatalf("reply = %q, want %q", got, msgUnauthorized)
	}

	mustHandle(t, b, press(1, cbNewPost))
	if len(messenger.answers) != 1 || messenger.answers[0] != "Unauthorized" {
		t.Fatalf("answers = %v, want [Unauthorized]", messenger.answers)
	}
}

func TestOpenAccessWarnsOnce(t *testing.T) {
	b, messenger, _ := setupBot(t, 0)

	mustHandle(t, b, text(5, "/help"))
	mustHandle(t, b, text(5, "/help"))

	warnings := 0
	for _, s := range messenger.sent {
		if s.msg.Text == msgOpenAccess {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("open access warnings = %d, want 1", warnings)
	}
	if !b.Open() {
		t.Fatalf("Open() = false, want true")
	}
}

func TestStartMenu(t *testing.T) {
	b, messenger, _ := setupBot(t, adminChat)

	mustHandle(t, b, text(adminChat, "/start"))
	msg := messenger.last()
	if len(msg.Inline) != 5 || msg.Inline[0][0].Data != cbNewPost {
		t.Fatalf("menu = %+v, want 5 rows starting with %s", msg.Inline, cbNewPost)
	}
}

func TestNewPostConversation(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat)

	mustHandle(t, b, text(adminChat, "/newpost"))
	mustHandle(t, b, text(adminChat, "Hiring in 2025"))
	if got := messenger.last().Text; !strings.Contains(got, "Title set to: 'Hiring in 2025'") {
		t.Fatalf("title reply = %q", got)
	}
	mustHandle(t, b, text(adminChat, "We are growing."))
	mustHandle(t, b, text(adminChat, "skip"))
	mustHandle(t, b, text(adminChat, "https://example.com/a.png"))

	if len(store.posts) != 1 {
		t.Fatalf("stored posts = %d, want 1", len(store.posts))
	}
	post := store.posts[0]
	if post.Title != "Hiring in 2025" || post.Content != "We are growing." {
		t.Fatalf("post = %+v", post)
	}
	if post.Author != nil {
		t.Fatalf("Author = %q, want nil after skip", *post.Author)
	}
	if post.ImageURL == nil || *post.ImageURL != "https://example.com/a.png" {
		t.Fatalf("ImageURL = %v, want url", post.ImageURL)
	}
	want := "Blog post 'Hiring in 2025' successfully saved with ID: " + post.ID + "!"
	if got := messenger.last().Text; got != want {
		t.Fatalf("final reply = %q, want %q", got, want)
	}
}

func TestNewPostSaveFailure(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat)
	store.fail = true

	for _, s := range []string{"/newpost", "T", "C", "skip", "skip"} {
		mustHandle(t, b, text(adminChat, s))
	}
	if got := messenger.last().Text; got != "Error: Could not save the blog post to the file." {
		t.Fatalf("reply = %q", got)
	}
}

func TestCancelNewPost(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat)

	mustHandle(t, b, text(adminChat, "/newpost"))
	mustHandle(t, b, text(adminChat, "Title"))
	mustHandle(t, b, text(adminChat, "/cancel"))
	if got := messenger.last().Text; got != "New post creation cancelled." {
		t.Fatalf("reply = %q", got)
	}
	mustHandle(t, b, text(adminChat, "stray"))
	if len(store.posts) != 0 {
		t.Fatalf("stored posts = %d, want 0", len(store.posts))
	}
}

func TestListPosts(t *testing.T) {
	b, messenger, _ := setupBot(t, adminChat)
	mustHandle(t, b, text(adminChat, "/listposts"))
	if got := messenger.last().Text; got != "There are no blog posts yet." {
		t.Fatalf("empty reply = %q", got)
	}

	b, messenger, _ = setupBot(t, adminChat, samplePost("p1", "First"), samplePost("p2", "Second"))
	mustHandle(t, b, text(adminChat, "/listposts"))
	got := messenger.last().Text
	for _, want := range []string{"ID: p1\nTitle: First", "ID: p2\nTitle: Second", "/editpost <ID>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("list = %q, missing %q", got, want)
		}
	}
}

func TestDeletePostFlow(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat, samplePost("p1", "First"))

	mustHandle(t, b, text(adminChat, "/deletepost"))
	if got := messenger.last().Text; !strings.HasPrefix(got, "Please provide the ID") {
		t.Fatalf("missing id reply = %q", got)
	}
	mustHandle(t, b, text(adminChat, "/deletepost nope"))
	if got := messenger.last().Text; got != "Post with ID 'nope' not found." {
		t.Fatalf("unknown id reply = %q", got)
	}

	mustHandle(t, b, text(adminChat, "/deletepost p1"))
	confirm := messenger.last()
	if len(confirm.Inline) != 1 || confirm.Inline[0][0].Data != cbDeleteYes+":p1" {
		t.Fatalf("confirm buttons = %+v", confirm.Inline)
	}

	mustHandle(t, b, press(adminChat, cbDeleteNo+":p1"))
	if got := messenger.lastEdit(); got != "Post deletion cancelled." || len(store.posts) != 1 {
		t.Fatalf("cancel = %q, posts = %d", got, len(store.posts))
	}

	mustHandle(t, b, press(adminChat, cbDeleteYes+":p1"))
	if got := messenger.lastEdit(); got != "Post 'First' (ID: p1) has been deleted." {
		t.Fatalf("delete reply = %q", got)
	}
	if len(store.posts) != 0 {
		t.Fatalf("stored posts = %d, want 0", len(store.posts))
	}

	mustHandle(t, b, press(adminChat, cbDeleteYes+":p1"))
	if got := messenger.lastEdit(); !strings.Contains(got, "not found (maybe deleted already)") {
		t.Fatalf("repeat delete reply = %q", got)
	}
}

func TestEditPostAppliesChangesOnFinish(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat, samplePost("p1", "First"))

	mustHandle(t, b, text(adminChat, "/editpost"))
	if got := messenger.last().Text; !strings.Contains(got, "Please send the ID of the post you want to edit") {
		t.Fatalf("prompt = %q", got)
	}
	mustHandle(t, b, text(adminChat, "missing"))
	if got := messenger.last().Text; got != "Post with ID 'missing' not found. Send valid ID or /cancel." {
		t.Fatalf("bad id reply = %q", got)
	}
	mustHandle(t, b, text(adminChat, "p1"))
	if got := messenger.last().Text; !strings.HasPrefix(got, "Editing post: 'First'.") {
		t.Fatalf("field menu = %q", got)
	}

	mustHandle(t, b, press(adminChat, cbFieldPrefix+string(blog.FieldTitle)))
	if got := messenger.lastEdit(); !strings.HasPrefix(got, "What is the new title?") {
		t.Fatalf("title prompt = %q", got)
	}
	mustHandle(t, b, text(adminChat, "Renamed"))

	mustHandle(t, b, press(adminChat, cbFieldPrefix+string(blog.FieldAuthor)))
	mustHandle(t, b, text(adminChat, "None"))
	if got := messenger.sent[len(messenger.sent)-2].msg.Text; got != "Field 'Author' set to: 'None'. Choose another field or finish." {
		t.Fatalf("author reply = %q", got)
	}

	if store.posts[0].Title != "First" {
		t.Fatalf("post saved before finish: %+v", store.posts[0])
	}

	mustHandle(t, b, press(adminChat, cbFieldFinish))
	if got := messenger.lastEdit(); got != "Finished editing post." {
		t.Fatalf("finish reply = %q", got)
	}
	post := store.posts[0]
	if post.Title != "Renamed" || post.Author != nil || post.Content != "body" {
		t.Fatalf("post = %+v", post)
	}
}

func TestEditPostCancelAndSaveFailure(t *testing.T) {
	b, messenger, store := setupBot(t, adminChat, samplePost("p1", "First"))

	mustHandle(t, b, text(adminChat, "/editpost p1"))
	mustHandle(t, b, press(adminChat, cbFieldPrefix+string(blog.FieldContent)))
	mustHandle(t, b, text(adminChat, "new body"))
	mustHandle(t, b, press(adminChat, cbFieldCancel))
	if got := messenger.lastEdit(); got != "Post editing cancelled." || store.posts[0].Content != "body" {
		t.Fatalf("cancel = %q, content = %q", got, store.posts[0].Content)
	}

	mustHandle(t, b, text(adminChat, "/editpost p1"))
	mustHandle(t, b, press(adminChat, cbFieldPrefix+string(blog.FieldContent)))
	mustHandle(t, b, text(adminChat, "new body"))
	store.fail = true
	mustHandle(t, b, press(adminChat, cbFieldFinish))
	if got := messenger.lastEdit(); got != "Error: Could not save changes." {
		t.Fatalf("failure reply = %q", got)
	}
}

func TestEditWithoutPosts(t *testing.T) {
	b, messenger, _ := setupBot(t, adminChat)
	mustHandle(t, b, text(adminChat, "/editpost"))
	if got := messenger.last().Text; got != "There are no blog posts to edit." {
		t.Fatalf("reply = %q", got)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in, cmd, args string
	}{
		{"/editpost abc", "editpost", "abc"},
		{"/DeletePost@BlogBot  x1 ", "deletepost", "x1"},
		{"/start", "start", ""},
	}
	for _, tt := range tests {
		cmd, args := splitCommand(tt.in)
		if cmd != tt.cmd || args != tt.args {
			t.Fatalf("splitCommand(%q) = (%q, %q), want (%q, %q)", tt.in, cmd, args, tt.cmd, tt.args)
		}
	}
}
