// Package blogbot is the admin chat front end for the website blog.
package blogbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/blog"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
	blogsvc "bridgee/internal/usecase/blog"
)

const (
	cbNewPost       = "menu_new_post"
	cbListPosts     = "menu_list_posts"
	cbEditPost      = "menu_edit_post_start"
	cbDeletePost    = "menu_delete_post_start"
	cbHelp          = "menu_help"
	cbFieldPrefix   = "editfield_"
	cbFieldFinish   = "editfield_finish"
	cbFieldCancel   = "editfield_cancel_current_edit"
	cbDeleteYes     = "deletepost_confirm_yes"
	cbDeleteNo      = "deletepost_confirm_no"
	maxMessageRunes = 4096

	msgUnauthorized = "Sorry, you are not authorized to use this command."
	msgOpenAccess   = "Warning: Bot admin chat ID is not configured. Access is open."
)

type Bot struct {
	messenger ports.Messenger
	posts     *blogsvc.Service
	adminID   int64
	convs     *conversations

	warnMu sync.Mutex
	warned map[int64]bool
}

// New builds the bot. adminChatID 0 leaves it open to every chat, with a
// warning on first contact.
func New(messenger ports.Messenger, posts *blogsvc.Service, adminChatID int64) *Bot {
	return &Bot{
		messenger: messenger,
		posts:     posts,
		adminID:   adminChatID,
		convs:     newConversations(),
		warned:    make(map[int64]bool),
	}
}

func (b *Bot) Open() bool { return b.adminID == 0 }

func (b *Bot) Handle(ctx context.Context, update ports.ChatUpdate) {
	if err := b.HandleUpdate(ctx, update); err != nil {
		logging.Error(b.logCtx(ctx), "handle update failed",
			slog.Int("update_id", update.UpdateID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update ports.ChatUpdate) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	ok, err := b.admit(ctx, update)
	if err != nil || !ok {
		return err
	}
	if update.IsCallback() {
		return b.handleCallback(ctx, update)
	}
	return b.handleText(ctx, update)
}

func (b *Bot) admit(ctx context.Context, update ports.ChatUpdate) (bool, error) {
	if b.adminID == 0 {
		b.warnMu.Lock()
		first := !b.warned[update.ChatID]
		b.warned[update.ChatID] = true
		b.warnMu.Unlock()
		if first {
			logging.Warn(b.logCtx(ctx), "blog admin chat id not set, access is open")
			if err := b.send(ctx, update.ChatID, msgOpenAccess); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	if update.ChatID == b.adminID {
		return true, nil
	}

	logging.Warn(b.logCtx(ctx), "unauthorized access attempt", slog.Int64("chat_id", update.ChatID))
	if update.IsCallback() {
		return false, b.messenger.AnswerCallback(ctx, update.CallbackID, "Unauthorized")
	}
	return false, b.send(ctx, update.ChatID, msgUnauthorized)
}

func (b *Bot) handleText(ctx context.Context, update ports.ChatUpdate) error {
	chatID := update.ChatID
	text := strings.TrimSpace(update.Text)

	if strings.HasPrefix(text, "/") {
		command, args := splitCommand(text)
		switch command {
		case "start":
			return b.showMenu(ctx, chatID)
		case "help":
			return b.send(ctx, chatID, helpText())
		case "newpost":
			return b.startNewPost(ctx, chatID)
		case "listposts":
			return b.listPosts(ctx, chatID)
		case "editpost":
			return b.startEdit(ctx, chatID, args)
		case "deletepost":
			return b.confirmDelete(ctx, chatID, args)
		case "cancel", "cancel_editing":
			return b.cancel(ctx, chatID)
		default:
			return b.send(ctx, chatID, "Unknown command. Send /help for the list of commands.")
		}
	}

	conv := b.convs.get(chatID)
	switch conv.stage {
	case stageNewTitle:
		conv.draft.Title = update.Text
		conv.stage = stageNewContent
		return b.send(ctx, chatID, fmt.Sprintf("Great! Title set to: '%s'.\n\nNow, please send me the full content of the blog post.", update.Text))
	case stageNewContent:
		conv.draft.Content = update.Text
		conv.stage = stageNewAuthor
		return b.send(ctx, chatID, "Content received.\n\nWho is the author? (Type 'skip' if you want to omit this)")
	case stageNewAuthor:
		conv.draft.Author = update.Text
		conv.stage = stageNewImageURL
		return b.send(ctx, chatID, "Author noted.\n\nPlease provide a URL for the post's image. (Type 'skip' if no image)")
	case stageNewImageURL:
		conv.draft.ImageURL = update.Text
		return b.saveNewPost(ctx, chatID, conv.draft)
	case stageEditSelectPost:
		return b.selectPost(ctx, chatID, text)
	case stageEditValue:
		return b.receiveFieldValue(ctx, chatID, conv, update.Text)
	case stageEditSelectField:
		return b.send(ctx, chatID, "Please choose a field with the buttons above, or type /cancel.")
	default:
		return b.send(ctx, chatID, "Send /start for the menu or /help for the list of commands.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, update ports.ChatUpdate) error {
	chatID, messageID, data := update.ChatID, update.MessageID, update.CallbackData
	if err := b.messenger.AnswerCallback(ctx, update.CallbackID, ""); err != nil {
		return err
	}

	switch {
	case data == cbNewPost:
		if err := b.edit(ctx, chatID, messageID, "Starting a new post..."); err != nil {
			return err
		}
		return b.startNewPost(ctx, chatID)
	case data == cbListPosts:
		if err := b.edit(ctx, chatID, messageID, "Fetching list of posts..."); err != nil {
			return err
		}
		return b.listPosts(ctx, chatID)
	case data == cbEditPost:
		if err := b.edit(ctx, chatID, messageID, "Starting post edit process..."); err != nil {
			return err
		}
		return b.startEdit(ctx, chatID, "")
	case data == cbDeletePost:
		return b.edit(ctx, chatID, messageID, "To delete a post, please type /deletepost <post_id>.\nUse /listposts to find the ID.")
	case data == cbHelp:
		if err := b.edit(ctx, chatID, messageID, "Displaying help..."); err != nil {
			return err
		}
		return b.send(ctx, chatID, helpText())
	case strings.HasPrefix(data, cbDeleteYes+":"), strings.HasPrefix(data, cbDeleteNo+":"):
		return b.handleDeleteConfirmation(ctx, chatID, messageID, data)
	case strings.HasPrefix(data, cbFieldPrefix):
		return b.handleFieldSelection(ctx, chatID, messageID, data)
	default:
		return b.edit(ctx, chatID, messageID, "Unknown action.")
	}
}

func (b *Bot) showMenu(ctx context.Context, chatID int64) error {
	_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{
		Text: "Welcome, Blog Admin! I'm here to help you manage your website's blog posts. Use the menu below to get started or type /help for a list of commands.",
		Inline: [][]ports.ChatButton{
			{{Text: "Add New Post", Data: cbNewPost}},
			{{Text: "List Posts", Data: cbListPosts}},
			{{Text: "Edit Post", Data: cbEditPost}},
			{{Text: "Delete Post", Data: cbDeletePost}},
			{{Text: "Help", Data: cbHelp}},
		},
	})
	return err
}

func (b *Bot) startNewPost(ctx context.Context, chatID int64) error {
	b.convs.reset(chatID, stageNewTitle)
	_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{
		Text:           "Let's create a new blog post! First, what's the title of the post?",
		RemoveKeyboard: true,
	})
	return err
}

func (b *Bot) saveNewPost(ctx context.Context, chatID int64, draft blogsvc.Draft) error {
	b.convs.end(chatID)
	post, err := b.posts.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, blog.ErrPersistenceFailure) {
			return b.send(ctx, chatID, "Error: Could not save the blog post to the file.")
		}
		return err
	}
	return b.send(ctx, chatID, fmt.Sprintf("Blog post '%s' successfully saved with ID: %s!", post.Title, post.ID))
}

func (b *Bot) listPosts(ctx context.Context, chatID int64) error {
	posts := b.posts.List(ctx)
	if len(posts) == 0 {
		return b.send(ctx, chatID, "There are no blog posts yet.")
	}
	message := "Here are your blog posts:\n\n" + postIndex(posts) + "\n\nTip: Use these IDs with /editpost <ID> or /deletepost <ID>."
	if len([]rune(message)) > maxMessageRunes {
		if err := b.send(ctx, chatID, "The list of posts is very long and might be truncated by Telegram."); err != nil {
			return err
		}
		message = string([]rune(message)[:maxMessageRunes])
	}
	return b.send(ctx, chatID, message)
}

func (b *Bot) confirmDelete(ctx context.Context, chatID int64, args string) error {
	id := firstField(args)
	if id == "" {
		return b.send(ctx, chatID, "Please provide the ID of the post to delete. Usage: /deletepost <post_id>")
	}
	post, err := b.posts.Get(ctx, id)
	if err != nil {
		return b.send(ctx, chatID, fmt.Sprintf("Post with ID '%s' not found.", id))
	}
	_, err = b.messenger.Send(ctx, chatID, ports.ChatMessage{
		Text: fmt.Sprintf("Are you sure you want to delete the post titled '%s' (ID: %s)?", post.Title, id),
		Inline: [][]ports.ChatButton{{
			{Text: "Yes, Delete It", Data: cbDeleteYes + ":" + id},
			{Text: "No, Cancel", Data: cbDeleteNo + ":" + id},
		}},
	})
	return err
}

func (b *Bot) handleDeleteConfirmation(ctx context.Context, chatID int64, messageID int, data string) error {
	prefix, id, _ := strings.Cut(data, ":")
	if id == "" {
		return b.edit(ctx, chatID, messageID, "Error processing delete confirmation: Post ID missing.")
	}
	if prefix == cbDeleteNo {
		return b.edit(ctx, chatID, messageID, "Post deletion cancelled.")
	}

	removed, err := b.posts.Delete(ctx, id)
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		return b.edit(ctx, chatID, messageID, fmt.Sprintf("Error: Post with ID '%s' not found (maybe deleted already).", id))
	case errors.Is(err, blog.ErrPersistenceFailure):
		return b.edit(ctx, chatID, messageID, "Error: Could not save changes after deleting post.")
	case err != nil:
		return err
	}
	return b.edit(ctx, chatID, messageID, fmt.Sprintf("Post '%s' (ID: %s) has been deleted.", removed.Title, id))
}

func (b *Bot) startEdit(ctx context.Context, chatID int64, args string) error {
	b.convs.reset(chatID, stageEditSelectPost)
	if id := firstField(args); id != "" {
		post, err := b.posts.Get(ctx, id)
		if err != nil {
			b.convs.end(chatID)
			return b.send(ctx, chatID, fmt.Sprintf("Post with ID '%s' not found.", id))
		}
		return b.beginEditing(ctx, chatID, post)
	}

	posts := b.posts.List(ctx)
	if len(posts) == 0 {
		b.convs.end(chatID)
		return b.send(ctx, chatID, "There are no blog posts to edit.")
	}
	message := "Here are your blog posts:\n\n" + postIndex(posts) + "\nPlease send the ID of the post you want to edit, or type /cancel."
	if len([]rune(message)) > maxMessageRunes {
		b.convs.end(chatID)
		return b.send(ctx, chatID, "List is too long. Use /listposts and /editpost <ID>.")
	}
	return b.send(ctx, chatID, message)
}

func (b *Bot) selectPost(ctx context.Context, chatID int64, id string) error {
	post, err := b.posts.Get(ctx, id)
	if err != nil {
		return b.send(ctx, chatID, fmt.Sprintf("Post with ID '%s' not found. Send valid ID or /cancel.", id))
	}
	return b.beginEditing(ctx, chatID, post)
}

func (b *Bot) beginEditing(ctx context.Context, chatID int64, post blog.Post) error {
	conv := b.convs.reset(chatID, stageEditSelectField)
	conv.postID = post.ID
	conv.working = post
	if err := b.send(ctx, chatID, fmt.Sprintf("Selected post '%s' (ID: %s) for editing.", post.Title, post.ID)); err != nil {
		return err
	}
	_, err := b.messenger.Send(ctx, chatID, fieldMenu(conv.working.Title))
	return err
}

func (b *Bot) handleFieldSelection(ctx context.Context, chatID int64, messageID int, data string) error {
	conv := b.convs.get(chatID)
	if !conv.editing() {
		return b.edit(ctx, chatID, messageID, "This edit session has expired. Start again with /editpost.")
	}

	switch data {
	case cbFieldFinish:
		return b.finishEdit(ctx, chatID, messageID, conv)
	case cbFieldCancel:
		b.convs.end(chatID)
		return b.edit(ctx, chatID, messageID, "Post editing cancelled.")
	}

	field := blog.Field(strings.TrimPrefix(data, cbFieldPrefix))
	prompt, ok := fieldPrompt(field)
	if !ok {
		_, err := b.messenger.Send(ctx, chatID, fieldMenu(conv.working.Title))
		if err != nil {
			return err
		}
		return b.edit(ctx, chatID, messageID, "Invalid selection.")
	}
	conv.field = field
	conv.stage = stageEditValue
	return b.edit(ctx, chatID, messageID, prompt+"\n\nOr type /cancel to stop editing this post.")
}

func (b *Bot) receiveFieldValue(ctx context.Context, chatID int64, conv *conversation, value string) error {
	if err := conv.working.Set(conv.field, value); err != nil {
		b.convs.end(chatID)
		return b.send(ctx, chatID, "Error: State lost. Cancelling edit.")
	}
	conv.changes = append(conv.changes, fieldChange{field: conv.field, value: value})
	conv.stage = stageEditSelectField

	shown := conv.working.Value(conv.field)
	if err := b.send(ctx, chatID, fmt.Sprintf("Field '%s' set to: '%s'. Choose another field or finish.", conv.field.Label(), shown)); err != nil {
		return err
	}
	_, err := b.messenger.Send(ctx, chatID, fieldMenu(conv.working.Title))
	return err
}

func (b *Bot) finishEdit(ctx context.Context, chatID int64, messageID int, conv *conversation) error {
	b.convs.end(chatID)
	if len(conv.changes) == 0 {
		return b.edit(ctx, chatID, messageID, "Finished editing post. No changes were made.")
	}

	_, err := b.posts.Update(ctx, conv.postID, func(p *blog.Post) error {
		for _, change := range conv.changes {
			if err := p.Set(change.field, change.value); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		return b.edit(ctx, chatID, messageID, fmt.Sprintf("Error: Post with ID '%s' no longer exists.", conv.postID))
	case err != nil:
		return b.edit(ctx, chatID, messageID, "Error: Could not save changes.")
	}
	return b.edit(ctx, chatID, messageID, "Finished editing post.")
}

func (b *Bot) cancel(ctx context.Context, chatID int64) error {
	conv := b.convs.get(chatID)
	text := "Nothing to cancel."
	switch {
	case conv.creating():
		text = "New post creation cancelled."
	case conv.editing():
		text = "Post editing cancelled."
	}
	b.convs.end(chatID)
	_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{Text: text, RemoveKeyboard: true})
	return err
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) error {
	_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{Text: text})
	return err
}

func (b *Bot) edit(ctx context.Context, chatID int64, messageID int, text string) error {
	return b.messenger.Edit(ctx, chatID, messageID, ports.ChatMessage{Text: text})
}

func (b *Bot) logCtx(ctx context.Context) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "blogbot"))
}

func fieldMenu(title string) ports.ChatMessage {
	rows := make([][]ports.ChatButton, 0, 6)
	for _, f := range blog.EditableFields() {
		rows = append(rows, []ports.ChatButton{{Text: f.Label(), Data: cbFieldPrefix + string(f)}})
	}
	rows = append(rows,
		[]ports.ChatButton{{Text: "<< Finish Editing >>", Data: cbFieldFinish}},
		[]ports.ChatButton{{Text: "Cancel Editing", Data: cbFieldCancel}},
	)
	return ports.ChatMessage{
		Text:   fmt.Sprintf("Editing post: '%s'.\nWhich field would you like to edit?", title),
		Inline: rows,
	}
}

func fieldPrompt(f blog.Field) (string, bool) {
	switch f {
	case blog.FieldTitle:
		return "What is the new title?", true
	case blog.FieldContent:
		return "What is the new content?", true
	case blog.FieldAuthor:
		return "New author? ('None' or 'skip' to remove)", true
	case blog.FieldImageURL:
		return "New image URL? ('None' or 'skip' to remove)", true
	default:
		return "", false
	}
}

func postIndex(posts []blog.Post) string {
	var sb strings.Builder
	for _, p := range posts {
		fmt.Fprintf(&sb, "ID: %s\nTitle: %s\n--------------------\n", p.ID, p.Title)
	}
	return sb.String()
}

func helpText() string {
	return strings.Join([]string{
		"I can help you manage your blog posts. Here are the available commands:",
		"",
		"/start - Shows the main menu.",
		"/newpost - Create a new blog post step by step: title, content, author and an optional image URL.",
		"/listposts - Lists all posts with their IDs.",
		"/editpost [post_id] - Edit the title, content, author or image URL of a post. Without an ID you will be asked for one.",
		"/deletepost <post_id> - Deletes a post after confirmation.",
		"/cancel - Stops the current /newpost or /editpost conversation.",
	}, "\n")
}

func splitCommand(text string) (string, string) {
	head, rest, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

func firstField(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
