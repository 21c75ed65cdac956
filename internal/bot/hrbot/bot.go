// Package hrbot is the recruiters' chat front end for reviewing
// applications.
package hrbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
	"bridgee/internal/usecase/review"
)

const (
	labelReviewNew  = "Review New Applications"
	labelHelp       = "Help"
	labelNextPage   = "Next Page"
	labelPrevPage   = "Previous Page"
	labelMainMenu   = "Back to Main Menu"
	viewLabelPrefix = "View "

	msgUnauthorized = "Sorry, you are not authorized to use this command."
	msgNoButtons    = "This application's ID is too long for chat buttons. Use the review console or the CLI to change its status."
)

// Bot handles updates from one HR chat. Review state lives in the review
// service's per-conversation sessions, keyed by chat id.
type Bot struct {
	messenger    ports.Messenger
	reviews      *review.Service
	authorizedID int64

	mu    sync.Mutex
	known map[string]struct{}
}

// New builds the bot. authorizedChatID 0 leaves the bot open to any chat.
func New(messenger ports.Messenger, reviews *review.Service, authorizedChatID int64) *Bot {
	return &Bot{messenger: messenger, reviews: reviews, authorizedID: authorizedChatID}
}

func (b *Bot) Open() bool { return b.authorizedID == 0 }

func (b *Bot) authorized(chatID int64) bool {
	return b.authorizedID == 0 || chatID == b.authorizedID
}

// Handle is HandleUpdate for pollers that do not take errors.
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
	if !b.authorized(update.ChatID) {
		logging.Warn(b.logCtx(ctx), "unauthorized access attempt", slog.Int64("chat_id", update.ChatID))
		if update.IsCallback() {
			return b.messenger.AnswerCallback(ctx, update.CallbackID, "Unauthorized")
		}
		_, err := b.messenger.Send(ctx, update.ChatID, ports.ChatMessage{Text: msgUnauthorized})
		return err
	}

	if update.IsCallback() {
		return b.handleCallback(ctx, update)
	}
	return b.handleText(ctx, update)
}

func (b *Bot) handleText(ctx context.Context, update ports.ChatUpdate) error {
	text := strings.TrimSpace(update.Text)
	chatID := update.ChatID

	if strings.HasPrefix(text, "/") {
		command, args := splitCommand(text)
		switch {
		case command == "start":
			b.reviews.EndSession(chatID)
			return b.reply(ctx, chatID, "Welcome to the HR Bot! Please use the menu below or type commands.", mainMenu())
		case command == "help":
			return b.reply(ctx, chatID, helpText(), mainMenu())
		case command == "stop":
			b.reviews.EndSession(chatID)
			_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{
				Text:           "Custom keyboard removed. Send /start to show it again.",
				RemoveKeyboard: true,
			})
			return err
		case command == "stats":
			return b.reply(ctx, chatID, b.statsText(ctx), mainMenu())
		case command == "review_applications":
			return b.startView(ctx, chatID, application.StatusNew, args, true)
		case strings.HasPrefix(command, "view_"):
			status, ok := statusByCode(strings.TrimPrefix(command, "view_"))
			if !ok {
				return b.reply(ctx, chatID, "Unknown status. Send /help for the list of views.", mainMenu())
			}
			return b.startView(ctx, chatID, status, args, false)
		default:
			return b.reply(ctx, chatID, "Unknown command. Send /help for the list of commands.", mainMenu())
		}
	}

	switch text {
	case labelReviewNew:
		return b.startView(ctx, chatID, application.StatusNew, "", true)
	case labelHelp:
		return b.reply(ctx, chatID, helpText(), mainMenu())
	case labelNextPage:
		return b.turnPage(ctx, chatID, true)
	case labelPrevPage:
		return b.turnPage(ctx, chatID, false)
	case labelMainMenu:
		b.reviews.EndSession(chatID)
		return b.reply(ctx, chatID, "Returning to the main menu.", mainMenu())
	}
	if status, ok := statusByViewLabel(text); ok {
		return b.startView(ctx, chatID, status, "", false)
	}
	return b.reply(ctx, chatID, "Please use the menu below, or send /help.", mainMenu())
}

func (b *Bot) startView(ctx context.Context, chatID int64, status application.Status, jobTitle string, reviewNew bool) error {
	ctx = logging.WithAttrs(b.logCtx(ctx), slog.String("status", string(status)))
	session, err := b.reviews.List(ctx, chatID, status, jobTitle)
	if err != nil {
		if !errors.Is(err, application.ErrNothingToReview) {
			return err
		}
		text := fmt.Sprintf("No applications found with status: %s.", status.DisplayName())
		if jobTitle != "" {
			text = fmt.Sprintf("No applications found for job title '%s' with status: %s.", jobTitle, status.DisplayName())
		}
		return b.reply(ctx, chatID, text, mainMenu())
	}

	total := len(session.Snapshot)
	text := fmt.Sprintf("Viewing %d application(s) with status: %s. Use navigation buttons below.", total, status.DisplayName())
	if reviewNew && status == application.StatusNew {
		text = fmt.Sprintf("Starting review of %d new application(s). Use navigation buttons below.", total)
	}
	logging.Info(ctx, "review session started", slog.Int("records", total), slog.String("job_title", jobTitle))
	if err := b.reply(ctx, chatID, text, reviewMenu()); err != nil {
		return err
	}
	return b.showPage(ctx, chatID, session)
}

func (b *Bot) turnPage(ctx context.Context, chatID int64, forward bool) error {
	session, ok := b.reviews.Session(chatID)
	if !ok || session.Empty() {
		return b.reply(ctx, chatID, "No active list. Choose a view from the main menu.", mainMenu())
	}
	if forward && !session.NextPage() {
		return b.reply(ctx, chatID, "You are already on the last page.", reviewMenu())
	}
	if !forward && !session.PreviousPage() {
		return b.reply(ctx, chatID, "You are already on the first page.", reviewMenu())
	}
	return b.showPage(ctx, chatID, session)
}

// showPage sends the page summary, then one card and one CV per record.
func (b *Bot) showPage(ctx context.Context, chatID int64, session *review.Session) error {
	first, last, total := session.Bounds()
	summary := fmt.Sprintf("Displaying page %d of %d for '%s' applications. (%d-%d of %d total).",
		session.PageIndex+1, session.PageCount(), session.FilterStatus.DisplayName(), first, last, total)
	if _, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{Text: summary}); err != nil {
		return err
	}

	ids := b.reviews.Identifiers()
	for _, record := range session.CurrentPage() {
		if _, err := b.messenger.Send(ctx, chatID, cardMessage(record, ids)); err != nil {
			return err
		}
		b.sendCV(ctx, chatID, record)
	}
	return nil
}

// sendCV reports delivery problems in the chat instead of failing the page.
func (b *Bot) sendCV(ctx context.Context, chatID int64, record application.Record) {
	original := b.reviews.Identifiers().OriginalFilename(record.ArtifactName)
	data, err := b.reviews.FetchArtifact(ctx, record.ArtifactName)
	if err != nil {
		text := fmt.Sprintf("Could not send CV document (%s) for this applicant due to an error.", original)
		if errors.Is(err, application.ErrArtifactNotFound) {
			text = fmt.Sprintf("CV file (%s) not found on server for this applicant.", original)
		}
		_, _ = b.messenger.Send(ctx, chatID, ports.ChatMessage{Text: text})
		return
	}
	if err := b.messenger.SendDocument(ctx, chatID, ports.ChatDocument{FileName: record.ArtifactName, Data: data}); err != nil {
		_, _ = b.messenger.Send(ctx, chatID, ports.ChatMessage{
			Text: fmt.Sprintf("Could not send CV document (%s) for this applicant due to an error.", original),
		})
	}
}

func (b *Bot) handleCallback(ctx context.Context, update ports.ChatUpdate) error {
	ctx = b.logCtx(ctx)
	action, correlationID, ok := review.ParseCallbackData(update.CallbackData)
	if !ok {
		logging.Warn(ctx, "unknown callback data", slog.String("data", update.CallbackData))
		if err := b.messenger.Edit(ctx, update.ChatID, update.MessageID, ports.ChatMessage{Text: "Unknown action."}); err != nil {
			return err
		}
		return b.messenger.AnswerCallback(ctx, update.CallbackID, "")
	}

	actor := application.Actor{ID: strconv.FormatInt(update.From.ID, 10), Name: update.From.DisplayName()}
	result, err := b.reviews.Act(ctx, update.ChatID, correlationID, action, actor)
	switch {
	case errors.Is(err, application.ErrRecordNotFound):
		if editErr := b.messenger.Edit(ctx, update.ChatID, update.MessageID, ports.ChatMessage{
			Text: "Error: Application not found. It might have been processed or an ID error occurred.",
		}); editErr != nil {
			return editErr
		}
		return b.messenger.AnswerCallback(ctx, update.CallbackID, "")
	case errors.Is(err, application.ErrInvalidAction):
		return b.messenger.AnswerCallback(ctx, update.CallbackID, "That action is not available for this application's current status.")
	case errors.Is(err, application.ErrPersistenceFailure):
		return b.messenger.AnswerCallback(ctx, update.CallbackID, "Error updating application status in log.")
	case err != nil:
		_ = b.messenger.AnswerCallback(ctx, update.CallbackID, "Unexpected error.")
		return err
	}

	if err := b.messenger.Edit(ctx, update.ChatID, update.MessageID, cardMessage(result.Record, b.reviews.Identifiers())); err != nil {
		_ = b.messenger.AnswerCallback(ctx, update.CallbackID, "Error updating display. Status was changed.")
		return err
	}
	if err := b.messenger.AnswerCallback(ctx, update.CallbackID, "Status updated to: "+result.Record.Status.DisplayName()); err != nil {
		return err
	}
	if result.SessionExhausted {
		b.reviews.EndSession(update.ChatID)
		return b.reply(ctx, update.ChatID, "All applications in this view have been handled.", mainMenu())
	}
	return nil
}

// StoreChanged pings the HR chat when records it has never seen before
// arrive with status new. The first call only records the baseline, and a
// record moved back to new by undo or reset does not count as an arrival.
func (b *Bot) StoreChanged(ctx context.Context) error {
	if b.authorizedID == 0 {
		return nil
	}
	records := b.reviews.All(ctx, "", "")

	b.mu.Lock()
	baseline := b.known == nil
	if baseline {
		b.known = make(map[string]struct{}, len(records))
	}
	arrived, waiting := 0, 0
	for _, r := range records {
		_, seen := b.known[r.ArtifactName]
		b.known[r.ArtifactName] = struct{}{}
		if r.Status != application.StatusNew {
			continue
		}
		waiting++
		if !seen {
			arrived++
		}
	}
	b.mu.Unlock()

	if baseline || arrived == 0 {
		return nil
	}
	text := fmt.Sprintf("%d new application(s) waiting for review. Tap \"%s\" to see them.", waiting, labelReviewNew)
	_, err := b.messenger.Send(ctx, b.authorizedID, ports.ChatMessage{Text: text})
	return err
}

func (b *Bot) statsText(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString("Applications by status:\n")
	for _, c := range b.reviews.Counts(ctx) {
		fmt.Fprintf(&sb, "- %s: %d\n", c.Status.DisplayName(), c.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, keyboard [][]string) error {
	_, err := b.messenger.Send(ctx, chatID, ports.ChatMessage{Text: text, Keyboard: keyboard})
	return err
}

func (b *Bot) logCtx(ctx context.Context) context.Context {
	return logging.WithAttrs(ctx, slog.String("component", "hrbot"))
}

func cardMessage(record application.Record, ids application.IdentifierScheme) ports.ChatMessage {
	buttons := review.ActionButtons(record, ids)
	var rows [][]ports.ChatButton
	for i := 0; i < len(buttons); i += 2 {
		row := make([]ports.ChatButton, 0, 2)
		for _, button := range buttons[i:min(i+2, len(buttons))] {
			row = append(row, ports.ChatButton{Text: button.Label, Data: button.Data})
		}
		rows = append(rows, row)
	}
	text := review.Card(record, ids)
	if len(buttons) == 0 && len(application.AvailableActions(record.Status)) > 0 {
		text += "\n\n" + msgNoButtons
	}
	return ports.ChatMessage{Text: text, Inline: rows}
}

// splitCommand turns "/view_employed@hr_bot Virtual Assistant" into
// ("view_employed", "Virtual Assistant").
func splitCommand(text string) (string, string) {
	head, rest, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}
