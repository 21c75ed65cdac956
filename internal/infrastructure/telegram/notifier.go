package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

const coverLetterSnippet = 200

// Notifier posts new applications to the HR chat: a summary message
// followed by the CV document.
type Notifier struct {
	messenger ports.Messenger
	artifacts ports.ArtifactStore
	chatID    int64
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(messenger ports.Messenger, artifacts ports.ArtifactStore, chatID int64) *Notifier {
	return &Notifier{messenger: messenger, artifacts: artifacts, chatID: chatID}
}

func (n *Notifier) ApplicationReceived(ctx context.Context, record application.Record) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if n.chatID == 0 {
		return errors.New("hr chat id is not configured")
	}
	ctx = logging.WithAttrs(ctx,
		slog.String("component", "telegram.notifier"),
		slog.String("artifact_name", record.ArtifactName),
	)

	if _, err := n.messenger.Send(ctx, n.chatID, ports.ChatMessage{Text: NewApplicationText(record)}); err != nil {
		return errs.Wrap(err, "send application summary")
	}

	data, err := n.artifacts.Get(ctx, record.ArtifactName)
	if err != nil {
		logging.Warn(ctx, "cv missing for notification", slog.Any("err", errs.Loggable(err)))
		_, sendErr := n.messenger.Send(ctx, n.chatID, ports.ChatMessage{
			Text: "CV file was expected but not found on server for the preceding application.",
		})
		return errors.Join(errs.Wrap(err, "load cv"), sendErr)
	}

	if err := n.messenger.SendDocument(ctx, n.chatID, ports.ChatDocument{FileName: record.ArtifactName, Data: data}); err != nil {
		return errs.Wrap(err, "send cv")
	}
	logging.Info(ctx, "hr chat notified")
	return nil
}

// NewApplicationText renders the intake announcement.
func NewApplicationText(r application.Record) string {
	var b strings.Builder
	b.WriteString("New Job Application Received!\n\n")
	fmt.Fprintf(&b, "Job Title: %s\n", r.JobTitle)
	fmt.Fprintf(&b, "Name: %s\n", r.FullName)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	if r.PhoneNumber != "" {
		fmt.Fprintf(&b, "Phone: %s\n", r.PhoneNumber)
	}
	if strings.TrimSpace(r.CoverLetter) != "" {
		fmt.Fprintf(&b, "\nCover Letter Snippet:\n%s\n", r.CoverLetterSnippet(coverLetterSnippet))
	}
	if r.CVPageCount > 0 {
		fmt.Fprintf(&b, "\nCV pages: %d\n", r.CVPageCount)
	}
	b.WriteString("\nCV attached.")
	return b.String()
}
