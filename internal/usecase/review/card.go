package review

import (
	"fmt"
	"strings"

	"bridgee/internal/domain/application"
)

const CoverLetterSnippetLength = 200

// Card renders one application for an operator.
func Card(r application.Record, ids application.IdentifierScheme) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n\n", r.Status.DisplayName())
	fmt.Fprintf(&b, "Name: %s\n", r.FullName)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	if r.PhoneNumber != "" {
		fmt.Fprintf(&b, "Phone: %s\n", r.PhoneNumber)
	}
	fmt.Fprintf(&b, "Job Title: %s\n", r.JobTitle)

	if snippet := r.CoverLetterSnippet(CoverLetterSnippetLength); snippet != "" {
		fmt.Fprintf(&b, "\nCover Letter Snippet:\n%s\n", snippet)
	}

	fmt.Fprintf(&b, "\nOriginal CV Name: %s\n", ids.OriginalFilename(r.ArtifactName))
	submitted := "N/A"
	if !r.SubmittedAt.IsZero() {
		submitted = r.SubmittedAt.UTC().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(&b, "Submitted: %s\n", submitted)
	if r.CVPageCount > 0 {
		fmt.Fprintf(&b, "CV Pages: %d\n", r.CVPageCount)
	}
	if r.ReviewedAt != nil {
		fmt.Fprintf(&b, "Last Action: %s by %s\n", r.ReviewedAt.UTC().Format("2006-01-02 15:04 UTC"), firstNonEmpty(r.ReviewerName, "N/A"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// MaxCallbackDataBytes is the Telegram limit on inline button payloads.
const MaxCallbackDataBytes = 64

// ActionButtons lists the actions offered for r, in display order. It
// returns nil when any payload would exceed MaxCallbackDataBytes, which
// happens for legacy artifact names without a timestamp prefix.
func ActionButtons(r application.Record, ids application.IdentifierScheme) []ActionButton {
	transitions := application.AvailableActions(r.Status)
	out := make([]ActionButton, 0, len(transitions))
	correlationID := ids.CorrelationID(r.ArtifactName)
	for _, t := range transitions {
		data := CallbackData(t.Action, correlationID)
		if len(data) > MaxCallbackDataBytes {
			return nil
		}
		out = append(out, ActionButton{Label: t.Action.Label(), Data: data})
	}
	return out
}

type ActionButton struct {
	Label string
	Data  string
}

const callbackPrefix = "act"

// CallbackData encodes an action button as "act:<action>:<correlation id>".
func CallbackData(action application.Action, correlationID string) string {
	return callbackPrefix + ":" + string(action) + ":" + correlationID
}

// ParseCallbackData reverses CallbackData. The action is not validated here.
func ParseCallbackData(data string) (application.Action, string, bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return application.Action(parts[1]), parts[2], true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
