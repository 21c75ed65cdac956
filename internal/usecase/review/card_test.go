package review

import (
	"strings"
	"testing"
	"time"

	"bridgee/internal/domain/application"
)

func TestCardLayout(t *testing.T) {
	reviewed := time.Date(2025, 7, 2, 14, 5, 0, 0, time.UTC)
	record := application.Record{
		ArtifactName: "1751364000000-Alice_CV.pdf",
		FullName:     "Alice",
		Email:        "alice@example.com",
		JobTitle:     "Engineer",
		CoverLetter:  strings.Repeat("a", 210),
		SubmittedAt:  time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		Status:       application.StatusAcceptedPendingInterview,
		ReviewedAt:   &reviewed,
		ReviewerName: "Dana",
	}

	card := Card(record, application.TimestampPrefixScheme{})
	for _, want := range []string{
		"Status: Accepted (Pending Interview)",
		"Name: Alice",
		strings.Repeat("a", 200) + "...",
		"Original CV Name: Alice_CV.pdf",
		"Submitted: 2025-07-01 10:00",
		"Last Action: 2025-07-02 14:05 UTC by Dana",
	} {
		if !strings.Contains(card, want) {
			t.Fatalf("Card() missing %q in:\n%s", want, card)
		}
	}
	if strings.Contains(card, "Phone:") {
		t.Fatalf("Card() rendered empty phone:\n%s", card)
	}
}

func TestActionButtonsCallbackData(t *testing.T) {
	record := application.Record{ArtifactName: "1751364000000-cv.pdf", Status: application.StatusNew}
	buttons := ActionButtons(record, application.TimestampPrefixScheme{})
	if len(buttons) != 2 {
		t.Fatalf("ActionButtons() = %+v", buttons)
	}
	if buttons[0].Label != "Accept" || buttons[0].Data != "act:accept:1751364000000" {
		t.Fatalf("first button = %+v", buttons[0])
	}

	action, id, ok := ParseCallbackData(buttons[1].Data)
	if !ok || action != application.ActionDecline || id != "1751364000000" {
		t.Fatalf("ParseCallbackData() = %q, %q, %v", action, id, ok)
	}
	for _, bad := range []string{"", "act:accept", "set_status:accept:1", "act::1"} {
		if _, _, ok := ParseCallbackData(bad); ok {
			t.Fatalf("ParseCallbackData(%q) ok = true", bad)
		}
	}
}

func TestActionButtonsOmittedForOversizedCallbackData(t *testing.T) {
	record := application.Record{
		ArtifactName: "Curriculum_Vitae_of_a_candidate_with_a_rather_long_filename.pdf",
		Status:       application.StatusAcceptedPendingInterview,
	}
	if got := ActionButtons(record, application.TimestampPrefixScheme{}); got != nil {
		t.Fatalf("ActionButtons() = %+v, want nil", got)
	}

	record.ArtifactName = "legacy.pdf"
	buttons := ActionButtons(record, application.TimestampPrefixScheme{})
	if len(buttons) == 0 {
		t.Fatalf("ActionButtons() = nil for a short legacy name")
	}
	for _, b := range buttons {
		if len(b.Data) > MaxCallbackDataBytes {
			t.Fatalf("button %q data is %d bytes", b.Label, len(b.Data))
		}
	}
}
