package hrbot

import (
	"fmt"
	"strings"

	"bridgee/internal/domain/application"
)

func viewLabel(s application.Status) string {
	return viewLabelPrefix + s.DisplayName()
}

func mainMenu() [][]string {
	return [][]string{
		{labelReviewNew},
		{viewLabel(application.StatusAcceptedPendingInterview)},
		{viewLabel(application.StatusInterviewing), viewLabel(application.StatusOfferExtended)},
		{viewLabel(application.StatusEmployed)},
		{viewLabel(application.StatusDeclinedByCompany), viewLabel(application.StatusOfferDeclinedByCandidate)},
		{labelHelp},
	}
}

func reviewMenu() [][]string {
	return [][]string{
		{labelPrevPage, labelNextPage},
		{labelMainMenu},
	}
}

func statusByViewLabel(text string) (application.Status, bool) {
	for _, s := range application.AllStatuses() {
		if text == viewLabel(s) {
			return s, true
		}
	}
	return "", false
}

func statusByCode(code string) (application.Status, bool) {
	for _, s := range application.AllStatuses() {
		if s.Code() == code {
			return s, true
		}
	}
	return "", false
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Welcome to the HR Application Management Bot!\n\n")
	b.WriteString("Main menu: send /start to show the status buttons.\n\n")
	b.WriteString("Application statuses:\n")
	for _, s := range application.AllStatuses() {
		fmt.Fprintf(&b, "- %s (/view_%s)\n", s.DisplayName(), s.Code())
	}
	b.WriteString("\nManaging applications:\n")
	b.WriteString("- Each application is shown as its own message, followed by the CV.\n")
	b.WriteString("- Cards show a 200-character cover letter snippet and the last action (YYYY-MM-DD HH:MM UTC by name).\n")
	b.WriteString("- Buttons under a card change its status; the card updates in place.\n")
	b.WriteString("- Declined applications can be undone (back to New) or re-evaluated.\n")
	b.WriteString("- Use Previous Page and Next Page to move through a list, Back to Main Menu to leave it.\n\n")
	b.WriteString("Filtering by job title:\n")
	b.WriteString("- /review_applications Full-Stack Developer\n")
	b.WriteString("- /view_interviewing UI/UX Designer\n\n")
	b.WriteString("/stats shows counts per status. /stop hides the keyboard.")
	return b.String()
}
