package application

import (
	"fmt"
	"strings"
)

// Status is the workflow state of an application. Values outside the
// known set are kept verbatim so a hand-edited store still loads.
type Status string

const (
	StatusNew                      Status = "new"
	StatusAcceptedPendingInterview Status = "accepted_pending_interview"
	StatusInterviewing             Status = "interviewing"
	StatusOfferExtended            Status = "offer_extended"
	StatusEmployed                 Status = "employed"
	StatusDeclinedByCompany        Status = "declined_by_company"
	StatusOfferDeclinedByCandidate Status = "offer_declined_by_candidate"
)

type statusInfo struct {
	display string
	code    string
}

var statusCatalog = map[Status]statusInfo{
	StatusNew:                      {display: "New", code: "new"},
	StatusAcceptedPendingInterview: {display: "Accepted (Pending Interview)", code: "accepted"},
	StatusInterviewing:             {display: "Interviewing", code: "interviewing"},
	StatusOfferExtended:            {display: "Offer Extended", code: "offer_extended"},
	StatusEmployed:                 {display: "Employed", code: "employed"},
	StatusDeclinedByCompany:        {display: "Declined by Company", code: "declined_company"},
	StatusOfferDeclinedByCandidate: {display: "Offer Declined by Candidate", code: "offer_declined"},
}

// AllStatuses lists the known states in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusNew,
		StatusAcceptedPendingInterview,
		StatusInterviewing,
		StatusOfferExtended,
		StatusEmployed,
		StatusDeclinedByCompany,
		StatusOfferDeclinedByCandidate,
	}
}

func (s Status) Valid() bool {
	_, ok := statusCatalog[s]
	return ok
}

// DisplayName is the operator-facing label.
func (s Status) DisplayName() string {
	if info, ok := statusCatalog[s]; ok {
		return info.display
	}
	if s == "" {
		return "Unrecognized (empty)"
	}
	return fmt.Sprintf("Unrecognized (%s)", string(s))
}

// Code is the short form used in chat commands, e.g. /view_accepted.
func (s Status) Code() string {
	if info, ok := statusCatalog[s]; ok {
		return info.code
	}
	return string(s)
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts the canonical value, the short code, or the display
// name, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidStatus)
	}
	for _, status := range AllStatuses() {
		info := statusCatalog[status]
		if trimmed == string(status) || trimmed == info.code || trimmed == strings.ToLower(info.display) {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}
