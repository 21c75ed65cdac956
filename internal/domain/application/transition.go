package application

import (
	"fmt"
	"strings"
)

// Action is an operator-triggered workflow step. The string value is the
// short code carried in chat callback data.
type Action string

const (
	ActionAccept            Action = "accept"
	ActionDecline           Action = "decline"
	ActionStartInterviewing Action = "interview"
	ActionExtendOffer       Action = "offer"
	ActionMarkEmployed      Action = "employ"
	ActionCandidateDeclines Action = "cand_decline"
	ActionUndo              Action = "undo"
	ActionReevaluate        Action = "reevaluate"
	ActionReset             Action = "reset"
)

var actionLabels = map[Action]string{
	ActionAccept:            "Accept",
	ActionDecline:           "Decline",
	ActionStartInterviewing: "Start Interviewing",
	ActionExtendOffer:       "Extend Offer",
	ActionMarkEmployed:      "Mark Employed",
	ActionCandidateDeclines: "Candidate Declined Offer",
	ActionUndo:              "Undo (Back to New)",
	ActionReevaluate:        "Re-evaluate",
	ActionReset:             "Reset to New",
}

func (a Action) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

func (a Action) String() string { return string(a) }

// ParseAction accepts the short code or the label.
func ParseAction(raw string) (Action, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	for action, label := range actionLabels {
		if trimmed == string(action) || trimmed == strings.ToLower(label) {
			return action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
}

// Transition is one edge of the workflow graph.
type Transition struct {
	Action Action
	To     Status
}

// Transitions is the complete workflow graph. Reset is not listed per
// state; it is legal from every state except new.
var Transitions = map[Status][]Transition{
	StatusNew: {
		{Action: ActionAccept, To: StatusAcceptedPendingInterview},
		{Action: ActionDecline, To: StatusDeclinedByCompany},
	},
	StatusAcceptedPendingInterview: {
		{Action: ActionStartInterviewing, To: StatusInterviewing},
		{Action: ActionDecline, To: StatusDeclinedByCompany},
	},
	StatusInterviewing: {
		{Action: ActionExtendOffer, To: StatusOfferExtended},
		{Action: ActionDecline, To: StatusDeclinedByCompany},
	},
	StatusOfferExtended: {
		{Action: ActionMarkEmployed, To: StatusEmployed},
		{Action: ActionCandidateDeclines, To: StatusOfferDeclinedByCandidate},
	},
	StatusEmployed: nil,
	StatusDeclinedByCompany: {
		{Action: ActionUndo, To: StatusNew},
		{Action: ActionReevaluate, To: StatusAcceptedPendingInterview},
	},
	StatusOfferDeclinedByCandidate: {
		{Action: ActionUndo, To: StatusNew},
		{Action: ActionReevaluate, To: StatusAcceptedPendingInterview},
	},
}

var resetTransition = Transition{Action: ActionReset, To: StatusNew}

// NextStatus validates action against the current status.
func NextStatus(from Status, action Action) (Status, error) {
	for _, transition := range legalTransitions(from) {
		if transition.Action == action {
			return transition.To, nil
		}
	}
	return "", fmt.Errorf("%w: %q from %q", ErrInvalidAction, string(action), string(from))
}

// AvailableActions returns the actions an operator should be offered, in
// display order. Reset is shown only where no other action already leads
// back to new.
func AvailableActions(from Status) []Transition {
	legal := legalTransitions(from)
	out := make([]Transition, 0, len(legal))
	leadsToNew := false
	for _, transition := range legal {
		if transition.Action != ActionReset && transition.To == StatusNew {
			leadsToNew = true
		}
	}
	for _, transition := range legal {
		if transition.Action == ActionReset && leadsToNew {
			continue
		}
		out = append(out, transition)
	}
	return out
}

func legalTransitions(from Status) []Transition {
	edges := Transitions[from]
	out := make([]Transition, 0, len(edges)+1)
	out = append(out, edges...)
	if from != StatusNew {
		out = append(out, resetTransition)
	}
	return out
}

// ClearsReview reports whether entering to wipes the reviewer fields.
func ClearsReview(to Status) bool {
	return to == StatusNew
}
