package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is one submitted application as persisted in the store file.
type Record struct {
	ArtifactName string     `json:"artifact_name"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	JobTitle     string     `json:"job_title"`
	CoverLetter  string     `json:"cover_letter,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at,omitzero"`
	Status       Status     `json:"status"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID   string     `json:"reviewer_id,omitempty"`
	ReviewerName string     `json:"reviewer_name,omitempty"`
	CVPageCount  int        `json:"cv_page_count,omitempty"`

	// Extra holds keys this type does not model, written back on save.
	Extra map[string]json.RawMessage `json:"-"`
}

// Actor identifies the operator performing a transition.
type Actor struct {
	ID   string
	Name string
}

// ApplyStatus moves the record to status and updates the reviewer fields.
func (r *Record) ApplyStatus(to Status, actor Actor, at time.Time) {
	r.Status = to
	if ClearsReview(to) {
		r.ReviewedAt = nil
		r.ReviewerID = ""
		r.ReviewerName = ""
		return
	}
	reviewedAt := at.UTC()
	r.ReviewedAt = &reviewedAt
	r.ReviewerID = actor.ID
	r.ReviewerName = actor.Name
}

// SameApplicant reports whether r was submitted by email for jobTitle.
func (r Record) SameApplicant(email, jobTitle string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(email)) &&
		strings.EqualFold(strings.TrimSpace(r.JobTitle), strings.TrimSpace(jobTitle))
}

// recordJSON mirrors Record on the read side and also accepts the key
// names used by files written before artifact_name/submitted_at existed.
// Scalars are decoded loosely: a phone number written as a JSON number or a
// page count written as a string still loads.
type recordJSON struct {
	ArtifactName      looseString `json:"artifact_name"`
	CVFilename        looseString `json:"cv_filename"`
	FullName          looseString `json:"full_name"`
	Email             looseString `json:"email"`
	PhoneNumber       looseString `json:"phone_number"`
	JobTitle          looseString `json:"job_title"`
	CoverLetter       looseString `json:"cover_letter"`
	SubmittedAt       looseString `json:"submitted_at"`
	Timestamp         looseString `json:"timestamp"`
	Status            looseString `json:"status"`
	ReviewedAt        looseString `json:"reviewed_at"`
	ReviewedTimestamp looseString `json:"reviewed_timestamp"`
	ReviewerID        looseString `json:"reviewer_id"`
	ReviewedBy        looseString `json:"reviewed_by"`
	ReviewerName      looseString `json:"reviewer_name"`
	ReviewedByName    looseString `json:"reviewed_by_name"`
	CVPageCount       looseInt    `json:"cv_page_count"`
}

var knownRecordKeys = map[string]struct{}{
	"artifact_name": {}, "cv_filename": {}, "full_name": {}, "email": {},
	"phone_number": {}, "job_title": {}, "cover_letter": {}, "submitted_at": {},
	"timestamp": {}, "status": {}, "reviewed_at": {}, "reviewed_timestamp": {},
	"reviewer_id": {}, "reviewed_by": {}, "reviewer_name": {}, "reviewed_by_name": {},
	"cv_page_count": {},
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return nil
	}
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		ArtifactName: firstNonEmpty(string(raw.ArtifactName), string(raw.CVFilename)),
		FullName:     string(raw.FullName),
		Email:        string(raw.Email),
		PhoneNumber:  string(raw.PhoneNumber),
		JobTitle:     string(raw.JobTitle),
		CoverLetter:  string(raw.CoverLetter),
		Status:       legacyStatus(string(raw.Status)),
		ReviewerID:   firstNonEmpty(string(raw.ReviewerID), string(raw.ReviewedBy)),
		ReviewerName: firstNonEmpty(string(raw.ReviewerName), string(raw.ReviewedByName)),
		CVPageCount:  int(raw.CVPageCount),
	}
	for key, value := range fields {
		if _, ok := knownRecordKeys[key]; !ok {
			r.keepExtra(key, value)
		}
	}

	submittedKey, submitted := "submitted_at", string(raw.SubmittedAt)
	if strings.TrimSpace(submitted) == "" {
		submittedKey, submitted = "timestamp", string(raw.Timestamp)
	}
	if ts, ok := parseTimestamp(submitted); ok {
		r.SubmittedAt = ts
	} else if strings.TrimSpace(submitted) != "" {
		r.keepExtra(submittedKey, fields[submittedKey])
	}

	reviewedKey, reviewed := "reviewed_at", string(raw.ReviewedAt)
	if strings.TrimSpace(reviewed) == "" {
		reviewedKey, reviewed = "reviewed_timestamp", string(raw.ReviewedTimestamp)
	}
	if ts, ok := parseTimestamp(reviewed); ok {
		r.ReviewedAt = &ts
	} else if strings.TrimSpace(reviewed) != "" {
		r.keepExtra(reviewedKey, fields[reviewedKey])
	}
	return nil
}

// keepExtra stores a value this type does not model so it is written back
// untouched.
func (r *Record) keepExtra(key string, value json.RawMessage) {
	if r.Extra == nil {
		r.Extra = make(map[string]json.RawMessage)
	}
	r.Extra[key] = value
}

// recordFields has Record's layout without its methods.
type recordFields Record

// MarshalJSON writes the canonical fields followed by any extra keys, in
// key order, that the canonical fields did not already write.
func (r Record) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(recordFields(r))
	if err != nil || len(r.Extra) == 0 {
		return data, err
	}

	var written map[string]json.RawMessage
	if err := json.Unmarshal(data, &written); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		if _, ok := written[key]; !ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return data, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for i, key := range keys {
		if i > 0 || len(written) > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(r.Extra[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CoverLetterSnippet returns the first n runes of the cover letter, with
// "..." appended when it was cut.
func (r Record) CoverLetterSnippet(n int) string {
	text := strings.TrimSpace(r.CoverLetter)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// legacyStatuses maps status values written by the earlier tool.
var legacyStatuses = map[string]Status{
	"reviewed_accepted": StatusAcceptedPendingInterview,
	"reviewed_declined": StatusDeclinedByCompany,
	"offer_declined":    StatusOfferDeclinedByCandidate,
	"declined_company":  StatusDeclinedByCompany,
	"accepted":          StatusAcceptedPendingInterview,
}

func legacyStatus(value string) Status {
	if s, ok := legacyStatuses[value]; ok {
		return s
	}
	return Status(value)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// looseString accepts a JSON string, number, bool or null. Objects and
// arrays are rejected.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*l = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*l = looseString(s)
	case bytes.Equal(trimmed, []byte("true")), bytes.Equal(trimmed, []byte("false")):
		*l = looseString(trimmed)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("want a scalar, got %s", trimmed)
		}
		*l = looseString(n.String())
	}
	return nil
}

// looseInt accepts a JSON number, a numeric string or null.
type looseInt int

func (l *looseInt) UnmarshalJSON(data []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	text := strings.TrimSpace(string(s))
	if text == "" {
		*l = 0
		return nil
	}
	if i, err := strconv.Atoi(text); err == nil {
		*l = looseInt(i)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("want an integer, got %s", data)
	}
	*l = looseInt(f)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
