package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"bridgee/internal/domain/application"
)

func sampleRows() []Row {
	submitted := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	return Rows([]application.Record{{
		ArtifactName: "1751364000000-cv.pdf",
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		JobTitle:     "Engineer",
		SubmittedAt:  submitted,
		Status:       application.StatusInterviewing,
	}}, application.TimestampPrefixScheme{})
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{raw: "json", want: FormatJSON},
		{raw: " YAML ", want: FormatYAML},
		{raw: "yml", want: FormatYAML},
		{raw: "toml", want: FormatTOML},
		{raw: "csv", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := ParseFormat(tc.raw)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q, err=%v", tc.raw, got, err, tc.want, tc.wantErr)
		}
	}
}

func TestWriteFormats(t *testing.T) {
	rows := sampleRows()
	if rows[0].CorrelationID != "1751364000000" || rows[0].StatusName != "Interviewing" {
		t.Fatalf("Rows() = %+v", rows[0])
	}

	testCases := []struct {
		format Format
		want   []string
	}{
		{format: FormatJSON, want: []string{`"applications": [`, `"correlation_id": "1751364000000"`, `"status": "interviewing"`}},
		{format: FormatYAML, want: []string{"applications:", "correlation_id:", "1751364000000", "status: interviewing"}},
		{format: FormatTOML, want: []string{"[[applications]]", "correlation_id = ", "1751364000000", "interviewing"}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tc.format, rows); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			out := buf.String()
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Fatalf("Write(%s) missing %q in:\n%s", tc.format, want, out)
				}
			}
			if strings.Contains(out, "reviewed_at") {
				t.Fatalf("Write(%s) rendered empty reviewed_at:\n%s", tc.format, out)
			}
		})
	}
}

func TestWriteTOMLDecodesTimes(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatTOML, sampleRows()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var doc document
	if err := toml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("toml.Unmarshal() error = %v", err)
	}
	if len(doc.Applications) != 1 || !doc.Applications[0].SubmittedAt.Equal(time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("decoded = %+v", doc.Applications)
	}
}
