// Package export renders application records for the CLI.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want json, yaml or toml)", raw)
	}
}

// Row is the exported shape of one record.
type Row struct {
	CorrelationID string     `json:"correlation_id" yaml:"correlation_id" toml:"correlation_id"`
	ArtifactName  string     `json:"artifact_name" yaml:"artifact_name" toml:"artifact_name"`
	FullName      string     `json:"full_name" yaml:"full_name" toml:"full_name"`
	Email         string     `json:"email" yaml:"email" toml:"email"`
	PhoneNumber   string     `json:"phone_number,omitempty" yaml:"phone_number,omitempty" toml:"phone_number,omitempty"`
	JobTitle      string     `json:"job_title" yaml:"job_title" toml:"job_title"`
	Status        string     `json:"status" yaml:"status" toml:"status"`
	StatusName    string     `json:"status_name" yaml:"status_name" toml:"status_name"`
	SubmittedAt   time.Time  `json:"submitted_at" yaml:"submitted_at" toml:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty" yaml:"reviewed_at,omitempty" toml:"reviewed_at,omitempty"`
	ReviewerName  string     `json:"reviewer_name,omitempty" yaml:"reviewer_name,omitempty" toml:"reviewer_name,omitempty"`
	CVPageCount   int        `json:"cv_page_count,omitempty" yaml:"cv_page_count,omitempty" toml:"cv_page_count,omitempty"`
}

type document struct {
	Applications []Row `json:"applications" yaml:"applications" toml:"applications"`
}

func Rows(records []application.Record, ids application.IdentifierScheme) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			CorrelationID: ids.CorrelationID(r.ArtifactName),
			ArtifactName:  r.ArtifactName,
			FullName:      r.FullName,
			Email:         r.Email,
			PhoneNumber:   r.PhoneNumber,
			JobTitle:      r.JobTitle,
			Status:        string(r.Status),
			StatusName:    r.Status.DisplayName(),
			SubmittedAt:   r.SubmittedAt.UTC(),
			ReviewedAt:    r.ReviewedAt,
			ReviewerName:  r.ReviewerName,
			CVPageCount:   r.CVPageCount,
		})
	}
	return rows
}

// Write encodes rows under a top-level "applications" key.
func Write(w io.Writer, format Format, rows []Row) error {
	doc := document{Applications: rows}
	if doc.Applications == nil {
		doc.Applications = []Row{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errs.Wrap(enc.Encode(doc), "encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errs.Wrap(err, "encode yaml")
		}
		return errs.Wrap(enc.Close(), "close yaml encoder")
	case FormatTOML:
		return errs.Wrap(toml.NewEncoder(w).Encode(doc), "encode toml")
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
