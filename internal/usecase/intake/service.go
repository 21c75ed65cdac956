package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

const DefaultMaxUploadBytes int64 = 16 << 20

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

type Service struct {
	store     ports.ApplicationStore
	artifacts ports.ArtifactStore
	ids       application.IdentifierScheme
	notifier  ports.Notifier
	inspector ports.DocumentInspector
	maxUpload int64
	now       func() time.Time
}

type Options struct {
	MaxUploadBytes int64
	Notifier       ports.Notifier
	Inspector      ports.DocumentInspector
}

func NewService(store ports.ApplicationStore, artifacts ports.ArtifactStore, ids application.IdentifierScheme, opts Options) *Service {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Service{
		store:     store,
		artifacts: artifacts,
		ids:       ids,
		notifier:  opts.Notifier,
		inspector: opts.Inspector,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

func (s *Service) MaxUploadBytes() int64 { return s.maxUpload }

type SubmitInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	JobTitle    string
	CoverLetter string
	CVFilename  string
	CV          io.Reader
}

type SubmitResult struct {
	ArtifactName string
	Record       application.Record
}

// ValidationError carries the user-facing reason. It matches
// application.ErrValidation with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == application.ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Submit validates and stores one application. The duplicate check and the
// append are separate loads of the store, so two simultaneous submissions
// of the same pair can both pass the check.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, errs.Wrap(err, "check context")
	}

	normalized, err := s.validate(input)
	if err != nil {
		return SubmitResult{}, err
	}

	logCtx := logging.WithAttrs(
		ctx,
		slog.String("component", "intake.service"),
		slog.String("job_title", normalized.JobTitle),
	)

	for _, existing := range s.store.Load(ctx) {
		if existing.SameApplicant(normalized.Email, normalized.JobTitle) {
			logging.Info(logCtx, "duplicate submission rejected", slog.String("existing", existing.ArtifactName))
			return SubmitResult{}, errs.Wrapf(application.ErrDuplicateSubmission, "%s for %q", normalized.Email, normalized.JobTitle)
		}
	}

	data, err := io.ReadAll(io.LimitReader(input.CV, s.maxUpload+1))
	if err != nil {
		return SubmitResult{}, errs.Wrap(err, "read cv upload")
	}
	if int64(len(data)) > s.maxUpload {
		return SubmitResult{}, invalid("CV file exceeds the %d MB limit", s.maxUpload>>20)
	}
	if len(data) == 0 {
		return SubmitResult{}, invalid("CV file is empty")
	}

	now := s.now().UTC()
	artifactName := s.ids.NewArtifactName(now, input.CVFilename)
	if err := s.artifacts.Put(ctx, artifactName, bytes.NewReader(data)); err != nil {
		logging.Error(logCtx, "store cv failed", slog.String("artifact_name", artifactName), slog.Any("err", errs.Loggable(err)))
		return SubmitResult{}, errs.Wrap(err, "store cv")
	}

	record := application.Record{
		ArtifactName: artifactName,
		FullName:     normalized.FullName,
		Email:        normalized.Email,
		PhoneNumber:  normalized.PhoneNumber,
		JobTitle:     normalized.JobTitle,
		CoverLetter:  normalized.CoverLetter,
		SubmittedAt:  now,
		Status:       application.StatusNew,
		CVPageCount:  s.pageCountBestEffort(logCtx, artifactName, data),
	}

	records := s.store.Load(ctx)
	records = append(records, record)
	if !s.store.Save(ctx, records) {
		logging.Error(logCtx, "application not persisted", slog.String("artifact_name", artifactName))
		return SubmitResult{}, errs.Wrapf(application.ErrPersistenceFailure, "append %s", artifactName)
	}

	logging.Info(logCtx, "application received", slog.String("artifact_name", artifactName))
	s.notifyBestEffort(logCtx, record)

	return SubmitResult{ArtifactName: artifactName, Record: record}, nil
}

func (s *Service) validate(input SubmitInput) (SubmitInput, error) {
	out := SubmitInput{
		FullName:    strings.TrimSpace(input.FullName),
		Email:       strings.TrimSpace(input.Email),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		JobTitle:    strings.TrimSpace(input.JobTitle),
		CoverLetter: strings.TrimSpace(input.CoverLetter),
		CVFilename:  strings.TrimSpace(input.CVFilename),
		CV:          input.CV,
	}

	var missing []string
	if out.FullName == "" {
		missing = append(missing, "full_name")
	}
	if out.Email == "" {
		missing = append(missing, "email")
	}
	if out.JobTitle == "" {
		missing = append(missing, "job_title")
	}
	if len(missing) > 0 {
		return SubmitInput{}, invalid("Missing required fields: %s", strings.Join(missing, ", "))
	}
	if !plausibleEmail(out.Email) {
		return SubmitInput{}, invalid("Invalid email address")
	}
	if out.CV == nil || out.CVFilename == "" {
		return SubmitInput{}, invalid("No CV file uploaded")
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(out.CVFilename))]; !ok {
		return SubmitInput{}, invalid("Invalid file type. Allowed types: pdf, doc, docx")
	}
	return out, nil
}

func plausibleEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@") && !strings.ContainsAny(email, " \t\r\n")
}

func (s *Service) pageCountBestEffort(ctx context.Context, artifactName string, data []byte) int {
	if s.inspector == nil || !strings.EqualFold(filepath.Ext(artifactName), ".pdf") {
		return 0
	}
	count, err := s.inspector.PageCount(ctx, artifactName, data)
	if err != nil {
		logging.Warn(ctx, "read cv page count failed", slog.String("artifact_name", artifactName), slog.Any("err", errs.Loggable(err)))
		return 0
	}
	return count
}

func (s *Service) notifyBestEffort(ctx context.Context, record application.Record) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ApplicationReceived(ctx, record); err != nil {
		logging.Warn(ctx, "application notification failed", slog.String("artifact_name", record.ArtifactName), slog.Any("err", errs.Loggable(err)))
	}
}
