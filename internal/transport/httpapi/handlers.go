package httpapi

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/usecase/intake"
)

type submitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ArtifactName string `json:"artifact_name,omitempty"`
}

const (
	msgSubmitted   = "Application submitted successfully!"
	msgDuplicate   = "You have already applied for this position."
	msgNotSaved    = "Your application could not be saved. Please try again later."
	msgTooLarge    = "Upload exceeds the maximum allowed size."
	msgInvalidForm = "Invalid form data."
	msgInternal    = "An unexpected error occurred."
)

var cvFields = []string{"cv_upload", "cv"}

func (s *Server) root(c echo.Context) error {
	return c.String(http.StatusOK, "Hello, Bridgee Solutions Backend!")
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) submitApplication(c echo.Context) error {
	ctx := c.Request().Context()

	header, err := cvFile(c)
	if err != nil {
		if tooLarge(err) {
			return c.JSON(http.StatusRequestEntityTooLarge, submitResponse{Message: msgTooLarge})
		}
		return c.JSON(http.StatusBadRequest, submitResponse{Message: msgInvalidForm})
	}

	input := intake.SubmitInput{
		FullName:    c.FormValue("full_name"),
		Email:       c.FormValue("email"),
		PhoneNumber: c.FormValue("phone_number"),
		JobTitle:    c.FormValue("job_title"),
		CoverLetter: c.FormValue("cover_letter"),
	}
	if header != nil {
		file, err := header.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, submitResponse{Message: msgInvalidForm})
		}
		defer file.Close()
		input.CV = file
		input.CVFilename = header.Filename
	}

	result, err := s.intake.Submit(ctx, input)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, submitResponse{
			Success:      true,
			Message:      msgSubmitted,
			ArtifactName: result.ArtifactName,
		})
	case errors.Is(err, application.ErrValidation):
		return c.JSON(http.StatusBadRequest, submitResponse{Message: validationMessage(err)})
	case errors.Is(err, application.ErrDuplicateSubmission):
		return c.JSON(http.StatusConflict, submitResponse{Message: msgDuplicate})
	case errors.Is(err, application.ErrPersistenceFailure):
		return c.JSON(http.StatusInternalServerError, submitResponse{Message: msgNotSaved})
	default:
		logging.Error(s.baseCtx, "submit application failed", slog.Any("err", errs.Loggable(err)))
		return c.JSON(http.StatusInternalServerError, submitResponse{Message: msgInternal})
	}
}

// cvFile returns the uploaded CV, or nil when the form carries none.
func cvFile(c echo.Context) (*multipart.FileHeader, error) {
	for _, field := range cvFields {
		header, err := c.FormFile(field)
		if err == nil {
			return header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, err
		}
	}
	return nil, nil
}

func validationMessage(err error) string {
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.Is(err, echo.ErrStatusRequestEntityTooLarge) || errors.As(err, &maxErr)
}

// handleError renders router and middleware errors in the same JSON shape
// as the handlers.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := msgInternal
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = http.StatusText(code)
		if code == http.StatusRequestEntityTooLarge {
			message = msgTooLarge
		}
	} else {
		logging.Error(s.baseCtx, "unhandled http error", slog.Any("err", errs.Loggable(err)))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, submitResponse{Message: message})
}
