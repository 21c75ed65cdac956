package application

import "errors"

var (
	ErrValidation          = errors.New("invalid application")
	ErrDuplicateSubmission = errors.New("application already submitted for this job")
	ErrRecordNotFound      = errors.New("application not found")
	ErrInvalidAction       = errors.New("unknown action")
	ErrPersistenceFailure  = errors.New("application store save failed")
	ErrArtifactNotFound    = errors.New("cv artifact not found")
	ErrNothingToReview     = errors.New("no applications match the filter")
	ErrInvalidStatus       = errors.New("invalid status")
)
