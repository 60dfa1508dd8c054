package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP status codes; every specific error
// below wraps exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// Domain errors.
var (
	ErrExamNotFound       = fmt.Errorf("exam %w", ErrNotFound)
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", ErrNotFound)
	ErrResultNotFound     = fmt.Errorf("result %w", ErrNotFound)

	ErrInvalidStatus    = fmt.Errorf("%w: status must be one of scheduled, delayed, cancelled, completed", ErrInvalidInput)
	ErrInvalidSchedule  = fmt.Errorf("%w: scheduled_at is required, and a new date is required when delaying", ErrInvalidInput)
	ErrInvalidDuration  = fmt.Errorf("%w: duration_minutes must be greater than zero", ErrInvalidInput)
	ErrMissingAnswers   = fmt.Errorf("%w: answers are required", ErrInvalidInput)
	ErrMissingQuestions = fmt.Errorf("%w: questions are required", ErrInvalidInput)

	ErrResultExists = fmt.Errorf("%w: result already submitted for this exam", ErrConflict)
)
