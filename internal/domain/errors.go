package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors below wrap one of these so callers can
// classify with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrQuestionNotFound indicates a question id is unknown.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrAttemptNotFound covers missing attempts, attempts owned by someone else
	// and attempts that are no longer in progress.
	ErrAttemptNotFound = fmt.Errorf("attempt %w", ErrNotFound)

	// ErrQuizNotAvailable is returned when starting a quiz that is not published
	// or is outside its schedule window.
	ErrQuizNotAvailable = fmt.Errorf("%w: quiz is not available", ErrInvalidState)
	// ErrQuizHasNoQuestions is returned when a quiz without questions is started or published.
	ErrQuizHasNoQuestions = fmt.Errorf("%w: quiz has no questions", ErrInvalidState)
	// ErrAttemptInProgress is returned by stores when an in-progress attempt
	// already exists for the same user and quiz.
	ErrAttemptInProgress = fmt.Errorf("%w: attempt already in progress", ErrInvalidState)
	// ErrLockNotAcquired is returned when a coordination lock stays busy.
	ErrLockNotAcquired = fmt.Errorf("%w: lock not acquired", ErrInvalidState)

	// ErrNoCorrectOption is returned when a question has no option marked correct.
	ErrNoCorrectOption = fmt.Errorf("%w: at least one option must be marked as correct", ErrValidation)
)
