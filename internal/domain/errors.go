package domain

import "errors"

var (
	// ErrNoQuestions is returned when a catalog load resolves zero questions.
	ErrNoQuestions = errors.New("no questions resolved")
	// ErrQuestionNotFound indicates a question ID missing from the catalog.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidDuration is returned when a round is started with a
	// non-positive duration.
	ErrInvalidDuration = errors.New("round duration must be positive")
	// ErrRoundActive is returned when a round is started while one is
	// still running for the same lobby.
	ErrRoundActive = errors.New("round already active")
)
