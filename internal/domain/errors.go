package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed is returned when a question source could not produce a usable batch.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrGameNotFound is returned when a game has not been initialized.
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("action not allowed in current state")
	// ErrAwaitingQuestions indicates the player reached the end of the buffered questions.
	ErrAwaitingQuestions = errors.New("waiting for more questions")
	// ErrAlreadyAnswered indicates the current question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered indicates the player tried to advance before answering.
	ErrNotAnswered = errors.New("current question not answered")
	// ErrOptionOutOfRange indicates a submitted option index is invalid.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrInvalidDifficulty indicates an unknown difficulty value.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrInvalidQuestion indicates a question record violates its invariants.
	ErrInvalidQuestion = errors.New("invalid question")
)

// GenerationFailed wraps a source failure so callers only need to check ErrGenerationFailed.
func GenerationFailed(cause error) error {
	if cause == nil {
		return ErrGenerationFailed
	}
	if errors.Is(cause, ErrGenerationFailed) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, cause)
}
