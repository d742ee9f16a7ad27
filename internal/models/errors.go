package models

import (
	"errors"
	"fmt"
)

// Error variables for better error handling and testability
var (
	ErrInvalidStage     = errors.New("invalid conversation stage")
	ErrUnknownField     = errors.New("unknown attribute field")
	ErrEmptyUtterance   = errors.New("utterance cannot be empty")
	ErrUtteranceTooLong = errors.New("utterance exceeds maximum length")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrSessionNotFound  = errors.New("session not found")
)

// InvalidTransitionError reports an attempted stage transition that is not an
// edge of the stage graph. The caller must not apply the stage change.
type InvalidTransitionError struct {
	From Stage
	To   Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid stage transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
