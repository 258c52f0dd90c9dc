package digester

import (
	"errors"
	"fmt"
)

const (
	ErrorUnclassifiedAnswer = "unclassified_answer"
	ErrorContractViolation  = "contract_violation"
	ErrorSession            = "session_error"
)

// ErrUnclassifiedAnswer matches, with errors.Is, answers no handler accepts.
var ErrUnclassifiedAnswer = errors.New("unclassified answer")

// Error is a categorized digest failure for a single answer.
type Error struct {
	Category string
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Category
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets unclassified answers match ErrUnclassifiedAnswer.
func (e *Error) Is(target error) bool {
	return target == ErrUnclassifiedAnswer && e.Category == ErrorUnclassifiedAnswer
}

// NewError creates a categorized digest error.
func NewError(category string, detail string) error {
	return &Error{Category: category, Detail: detail}
}

// CategoryFromError returns the stable category for an error when available.
func CategoryFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Category
	}

	return ""
}
