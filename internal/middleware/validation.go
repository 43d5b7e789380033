package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateQuestion validates a question body. Empty input is allowed: the
// dispatcher answers it with dataset guidance rather than an error.
func ValidateQuestion(question string) error {
	if len(question) > 10000 {
		return errors.New("question exceeds maximum length")
	}
	if !utf8.ValidString(question) {
		return errors.New("question must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateTerm validates a glossary lookup term.
func ValidateTerm(term string) error {
	if len(term) == 0 {
		return errors.New("term cannot be empty")
	}
	if len(term) > 256 {
		return errors.New("term exceeds maximum length")
	}
	if !utf8.ValidString(term) {
		return errors.New("term must be valid UTF-8")
	}
	return nil
}
