package service

import "errors"

// Sentinel errors classifying operation failures. Handlers map these onto
// HTTP statuses; everything else is a server error.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidInput wraps a human-readable message with the invalid-input
// classification.
func InvalidInput(msg string) error {
	return &classifiedError{class: ErrInvalidInput, msg: msg}
}

// NotFound wraps a human-readable message with the not-found
// classification.
func NotFound(msg string) error {
	return &classifiedError{class: ErrNotFound, msg: msg}
}

type classifiedError struct {
	class error
	msg   string
}

func (e *classifiedError) Error() string { return e.msg }
func (e *classifiedError) Unwrap() error { return e.class }
