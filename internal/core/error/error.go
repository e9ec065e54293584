package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// SQLErrorMessage describes relational store failures.
	SQLErrorMessage = "database operation failed"
	// ModelErrorMessage describes language-model transport failures.
	ModelErrorMessage = "language model request failed"
	// TranscriptionErrorMessage describes transcription failures.
	TranscriptionErrorMessage = "audio transcription failed"
)

var (
	// ErrSessionNotFound is returned by repositories when no session exists for an id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrVersionConflict is returned when a session was modified by a concurrent turn.
	ErrVersionConflict = errors.New("session was modified concurrently")
	// ErrEmptyInput is returned when a turn carries no user text.
	ErrEmptyInput = errors.New("user text is empty")
	// ErrIncompleteCV is returned when a record is too sparse to refine.
	ErrIncompleteCV = errors.New("cv is incomplete: at least a name is required")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapModel marks err as a language-model transport failure.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ModelErrorMessage)
}

// WrapTranscription marks err as a transcription failure.
func WrapTranscription(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, TranscriptionErrorMessage)
}

// WrapSQL maps relational store errors, keeping not-found and conflict sentinels visible.
func WrapSQL(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return New(err, http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrVersionConflict):
		return New(err, http.StatusConflict, ErrVersionConflict.Error())
	}
	return New(err, http.StatusBadGateway, SQLErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500 when none is attached.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrIncompleteCV):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// MessageOf returns a caller-safe message for err.
func MessageOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	for _, sentinel := range []error{ErrSessionNotFound, ErrVersionConflict, ErrEmptyInput, ErrIncompleteCV} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return SystemErrorMessage
}
