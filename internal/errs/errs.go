// Package errs holds the domain error kinds shared by every service and their
// mapping onto HTTP responses.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrQuizUnpublished    = errors.New("quiz is not published")
	ErrMaxAttemptsReached = errors.New("maximum number of attempts reached")
	ErrIncompleteAnswers  = errors.New("please answer all questions")
	ErrAlreadyCompleted   = errors.New("attempt already completed")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
)

// IncompleteAnswersError lists the question ids a submission left unanswered.
type IncompleteAnswersError struct {
	Missing []uint
}

func (e *IncompleteAnswersError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: missing questions %s", ErrIncompleteAnswers, strings.Join(ids, ", "))
}

func (e *IncompleteAnswersError) Is(target error) bool {
	return target == ErrIncompleteAnswers
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Status maps an error to the HTTP status code it should be reported with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrNotEnrolled),
		errors.Is(err, ErrQuizUnpublished):
		return http.StatusForbidden
	case errors.Is(err, ErrMaxAttemptsReached), errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrIncompleteAnswers), errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Code is a stable machine-readable name for the error kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrQuizUnpublished):
		return "quiz_unpublished"
	case errors.Is(err, ErrMaxAttemptsReached):
		return "max_attempts_reached"
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrIncompleteAnswers):
		return "incomplete_answers"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	}
	return "internal"
}

type response struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Missing []uint            `json:"missing_questions,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Write reports err as a JSON body. Internal errors are logged and hidden.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	body := response{Error: err.Error(), Code: Code(err)}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		body.Error = "internal server error"
	}

	var incomplete *IncompleteAnswersError
	if errors.As(err, &incomplete) {
		body.Missing = incomplete.Missing
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		body.Fields = invalid.Fields
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
