package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for status mapping and caller-side policy.
type Kind string

const (
	KindBadRequest             Kind = "bad_request"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindTranslationUnavailable Kind = "translation_unavailable"
	KindLLMUnavailable         Kind = "llm_unavailable"
	KindInsufficientData       Kind = "insufficient_data"
	KindPersistenceFailure     Kind = "persistence_failure"
)

// Error wraps an underlying error with a kind, HTTP status and safe message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Err, target)
}

// New creates an Error with the provided kind, status and message.
func New(kind Kind, status int, message string, err error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

// BadRequest marks malformed or empty caller input. Never retried.
func BadRequest(message string) *Error {
	return New(KindBadRequest, http.StatusBadRequest, message, nil)
}

// Upstream marks a weather/soil provider failure, carrying the provider name.
func Upstream(provider string, err error) *Error {
	return New(KindUpstreamUnavailable, http.StatusBadGateway,
		fmt.Sprintf("upstream %s unavailable", provider), err)
}

// Translation marks a translation backend failure.
func Translation(err error) *Error {
	return New(KindTranslationUnavailable, http.StatusBadGateway, "translation unavailable", err)
}

// LLM marks a chat-completion endpoint failure. The provider's error body, if
// any, travels in err for diagnostics.
func LLM(err error) *Error {
	return New(KindLLMUnavailable, http.StatusBadGateway, "language model unavailable", err)
}

// InsufficientData marks an empty upstream data series.
func InsufficientData(message string) *Error {
	return New(KindInsufficientData, http.StatusBadGateway, message, nil)
}

// Persistence marks a history-store failure. Logged, never user-visible.
func Persistence(err error) *Error {
	return New(KindPersistenceFailure, http.StatusInternalServerError, "history write failed", err)
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// StatusOf maps err to an HTTP status, defaulting to 500 for unclassified errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
