package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies completion failures. Every kind is recoverable from
// the caller's point of view: the agent falls back to heuristics.
type ErrorKind string

const (
	KindRateLimit   ErrorKind = "rate_limit"
	KindTimeout     ErrorKind = "timeout"
	KindMalformed   ErrorKind = "malformed_response"
	KindUnavailable ErrorKind = "unavailable"
)

// Error is returned by every Client in this package
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrNotConfigured is returned by the placeholder client used when no API key is set
var ErrNotConfigured = errors.New("no language model configured")

// Classify maps an arbitrary error from a provider SDK onto an ErrorKind
func Classify(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return KindRateLimit
	}
	if err != nil && strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return KindRateLimit
	}
	return KindUnavailable
}

func wrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Classify(err), Message: message, Cause: err}
}
