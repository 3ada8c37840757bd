// Package modify applies edit operations to résumé documents without mutating them.
package modify

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-editor/internal/types"
)

// ErrNotApplicable is returned when a suggestion has no direct edit form
var ErrNotApplicable = errors.New("suggestion cannot be applied as an edit")

// ValidationError reports an operation that cannot be applied to the document
type ValidationError struct {
	Operation types.OperationType
	FieldPath string
	Expected  string
	Actual    string
	Message   string
	Cause     error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error: %s on %q: %s", e.Operation, e.FieldPath, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func typeMismatch(op types.Operation, expected, actual string) *ValidationError {
	return &ValidationError{
		Operation: op.Operation,
		FieldPath: op.FieldPath,
		Expected:  expected,
		Actual:    actual,
		Message:   fmt.Sprintf("expected %s, found %s", expected, actual),
	}
}
