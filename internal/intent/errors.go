// Package intent turns free-text edit instructions into structured modification intents.
package intent

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is the only failure of the regex parser
var ErrEmptyMessage = errors.New("message is empty")

// ModelError reports an unusable response from the model-backed parser
type ModelError struct {
	Message string
	Cause   error
}

func (e *ModelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("intent model error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("intent model error: %s", e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}
