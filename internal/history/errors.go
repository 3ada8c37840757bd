package history

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned when a timeline changed since it was read
var ErrVersionConflict = errors.New("history timeline was modified concurrently")

// StorageError wraps a failure of the underlying repository
type StorageError struct {
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("history storage error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("history storage error: %s", e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
