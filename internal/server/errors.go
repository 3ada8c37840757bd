// Package server provides the HTTP API for the résumé chat editor.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/theme"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates a collaborator the route needs is not configured
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured on this server", e.Feature)
}

// ErrNotFound indicates the requested resource does not exist or belongs to
// another user
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		unavailable *ErrUnavailable
		notFound    *ErrNotFound
		modifyErr   *modify.ValidationError
		pathErr     *fieldpath.PathError
		colorErr    *theme.ColorError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &modifyErr), errors.As(err, &pathErr),
		errors.As(err, &colorErr), errors.Is(err, intent.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrVersionConflict):
		return http.StatusConflict
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
