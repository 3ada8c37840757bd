package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/resume-editor/internal/db"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/history"
	"github.com/jonathan/resume-editor/internal/intent"
	"github.com/jonathan/resume-editor/internal/modify"
	"github.com/jonathan/resume-editor/internal/theme"
	"github.com/stretchr/testify/assert"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "message", Message: "is required"}
	assert.Equal(t, "validation error: message - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrUnavailable(t *testing.T) {
	err := &ErrUnavailable{Feature: "history"}
	assert.Equal(t, "history is not configured on this server", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"modify validation", &modify.ValidationError{FieldPath: "skills", Message: "type mismatch"}, http.StatusBadRequest},
		{"wrapped modify validation", fmt.Errorf("apply: %w", &modify.ValidationError{}), http.StatusBadRequest},
		{"path error", &fieldpath.PathError{Path: "a[", Message: "unclosed bracket"}, http.StatusBadRequest},
		{"color error", &theme.ColorError{Value: "blurple", Message: "unknown color"}, http.StatusBadRequest},
		{"empty message", intent.ErrEmptyMessage, http.StatusBadRequest},
		{"not found", &ErrNotFound{Resource: "run", ID: "r1"}, http.StatusNotFound},
		{"run not found", fmt.Errorf("delete: %w", db.ErrRunNotFound), http.StatusNotFound},
		{"version conflict", fmt.Errorf("undo: %w", history.ErrVersionConflict), http.StatusConflict},
		{"storage", &history.StorageError{Message: "load", Cause: errors.New("down")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
