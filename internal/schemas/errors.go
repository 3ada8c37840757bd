// Package schemas validates JSON values against the embedded schemas and
// provides the safe-parse layer that substitutes defaults for invalid values.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// rootField names the value itself in a FieldError
const rootField = "(root)"

// FieldError is one violation at a dotted field path
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation of one value against a schema, or
// against its struct tags when Schema is empty
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	if e.Schema == "" {
		return "invalid value: " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("invalid %s: %s", e.Schema, strings.Join(parts, "; "))
}

func rootError(schema, message string) *ValidationError {
	return &ValidationError{Schema: schema, Errors: []FieldError{{Field: rootField, Message: message}}}
}

// SchemaLoadError means an embedded schema is missing or does not compile
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func resultError(schema string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	out := &ValidationError{Schema: schema, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" || field == "(root)" {
			field = rootField
		}
		out.Errors = append(out.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return out
}
