package modify

import (
	"fmt"

	"github.com/jonathan/resume-editor/internal/document"
	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/types"
)

// Apply returns a new document with op applied. doc is never modified.
func Apply(doc any, op types.Operation) (any, error) {
	if !op.Operation.Valid() {
		return nil, &ValidationError{
			Operation: op.Operation,
			FieldPath: op.FieldPath,
			Message:   fmt.Sprintf("unknown operation %q", op.Operation),
		}
	}
	segments, err := fieldpath.Parse(op.FieldPath)
	if err != nil {
		return nil, &ValidationError{Operation: op.Operation, FieldPath: op.FieldPath, Message: "invalid field path", Cause: err}
	}
	if op.Operation.RequiresValue() && op.NewValue == nil {
		return nil, &ValidationError{Operation: op.Operation, FieldPath: op.FieldPath, Message: "new_value is required"}
	}

	switch op.Operation {
	case types.OpReplace:
		return wrap(op)(fieldpath.Set(doc, op.FieldPath, op.NewValue))
	case types.OpPrefix, types.OpSuffix:
		return applyConcat(doc, op, segments)
	case types.OpAppend:
		return applyAppend(doc, op, segments)
	case types.OpInsert:
		return applyInsert(doc, op, segments)
	default:
		return wrap(op)(fieldpath.Remove(doc, op.FieldPath))
	}
}

// ApplyMany applies ops left to right. The first failure aborts the whole
// batch and no partially edited document is returned.
func ApplyMany(doc any, ops []types.Operation) (any, error) {
	current := doc
	for i, op := range ops {
		next, err := Apply(current, op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		current = next
	}
	if len(ops) == 0 {
		return document.Clone(doc), nil
	}
	return current, nil
}

func applyConcat(doc any, op types.Operation, segments []fieldpath.Segment) (any, error) {
	addition, ok := op.NewValue.(string)
	if !ok {
		return nil, &ValidationError{
			Operation: op.Operation,
			FieldPath: op.FieldPath,
			Expected:  "string",
			Actual:    document.TypeName(op.NewValue),
			Message:   "new_value must be a string",
		}
	}

	existing := ""
	if current, found := fieldpath.GetSegments(doc, segments); found && current != nil {
		s, ok := current.(string)
		if !ok {
			return nil, typeMismatch(op, "string", document.TypeName(current))
		}
		existing = s
	}

	updated := existing + addition
	if op.Operation == types.OpPrefix {
		updated = addition + existing
	}
	return wrap(op)(fieldpath.Set(doc, op.FieldPath, updated))
}

func applyAppend(doc any, op types.Operation, segments []fieldpath.Segment) (any, error) {
	current, found := fieldpath.GetSegments(doc, segments)
	if !found || current == nil {
		return wrap(op)(fieldpath.Set(doc, op.FieldPath, []any{op.NewValue}))
	}
	if _, ok := current.([]any); !ok {
		return nil, typeMismatch(op, "array", document.TypeName(current))
	}
	return wrap(op)(fieldpath.Set(doc, op.FieldPath+"[-]", op.NewValue))
}

func applyInsert(doc any, op types.Operation, segments []fieldpath.Segment) (any, error) {
	last := segments[len(segments)-1]
	if last.Kind != fieldpath.IndexSegment && last.Kind != fieldpath.LatestSegment {
		return nil, &ValidationError{
			Operation: op.Operation,
			FieldPath: op.FieldPath,
			Message:   "insert requires a numeric or [latest] final segment",
		}
	}

	parentSegments := segments[:len(segments)-1]
	parent := doc
	if len(parentSegments) > 0 {
		var found bool
		parent, found = fieldpath.GetSegments(doc, parentSegments)
		if !found {
			parent = nil
		}
	}
	list, ok := parent.([]any)
	if !ok {
		return nil, typeMismatch(op, "array", document.TypeName(parent))
	}

	at := 0
	if last.Kind == fieldpath.IndexSegment {
		at = last.Index
	}
	if at < 0 || at > len(list) {
		return nil, &ValidationError{
			Operation: op.Operation,
			FieldPath: op.FieldPath,
			Message:   fmt.Sprintf("index %d outside [0, %d]", at, len(list)),
		}
	}

	spliced := make([]any, 0, len(list)+1)
	spliced = append(spliced, list[:at]...)
	spliced = append(spliced, op.NewValue)
	spliced = append(spliced, list[at:]...)

	if len(parentSegments) == 0 {
		return document.Clone(spliced), nil
	}
	return wrap(op)(fieldpath.Set(doc, fieldpath.Join(parentSegments), spliced))
}

// wrap converts resolver failures into validation errors for op
func wrap(op types.Operation) func(any, error) (any, error) {
	return func(doc any, err error) (any, error) {
		if err != nil {
			return nil, &ValidationError{Operation: op.Operation, FieldPath: op.FieldPath, Message: "cannot write path", Cause: err}
		}
		return doc, nil
	}
}
