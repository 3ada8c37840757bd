package modify

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// FromSuggestion converts a scoring suggestion into an operation. Only keyword
// suggestions carry content that can be written without inventing facts; every
// other category returns ErrNotApplicable.
func FromSuggestion(doc any, s types.Suggestion) (types.Operation, error) {
	if s.Category != types.CategoryKeywords {
		return types.Operation{}, fmt.Errorf("%w: category %s", ErrNotApplicable, s.Category)
	}
	keyword := strings.TrimSpace(s.Keyword)
	if keyword == "" {
		return types.Operation{}, fmt.Errorf("%w: keyword suggestion has no keyword", ErrNotApplicable)
	}

	path := "skills.technical"
	if m, ok := doc.(map[string]any); ok {
		if _, flat := m["skills"].([]any); flat {
			path = "skills"
		}
	}
	return types.Operation{Operation: types.OpAppend, FieldPath: path, NewValue: keyword}, nil
}

// ApplySuggestions applies every applicable suggestion and skips the rest
func ApplySuggestions(doc any, suggestions []types.Suggestion) (any, []types.Operation, error) {
	var ops []types.Operation
	for _, s := range suggestions {
		op, err := FromSuggestion(doc, s)
		if err != nil {
			continue
		}
		ops = append(ops, op)
	}
	updated, err := ApplyMany(doc, ops)
	if err != nil {
		return nil, nil, err
	}
	return updated, ops, nil
}
