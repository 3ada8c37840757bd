package modify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-editor/internal/fieldpath"
	"github.com/jonathan/resume-editor/internal/types"
)

// Describe builds the human-readable diff for an applied operation
func Describe(before, after any, op types.Operation) types.Diff {
	path := op.FieldPath
	if op.Operation == types.OpAppend {
		path += "[-]"
	}
	prev, _ := fieldpath.Get(before, op.FieldPath)
	next, _ := fieldpath.Get(after, path)
	if op.Operation == types.OpAppend {
		prev = nil
	}
	if op.Operation == types.OpRemove {
		next = nil
	}
	return types.Diff{
		Scope:  ScopeFor(op.FieldPath),
		Before: render(prev),
		After:  render(next),
	}
}

// ScopeFor classifies a field path into a diff scope
func ScopeFor(path string) types.DiffScope {
	segments, err := fieldpath.Parse(path)
	if err != nil || len(segments) == 0 {
		return types.ScopeSection
	}
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "achievements") || strings.Contains(lower, "bullets"):
		return types.ScopeBullet
	case strings.HasPrefix(lower, "theme") || strings.HasPrefix(lower, "style"):
		return types.ScopeStyle
	case strings.HasPrefix(lower, "layout"):
		return types.ScopeLayout
	case len(segments) == 1:
		return types.ScopeSection
	default:
		return types.ScopeParagraph
	}
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}
