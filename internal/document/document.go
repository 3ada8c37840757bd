// Package document provides helpers over the untyped résumé document tree.
// A document is whatever encoding/json produces for an arbitrary value:
// map[string]any, []any, string, float64, bool or nil.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-editor/internal/types"
)

// Decode parses raw JSON into a document tree. Numbers decode as float64.
func Decode(data []byte) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// FromValue converts an arbitrary Go value into a document tree by round-tripping it through JSON
func FromValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, float64, bool, map[string]any, []any:
		return Clone(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return Decode(data)
}

// Clone deep-copies a document tree. The copy costs O(size of v). Values are
// brought into document form on the way: typed string slices and maps become
// []any and map[string]any, and int or int64 become float64, so a cloned value
// compares equal to what Decode would return for its JSON.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

// TypeName returns the JSON type name of v as used in error messages
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, float32, int, int64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any, []string:
		return "array"
	case map[string]any, map[string]string:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Text flattens every string value in the tree into newline-separated plain text.
// Object keys are visited in sorted order so the output is deterministic.
func Text(v any) string {
	var sb strings.Builder
	collectText(v, &sb)
	return strings.TrimSpace(sb.String())
}

func collectText(v any, sb *strings.Builder) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectText(t[k], sb)
		}
	case []any:
		for _, child := range t {
			collectText(child, sb)
		}
	}
}

// ExperienceKey returns the key the document uses for its experience list
func ExperienceKey(doc any) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return "experiences"
	}
	if _, ok := m["experiences"]; ok {
		return "experiences"
	}
	if _, ok := m["experience"]; ok {
		return "experience"
	}
	return "experiences"
}

// Experiences returns the experience entries, or nil when absent
func Experiences(doc any) []any {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := m[ExperienceKey(doc)].([]any)
	return list
}

// Skills returns the technical and soft skill lists. A flat skills array is
// treated as technical.
func Skills(doc any) (technical, soft []string) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, nil
	}
	switch s := m["skills"].(type) {
	case []any:
		return Strings(s), nil
	case map[string]any:
		return Strings(s["technical"]), Strings(s["soft"])
	}
	return nil, nil
}

// Strings returns the string elements of an array value
func Strings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// String returns the string at key in an object value, or ""
func String(v any, key string) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Context summarizes a document for the intent parser
func Context(doc any) *types.IntentContext {
	technical, soft := Skills(doc)
	experiences := Experiences(doc)
	titles := make([]string, 0, len(experiences))
	for _, exp := range experiences {
		titles = append(titles, String(exp, "title"))
	}
	_, flat := skillsValue(doc).([]any)
	return &types.IntentContext{
		ExperienceCount:  len(experiences),
		ExperienceTitles: titles,
		TechnicalSkills:  technical,
		SoftSkills:       soft,
		FlatSkills:       flat,
	}
}

func skillsValue(doc any) any {
	if m, ok := doc.(map[string]any); ok {
		return m["skills"]
	}
	return nil
}
