package fieldpath

import (
	"fmt"
	"strconv"

	"github.com/jonathan/resume-editor/internal/document"
)

// keyAliases lets a path written against one spelling of a section find the
// other when only that one exists in the document.
var keyAliases = map[string]string{
	"experiences":    "experience",
	"experience":     "experiences",
	"projects":       "project",
	"project":        "projects",
	"certifications": "certification",
	"certification":  "certifications",
	"educations":     "education",
	"education":      "educations",
}

func resolveKey(m map[string]any, key string) string {
	if _, ok := m[key]; ok {
		return key
	}
	if alias, ok := keyAliases[key]; ok {
		if _, ok := m[alias]; ok {
			return alias
		}
	}
	return key
}

// index resolves seg against an array of length n. end selects the append
// position (n) when true and the last element (n-1) otherwise.
func index(seg Segment, n int, end bool) int {
	switch seg.Kind {
	case LatestSegment:
		return 0
	case EndSegment:
		if end {
			return n
		}
		return n - 1
	case IndexSegment:
		if seg.Index < 0 {
			return n + seg.Index
		}
		return seg.Index
	default:
		i, _ := strconv.Atoi(seg.Key)
		return i
	}
}

// Get returns the value at path. It reports false for malformed paths and for
// paths that pass through a missing value, null, a scalar or past array bounds.
func Get(doc any, path string) (any, bool) {
	segments, err := Parse(path)
	if err != nil {
		return nil, false
	}
	return GetSegments(doc, segments)
}

// GetSegments is Get over an already parsed path
func GetSegments(doc any, segments []Segment) (any, bool) {
	current := doc
	for _, seg := range segments {
		switch node := current.(type) {
		case map[string]any:
			if seg.Kind != KeySegment {
				return nil, false
			}
			next, ok := node[resolveKey(node, seg.Key)]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			if !seg.IsIndex() {
				return nil, false
			}
			i := index(seg, len(node), false)
			if i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set returns a deep copy of doc with value written at path. Missing
// intermediate containers are created: an array when the following segment is
// an index, an object otherwise. The input document is never modified.
// value is stored in document form (see document.Clone), so an int reads
// back as float64.
func Set(doc any, path string, value any) (any, error) {
	segments, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return setIn(document.Clone(doc), segments, document.Clone(value), path)
}

func setIn(node any, segments []Segment, value any, path string) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	seg, rest := segments[0], segments[1:]

	if list, isList := node.([]any); isList || (node == nil && seg.IsIndex()) {
		if !seg.IsIndex() {
			return nil, &PathError{Path: path, Message: fmt.Sprintf("cannot use key %q on an array", seg.Key)}
		}
		i := index(seg, len(list), true)
		if i < 0 {
			return nil, &PathError{Path: path, Message: fmt.Sprintf("index %s out of range for array of length %d", seg, len(list))}
		}
		for len(list) <= i {
			list = append(list, nil)
		}
		child, err := setIn(list[i], rest, value, path)
		if err != nil {
			return nil, err
		}
		list[i] = child
		return list, nil
	}

	m, isMap := node.(map[string]any)
	if node == nil {
		m, isMap = map[string]any{}, true
	}
	if !isMap || seg.Kind != KeySegment {
		return nil, &PathError{Path: path, Message: fmt.Sprintf("cannot descend into %s at %s", document.TypeName(node), seg)}
	}
	key := resolveKey(m, seg.Key)
	child, err := setIn(m[key], rest, value, path)
	if err != nil {
		return nil, err
	}
	m[key] = child
	return m, nil
}

// Remove returns a deep copy of doc without the value at path. Removing a
// missing key or an out-of-range index is a no-op.
func Remove(doc any, path string) (any, error) {
	segments, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return removeIn(document.Clone(doc), segments), nil
}

func removeIn(node any, segments []Segment) any {
	seg, rest := segments[0], segments[1:]
	switch t := node.(type) {
	case map[string]any:
		if seg.Kind != KeySegment {
			return t
		}
		key := resolveKey(t, seg.Key)
		child, ok := t[key]
		if !ok {
			return t
		}
		if len(rest) == 0 {
			delete(t, key)
		} else {
			t[key] = removeIn(child, rest)
		}
		return t
	case []any:
		if !seg.IsIndex() {
			return t
		}
		i := index(seg, len(t), false)
		if i < 0 || i >= len(t) {
			return t
		}
		if len(rest) == 0 {
			return append(t[:i], t[i+1:]...)
		}
		t[i] = removeIn(t[i], rest)
		return t
	default:
		return node
	}
}
