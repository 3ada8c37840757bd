// Package fieldpath addresses values inside an untyped document tree.
//
// A path is a sequence of dot-separated keys and bracketed indices, e.g.
// experiences[latest].achievements[-]. Keys may escape "/" as ~1 and "~" as ~0.
package fieldpath

import (
	"strconv"
	"strings"
)

// SegmentKind distinguishes key segments from the index forms
type SegmentKind int

const (
	// KeySegment selects an object property
	KeySegment SegmentKind = iota
	// IndexSegment selects an array element; negative values count from the end
	IndexSegment
	// LatestSegment selects the most recent entry, which is always index 0
	LatestSegment
	// EndSegment is "-": append position for Set, last element for Get and Remove
	EndSegment
)

// Segment is one step of a parsed path
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// IsIndex reports whether the segment addresses an array position
func (s Segment) IsIndex() bool {
	if s.Kind != KeySegment {
		return true
	}
	_, err := strconv.Atoi(s.Key)
	return err == nil && s.Key != "" && s.Key[0] != '-'
}

func (s Segment) String() string {
	switch s.Kind {
	case IndexSegment:
		return "[" + strconv.Itoa(s.Index) + "]"
	case LatestSegment:
		return "[latest]"
	case EndSegment:
		return "[-]"
	}
	return s.Key
}

// Parse splits a path into segments. Paths are re-parsed on every access.
func Parse(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &PathError{Path: path, Message: "path is empty"}
	}

	var segments []Segment
	var key strings.Builder
	flushKey := func() {
		if key.Len() > 0 {
			segments = append(segments, Segment{Kind: KeySegment, Key: unescape(key.String())})
			key.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			if key.Len() == 0 && (i == 0 || path[i-1] != ']') {
				return nil, &PathError{Path: path, Message: "empty key at offset " + strconv.Itoa(i)}
			}
			flushKey()
			if i == len(path)-1 {
				return nil, &PathError{Path: path, Message: "path ends with '.'"}
			}
		case '[':
			flushKey()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, &PathError{Path: path, Message: "unclosed '['"}
			}
			seg, err := parseBracket(path, path[i+1:i+end])
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			i += end
		case ']':
			return nil, &PathError{Path: path, Message: "unexpected ']'"}
		default:
			key.WriteByte(c)
		}
	}
	flushKey()

	if len(segments) == 0 {
		return nil, &PathError{Path: path, Message: "path has no segments"}
	}
	return segments, nil
}

func parseBracket(path, inner string) (Segment, error) {
	inner = strings.TrimSpace(inner)
	switch strings.ToLower(inner) {
	case "":
		return Segment{}, &PathError{Path: path, Message: "empty brackets"}
	case "latest":
		return Segment{Kind: LatestSegment}, nil
	case "-":
		return Segment{Kind: EndSegment}, nil
	}
	if n, err := strconv.Atoi(inner); err == nil {
		return Segment{Kind: IndexSegment, Index: n}, nil
	}
	// Quoted or bare non-numeric keys are allowed inside brackets
	inner = strings.Trim(inner, `"'`)
	return Segment{Kind: KeySegment, Key: unescape(inner)}, nil
}

func unescape(key string) string {
	if !strings.Contains(key, "~") {
		return key
	}
	key = strings.ReplaceAll(key, "~1", "/")
	return strings.ReplaceAll(key, "~0", "~")
}

// Escape encodes a literal key so it survives Parse unchanged
func Escape(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// Join builds a path string from segments
func Join(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		if seg.Kind == KeySegment {
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(Escape(seg.Key))
			continue
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}
